package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// GameGeneratedEvent - событие об успешной генерации игры. Публикуется
// best-effort: доставка не влияет на результат пайплайна.
type GameGeneratedEvent struct {
	GameID    int64     `json:"gameId"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Genre     string    `json:"genre"`
	Degraded  bool      `json:"degraded"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventPublisher defines the interface for publishing game lifecycle events.
type EventPublisher interface {
	PublishGameGenerated(ctx context.Context, event GameGeneratedEvent) error
}

var _ EventPublisher = (*rabbitMQPublisher)(nil)

// rabbitMQPublisher implements EventPublisher for RabbitMQ.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublisher creates a publisher for the specified queue.
// Объявляет очередь сам: система устойчива к порядку запуска сервисов.
func NewRabbitMQPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: не удалось открыть канал: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("event publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("Event publisher initialized", zap.String("queue", queueName))
	return &rabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("EventPublisher"),
	}, nil
}

// PublishGameGenerated publishes a game.generated event.
func (p *rabbitMQPublisher) PublishGameGenerated(ctx context.Context, event GameGeneratedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Ошибка сериализации GameGeneratedEvent",
			zap.Int64("gameID", event.GameID), zap.String("userID", event.UserID), zap.Error(err))
		return fmt.Errorf("ошибка сериализации события генерации игры: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Ошибка публикации GameGeneratedEvent",
			zap.Int64("gameID", event.GameID), zap.String("userID", event.UserID), zap.Error(err))
		return fmt.Errorf("ошибка публикации события генерации игры: %w", err)
	}
	return nil
}
