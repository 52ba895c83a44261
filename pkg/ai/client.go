package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ErrAIGenerationFailed - ошибка при генерации текста AI
var ErrAIGenerationFailed = errors.New("ошибка генерации текста AI")

// UsageInfo содержит информацию об использовании токенов
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client интерфейс для взаимодействия с AI API
type Client interface {
	// GenerateText генерирует текст на основе системного промта и ввода пользователя.
	// Возвращает сгенерированный текст, информацию об использовании и ошибку.
	GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string) (string, UsageInfo, error)
}

// Config содержит конфигурацию для клиента нейросети
type Config struct {
	ClientType string
	APIKey     string
	Model      string
	BaseURL    string
	// Timeout bounds a single attempt; MaxAttempts bounds the whole call.
	Timeout        time.Duration
	MaxAttempts    int
	BaseRetryDelay time.Duration
}

// New создает AI клиент в зависимости от конфигурации
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("не указан API ключ для AI провайдера")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = time.Second
	}

	switch strings.ToLower(cfg.ClientType) {
	case "gemini":
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("ошибка создания клиента Gemini: %w", err)
		}
		logger.Info("Gemini клиент создан", zap.String("model", cfg.Model))
		return &geminiClient{
			client: client,
			cfg:    cfg,
			logger: logger.Named("GeminiAI"),
		}, nil
	case "openai":
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = cfg.BaseURL
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		logger.Info("OpenAI клиент создан",
			zap.String("baseURL", openaiConfig.BaseURL), zap.String("model", cfg.Model))
		return &openAIClient{
			client: openaigo.NewClientWithConfig(openaiConfig),
			cfg:    cfg,
			logger: logger.Named("OpenAI"),
		}, nil
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.ClientType)
	}
}

// retryDelay grows linearly with the attempt number.
func retryDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

// estimateTokens приблизительно считает токены, когда провайдер не вернул usage.
func estimateTokens(texts ...string) int {
	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0
	}
	total := 0
	for _, t := range texts {
		total += len(tke.Encode(t, nil, nil))
	}
	return total
}

// --- Gemini Client Implementation ---

type geminiClient struct {
	client *genai.Client
	cfg    Config
	logger *zap.Logger
}

func (c *geminiClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string) (string, UsageInfo, error) {
	usage := UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error", "user_id": userID}).Inc()
		return "", usage, fmt.Errorf("%w: системный промт пуст", ErrAIGenerationFailed)
	}

	model := c.client.GenerativeModel(c.cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		text, u, err := c.generateOnce(ctx, model, userID, userInput)
		if err == nil {
			return text, u, nil
		}
		lastErr = err
		c.logger.Warn("Gemini attempt failed",
			zap.Int("attempt", attempt), zap.String("userID", userID), zap.Error(err))
		if attempt < c.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, ctx.Err())
			case <-time.After(retryDelay(c.cfg.BaseRetryDelay, attempt)):
			}
		}
	}
	return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, lastErr)
}

func (c *geminiClient) generateOnce(ctx context.Context, model *genai.GenerativeModel, userID, userInput string) (string, UsageInfo, error) {
	usage := UsageInfo{}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	iter := model.GenerateContentStream(attemptCtx, genai.Text(userInput))

	var sb strings.Builder
	var meta *genai.UsageMetadata
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error", "user_id": userID}).Inc()
			return "", usage, fmt.Errorf("ошибка чтения стрима Gemini: %w", err)
		}
		if resp.UsageMetadata != nil {
			meta = resp.UsageMetadata
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				if txt, ok := part.(genai.Text); ok {
					sb.WriteString(string(txt))
				}
			}
		}
	}

	duration := time.Since(startTime)
	generatedText := sb.String()
	if generatedText == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error_empty_response", "user_id": userID}).Inc()
		return "", usage, errors.New("получен пустой ответ от Gemini")
	}

	if meta != nil {
		usage.PromptTokens = int(meta.PromptTokenCount)
		usage.CompletionTokens = int(meta.CandidatesTokenCount)
		usage.TotalTokens = int(meta.TotalTokenCount)
	} else {
		usage.CompletionTokens = estimateTokens(generatedText)
		usage.PromptTokens = estimateTokens(userInput)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "success", "user_id": userID}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(duration.Seconds())
	aiPromptTokens.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(float64(usage.CompletionTokens))
	aiTotalTokens.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(float64(usage.TotalTokens))

	c.logger.Info("Ответ от Gemini получен",
		zap.Duration("duration", duration),
		zap.Int("length", len(generatedText)),
		zap.Int("totalTokens", usage.TotalTokens),
		zap.String("userID", userID))

	return generatedText, usage, nil
}

// --- OpenAI Client Implementation ---

type openAIClient struct {
	client *openaigo.Client
	cfg    Config
	logger *zap.Logger
}

func (c *openAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string) (string, UsageInfo, error) {
	usage := UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error", "user_id": userID}).Inc()
		return "", usage, fmt.Errorf("%w: системный промт пуст", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)

		startTime := time.Now()
		resp, err := c.client.CreateChatCompletion(attemptCtx, openaigo.ChatCompletionRequest{
			Model:       c.cfg.Model,
			Messages:    messages,
			Temperature: 0.7,
			TopP:        0.95,
		})
		cancel()
		duration := time.Since(startTime)

		if err != nil {
			lastErr = err
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error", "user_id": userID}).Inc()
			c.logger.Warn("OpenAI attempt failed",
				zap.Int("attempt", attempt), zap.Duration("duration", duration),
				zap.String("userID", userID), zap.Error(err))
		} else if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = errors.New("получен пустой ответ")
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error_empty_response", "user_id": userID}).Inc()
			c.logger.Warn("OpenAI вернул пустой ответ",
				zap.Int("attempt", attempt), zap.String("userID", userID))
		} else {
			generatedText := resp.Choices[0].Message.Content

			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "success", "user_id": userID}).Inc()
			aiRequestDuration.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(duration.Seconds())

			if resp.Usage.TotalTokens > 0 {
				usage.PromptTokens = resp.Usage.PromptTokens
				usage.CompletionTokens = resp.Usage.CompletionTokens
				usage.TotalTokens = resp.Usage.TotalTokens
			} else {
				usage.PromptTokens = estimateTokens(systemPrompt, userInput)
				usage.CompletionTokens = estimateTokens(generatedText)
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
			}
			aiPromptTokens.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(float64(usage.PromptTokens))
			aiCompletionTokens.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(float64(usage.CompletionTokens))
			aiTotalTokens.With(prometheus.Labels{"model": c.cfg.Model, "user_id": userID}).Observe(float64(usage.TotalTokens))

			c.logger.Info("Ответ от AI API получен",
				zap.Duration("duration", duration),
				zap.Int("length", len(generatedText)),
				zap.Int("totalTokens", usage.TotalTokens),
				zap.String("userID", userID))
			return generatedText, usage, nil
		}

		if attempt < c.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, ctx.Err())
			case <-time.After(retryDelay(c.cfg.BaseRetryDelay, attempt)):
			}
		}
	}

	return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, lastErr)
}
