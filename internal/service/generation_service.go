package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mystery-server/internal/messaging"
	"mystery-server/internal/model"
	"mystery-server/internal/repository"
	"mystery-server/pkg/ai"
)

// GenerationCost - стоимость одной генерации в кредитах.
const GenerationCost = 1

const mysterySystemPrompt = "You are an experienced mystery writer who designs " +
	"interactive detective games. Follow the instructions in the user message " +
	"exactly and respond with JSON only."

// GenerationService runs the full pipeline: validate the brief, debit
// credits, generate and parse the narrative, best-effort generate a cover
// image, persist the game.
type GenerationService interface {
	GenerateGame(ctx context.Context, userID string, brief model.GameBrief) (*model.GenerationResult, error)
}

var _ GenerationService = (*generationServiceImpl)(nil)

type generationServiceImpl struct {
	users         repository.UserRepository
	games         repository.GameRepository
	locker        repository.GenerationLocker
	aiClient      ai.Client
	parser        *ai.Parser
	promptBuilder *PromptBuilder
	imageClient   ImageClient
	publisher     messaging.EventPublisher
	logger        *zap.Logger
}

// NewGenerationService создает новый сервис генерации игр.
func NewGenerationService(
	users repository.UserRepository,
	games repository.GameRepository,
	locker repository.GenerationLocker,
	aiClient ai.Client,
	parser *ai.Parser,
	promptBuilder *PromptBuilder,
	imageClient ImageClient,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) GenerationService {
	return &generationServiceImpl{
		users:         users,
		games:         games,
		locker:        locker,
		aiClient:      aiClient,
		parser:        parser,
		promptBuilder: promptBuilder,
		imageClient:   imageClient,
		publisher:     publisher,
		logger:        logger.Named("GenerationService"),
	}
}

// GenerateGame - основной сценарий. Кредит списывается до обращения к
// провайдеру; при фатальном отказе (текст, персистентность) выполняется
// компенсирующий возврат. Сбой парсинга и картинки не фатален: игра
// сохраняется с флагом degraded / без обложки.
func (s *generationServiceImpl) GenerateGame(ctx context.Context, userID string, brief model.GameBrief) (*model.GenerationResult, error) {
	log := s.logger.With(zap.String("userID", userID), zap.String("title", brief.Title))

	if err := validateBrief(brief); err != nil {
		return nil, err
	}

	acquired, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, model.ErrGenerationInProgress
	}
	defer s.locker.Release(ctx, userID)

	creditsRemaining, err := s.users.DebitCredits(ctx, userID, GenerationCost)
	if err != nil {
		return nil, err
	}
	log.Info("Credits debited", zap.Int("cost", GenerationCost), zap.Int("remaining", creditsRemaining))

	prompt := s.promptBuilder.Build(brief)

	rawText, usage, err := s.aiClient.GenerateText(ctx, userID, mysterySystemPrompt, prompt)
	if err != nil {
		log.Error("Text generation failed, refunding credits", zap.Error(err))
		s.refund(ctx, userID, log)
		return nil, fmt.Errorf("%w: %v", model.ErrAIGenerationFailed, err)
	}
	log.Info("Narrative text generated",
		zap.Int("length", len(rawText)), zap.Int("totalTokens", usage.TotalTokens))

	narrative, degraded := s.parser.ParseNarrative(rawText)
	if degraded {
		log.Warn("Narrative parsing degraded, persisting empty content")
	}

	imagePrompt := buildImagePrompt(brief, narrative, degraded)

	game := &model.Game{
		UserID:          userID,
		Title:           brief.Title,
		Genre:           brief.Genre,
		Tone:            brief.Tone,
		PlotSeed:        brief.PlotSeed,
		Difficulty:      brief.Difficulty,
		ImagePrompt:     imagePrompt,
		Images:          []string{},
		MainCharacters:  brief.MainCharacters,
		Premise:         narrative.Premise,
		Setting:         narrative.Setting,
		Chapters:        narrative.Chapters,
		PossibleEndings: narrative.PossibleEndings,
		Status:          model.GameStatusDraft,
		Degraded:        degraded,
	}

	// Обложка - best effort. Любой отказ здесь не трогает результат.
	if image, imgErr := s.imageClient.Generate(ctx, imagePrompt); imgErr != nil {
		log.Warn("Cover image generation failed, continuing without image", zap.Error(imgErr))
	} else {
		game.GeneratedImageURL = image.URL
		if image.Base64 != "" {
			game.Images = []string{image.Base64}
		}
	}

	if err := s.games.Create(ctx, game); err != nil {
		log.Error("Game persistence failed, refunding credits", zap.Error(err))
		s.refund(ctx, userID, log)
		return nil, fmt.Errorf("%w: %v", model.ErrPersistenceFailed, err)
	}

	if s.publisher != nil {
		event := messaging.GameGeneratedEvent{
			GameID:    game.ID,
			UserID:    userID,
			Title:     game.Title,
			Genre:     game.Genre,
			Degraded:  degraded,
			CreatedAt: game.CreatedAt,
		}
		if pubErr := s.publisher.PublishGameGenerated(ctx, event); pubErr != nil {
			log.Warn("Failed to publish game generated event", zap.Error(pubErr))
		}
	}

	log.Info("Game generation finished",
		zap.Int64("gameID", game.ID),
		zap.Bool("degraded", degraded),
		zap.Bool("hasImage", game.GeneratedImageURL != ""))

	return &model.GenerationResult{
		Game:             game,
		Degraded:         degraded,
		CreditsRemaining: creditsRemaining,
	}, nil
}

// refund компенсирует списанный кредит при фатальном отказе пайплайна.
// Сбой возврата не превращаем в ошибку запроса: пользователь уже получил
// отказ, недоначисление видно по логам и метрикам как ErrLedgerUpdateFailed.
func (s *generationServiceImpl) refund(ctx context.Context, userID string, log *zap.Logger) {
	if _, err := s.users.AddCredits(ctx, userID, GenerationCost); err != nil {
		log.Error("CRITICAL: failed to refund credits after pipeline failure",
			zap.Int("amount", GenerationCost),
			zap.Error(fmt.Errorf("%w: %v", model.ErrLedgerUpdateFailed, err)))
	}
}

func validateBrief(brief model.GameBrief) error {
	if strings.TrimSpace(brief.Title) == "" {
		return fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if strings.TrimSpace(brief.Genre) == "" {
		return fmt.Errorf("%w: genre is required", model.ErrValidation)
	}
	if strings.TrimSpace(brief.Tone) == "" {
		return fmt.Errorf("%w: tone is required", model.ErrValidation)
	}
	if strings.TrimSpace(brief.PlotSeed) == "" {
		return fmt.Errorf("%w: plotSeed is required", model.ErrValidation)
	}
	return nil
}

// buildImagePrompt собирает промпт обложки из нарратива; при деградации
// парсинга откатывается к данным брифа.
func buildImagePrompt(brief model.GameBrief, narrative *model.GeneratedNarrative, degraded bool) string {
	tone := strings.ToLower(orUnknown(brief.Tone))
	genre := strings.ToLower(orUnknown(brief.Genre))

	if degraded || narrative.Premise == "" {
		return fmt.Sprintf("A %s %s detective mystery scene. %s. Atmospheric, cinematic, detailed, mysterious.",
			tone, genre, truncate(brief.PlotSeed, 200))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "A %s %s detective mystery scene. %s.", tone, genre, truncate(narrative.Premise, 200))
	if narrative.Setting.Location != "" {
		fmt.Fprintf(&sb, " Location: %s.", narrative.Setting.Location)
	}
	if narrative.Setting.Description != "" {
		fmt.Fprintf(&sb, " %s.", truncate(narrative.Setting.Description, 150))
	}
	sb.WriteString(" Atmospheric, cinematic, detailed, mysterious, detective story aesthetic.")
	return sb.String()
}

// truncate режет по рунам: байтовый срез мог бы разорвать многобайтовый
// символ на границе.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
