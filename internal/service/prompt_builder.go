package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mystery-server/internal/model"
)

const createGamePromptFile = "create_game.md"

// PromptBuilder подставляет данные брифа в текстовый шаблон промпта.
// Шаблон читается один раз при создании.
type PromptBuilder struct {
	template string
	logger   *zap.Logger
}

// NewPromptBuilder загружает шаблон промпта из promptsDir.
func NewPromptBuilder(promptsDir string, logger *zap.Logger) (*PromptBuilder, error) {
	filePath := filepath.Join(promptsDir, createGamePromptFile)
	content, err := os.ReadFile(filePath)
	if err != nil {
		logger.Error("Failed to read prompt file", zap.String("file", filePath), zap.Error(err))
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filePath, err)
	}
	return &PromptBuilder{
		template: string(content),
		logger:   logger.Named("PromptBuilder"),
	}, nil
}

// Build формирует промпт генерации игры. Пустые текстовые поля брифа
// заменяются на "Unknown", чтобы шаблон оставался связным.
func (b *PromptBuilder) Build(brief model.GameBrief) string {
	characters := make([]model.CharacterSeed, len(brief.MainCharacters))
	for i, c := range brief.MainCharacters {
		characters[i] = model.CharacterSeed{
			Name:   orUnknown(c.Name),
			Role:   orUnknown(c.Role),
			Traits: c.Traits,
		}
	}

	charactersJSON := "[]"
	if len(characters) > 0 {
		if data, err := json.MarshalIndent(characters, "", "  "); err == nil {
			charactersJSON = string(data)
		} else {
			b.logger.Warn("Failed to marshal main characters for prompt", zap.Error(err))
		}
	}

	replacer := strings.NewReplacer(
		"{title}", orUnknown(brief.Title),
		"{genre}", orUnknown(brief.Genre),
		"{tone}", orUnknown(brief.Tone),
		"{plotSeed}", orUnknown(brief.PlotSeed),
		"{difficulty}", orUnknown(brief.Difficulty),
		"{mainCharacters}", charactersJSON,
	)
	return replacer.Replace(b.template)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
