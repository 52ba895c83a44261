package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"mystery-server/internal/model"
)

func TestBuildImagePrompt_FromNarrative(t *testing.T) {
	brief := model.GameBrief{Genre: "Noir", Tone: "Dark", PlotSeed: "A missing heiress"}
	narrative := &model.GeneratedNarrative{
		Premise: "An heiress vanishes the night before her wedding.",
		Setting: model.Setting{Location: "Villa Orlova", Description: "Fog over the terrace"},
	}

	prompt := buildImagePrompt(brief, narrative, false)

	assert.Contains(t, prompt, "A dark noir detective mystery scene")
	assert.Contains(t, prompt, "An heiress vanishes the night before her wedding")
	assert.Contains(t, prompt, "Location: Villa Orlova")
	assert.Contains(t, prompt, "Fog over the terrace")
	assert.Contains(t, prompt, "detective story aesthetic")
}

func TestBuildImagePrompt_DegradedFallsBackToBrief(t *testing.T) {
	brief := model.GameBrief{Genre: "Noir", Tone: "Dark", PlotSeed: "A missing heiress"}

	prompt := buildImagePrompt(brief, model.EmptyNarrative(), true)

	assert.Contains(t, prompt, "A missing heiress")
	assert.NotContains(t, prompt, "Location:")
}

func TestBuildImagePrompt_MultibytePremiseStaysValidUTF8(t *testing.T) {
	// Кириллица: 2 байта на символ, байтовый срез на границе 200 порвал бы руну.
	brief := model.GameBrief{Genre: "Нуар", Tone: "Мрачный", PlotSeed: strings.Repeat("т", 300)}
	narrative := &model.GeneratedNarrative{
		Premise: strings.Repeat("скрипачка исчезает со сцены ", 20),
		Setting: model.Setting{Location: "Оперный театр", Description: strings.Repeat("позолота и полумрак ", 20)},
	}

	prompt := buildImagePrompt(brief, narrative, false)
	assert.True(t, utf8.ValidString(prompt))

	fallback := buildImagePrompt(brief, model.EmptyNarrative(), true)
	assert.True(t, utf8.ValidString(fallback))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcdefg", 5))

	got := truncate("ααααα", 3)
	assert.Equal(t, "ααα", got)
	assert.True(t, utf8.ValidString(got))
}
