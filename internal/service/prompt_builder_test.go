package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mystery-server/internal/model"
)

func newTestPromptBuilder(t *testing.T, template string) *PromptBuilder {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, createGamePromptFile), []byte(template), 0o644))

	b, err := NewPromptBuilder(dir, zap.NewNop())
	require.NoError(t, err)
	return b
}

func TestPromptBuilder_SubstitutesAllPlaceholders(t *testing.T) {
	b := newTestPromptBuilder(t,
		"Title: {title}\nGenre: {genre}\nTone: {tone}\nSeed: {plotSeed}\nDifficulty: {difficulty}\nCharacters:\n{mainCharacters}")

	prompt := b.Build(model.GameBrief{
		Title:      "The Vanishing Violinist",
		Genre:      "Noir",
		Tone:       "Dark",
		PlotSeed:   "A concert ends in silence",
		Difficulty: "Hard",
		MainCharacters: []model.CharacterSeed{
			{Name: "Vera", Role: "detective", Traits: "sharp"},
		},
	})

	assert.Contains(t, prompt, "Title: The Vanishing Violinist")
	assert.Contains(t, prompt, "Genre: Noir")
	assert.Contains(t, prompt, "Tone: Dark")
	assert.Contains(t, prompt, "Seed: A concert ends in silence")
	assert.Contains(t, prompt, "Difficulty: Hard")
	assert.Contains(t, prompt, `"name": "Vera"`)
	assert.NotContains(t, prompt, "{title}")
	assert.NotContains(t, prompt, "{mainCharacters}")
}

func TestPromptBuilder_EmptyFieldsBecomeUnknown(t *testing.T) {
	b := newTestPromptBuilder(t, "{genre}|{tone}|{difficulty}|{mainCharacters}")

	prompt := b.Build(model.GameBrief{
		Title:    "T",
		PlotSeed: "S",
		MainCharacters: []model.CharacterSeed{
			{Name: "", Role: ""},
		},
	})

	assert.Contains(t, prompt, "Unknown|Unknown|Unknown")
	assert.Contains(t, prompt, `"name": "Unknown"`)
	assert.Contains(t, prompt, `"role": "Unknown"`)
}

func TestPromptBuilder_NoCharacters(t *testing.T) {
	b := newTestPromptBuilder(t, "chars={mainCharacters}")

	prompt := b.Build(model.GameBrief{Title: "T", PlotSeed: "S"})
	assert.Equal(t, "chars=[]", prompt)
}

func TestNewPromptBuilder_MissingTemplate(t *testing.T) {
	_, err := NewPromptBuilder(t.TempDir(), zap.NewNop())
	assert.Error(t, err)
}
