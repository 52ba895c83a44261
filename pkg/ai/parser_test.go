package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validNarrativeJSON = `{
	"premise": "A body is found in the locked library of Blackwood Manor.",
	"setting": {"location": "Blackwood Manor", "description": "A decaying Victorian estate"},
	"mainCharacters": [{"name": "Inspector Hale", "role": "detective"}],
	"chapters": [
		{"chapterNumber": 1, "title": "The Discovery", "summary": "The body is found.",
		 "cluesDiscovered": ["A torn letter"],
		 "keyChoices": [{"choiceId": "inspect-body", "prompt": "What first?",
			"options": [{"option": "Examine the body", "consequence": "You find a key"}]}]},
		{"chapterNumber": 2, "title": "The Suspects", "summary": "Interviews begin.",
		 "cluesDiscovered": [], "keyChoices": []}
	],
	"possibleEndings": [
		{"endingId": "butler", "title": "The Butler", "conditions": "Found the key", "summary": "Solved.", "moral": "Trust no one"},
		{"endingId": "unsolved", "title": "Cold Case", "conditions": "Missed clues", "summary": "Unsolved.", "moral": "Look closer"}
	]
}`

func TestParseNarrative_ValidJSON(t *testing.T) {
	p := NewParser(zap.NewNop())

	narrative, degraded := p.ParseNarrative(validNarrativeJSON)

	require.NotNil(t, narrative)
	assert.False(t, degraded)
	assert.Equal(t, "A body is found in the locked library of Blackwood Manor.", narrative.Premise)
	assert.Equal(t, "Blackwood Manor", narrative.Setting.Location)
	require.Len(t, narrative.Chapters, 2)
	assert.Len(t, narrative.PossibleEndings, 2)
}

func TestParseNarrative_FencedJSON(t *testing.T) {
	p := NewParser(zap.NewNop())

	cases := map[string]string{
		"json fence":      "```json\n" + validNarrativeJSON + "\n```",
		"bare fence":      "```\n" + validNarrativeJSON + "\n```",
		"leading chatter": "Here is your mystery game:\n```json\n" + validNarrativeJSON + "\n```",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			narrative, degraded := p.ParseNarrative(input)
			assert.False(t, degraded)
			assert.Equal(t, "Blackwood Manor", narrative.Setting.Location)
		})
	}
}

func TestParseNarrative_TruncatedBraces(t *testing.T) {
	p := NewParser(zap.NewNop())

	// Модель оборвала ответ: не хватает двух закрывающих скобок.
	input := `{"premise": "Test", "setting": {"location": "Somewhere", "description": "A place"`

	narrative, degraded := p.ParseNarrative(input)
	assert.False(t, degraded)
	assert.Equal(t, "Test", narrative.Premise)
	assert.Equal(t, "Somewhere", narrative.Setting.Location)
}

func TestParseNarrative_Garbage(t *testing.T) {
	p := NewParser(zap.NewNop())

	for _, input := range []string{"", "   ", "not json at all", "```json\nstill not json\n```"} {
		narrative, degraded := p.ParseNarrative(input)
		require.NotNil(t, narrative)
		assert.True(t, degraded)
		assert.NotNil(t, narrative.Chapters)
		assert.NotNil(t, narrative.MainCharacters)
		assert.NotNil(t, narrative.PossibleEndings)
	}
}

func TestParseNarrative_ChapterRenumbering(t *testing.T) {
	p := NewParser(zap.NewNop())

	input := `{"chapters": [
		{"chapterNumber": 7, "title": "A"},
		{"chapterNumber": 7, "title": "B"},
		{"chapterNumber": 1, "title": "C"}
	]}`

	narrative, degraded := p.ParseNarrative(input)
	require.False(t, degraded)
	require.Len(t, narrative.Chapters, 3)
	for i, ch := range narrative.Chapters {
		assert.Equal(t, i+1, ch.ChapterNumber)
	}
}

func TestParseNarrative_ChoiceIDCollisions(t *testing.T) {
	p := NewParser(zap.NewNop())

	input := `{"chapters": [
		{"title": "A", "keyChoices": [{"choiceId": "search", "prompt": "p"}]},
		{"title": "B", "keyChoices": [{"choiceId": "search", "prompt": "p"}, {"choiceId": "", "prompt": "p"}]}
	]}`

	narrative, degraded := p.ParseNarrative(input)
	require.False(t, degraded)

	seen := map[string]bool{}
	for _, ch := range narrative.Chapters {
		for _, choice := range ch.KeyChoices {
			assert.NotEmpty(t, choice.ChoiceID)
			assert.False(t, seen[choice.ChoiceID], "duplicate choice id %q", choice.ChoiceID)
			seen[choice.ChoiceID] = true
		}
	}
	// Первое вхождение сохраняет исходный ID.
	assert.Equal(t, "search", narrative.Chapters[0].KeyChoices[0].ChoiceID)
	assert.Equal(t, "ch2:search", narrative.Chapters[1].KeyChoices[0].ChoiceID)
}

func TestExtractJSONContent_BalancesExcessBraces(t *testing.T) {
	p := NewParser(zap.NewNop())

	got := p.ExtractJSONContent(`{"a": 1}}}`)
	assert.Equal(t, `{"a": 1}`, got)

	// Лишние скобки не в конце - строка не трогается.
	unchanged := `}}{"a": 1}`
	assert.Equal(t, unchanged, p.ExtractJSONContent(unchanged))
}
