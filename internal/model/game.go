package model

import (
	"time"
)

// Game statuses. Only "draft" is assigned by the generation pipeline;
// transitions beyond draft belong to the playback flow.
const (
	GameStatusDraft    = "draft"
	GameStatusActive   = "active"
	GameStatusFinished = "finished"
)

// CharacterSeed - персонаж, заданный пользователем в брифе.
type CharacterSeed struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Traits string `json:"traits,omitempty"`
}

// GameBrief is the user-supplied seed data driving generation.
// Genre/tone/difficulty come from closed lists in the UI but are accepted
// as free text here: the pipeline does not enforce the enumeration.
type GameBrief struct {
	Title          string          `json:"title"`
	Genre          string          `json:"genre"`
	Tone           string          `json:"tone"`
	PlotSeed       string          `json:"plotSeed"`
	Difficulty     string          `json:"difficulty"`
	MainCharacters []CharacterSeed `json:"mainCharacters"`
}

// Setting - место действия сгенерированной истории.
type Setting struct {
	Location    string `json:"location"`
	Description string `json:"description"`
}

// NarrativeCharacter is a character as described by the generator
// (richer than the seed the user provided).
type NarrativeCharacter struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality,omitempty"`
	Motivation  string `json:"motivation,omitempty"`
	Traits      string `json:"traits,omitempty"`
}

// ChoiceOption - один вариант ответа в ключевом выборе.
type ChoiceOption struct {
	Option      string `json:"option"`
	Consequence string `json:"consequence"`
}

// KeyChoice is a branching decision point inside a chapter.
// ChoiceID is unique within its chapter; the parser rewrites IDs that
// collide across chapters by scoping them to the chapter number.
type KeyChoice struct {
	ChoiceID string         `json:"choiceId"`
	Prompt   string         `json:"prompt"`
	Options  []ChoiceOption `json:"options"`
}

// Chapter - глава сгенерированной истории.
type Chapter struct {
	ChapterNumber   int         `json:"chapterNumber"`
	Title           string      `json:"title"`
	Summary         string      `json:"summary"`
	CluesDiscovered []string    `json:"cluesDiscovered"`
	KeyChoices      []KeyChoice `json:"keyChoices"`
}

// Ending - одна из возможных концовок.
type Ending struct {
	EndingID   string `json:"endingId"`
	Title      string `json:"title"`
	Conditions string `json:"conditions"`
	Summary    string `json:"summary"`
	Moral      string `json:"moral"`
}

// GeneratedNarrative is the structured story content decoded from the
// text provider's output. All fields may be empty on a degraded parse.
type GeneratedNarrative struct {
	Premise         string               `json:"premise"`
	Setting         Setting              `json:"setting"`
	MainCharacters  []NarrativeCharacter `json:"mainCharacters"`
	Chapters        []Chapter            `json:"chapters"`
	PossibleEndings []Ending             `json:"possibleEndings"`
}

// EmptyNarrative returns the degraded-parse fallback: all strings empty,
// all collections empty but non-nil so the persisted JSONB stays []
// rather than null.
func EmptyNarrative() *GeneratedNarrative {
	return &GeneratedNarrative{
		MainCharacters:  []NarrativeCharacter{},
		Chapters:        []Chapter{},
		PossibleEndings: []Ending{},
	}
}

// Game is the persisted result of one successful pipeline run.
// Created once by the generation service, never mutated afterwards.
type Game struct {
	ID                int64           `db:"id" json:"id"`
	UserID            string          `db:"user_id" json:"userId"`
	Title             string          `db:"title" json:"title"`
	Genre             string          `db:"genre" json:"genre"`
	Tone              string          `db:"tone" json:"tone"`
	PlotSeed          string          `db:"plot_seed" json:"plotSeed"`
	Difficulty        string          `db:"difficulty" json:"difficulty"`
	ImagePrompt       string          `db:"image_prompt" json:"imagePrompt,omitempty"`
	GeneratedImageURL string          `db:"generated_image_url" json:"generatedImageUrl,omitempty"`
	Images            []string        `db:"images" json:"images"`
	MainCharacters    []CharacterSeed `db:"main_characters" json:"mainCharacters"`
	Premise           string          `db:"premise" json:"premise"`
	Setting           Setting         `db:"setting" json:"setting"`
	Chapters          []Chapter       `db:"chapters" json:"chapters"`
	PossibleEndings   []Ending        `db:"possible_endings" json:"possibleEndings"`
	Status            string          `db:"status" json:"status"`
	Degraded          bool            `db:"degraded" json:"degraded"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// GenerationResult is what the pipeline hands back to the HTTP layer.
// Degraded=true means the narrative could not be parsed and the game was
// persisted with empty content (the success response is otherwise identical).
type GenerationResult struct {
	Game             *Game `json:"game"`
	Degraded         bool  `json:"degraded"`
	CreditsRemaining int   `json:"creditsRemaining"`
}
