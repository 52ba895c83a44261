package handler

import (
	"mystery-server/internal/model"
)

// GenerateGameRequest - бриф пользователя для полного пайплайна генерации.
type GenerateGameRequest struct {
	Title          string                `json:"title" binding:"required"`
	Genre          string                `json:"genre" binding:"required"`
	Tone           string                `json:"tone" binding:"required"`
	PlotSeed       string                `json:"plotSeed" binding:"required"`
	Difficulty     string                `json:"difficulty"`
	MainCharacters []model.CharacterSeed `json:"mainCharacters"`
}

// GenerateGameResponse - результат пайплайна.
type GenerateGameResponse struct {
	Game             *model.Game `json:"game"`
	Degraded         bool        `json:"degraded"`
	CreditsRemaining int         `json:"creditsRemaining"`
}

// GenerateTextRequest - запрос сырой текстовой генерации.
type GenerateTextRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateTextResponse - сырой ответ модели без разбора.
type GenerateTextResponse struct {
	Result string `json:"result"`
}

// GenerateImageRequest - запрос генерации изображения по готовому промпту.
type GenerateImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateImageResponse - URL изображения и опциональная инлайн-копия.
type GenerateImageResponse struct {
	ImageURL    string `json:"imageUrl"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// SaveGameRequest - прямое сохранение игры с контентом, сгенерированным
// на стороне клиента.
type SaveGameRequest struct {
	Title             string                `json:"title" binding:"required"`
	Genre             string                `json:"genre" binding:"required"`
	Tone              string                `json:"tone" binding:"required"`
	PlotSeed          string                `json:"plotSeed" binding:"required"`
	Difficulty        string                `json:"difficulty"`
	ImagePrompt       string                `json:"imagePrompt"`
	GeneratedImageURL string                `json:"generatedImageUrl"`
	Images            []string              `json:"images"`
	MainCharacters    []model.CharacterSeed `json:"mainCharacters"`
	GameContent       string                `json:"gameContent"`
}

// SaveGameResponse подтверждает сохранение и возвращает запись целиком.
type SaveGameResponse struct {
	Success  bool        `json:"success"`
	GameID   int64       `json:"gameId"`
	Game     *model.Game `json:"game"`
	Degraded bool        `json:"degraded"`
}

// CreateUserRequest - регистрация/апсерт пользователя по внешнему ID.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UpdateCreditsRequest - аддитивное изменение баланса. Абсолютной установки
// значения нет: delta может быть положительной или отрицательной.
type UpdateCreditsRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// UpdateCreditsResponse - новый баланс после изменения.
type UpdateCreditsResponse struct {
	Credits int `json:"credits"`
}
