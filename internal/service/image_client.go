package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mystery-server/internal/config"
	"mystery-server/internal/model"
)

// GeneratedImage - результат генерации обложки.
type GeneratedImage struct {
	URL    string
	Base64 string // пустая строка, если инлайн-загрузка выключена или не удалась
}

// ImageClient определяет интерфейс для генерации изображений по промпту.
type ImageClient interface {
	Generate(ctx context.Context, prompt string) (GeneratedImage, error)
}

var _ ImageClient = (*replicateImageClient)(nil)

// replicateImageClient вызывает Replicate predictions API в синхронном режиме.
type replicateImageClient struct {
	logger          *zap.Logger
	httpClient      *http.Client
	baseURL         string
	apiKey          string
	model           string
	aspectRatio     string
	outputFormat    string
	safetyTolerance int
	inlineFetch     bool
}

// NewReplicateImageClient создает клиент генерации изображений.
// Пустой API ключ допустим: клиент создается, но каждая генерация
// завершается ошибкой (пайплайн трактует ее как best-effort отказ).
func NewReplicateImageClient(cfg *config.Config, logger *zap.Logger) ImageClient {
	if cfg.ImageAPIKey == "" {
		logger.Warn("Image API key is not configured, image generation disabled")
	}
	return &replicateImageClient{
		logger:          logger.Named("ReplicateImage"),
		httpClient:      &http.Client{Timeout: cfg.ImageTimeout},
		baseURL:         cfg.ImageAPIBaseURL,
		apiKey:          cfg.ImageAPIKey,
		model:           cfg.ImageModel,
		aspectRatio:     cfg.ImageAspectRatio,
		outputFormat:    cfg.ImageOutputFormat,
		safetyTolerance: cfg.ImageSafetyTolerance,
		inlineFetch:     cfg.ImageInlineFetch,
	}
}

type replicatePredictionRequest struct {
	Input replicatePredictionInput `json:"input"`
}

type replicatePredictionInput struct {
	Prompt          string `json:"prompt"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	OutputFormat    string `json:"output_format,omitempty"`
	SafetyTolerance int    `json:"safety_tolerance,omitempty"`
}

type replicatePredictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Generate вызывает API и возвращает URL сгенерированного изображения.
func (c *replicateImageClient) Generate(ctx context.Context, prompt string) (GeneratedImage, error) {
	if c.apiKey == "" {
		return GeneratedImage{}, fmt.Errorf("%w: API key is not configured", model.ErrImageGenerationFailed)
	}
	if prompt == "" {
		return GeneratedImage{}, fmt.Errorf("%w: prompt is required", model.ErrImageGenerationFailed)
	}

	reqPayload := replicatePredictionRequest{
		Input: replicatePredictionInput{
			Prompt:          prompt,
			AspectRatio:     c.aspectRatio,
			OutputFormat:    c.outputFormat,
			SafetyTolerance: c.safetyTolerance,
		},
	}
	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return GeneratedImage{}, fmt.Errorf("%w: failed to marshal request payload: %v", model.ErrImageGenerationFailed, err)
	}

	endpointURL := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return GeneratedImage{}, fmt.Errorf("%w: failed to create request: %v", model.ErrImageGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	// Синхронный режим: сервер держит соединение до готовности результата.
	req.Header.Set("Prefer", "wait")

	startTime := time.Now()
	c.logger.Debug("Sending request to image API",
		zap.String("url", endpointURL), zap.Int("promptLength", len(prompt)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Image API request failed", zap.Error(err))
		return GeneratedImage{}, fmt.Errorf("%w: http request failed: %v", model.ErrImageGenerationFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("Image API returned non-OK status",
			zap.Int("statusCode", resp.StatusCode), zap.ByteString("responseBody", bodyBytes))
		return GeneratedImage{}, fmt.Errorf("%w: API returned status %d", model.ErrImageGenerationFailed, resp.StatusCode)
	}
	if readErr != nil {
		return GeneratedImage{}, fmt.Errorf("%w: failed to read response body: %v", model.ErrImageGenerationFailed, readErr)
	}

	var prediction replicatePredictionResponse
	if err := json.Unmarshal(bodyBytes, &prediction); err != nil {
		return GeneratedImage{}, fmt.Errorf("%w: failed to decode response: %v", model.ErrImageGenerationFailed, err)
	}
	if prediction.Error != "" {
		return GeneratedImage{}, fmt.Errorf("%w: %s", model.ErrImageGenerationFailed, prediction.Error)
	}

	imageURL := extractImageURL(prediction.Output)
	if imageURL == "" {
		c.logger.Error("Failed to extract image URL from API output",
			zap.ByteString("output", prediction.Output))
		return GeneratedImage{}, fmt.Errorf("%w: failed to extract image URL from response", model.ErrImageGenerationFailed)
	}

	result := GeneratedImage{URL: imageURL}
	if c.inlineFetch {
		// Инлайн-копия нужна фронтенду для мгновенного показа; URL от
		// провайдера со временем протухает. Отказ здесь не фатален.
		if b64, err := c.fetchAsBase64(ctx, imageURL); err != nil {
			c.logger.Warn("Failed to fetch generated image inline", zap.String("url", imageURL), zap.Error(err))
		} else {
			result.Base64 = b64
		}
	}

	c.logger.Info("Image generated",
		zap.Duration("duration", time.Since(startTime)),
		zap.String("url", imageURL),
		zap.Bool("inline", result.Base64 != ""))
	return result, nil
}

// extractImageURL нормализует гетерогенный формат output: провайдер
// возвращает строку, массив строк, объект {url} или массив объектов.
func extractImageURL(output json.RawMessage) string {
	if len(output) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(output, &asString); err == nil {
		return asString
	}

	var asStringSlice []string
	if err := json.Unmarshal(output, &asStringSlice); err == nil && len(asStringSlice) > 0 {
		return asStringSlice[0]
	}

	var asObject struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(output, &asObject); err == nil && asObject.URL != "" {
		return asObject.URL
	}

	var asObjectSlice []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(output, &asObjectSlice); err == nil && len(asObjectSlice) > 0 {
		return asObjectSlice[0].URL
	}

	return ""
}

// fetchAsBase64 скачивает изображение и возвращает его как data URL.
func (c *replicateImageClient) fetchAsBase64(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/" + c.outputFormat
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData)), nil
}
