package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/yourusername/wordscope-api/internal/config"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
)

// AnalysisResult — структурированный ответ vision-модели на изображение
type AnalysisResult struct {
	Description   string   `json:"description"`
	PossibleItems []string `json:"possibleItems"`
}

// Client определяет контракт анализа изображения
type Client interface {
	AnalyzeImage(ctx context.Context, imageURL string) (*AnalysisResult, error)
}

// OpenAIClient вызывает OpenAI-совместимый chat completions API с function calling,
// чтобы получить описание фото и список вероятных объектов на нём.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient создает новый клиент vision API
func NewOpenAIClient(cfg config.VisionConfig) *OpenAIClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

const analyzeFunctionName = "analyze_image"

// Структуры запроса chat completions (только используемые поля)

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools"`
	ToolChoice interface{}   `json:"tool_choice"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Схема параметров функции analyze_image: описание + до 5 вероятных объектов
var analyzeParametersSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"description": {
			"type": "string",
			"description": "Detailed description of the image"
		},
		"possibleItems": {
			"type": "array",
			"description": "Up to five objects most likely present in the image, one or two words each",
			"items": {"type": "string"}
		}
	},
	"required": ["description", "possibleItems"]
}`)

// AnalyzeImage отправляет изображение в vision-модель и возвращает структурированный результат.
// Модель принуждается к вызову функции analyze_image (tool_choice); если она всё же
// ответила текстом, текст используется как описание с пустым списком объектов.
func (c *OpenAIClient) AnalyzeImage(ctx context.Context, imageURL string) (*AnalysisResult, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image url is required", apperrors.ErrValidation)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "Analyze the given image. Provide a detailed description and the five objects most likely present in it.",
			},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: "Analyze this image."},
					{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
				},
			},
		},
		Tools: []chatTool{
			{
				Type: "function",
				Function: toolFunction{
					Name:        analyzeFunctionName,
					Description: "Return the image analysis in a structured format",
					Parameters:  analyzeParametersSchema,
				},
			},
		},
		ToolChoice: map[string]interface{}{
			"type":     "function",
			"function": map[string]string{"name": analyzeFunctionName},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: vision request failed: %v", apperrors.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read vision response: %v", apperrors.ErrServiceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Vision] API вернул статус %d: %s", resp.StatusCode, truncate(string(body), 300))
		return nil, fmt.Errorf("%w: vision API status %d", apperrors.ErrServiceUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode vision response: %v", apperrors.ErrServiceUnavailable, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: vision API error: %s", apperrors.ErrServiceUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: vision API returned no choices", apperrors.ErrServiceUnavailable)
	}

	message := parsed.Choices[0].Message
	for _, call := range message.ToolCalls {
		if call.Function.Name != analyzeFunctionName {
			continue
		}
		var result AnalysisResult
		if err := json.Unmarshal([]byte(call.Function.Arguments), &result); err != nil {
			return nil, fmt.Errorf("%w: failed to parse tool call arguments: %v", apperrors.ErrServiceUnavailable, err)
		}
		return &result, nil
	}

	// Фолбэк: модель ответила текстом вместо вызова функции
	if message.Content != "" {
		return &AnalysisResult{Description: message.Content}, nil
	}

	return nil, fmt.Errorf("%w: vision API returned neither tool call nor content", apperrors.ErrServiceUnavailable)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
