package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wordscope-api/internal/config"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
)

func newTestClient(serverURL string) *OpenAIClient {
	return NewOpenAIClient(config.VisionConfig{
		APIKey:     "test-key",
		BaseURL:    serverURL,
		Model:      "gpt-4o-mini",
		TimeoutSec: 5,
	})
}

func toolCallResponse(args string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message": map[string]interface{}{
					"tool_calls": []map[string]interface{}{
						{
							"function": map[string]interface{}{
								"name":      "analyze_image",
								"arguments": args,
							},
						},
					},
				},
			},
		},
	}
}

func TestOpenAIClient_AnalyzeImage_ToolCall(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model, "Модель должна браться из конфигурации")
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "analyze_image", req.Tools[0].Function.Name)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toolCallResponse(
			`{"description":"A dog playing in the park","possibleItems":["dog","ball","grass"]}`,
		))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	// Act
	result, err := client.AnalyzeImage(context.Background(), "https://example.com/photo.jpg")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "A dog playing in the park", result.Description)
	assert.Equal(t, []string{"dog", "ball", "grass"}, result.PossibleItems)
}

func TestOpenAIClient_AnalyzeImage_ContentFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "Just a plain text answer"}},
			},
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).AnalyzeImage(context.Background(), "https://example.com/photo.jpg")

	require.NoError(t, err)
	assert.Equal(t, "Just a plain text answer", result.Description)
	assert.Empty(t, result.PossibleItems, "Без вызова функции список объектов должен быть пустым")
}

func TestOpenAIClient_AnalyzeImage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).AnalyzeImage(context.Background(), "https://example.com/photo.jpg")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
}

func TestOpenAIClient_AnalyzeImage_BadArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(toolCallResponse(`not valid json`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).AnalyzeImage(context.Background(), "https://example.com/photo.jpg")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
}

func TestOpenAIClient_AnalyzeImage_EmptyURL(t *testing.T) {
	result, err := newTestClient("http://localhost").AnalyzeImage(context.Background(), "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
