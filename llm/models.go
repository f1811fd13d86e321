package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"apitui/config"
)

// ModelInfo describes a model offered by the configured provider.
type ModelInfo struct {
	Name         string // Display name (vendor prefix stripped)
	InternalName string // Full API name
	Size         int64  // Bytes, 0 when the provider does not report it
}

// ListModels fetches the models available at the configured endpoint.
// Ollama endpoints are queried through the native Ollama API because
// its OpenAI-compatible /v1/models listing omits model sizes.
func ListModels(ctx context.Context, cfg config.LLMConfig) ([]ModelInfo, error) {
	if cfg.Provider == "ollama" {
		return listOllamaModels(ctx, cfg.BaseURL)
	}
	return listOpenAIModels(ctx, cfg.BaseURL, cfg.APIKey)
}

// Ping verifies the endpoint is reachable and the credentials are
// accepted, by listing models with a short deadline.
func Ping(ctx context.Context, cfg config.LLMConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := ListModels(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

func listOpenAIModels(ctx context.Context, baseURL, apiKey string) ([]ModelInfo, error) {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	modelsPage, err := client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	result := make([]ModelInfo, 0, len(modelsPage.Data))
	for _, m := range modelsPage.Data {
		result = append(result, ModelInfo{
			Name:         stripVendorPrefix(m.ID),
			InternalName: m.ID,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func listOllamaModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	parsedURL, err := url.Parse(ollamaNativeURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(parsedURL, http.DefaultClient)

	resp, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]ModelInfo, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = ModelInfo{
			Name:         m.Name,
			InternalName: m.Name,
			Size:         m.Size,
		}
	}

	return models, nil
}

// ollamaNativeURL strips the OpenAI-compat /v1 suffix so the native
// Ollama API client hits the right endpoint.
func ollamaNativeURL(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	if trimmed == "" {
		return "http://localhost:11434"
	}
	return strings.TrimSuffix(trimmed, "/v1")
}

// stripVendorPrefix removes vendor prefixes from model names for
// display. "meta-llama/llama-3.2-90b-instruct" becomes
// "llama-3.2-90b-instruct".
func stripVendorPrefix(modelName string) string {
	if idx := strings.Index(modelName, "/"); idx != -1 {
		return modelName[idx+1:]
	}
	return modelName
}
