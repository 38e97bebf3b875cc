package embedding

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apperrors "automatch-workers/internal/common/errors"
	apphttp "automatch-workers/internal/common/http"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIProvider calls an OpenAI-compatible /v1/embeddings endpoint.
type OpenAIProvider struct {
	client    *apphttp.Client
	apiKey    string
	baseURL   string
	model     string
	dimension int
}

func NewOpenAIProvider(apiKey, baseURL, model string, dimension int, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		client:    apphttp.NewClient(timeout),
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		dimension: dimension,
	}
}

type openAIRequest struct {
	Input      string `json:"input"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewInvalidInputError("embedding text must not be empty")
	}

	var resp openAIResponse
	err := p.client.PostJSON(ctx, p.baseURL+"/v1/embeddings",
		map[string]string{"Authorization": "Bearer " + p.apiKey},
		openAIRequest{Input: text, Model: p.model, Dimensions: p.dimension},
		&resp,
	)
	if err != nil {
		var statusErr *apphttp.StatusError
		if stderrors.As(err, &statusErr) && statusErr.StatusCode == 401 {
			return nil, apperrors.NewProviderNotConfiguredError("openai", "api key rejected")
		}
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embeddings: no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}
