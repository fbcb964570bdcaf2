package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultOllamaURL is the local Ollama generate endpoint.
const DefaultOllamaURL = "http://localhost:11434/api/generate"

// Ollama talks to a local Ollama server's /api/generate endpoint.
type Ollama struct {
	url    string
	model  string
	client *http.Client
}

// NewOllama builds an Ollama-backed oracle. An empty url falls back to
// DefaultOllamaURL.
func NewOllama(url, model string) *Ollama {
	if url == "" {
		url = DefaultOllamaURL
	}
	return &Ollama{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: 2 * time.Minute, // local models can be slow to first token
		},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Complete implements Oracle against the non-streaming generate API.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, msg)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}

	return out.Response, nil
}
