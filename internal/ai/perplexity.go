package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultPerplexityBaseURL = "https://api.perplexity.ai"

type PerplexityProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewPerplexityProvider(apiKey string) *PerplexityProvider {
	return &PerplexityProvider{
		apiKey:  apiKey,
		model:   "llama-3.1-sonar-small-128k-online",
		baseURL: defaultPerplexityBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PerplexityProvider) Name() string {
	return "perplexity"
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []perplexityMessage `json:"messages"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *PerplexityProvider) Complete(ctx context.Context, systemPrompt string, history []Turn, userMessage string) (string, error) {
	messages := []perplexityMessage{{Role: "system", Content: systemPrompt}}
	for _, t := range history {
		messages = append(messages, perplexityMessage{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, perplexityMessage{Role: "user", Content: userMessage})

	body, err := json.Marshal(perplexityRequest{Model: p.model, Messages: messages})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("perplexity returned status %d: %s", resp.StatusCode, respBody)
	}

	var result perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return fallbackReply, nil
	}
	return result.Choices[0].Message.Content, nil
}
