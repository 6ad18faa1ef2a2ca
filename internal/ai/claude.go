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

const defaultClaudeBaseURL = "https://api.anthropic.com"

type ClaudeProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClaudeProvider(apiKey string) *ClaudeProvider {
	return &ClaudeProvider{
		apiKey:  apiKey,
		model:   "claude-3-sonnet-20240229",
		baseURL: defaultClaudeBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *ClaudeProvider) Complete(ctx context.Context, systemPrompt string, history []Turn, userMessage string) (string, error) {
	messages := make([]claudeMessage, 0, len(history)+1)
	for _, t := range history {
		messages = append(messages, claudeMessage{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, claudeMessage{Role: "user", Content: userMessage})

	body, err := json.Marshal(claudeRequest{
		Model:     p.model,
		MaxTokens: 500,
		System:    systemPrompt,
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("claude returned status %d: %s", resp.StatusCode, respBody)
	}

	var result claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Content) == 0 || result.Content[0].Text == "" {
		return fallbackReply, nil
	}
	return result.Content[0].Text, nil
}
