package opinion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4.1-mini"
)

// jsonInstruction asks for the verdict object that JSON mode returns.
const jsonInstruction = `Reply with a JSON object: {"symbol": "...", "passed": true/false, "reason": "..."}.`

// OpenAI calls the chat completions endpoint in JSON mode and returns the
// verdict's reason as the commentary.
type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewOpenAI(apiKey, modelName, baseURL string) *OpenAI {
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	return &OpenAI{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OpenAI) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type verdict struct {
	Symbol string `json:"symbol"`
	Passed *bool  `json:"passed"`
	Reason string `json:"reason"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: jsonInstruction},
		{Role: "user", Content: prompt},
	}
	body, err := json.Marshal(chatRequest{
		Model:          o.Model,
		Messages:       messages,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai read body: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("openai decode (status %d): %w", resp.StatusCode, err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("openai API error: %s", cr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error: status %d", resp.StatusCode)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return commentary(cr.Choices[0].Message.Content), nil
}

// commentary extracts the reason from a verdict object, led by Yes or No when
// passed is set. Content that is not a verdict is returned as is.
func commentary(content string) string {
	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil || strings.TrimSpace(v.Reason) == "" {
		return content
	}
	reason := strings.TrimSpace(v.Reason)
	if v.Passed == nil {
		return reason
	}
	if *v.Passed {
		return "Yes. " + reason
	}
	return "No. " + reason
}
