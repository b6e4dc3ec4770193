package opinion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultHuggingFaceURL   = "https://api-inference.huggingface.co/models"
	DefaultHuggingFaceModel = "facebook/bart-large-cnn"
)

// HuggingFace calls the hosted inference API for a summarization model.
type HuggingFace struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewHuggingFace(apiKey, modelName, baseURL string) *HuggingFace {
	if modelName == "" {
		modelName = DefaultHuggingFaceModel
	}
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}
	return &HuggingFace{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/"+h.Model, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+h.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("huggingface read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	// The service answers with either a list of summaries or an error object.
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
		return "", fmt.Errorf("huggingface: %s", errResp.Error)
	}
	var summaries []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(raw, &summaries); err != nil {
		return "", fmt.Errorf("huggingface decode: %w", err)
	}
	if len(summaries) == 0 {
		return "", fmt.Errorf("huggingface: no summary returned")
	}
	return summaries[0].SummaryText, nil
}
