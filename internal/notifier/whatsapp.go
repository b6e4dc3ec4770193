package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const graphAPI = "https://graph.facebook.com"

// WhatsAppNotifier sends text messages through the WhatsApp Cloud API.
type WhatsAppNotifier struct {
	Token         string
	PhoneNumberID string
	To            string // E.164 without '+'
	APIVersion    string
	BaseURL       string
	Client        *http.Client
}

func NewWhatsAppNotifier(token, phoneNumberID, to, apiVersion string) *WhatsAppNotifier {
	if apiVersion == "" {
		apiVersion = "v21.0"
	}
	return &WhatsAppNotifier{
		Token:         token,
		PhoneNumberID: phoneNumberID,
		To:            to,
		APIVersion:    apiVersion,
		BaseURL:       graphAPI,
		Client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *WhatsAppNotifier) Name() string { return "whatsapp" }

type whatsAppText struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (w *WhatsAppNotifier) Deliver(ctx context.Context, recipient, subject, body string) error {
	to := recipient
	if to == "" {
		to = w.To
	}
	msg := whatsAppText{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = body
	if subject != "" {
		msg.Text.Body = "*" + subject + "*\n\n" + body
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s/%s/messages", w.BaseURL, w.APIVersion, w.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
