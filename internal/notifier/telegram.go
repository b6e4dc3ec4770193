package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	telegramAPI = "https://api.telegram.org"
	// telegramMaxText stays under the 4096 character message limit.
	telegramMaxText = 4000
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken   string
	ChatID     string
	APIURL     string
	Client     *http.Client
	MaxRetries int
	log        zerolog.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log zerolog.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIURL:   telegramAPI,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		MaxRetries: 2,
		log:        log.With().Str("channel", "telegram").Logger(),
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Deliver sends the subject in bold followed by the escaped body, split into
// as many messages as the length limit requires.
func (t *TelegramNotifier) Deliver(ctx context.Context, recipient, subject, body string) error {
	chatID := recipient
	if chatID == "" {
		chatID = t.ChatID
	}
	for i, text := range splitMessage(body, telegramMaxText) {
		if i == 0 && subject != "" {
			text = fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(subject), text)
		}
		if err := t.SendWithRetry(ctx, chatID, text, t.MaxRetries); err != nil {
			return err
		}
	}
	return nil
}

// Send sends an HTML formatted message to chatID.
func (t *TelegramNotifier) Send(ctx context.Context, chatID, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.APIURL, t.BotToken)
	payload := map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, chatID, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		t.log.Warn().Err(err).Int("attempt", i+1).Int("of", maxRetries+1).Dur("backoff", backoff).Msg("send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}

// splitMessage HTML-escapes text into chunks of at most max bytes, cut on
// line boundaries. A single line longer than max is cut between runes, so no
// chunk ends inside an entity or a multibyte character.
func splitMessage(text string, max int) []string {
	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		escaped := html.EscapeString(line)
		if len(escaped) <= max {
			if cur.Len()+len(escaped) > max {
				flush()
			}
			cur.WriteString(escaped)
			continue
		}
		flush()
		for len(line) > 0 {
			_, size := utf8.DecodeRuneInString(line)
			piece := html.EscapeString(line[:size])
			if cur.Len()+len(piece) > max {
				flush()
			}
			cur.WriteString(piece)
			line = line[size:]
		}
	}
	flush()
	if len(chunks) == 0 {
		return []string{""}
	}
	return chunks
}
