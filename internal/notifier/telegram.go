package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers scan reports and command replies to one chat
// through the Telegram Bot API.
type TelegramNotifier struct {
	APIBase  string
	BotToken string
	ChatID   string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		APIBase:  telegramAPIBase,
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

// Enabled reports whether a bot token and chat are configured.
func (t *TelegramNotifier) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

func (t *TelegramNotifier) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

// sendMessage is the sendMessage request body.
type sendMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
	// chart links would otherwise expand into previews
	DisableWebPagePreview bool `json:"disable_web_page_preview"`
}

// Send posts an HTML message to the configured chat. Cancelling ctx aborts
// a request in flight.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessage{
		ChatID:                t.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, respBody)
	}
	return nil
}

// SendWithRetry retries Send with exponential backoff until it succeeds,
// maxRetries is exhausted or ctx is done.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = t.Send(ctx, text)
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Printf("[WARN] telegram send failed (attempt %d/%d): %v, retrying in %v", attempt+1, maxRetries+1, lastErr, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", maxRetries+1, lastErr)
}
