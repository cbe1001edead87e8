package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// pollTimeout is the long-poll window requested from getUpdates.
const pollTimeout = 30 * time.Second

// CommandHandler turns a bot command into a reply. An empty reply sends nothing.
type CommandHandler func(command string) string

type telegramUpdate struct {
	UpdateID int              `json:"update_id"`
	Message  *telegramMessage `json:"message"`
}

type telegramMessage struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// getUpdates long-polls for updates after offset.
func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.methodURL("getUpdates")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build getUpdates request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool             `json:"ok"`
		Description string           `json:"description"`
		Result      []telegramUpdate `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode getUpdates: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", result.Description)
	}
	return result.Result, nil
}

// handleUpdate answers one update. Messages from chats other than ChatID
// are ignored.
func (t *TelegramNotifier) handleUpdate(ctx context.Context, u telegramUpdate, handler CommandHandler) {
	if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
		return
	}
	if strconv.FormatInt(u.Message.Chat.ID, 10) != t.ChatID {
		log.Printf("[WARN] ignoring command from chat %d", u.Message.Chat.ID)
		return
	}
	text := strings.TrimSpace(u.Message.Text)
	log.Printf("[INFO] received command: %s", text)
	reply := handler(text)
	if reply == "" {
		return
	}
	if err := t.Send(ctx, reply); err != nil {
		log.Printf("[ERROR] send reply: %v", err)
	}
}

// StartPolling answers bot commands until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: pollTimeout + 5*time.Second, Transport: t.Client.Transport}
	offset := 0
	for {
		updates, err := t.getUpdates(ctx, client, offset)
		if ctx.Err() != nil {
			log.Println("[INFO] telegram polling stopped")
			return
		}
		if err != nil {
			log.Printf("[WARN] %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			t.handleUpdate(ctx, u, handler)
		}
	}
}
