// Package telegram sends bot messages and decodes inbound bot updates.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	json "github.com/goccy/go-json"
)

// ErrNotConfigured is returned when no bot token or chat id is available.
var ErrNotConfigured = errors.New("telegram not configured")

// Sender posts a text message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
	DefaultChatID() string
}

// Client talks to the Bot API sendMessage endpoint.
type Client struct {
	baseURL string
	token   string
	chatID  string
	http    *http.Client
	log     *logger.Logger
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// NewClient returns nil when the bot token is missing; a nil client reports
// ErrNotConfigured on every send.
func NewClient(cfg config.TelegramConfig, log *logger.Logger) *Client {
	if strings.TrimSpace(cfg.GetTelegramBotToken()) == "" {
		return nil
	}

	baseURL := strings.TrimRight(cfg.GetTelegramAPIBaseURL(), "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &Client{
		baseURL: baseURL,
		token:   cfg.GetTelegramBotToken(),
		chatID:  strings.TrimSpace(cfg.GetTelegramChatID()),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// DefaultChatID returns the configured group chat.
func (c *Client) DefaultChatID() string {
	if c == nil {
		return ""
	}
	return c.chatID
}

// SendMessage posts text to chatID with link previews disabled.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	if c == nil || strings.TrimSpace(chatID) == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("telegram message sent", "chat_id", chatID)
	return nil
}

// Update is the subset of a Bot API update the booking webhook reads.
type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message"`
	EditedMessage *Message `json:"edited_message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
	From      User   `json:"from"`
}

// Chat identifies where a message was posted.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the message author.
type User struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Current returns the message, falling back to the edited message.
func (u Update) Current() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.EditedMessage
}

// ChatID formats the chat id for SendMessage.
func (m Message) ChatID() string {
	if m.Chat.ID == 0 {
		return ""
	}
	return strconv.FormatInt(m.Chat.ID, 10)
}

// DisplayName is "first last", or the username when both are blank.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName)); name != "" {
		return name
	}
	return strings.TrimSpace(u.Username)
}
