package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

var (
	ErrRateLimited = errors.New("chat: rate limited")
	ErrNoMessages  = errors.New("chat: no messages")
	ErrEmptyReply  = errors.New("chat: empty reply")
	ErrDisabled    = errors.New("chat: assistant not configured")
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	maxRetries  = 2
	maxMessages = 20
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Config struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration

	// RetryBase is the first backoff delay; it doubles on each retry.
	RetryBase time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

func (c *Client) Enabled() bool { return c.cfg.Endpoint != "" }

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Ask sends the conversation and returns the assistant's reply. Only the
// last user and assistant turns are forwarded; the system prompt always
// comes from configuration. A 429 is retried twice with exponential backoff.
func (c *Client) Ask(ctx context.Context, history []Message) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	msgs := c.prepare(history)
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != RoleUser {
		return "", ErrNoMessages
	}
	body, err := json.Marshal(completionRequest{Model: c.cfg.Model, Messages: msgs})
	if err != nil {
		return "", err
	}

	var reply string
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.cfg.RetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := c.call(ctx, body)
		if errors.Is(err, ErrRateLimited) {
			c.log.Warn("chat completion rate limited, backing off")
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *Client) prepare(history []Message) []Message {
	var turns []Message
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" || (m.Role != RoleUser && m.Role != RoleAssistant) {
			continue
		}
		turns = append(turns, Message{Role: m.Role, Content: content})
	}
	if len(turns) > maxMessages {
		turns = turns[len(turns)-maxMessages:]
	}
	if len(turns) == 0 {
		return nil
	}
	out := make([]Message, 0, len(turns)+1)
	if c.cfg.SystemPrompt != "" {
		out = append(out, Message{Role: RoleSystem, Content: c.cfg.SystemPrompt})
	}
	return append(out, turns...)
}

func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("chat: decode: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	return out.Choices[0].Message.Content, nil
}
