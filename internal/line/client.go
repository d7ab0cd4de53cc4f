package line

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
	DefaultAPIBase = "https://api.line.me"
	DefaultTimeout = 5 * time.Second

	pushPath  = "/v2/bot/message/push"
	replyPath = "/v2/bot/message/reply"

	// Longer bodies are rejected by the platform.
	maxTextRunes = 5000
	maxErrBody   = 512
)

// APIError is returned when the messaging API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line api: status %d: %s", e.StatusCode, e.Body)
}

type Options struct {
	APIBase      string
	ChannelToken string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Client talks to the push and reply endpoints of the messaging API.
type Client struct {
	base    string
	token   string
	timeout time.Duration
	http    *http.Client
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.APIBase, "/")
	if base == "" {
		base = DefaultAPIBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: base, token: opts.ChannelToken, timeout: timeout, http: hc}
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

// Push sends text to a user, group or room id.
func (c *Client) Push(ctx context.Context, to, text string) error {
	return c.post(ctx, pushPath, pushRequest{To: to, Messages: textMessages(text)})
}

// Reply answers a webhook event. A reply token is valid for one call only.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	return c.post(ctx, replyPath, replyRequest{ReplyToken: replyToken, Messages: textMessages(text)})
}

func textMessages(text string) []textMessage {
	if r := []rune(text); len(r) > maxTextRunes {
		text = string(r[:maxTextRunes])
	}
	return []textMessage{{Type: "text", Text: text}}
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
