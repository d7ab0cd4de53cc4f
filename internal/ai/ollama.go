package ai

import (
	"context"
	"strings"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "deepseek-r1:14b-qwen-distill-q4_K_M"
)

type ollama struct {
	httpBackend
	model string
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
}

func newOllama(opts Options) *ollama {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultOllamaURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	return &ollama{
		httpBackend: httpBackend{url: base + "/api/chat", timeout: opts.Timeout, http: opts.HTTPClient},
		model:       model,
	}
}

func (o *ollama) Complete(ctx context.Context, msgs []Message) (string, error) {
	var out ollamaChatResponse
	if err := o.postJSON(ctx, ollamaChatRequest{Model: o.model, Messages: msgs}, &out); err != nil {
		return "", err
	}
	answer := stripThinking(out.Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// Reasoning models wrap their scratchpad in <think> tags.
func stripThinking(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end < 0 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}
