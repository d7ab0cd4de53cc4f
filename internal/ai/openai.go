package ai

import (
	"context"
	"strings"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com"
	DefaultOpenAIModel = "gpt-4o-mini"
)

type openAI struct {
	httpBackend
	model string
}

type openAIChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func newOpenAI(opts Options) *openAI {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultOpenAIURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &openAI{
		httpBackend: httpBackend{url: base + "/v1/chat/completions", apiKey: opts.APIKey, timeout: opts.Timeout, http: opts.HTTPClient},
		model:       model,
	}
}

func (o *openAI) Complete(ctx context.Context, msgs []Message) (string, error) {
	var out openAIChatResponse
	if err := o.postJSON(ctx, openAIChatRequest{Model: o.model, Messages: msgs}, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	answer := strings.TrimSpace(out.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
