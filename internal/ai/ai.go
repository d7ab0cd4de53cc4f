package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"

	DefaultTimeout = 8 * time.Second

	RoleSystem = "system"
	RoleUser   = "user"
)

var (
	ErrDisabled    = errors.New("ai: completion disabled")
	ErrEmptyAnswer = errors.New("ai: empty answer")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a completion for a chat transcript.
type Client interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

type Options struct {
	Provider   string
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New picks a backend by provider name.
func New(opts Options) (Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderOllama:
		return newOllama(opts), nil
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, errors.New("ai: openai provider requires an api key")
		}
		return newOpenAI(opts), nil
	case ProviderNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", opts.Provider)
	}
}

// Disabled always fails with ErrDisabled.
type Disabled struct{}

func (Disabled) Complete(context.Context, []Message) (string, error) { return "", ErrDisabled }
