package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"weather_relay/internal/ai"
	"weather_relay/internal/logger"
	"weather_relay/internal/models"
	"weather_relay/internal/report"
)

const (
	systemPrompt = "You are an assistant that analyses the weather from sensor data."
	userPrompt   = `Sensor data:
- Light: %s lux
- Temperature: %s °C
- Humidity: %s %%
Question: %q
Answer briefly and clearly.`

	// ReportQuestion is asked when a report wants AI commentary.
	ReportQuestion = "Analyse the current weather."

	FallbackUnavailable = "❌ Could not contact the AI"
	FallbackNoAnswer    = "❌ Could not analyze the question"
)

type snapshotSource interface {
	Current(ctx context.Context) (models.Snapshot, error)
}

// AssistantService turns questions about the current reading into AI answers.
type AssistantService struct {
	client   ai.Client
	readings snapshotSource
	log      *logger.Logger
}

func NewAssistantService(client ai.Client, readings snapshotSource, log *logger.Logger) *AssistantService {
	if client == nil {
		client = ai.Disabled{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AssistantService{client: client, readings: readings, log: log}
}

// Answer asks about the current reading. Only validation and missing-reading
// errors are returned; backend failures become fallback text.
func (s *AssistantService) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	snap, err := s.readings.Current(ctx)
	if err != nil {
		return "", err
	}
	return s.Ask(ctx, question, snap.Reading), nil
}

// Ask never fails.
func (s *AssistantService) Ask(ctx context.Context, question string, r models.Reading) string {
	answer, err := s.complete(ctx, question, r)
	switch {
	case err == nil:
		return answer
	case errors.Is(err, ai.ErrEmptyAnswer):
		return FallbackNoAnswer
	default:
		return FallbackUnavailable
	}
}

// Commentary is the AI section of a report. It is empty when AI is disabled.
func (s *AssistantService) Commentary(ctx context.Context, r models.Reading) string {
	answer, err := s.complete(ctx, ReportQuestion, r)
	switch {
	case err == nil:
		return answer
	case errors.Is(err, ai.ErrDisabled):
		return ""
	case errors.Is(err, ai.ErrEmptyAnswer):
		return FallbackNoAnswer
	default:
		return FallbackUnavailable
	}
}

func (s *AssistantService) complete(ctx context.Context, question string, r models.Reading) (string, error) {
	answer, err := s.client.Complete(ctx, Prompt(question, r))
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			s.log.Warnw("ai_complete_failed", "err", err, "question", question)
		}
		return "", err
	}
	return answer, nil
}

// Prompt builds the chat transcript for a question about r.
func Prompt(question string, r models.Reading) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: fmt.Sprintf(userPrompt, report.FormatValue(r.Light), report.FormatValue(r.Temp), report.FormatValue(r.Humidity), question)},
	}
}
