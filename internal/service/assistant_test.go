package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"weather_relay/internal/ai"
	"weather_relay/internal/models"
)

func TestAssistant_Answer(t *testing.T) {
	readings := NewReadingService(nil, nil)
	client := &fakeAI{answer: "Bring an umbrella."}
	svc := NewAssistantService(client, readings, nil)

	if _, err := svc.Answer(context.Background(), "  "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := svc.Answer(context.Background(), "rain?"); !errors.Is(err, ErrNoReading) {
		t.Fatalf("expected ErrNoReading, got %v", err)
	}

	_, _ = readings.Ingest(context.Background(), input(1200, 28.5, 55))
	got, err := svc.Answer(context.Background(), "rain?")
	if err != nil || got != "Bring an umbrella." {
		t.Fatalf("Answer = %q, %v", got, err)
	}

	msgs := client.calls[0]
	if len(msgs) != 2 || msgs[0].Role != ai.RoleSystem || msgs[1].Role != ai.RoleUser {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	for _, want := range []string{"1200 lux", "28.5 °C", "55 %", `"rain?"`} {
		if !strings.Contains(msgs[1].Content, want) {
			t.Fatalf("prompt %q missing %q", msgs[1].Content, want)
		}
	}
}

func TestAssistant_Fallbacks(t *testing.T) {
	r := models.Reading{Light: 1, Temp: 2, Humidity: 3}
	tests := []struct {
		name           string
		err            error
		wantAsk        string
		wantCommentary string
	}{
		{name: "backend down", err: errors.New("connection refused"), wantAsk: FallbackUnavailable, wantCommentary: FallbackUnavailable},
		{name: "empty answer", err: ai.ErrEmptyAnswer, wantAsk: FallbackNoAnswer, wantCommentary: FallbackNoAnswer},
		{name: "disabled", err: ai.ErrDisabled, wantAsk: FallbackUnavailable, wantCommentary: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAssistantService(&fakeAI{err: tt.err}, nil, nil)
			if got := svc.Ask(context.Background(), "q", r); got != tt.wantAsk {
				t.Fatalf("Ask = %q, want %q", got, tt.wantAsk)
			}
			if got := svc.Commentary(context.Background(), r); got != tt.wantCommentary {
				t.Fatalf("Commentary = %q, want %q", got, tt.wantCommentary)
			}
		})
	}
}

func TestAssistant_NilClientIsDisabled(t *testing.T) {
	svc := NewAssistantService(nil, nil, nil)
	if got := svc.Commentary(context.Background(), models.Reading{}); got != "" {
		t.Fatalf("expected no commentary, got %q", got)
	}
}
