package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weather_relay/internal/models"
	"weather_relay/internal/repository"
)

// DispatchFilter narrows the dispatch log. Zero values mean "no bound".
type DispatchFilter struct {
	From time.Time
	To   time.Time
	Kind string // PUSH | REPLY, any case
}

// normalized returns the filter in the form the repository stores: UTC
// bounds and an upper-case kind. Unknown kinds and inverted ranges wrap
// ErrValidation.
func (f DispatchFilter) normalized() (DispatchFilter, error) {
	out := DispatchFilter{From: f.From, To: f.To}
	if !out.From.IsZero() {
		out.From = out.From.UTC()
	}
	if !out.To.IsZero() {
		out.To = out.To.UTC()
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return DispatchFilter{}, fmt.Errorf("%w: from %s is after to %s",
			ErrValidation, out.From.Format(time.RFC3339), out.To.Format(time.RFC3339))
	}

	switch kind := strings.ToUpper(strings.TrimSpace(f.Kind)); kind {
	case "", KindPush, KindReply:
		out.Kind = kind
	default:
		return DispatchFilter{}, fmt.Errorf("%w: unknown dispatch kind %q", ErrValidation, f.Kind)
	}
	return out, nil
}

// DispatchLogService reads back what the dispatch gateway recorded.
type DispatchLogService struct {
	repo repository.DispatchRepo
}

func NewDispatchLogService(repo repository.DispatchRepo) *DispatchLogService {
	return &DispatchLogService{repo: repo}
}

func (s *DispatchLogService) ListDispatches(ctx context.Context, f DispatchFilter) ([]models.DispatchEvent, error) {
	nf, err := f.normalized()
	if err != nil {
		return nil, err
	}
	events, err := s.repo.List(ctx, nf.From, nf.To, nf.Kind)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	return events, nil
}
