package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"weather_relay/internal/logger"
	"weather_relay/internal/models"
	"weather_relay/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Dispatch kinds and statuses as stored in the dispatch log.
const (
	KindPush  = "PUSH"
	KindReply = "REPLY"

	StatusSent      = "SENT"
	StatusFailed    = "FAILED"
	StatusDuplicate = "DUPLICATE"

	defaultMaxParallel = 4
	releaseTimeout     = 5 * time.Second
)

// Messenger is the chat platform.
type Messenger interface {
	Push(ctx context.Context, to, text string) error
	Reply(ctx context.Context, replyToken, text string) error
}

// DispatchRecorder observes dispatch outcomes (metrics).
type DispatchRecorder interface {
	ObserveDispatch(kind, status string, elapsed time.Duration)
}

type DispatchOptions struct {
	BroadcastTo string
	MaxParallel int
}

// DispatchService sends composed messages and logs every attempt.
type DispatchService struct {
	messenger   Messenger
	pending     repository.PendingReplyRepo
	recipients  repository.RecipientRepo
	events      repository.DispatchRepo
	recorder    DispatchRecorder
	broadcastTo string
	maxParallel int
	log         *logger.Logger
}

func NewDispatchService(
	messenger Messenger,
	pending repository.PendingReplyRepo,
	recipients repository.RecipientRepo,
	events repository.DispatchRepo,
	recorder DispatchRecorder,
	opts DispatchOptions,
	log *logger.Logger,
) *DispatchService {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = defaultMaxParallel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DispatchService{
		messenger:   messenger,
		pending:     pending,
		recipients:  recipients,
		events:      events,
		recorder:    recorder,
		broadcastTo: strings.TrimSpace(opts.BroadcastTo),
		maxParallel: opts.MaxParallel,
		log:         log,
	}
}

// Push sends msg to every recipient with bounded parallelism. Failures are
// collected into a *DispatchError; one failure does not stop the others.
func (s *DispatchService) Push(ctx context.Context, recipients []string, msg string) error {
	var (
		mu     sync.Mutex
		failed = map[string]error{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, to := range recipients {
		g.Go(func() error {
			start := time.Now()
			err := s.messenger.Push(gctx, to, msg)
			s.record(gctx, KindPush, to, msg, start, err)
			if err != nil {
				mu.Lock()
				failed[to] = err
				mu.Unlock()
			}
			// never cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return &DispatchError{Kind: KindPush, Targets: failed}
	}
	return nil
}

// Broadcast pushes msg to the configured broadcast target, or to every known
// chat user when none is configured.
func (s *DispatchService) Broadcast(ctx context.Context, msg string) error {
	if s.broadcastTo != "" {
		return s.Push(ctx, []string{s.broadcastTo}, msg)
	}
	ids, err := s.recipients.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}
	if len(ids) == 0 {
		s.log.Infow("broadcast_no_recipients")
		return nil
	}
	return s.Push(ctx, ids, msg)
}

// ComposeFunc builds a reply. It runs only while the reply token is held.
type ComposeFunc func(ctx context.Context) (string, error)

// Text is a ComposeFunc for a message that is already known.
func Text(msg string) ComposeFunc {
	return func(context.Context) (string, error) { return msg, nil }
}

// ReplyOnce answers a reply token at most once. The token is claimed before
// compose runs and released after the reply, whatever its outcome. A token
// that is already pending yields ErrDuplicateCorrelation without composing
// or contacting the platform.
func (s *DispatchService) ReplyOnce(ctx context.Context, token string, compose ComposeFunc) error {
	claimed, err := s.pending.Claim(ctx, token)
	if err != nil {
		return fmt.Errorf("claim reply token: %w", err)
	}
	if !claimed {
		s.append(ctx, models.DispatchEvent{Kind: KindReply, Target: token, Status: StatusDuplicate})
		s.observe(KindReply, StatusDuplicate, 0)
		return ErrDuplicateCorrelation
	}
	defer func() {
		// the request context may already be gone
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.pending.Release(rctx, token); err != nil {
			s.log.Errorw("reply_token_release_failed", "err", err, "token", token)
		}
	}()

	msg, err := compose(ctx)
	if err != nil {
		return fmt.Errorf("compose reply: %w", err)
	}

	start := time.Now()
	err = s.messenger.Reply(ctx, token, msg)
	s.record(ctx, KindReply, token, msg, start, err)
	if err != nil {
		return &DispatchError{Kind: KindReply, Targets: map[string]error{token: err}}
	}
	return nil
}

func (s *DispatchService) record(ctx context.Context, kind, target, msg string, start time.Time, err error) {
	e := models.DispatchEvent{
		OccurredAt: start.UTC(),
		Kind:       kind,
		Target:     target,
		Status:     StatusSent,
		Message:    msg,
	}
	if err != nil {
		e.Status = StatusFailed
		e.Error = err.Error()
		s.log.Warnw("dispatch_failed", "err", err, "kind", kind, "target", target)
	}
	s.append(ctx, e)
	s.observe(kind, e.Status, time.Since(start))
}

func (s *DispatchService) append(ctx context.Context, e models.DispatchEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(context.WithoutCancel(ctx), e); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Errorw("dispatch_log_append_failed", "err", err, "kind", e.Kind, "target", e.Target)
	}
}

func (s *DispatchService) observe(kind, status string, elapsed time.Duration) {
	if s.recorder != nil {
		s.recorder.ObserveDispatch(kind, status, elapsed)
	}
}
