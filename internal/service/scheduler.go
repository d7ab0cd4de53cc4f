package service

import (
	"context"
	"sync"
	"time"

	"weather_relay/internal/classifier"
	"weather_relay/internal/config"
	"weather_relay/internal/logger"
	"weather_relay/internal/models"
	"weather_relay/internal/report"
)

type ActionKind int

const (
	ActionSkip ActionKind = iota
	ActionReport
)

func (k ActionKind) String() string {
	if k == ActionReport {
		return "report"
	}
	return "skip"
}

// Action is the outcome of one scheduler tick.
type Action struct {
	Kind     ActionKind
	Snapshot models.Snapshot
	Labels   classifier.Labels
	Breaches []classifier.Channel // channels outside their baseline (alert mode)
}

// Strategy decides whether a due report should fire for the given labels.
type Strategy interface {
	Heading() string
	Decide(labels classifier.Labels) (fire bool, breaches []classifier.Channel)
}

// AutoReport fires on every elapsed interval.
type AutoReport struct{}

func (AutoReport) Heading() string { return report.HeadingAutoReport }

func (AutoReport) Decide(classifier.Labels) (bool, []classifier.Channel) { return true, nil }

// AlertOnBreach fires when a monitored channel's band key is not in its
// baseline set. Channels without a baseline entry are not monitored.
type AlertOnBreach struct {
	Baseline map[classifier.Channel][]string
}

func (AlertOnBreach) Heading() string { return report.HeadingAlert }

func (a AlertOnBreach) Decide(labels classifier.Labels) (bool, []classifier.Channel) {
	var breaches []classifier.Channel
	for _, ch := range classifier.Channels {
		allowed, monitored := a.Baseline[ch]
		if !monitored {
			continue
		}
		if !contains(allowed, labels.Get(ch).Key) {
			breaches = append(breaches, ch)
		}
	}
	return len(breaches) > 0, breaches
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

type labelledSource interface {
	Current(ctx context.Context) (models.Snapshot, error)
	Labels(r models.Reading) classifier.Labels
}

type commentator interface {
	Commentary(ctx context.Context, r models.Reading) string
}

type broadcaster interface {
	Broadcast(ctx context.Context, msg string) error
}

type SchedulerOptions struct {
	Interval time.Duration
	Strategy Strategy
	WithAI   bool
}

// SchedulerService fires reports at most once per interval.
type SchedulerService struct {
	mu           sync.Mutex
	lastDispatch time.Time

	interval time.Duration
	strategy Strategy
	withAI   bool

	readings  labelledSource
	assistant commentator
	composer  *report.Composer
	sender    broadcaster
	log       *logger.Logger
}

func NewSchedulerService(
	readings labelledSource,
	assistant commentator,
	composer *report.Composer,
	sender broadcaster,
	opts SchedulerOptions,
	log *logger.Logger,
) *SchedulerService {
	if opts.Strategy == nil {
		opts.Strategy = AutoReport{}
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if composer == nil {
		composer = report.NewComposer(report.DefaultMaxAIRunes)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SchedulerService{
		interval:  opts.Interval,
		strategy:  opts.Strategy,
		withAI:    opts.WithAI,
		readings:  readings,
		assistant: assistant,
		composer:  composer,
		sender:    sender,
		log:       log,
	}
}

// Tick decides what to do at now. The interval check and the update of
// lastDispatch happen under one lock, so concurrent ticks fire at most once.
// A missing reading or a strategy that declines does not consume the interval.
func (s *SchedulerService) Tick(now time.Time) Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastDispatch.IsZero() && now.Sub(s.lastDispatch) < s.interval {
		return Action{Kind: ActionSkip}
	}
	snap, err := s.readings.Current(context.Background())
	if err != nil {
		return Action{Kind: ActionSkip}
	}
	labels := s.readings.Labels(snap.Reading)
	fire, breaches := s.strategy.Decide(labels)
	if !fire {
		return Action{Kind: ActionSkip, Snapshot: snap, Labels: labels}
	}
	s.lastDispatch = now
	return Action{Kind: ActionReport, Snapshot: snap, Labels: labels, Breaches: breaches}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SchedulerService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			act := s.Tick(now)
			if act.Kind != ActionReport {
				continue
			}
			if _, err := s.deliver(ctx, s.strategy.Heading(), act); err != nil {
				s.log.Warnw("scheduled_report_failed", "err", err, "breaches", act.Breaches)
			}
		}
	}
}

// TriggerNow broadcasts a report immediately, bypassing the interval and the
// strategy. It restarts the interval.
func (s *SchedulerService) TriggerNow(ctx context.Context) (string, error) {
	snap, err := s.readings.Current(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.lastDispatch = time.Now()
	s.mu.Unlock()

	act := Action{Kind: ActionReport, Snapshot: snap, Labels: s.readings.Labels(snap.Reading)}
	return s.deliver(ctx, report.HeadingAutoReport, act)
}

func (s *SchedulerService) deliver(ctx context.Context, heading string, act Action) (string, error) {
	msg := report.Message{Heading: heading, Reading: act.Snapshot.Reading, Labels: act.Labels}
	if s.withAI && s.assistant != nil {
		msg.AIText = s.assistant.Commentary(ctx, act.Snapshot.Reading)
	}
	text := s.composer.Compose(msg)
	s.log.Infow("report_dispatch", "heading", heading, "breaches", act.Breaches)
	return text, s.sender.Broadcast(ctx, text)
}

// StrategyFor maps a scheduler mode name to its strategy.
func StrategyFor(mode string, baseline map[classifier.Channel][]string) Strategy {
	if mode == config.ModeAlert {
		b := make(map[classifier.Channel][]string, len(baseline))
		for ch, keys := range baseline {
			b[ch] = append([]string(nil), keys...)
		}
		return AlertOnBreach{Baseline: b}
	}
	return AutoReport{}
}
