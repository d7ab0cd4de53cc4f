package service

import (
	"context"
	"time"

	"weather_relay/internal/ai"
	"weather_relay/internal/classifier"
	"weather_relay/internal/config"
	"weather_relay/internal/line"
	"weather_relay/internal/logger"
	"weather_relay/internal/models"
	"weather_relay/internal/report"
	"weather_relay/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Readings is the in-memory store of the latest device reading.
type Readings interface {
	Ingest(ctx context.Context, in SensorInput) (models.Snapshot, error)
	Current(ctx context.Context) (models.Snapshot, error)
	Labels(r models.Reading) classifier.Labels
}

// Assistant answers free-text questions about the current reading.
type Assistant interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Webhook processes chat platform events in the background.
type Webhook interface {
	HandleEvents(ctx context.Context, events []line.Event)
	Wait()
}

type Recipients interface {
	ListRecipients(ctx context.Context) ([]models.Recipient, error)
}

// DispatchLog exposes the outbound message log with filtering.
type DispatchLog interface {
	ListDispatches(ctx context.Context, f DispatchFilter) ([]models.DispatchEvent, error)
}

// Scheduler runs the report loop. Stop via context cancellation in main().
type Scheduler interface {
	Run(ctx context.Context, tick time.Duration)
	TriggerNow(ctx context.Context) (string, error)
}

type Service struct {
	Readings
	Assistant
	Webhook
	Recipients
	DispatchLog
	Scheduler
	Authorization
}

// Deps are the collaborators that live outside the repository layer.
type Deps struct {
	Classifier *classifier.Set
	Messenger  Messenger
	AI         ai.Client
	Sinks      []ReadingSink
	Recorder   DispatchRecorder
	Log        *logger.Logger
}

// NewService wires the repository layer and external clients into concrete services.
func NewService(cfg *config.Config, repos *repository.Repository, deps Deps) *Service {
	log := deps.Log
	composer := report.NewComposer(cfg.Report.MaxAIRunes)

	readings := NewReadingService(deps.Classifier, log.Component("readings"), deps.Sinks...)
	assistant := NewAssistantService(deps.AI, readings, log.Component("assistant"))
	recipients := NewRecipientService(repos.Recipients)
	dispatch := NewDispatchService(deps.Messenger, repos.Pending, repos.Recipients, repos.Dispatches, deps.Recorder,
		DispatchOptions{BroadcastTo: cfg.Line.BroadcastTo, MaxParallel: cfg.Line.MaxParallel},
		log.Component("dispatch"))
	scheduler := NewSchedulerService(readings, assistant, composer, dispatch, SchedulerOptions{
		Interval: cfg.Scheduler.Interval,
		Strategy: StrategyFor(cfg.Scheduler.Mode, cfg.BaselineKeys()),
		WithAI:   cfg.Scheduler.WithAI,
	}, log.Component("scheduler"))
	webhook := NewWebhookService(readings, assistant, dispatch, recipients, composer,
		cfg.Webhook.Greetings, log.Component("webhook"))

	return &Service{
		Readings:    readings,
		Assistant:   assistant,
		Webhook:     webhook,
		Recipients:  recipients,
		DispatchLog: NewDispatchLogService(repos.Dispatches),
		Scheduler:   scheduler,
		Authorization: NewAuthService(repos.Auth, AuthOptions{
			SigningKey:  cfg.Auth.SigningKey,
			TokenTTL:    cfg.Auth.TokenTTL,
			AllowSignUp: cfg.Auth.AllowSignUp,
		}),
	}
}

var (
	_ Readings      = (*ReadingService)(nil)
	_ Assistant     = (*AssistantService)(nil)
	_ Webhook       = (*WebhookService)(nil)
	_ Recipients    = (*RecipientService)(nil)
	_ DispatchLog   = (*DispatchLogService)(nil)
	_ Scheduler     = (*SchedulerService)(nil)
	_ Authorization = (*AuthService)(nil)
)
