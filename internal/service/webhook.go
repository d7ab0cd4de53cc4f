package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"weather_relay/internal/classifier"
	"weather_relay/internal/line"
	"weather_relay/internal/logger"
	"weather_relay/internal/models"
	"weather_relay/internal/report"
)

// ReplyNoReading is sent when a user writes before the device has reported.
const ReplyNoReading = "❌ No sensor data yet"

type intent int

const (
	intentAsk intent = iota
	intentWeatherNow
	intentLaundry
	intentAskPrefixed
)

// Phrases are matched on the trimmed, lower-cased message text.
var intentPhrases = map[string]intent{
	"how is the weather now":          intentWeatherNow,
	"สภาพอากาศตอนนี้เป็นอย่างไร":      intentWeatherNow,
	"should i hang the laundry now":   intentLaundry,
	"should i hang laundry":           intentLaundry,
	"ตอนนี้ควรตากผ้าไหม":              intentLaundry,
	"should i bring an umbrella":      intentAskPrefixed,
	"ควรพกร่มออกจากบ้านไหม":           intentAskPrefixed,
	"how bright is it":                intentAskPrefixed,
	"ความเข้มของแสงตอนนี้เป็นอย่างไร": intentAskPrefixed,
	"how humid is it":                 intentAskPrefixed,
	"ความชื้นตอนนี้เป็นอย่างไร":       intentAskPrefixed,
}

type asker interface {
	Ask(ctx context.Context, question string, r models.Reading) string
}

type replier interface {
	ReplyOnce(ctx context.Context, token string, compose ComposeFunc) error
}

type rememberer interface {
	Remember(ctx context.Context, userID string) (bool, error)
}

// WebhookService answers chat events. HandleEvents returns at once; each
// event runs in its own goroutine.
type WebhookService struct {
	readings   labelledSource
	assistant  asker
	replies    replier
	recipients rememberer
	composer   *report.Composer
	greetings  []string
	log        *logger.Logger

	wg sync.WaitGroup

	// OnEventDone, when set, is called after each event finishes.
	OnEventDone func(ev line.Event, err error)
}

func NewWebhookService(
	readings labelledSource,
	assistant asker,
	replies replier,
	recipients rememberer,
	composer *report.Composer,
	greetings []string,
	log *logger.Logger,
) *WebhookService {
	if composer == nil {
		composer = report.NewComposer(report.DefaultMaxAIRunes)
	}
	if log == nil {
		log = logger.Nop()
	}
	g := make([]string, 0, len(greetings))
	for _, w := range greetings {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			g = append(g, w)
		}
	}
	return &WebhookService{
		readings:   readings,
		assistant:  assistant,
		replies:    replies,
		recipients: recipients,
		composer:   composer,
		greetings:  g,
		log:        log,
	}
}

// HandleEvents schedules every event for asynchronous processing. The work
// outlives ctx cancellation but keeps its values.
func (s *WebhookService) HandleEvents(ctx context.Context, events []line.Event) {
	bg := context.WithoutCancel(ctx)
	for _, ev := range events {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := s.Process(bg, ev)
			switch {
			case err == nil, errors.Is(err, ErrDuplicateCorrelation):
			default:
				s.log.Warnw("webhook_event_failed", "err", err, "user_id", ev.Source.UserID, "type", ev.Type)
			}
			if s.OnEventDone != nil {
				s.OnEventDone(ev, err)
			}
		}()
	}
}

// Wait blocks until all in-flight events are done.
func (s *WebhookService) Wait() {
	s.wg.Wait()
}

// Process handles one event synchronously. Events without a user id or
// reply token are ignored. The reply token is held from the start, so a
// redelivered event never reaches the AI backend or the platform twice.
func (s *WebhookService) Process(ctx context.Context, ev line.Event) error {
	userID := ev.Source.UserID
	if userID == "" || ev.ReplyToken == "" {
		return nil
	}
	return s.replies.ReplyOnce(ctx, ev.ReplyToken, func(ctx context.Context) (string, error) {
		if _, err := s.recipients.Remember(ctx, userID); err != nil {
			// still answer the user
			s.log.Errorw("recipient_save_failed", "err", err, "user_id", userID)
		}
		snap, err := s.readings.Current(ctx)
		if err != nil {
			if errors.Is(err, ErrNoReading) {
				return ReplyNoReading, nil
			}
			return "", err
		}
		return s.compose(ctx, ev, snap.Reading), nil
	})
}

func (s *WebhookService) compose(ctx context.Context, ev line.Event, r models.Reading) string {
	text := strings.TrimSpace(ev.Text())
	msg := report.Message{Reading: r, Labels: s.readings.Labels(r)}

	if !ev.IsText() || s.isGreeting(text) {
		msg.Heading = report.HeadingLatest
		return s.composer.Compose(msg)
	}

	switch intentPhrases[strings.ToLower(text)] {
	case intentWeatherNow:
		msg.Heading = report.HeadingLatest
		msg.AIText = s.assistant.Ask(ctx, text, r)
		return s.composer.Compose(msg)
	case intentLaundry:
		msg.Heading = report.HeadingLaundry
		msg.AIText = s.assistant.Ask(ctx, text, r)
		return s.composer.ComposeChannel(classifier.Light, msg)
	case intentAskPrefixed:
		return s.composer.AISection(s.assistant.Ask(ctx, text, r))
	default:
		return s.assistant.Ask(ctx, text, r)
	}
}

// ASCII greetings match whole words ("hi" must not match "this"); other
// scripts match as substrings.
func (s *WebhookService) isGreeting(text string) bool {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, g := range s.greetings {
		if isASCII(g) {
			for _, w := range words {
				if w == g {
					return true
				}
			}
			continue
		}
		if strings.Contains(text, g) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
