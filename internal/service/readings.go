package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"weather_relay/internal/classifier"
	"weather_relay/internal/logger"
	"weather_relay/internal/models"
)

// SensorInput is an ingest payload. A nil field means the device did not send it.
type SensorInput struct {
	Light    *float64 `json:"light"`
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}

func (in SensorInput) reading() (models.Reading, error) {
	var missing []string
	if in.Light == nil {
		missing = append(missing, "light")
	}
	if in.Temp == nil {
		missing = append(missing, "temp")
	}
	if in.Humidity == nil {
		missing = append(missing, "humidity")
	}
	if len(missing) > 0 {
		return models.Reading{}, fmt.Errorf("%w: missing %v", ErrValidation, missing)
	}
	return models.Reading{Light: *in.Light, Temp: *in.Temp, Humidity: *in.Humidity}, nil
}

// ReadingSink receives every accepted reading. Publish must not block for long.
type ReadingSink interface {
	Publish(ctx context.Context, snap models.Snapshot, labels classifier.Labels) error
}

// ReadingService holds the latest reading. Absent until the first ingest.
type ReadingService struct {
	current atomic.Pointer[models.Snapshot]
	set     *classifier.Set
	sinks   []ReadingSink
	log     *logger.Logger
	now     func() time.Time
}

func NewReadingService(set *classifier.Set, log *logger.Logger, sinks ...ReadingSink) *ReadingService {
	if set == nil {
		set = classifier.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReadingService{set: set, sinks: sinks, log: log, now: time.Now}
}

// Ingest validates in and replaces the current snapshot in one atomic swap.
// A rejected payload leaves the store untouched.
func (s *ReadingService) Ingest(ctx context.Context, in SensorInput) (models.Snapshot, error) {
	r, err := in.reading()
	if err != nil {
		return models.Snapshot{}, err
	}
	snap := &models.Snapshot{Reading: r, ReceivedAt: s.now().UTC()}
	s.current.Store(snap)

	labels := s.set.Labels(r)
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, *snap, labels); err != nil {
			s.log.Warnw("reading_sink_failed", "err", err, "sink", fmt.Sprintf("%T", sink))
		}
	}
	return *snap, nil
}

// Current returns the latest snapshot or ErrNoReading.
func (s *ReadingService) Current(ctx context.Context) (models.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return models.Snapshot{}, ErrNoReading
	}
	return *snap, nil
}

// Labels classifies r with the configured tables.
func (s *ReadingService) Labels(r models.Reading) classifier.Labels {
	return s.set.Labels(r)
}
