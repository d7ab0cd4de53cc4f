// Package classifier maps raw sensor values to discrete, human-readable bands.
//
// Every channel owns a Table: an ordered list of bands sorted by strictly
// descending threshold plus a floor band. A value belongs to the first band
// whose threshold it reaches (value >= threshold); values below the lowest
// threshold fall into the floor band. The same operator is used at every
// boundary.
package classifier

import (
	"errors"
	"fmt"
	"strings"

	"weather_relay/internal/models"
)

// Channel names one measured quantity of a reading.
type Channel string

const (
	Light       Channel = "light"
	Temperature Channel = "temperature"
	Humidity    Channel = "humidity"
)

// Channels lists every channel in report order.
var Channels = []Channel{Light, Temperature, Humidity}

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrInvalidTable   = errors.New("invalid threshold table")
)

// Band is one classification bucket.
type Band struct {
	Threshold float64 `json:"threshold" mapstructure:"threshold"` // inclusive lower bound; ignored for the floor band
	Key       string  `json:"key" mapstructure:"key"`             // stable identifier, e.g. "very_hot"
	Label     string  `json:"label" mapstructure:"label"`         // text shown to people
}

// Table holds the bands of a single channel.
type Table struct {
	Channel Channel
	Bands   []Band
	Floor   Band
}

// NewTable builds and validates a table.
func NewTable(ch Channel, bands []Band, floor Band) (Table, error) {
	t := Table{Channel: ch, Bands: append([]Band(nil), bands...), Floor: floor}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate checks that thresholds are strictly descending and every band is named.
func (t Table) Validate() error {
	if !isKnown(t.Channel) {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, t.Channel)
	}
	if len(t.Bands) == 0 {
		return fmt.Errorf("%w: %s has no bands", ErrInvalidTable, t.Channel)
	}
	seen := make(map[string]struct{}, len(t.Bands)+1)
	for i, b := range append(append([]Band(nil), t.Bands...), t.Floor) {
		if strings.TrimSpace(b.Key) == "" || strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("%w: %s band %d needs a key and a label", ErrInvalidTable, t.Channel, i)
		}
		if _, dup := seen[b.Key]; dup {
			return fmt.Errorf("%w: %s has duplicate key %q", ErrInvalidTable, t.Channel, b.Key)
		}
		seen[b.Key] = struct{}{}
	}
	for i := 1; i < len(t.Bands); i++ {
		if !(t.Bands[i].Threshold < t.Bands[i-1].Threshold) {
			return fmt.Errorf("%w: %s thresholds must be strictly descending (%v then %v)",
				ErrInvalidTable, t.Channel, t.Bands[i-1].Threshold, t.Bands[i].Threshold)
		}
	}
	return nil
}

// Classify returns the band for v. NaN lands in the floor band.
func (t Table) Classify(v float64) Band {
	for _, b := range t.Bands {
		if v >= b.Threshold {
			return b
		}
	}
	return t.Floor
}

// Top returns the highest band of the table.
func (t Table) Top() Band {
	if len(t.Bands) == 0 {
		return t.Floor
	}
	return t.Bands[0]
}

func isKnown(ch Channel) bool {
	for _, c := range Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Labels is the classification of a full reading.
type Labels struct {
	Light       Band `json:"light"`
	Temperature Band `json:"temperature"`
	Humidity    Band `json:"humidity"`
}

// Get returns the band of one channel.
func (l Labels) Get(ch Channel) Band {
	switch ch {
	case Light:
		return l.Light
	case Temperature:
		return l.Temperature
	case Humidity:
		return l.Humidity
	default:
		return Band{}
	}
}

// Value extracts the raw value of a channel from a reading.
func Value(r models.Reading, ch Channel) float64 {
	switch ch {
	case Light:
		return r.Light
	case Temperature:
		return r.Temp
	case Humidity:
		return r.Humidity
	default:
		return 0
	}
}

// Set is one table per channel.
type Set struct {
	tables map[Channel]Table
}

// NewSet requires exactly one valid table for every channel.
func NewSet(tables ...Table) (*Set, error) {
	s := &Set{tables: make(map[Channel]Table, len(Channels))}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.tables[t.Channel]; dup {
			return nil, fmt.Errorf("%w: duplicate table for %s", ErrInvalidTable, t.Channel)
		}
		s.tables[t.Channel] = t
	}
	for _, ch := range Channels {
		if _, ok := s.tables[ch]; !ok {
			return nil, fmt.Errorf("%w: missing table for %s", ErrInvalidTable, ch)
		}
	}
	return s, nil
}

// Table returns the table of a channel.
func (s *Set) Table(ch Channel) (Table, bool) {
	t, ok := s.tables[ch]
	return t, ok
}

// Classify classifies a single value.
func (s *Set) Classify(ch Channel, v float64) (Band, error) {
	t, ok := s.tables[ch]
	if !ok {
		return Band{}, fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
	return t.Classify(v), nil
}

// Labels classifies every channel of r.
func (s *Set) Labels(r models.Reading) Labels {
	return Labels{
		Light:       s.tables[Light].Classify(r.Light),
		Temperature: s.tables[Temperature].Classify(r.Temp),
		Humidity:    s.tables[Humidity].Classify(r.Humidity),
	}
}
