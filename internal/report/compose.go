// Package report renders readings and their bands as chat-ready text.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"weather_relay/internal/classifier"
	"weather_relay/internal/models"
)

// Headings used across the service.
const (
	HeadingAutoReport = "📡 Auto report"
	HeadingAlert      = "🚨 Weather alert"
	HeadingLatest     = "📊 Latest weather"
	HeadingLaundry    = "📌 Should I hang the laundry now"
)

const (
	// DefaultMaxAIRunes caps the AI commentary appended to a report.
	DefaultMaxAIRunes = 1000
	truncationMarker  = "…"
	aiPrefix          = "🤖 AI: "
)

// Message is everything a report is built from.
type Message struct {
	Heading string
	Reading models.Reading
	Labels  classifier.Labels
	AIText  string
}

// Composer renders Messages. The zero value uses DefaultMaxAIRunes.
type Composer struct {
	MaxAIRunes int
}

func NewComposer(maxAIRunes int) *Composer {
	return &Composer{MaxAIRunes: maxAIRunes}
}

// Compose renders a multi-line report with one line per channel. The AI
// section is omitted when AIText is blank.
func (c *Composer) Compose(m Message) string {
	var b strings.Builder
	if m.Heading != "" {
		b.WriteString(m.Heading)
		b.WriteString(" :")
	}
	for _, ch := range classifier.Channels {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(ChannelLine(ch, classifier.Value(m.Reading, ch), m.Labels.Get(ch)))
	}
	if ai := c.AISection(m.AIText); ai != "" {
		b.WriteByte('\n')
		b.WriteString(ai)
	}
	return b.String()
}

// ComposeChannel renders a report restricted to one channel.
func (c *Composer) ComposeChannel(ch classifier.Channel, m Message) string {
	var b strings.Builder
	if m.Heading != "" {
		b.WriteString(m.Heading)
		b.WriteString(" :\n")
	}
	b.WriteString(ChannelLine(ch, classifier.Value(m.Reading, ch), m.Labels.Get(ch)))
	if ai := c.AISection(m.AIText); ai != "" {
		b.WriteByte('\n')
		b.WriteString(ai)
	}
	return b.String()
}

// AISection returns the prefixed, truncated AI line, or "" for blank input.
func (c *Composer) AISection(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return aiPrefix + Truncate(text, c.maxRunes())
}

func (c *Composer) maxRunes() int {
	if c == nil || c.MaxAIRunes <= 0 {
		return DefaultMaxAIRunes
	}
	return c.MaxAIRunes
}

// Truncate cuts s to at most max runes and appends a marker when it had to cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + truncationMarker
		}
		n++
	}
	return s
}

// ChannelLine renders "💡 Light: 1200 lux (room with daylight 🌈)".
func ChannelLine(ch classifier.Channel, v float64, band classifier.Band) string {
	icon, name, unit := describe(ch)
	line := fmt.Sprintf("%s %s: %s %s", icon, name, FormatValue(v), unit)
	if band.Label != "" {
		line += " (" + band.Label + ")"
	}
	return line
}

func describe(ch classifier.Channel) (icon, name, unit string) {
	switch ch {
	case classifier.Light:
		return "💡", "Light", "lux"
	case classifier.Temperature:
		return "🌡️", "Temperature", "°C"
	case classifier.Humidity:
		return "💧", "Humidity", "%"
	default:
		return "•", string(ch), ""
	}
}

// FormatValue drops trailing zeros so 28 prints as "28" and 28.5 as "28.5".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
