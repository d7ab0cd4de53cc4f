package models

import "time"

// Reading is one sample posted by the weather device.
type Reading struct {
	Light    float64 `json:"light"`    // lux
	Temp     float64 `json:"temp"`     // °C
	Humidity float64 `json:"humidity"` // percent
}

// Snapshot is the reading currently held by the store together with the time it arrived.
type Snapshot struct {
	Reading    Reading   `json:"reading"`
	ReceivedAt time.Time `json:"received_at"`
}
