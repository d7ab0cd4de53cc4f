package models

import "time"

// DispatchEvent is a single entry of the outbound message log.
type DispatchEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Kind       string    `json:"kind"`            // PUSH | REPLY
	Target     string    `json:"target"`          // user/group id or reply token
	Status     string    `json:"status"`          // SENT | FAILED | DUPLICATE
	Message    string    `json:"message"`         // text that was (or would have been) sent
	Error      string    `json:"error,omitempty"` // failure cause, if any
}
