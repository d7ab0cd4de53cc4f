package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation marks an ingest payload with a missing or non-numeric field.
	ErrValidation = errors.New("validation failed")
	// ErrNoReading is returned before the first successful ingest.
	ErrNoReading = errors.New("no reading yet")
	// ErrDuplicateCorrelation means the reply token is already being answered.
	// Callers treat it as a successful no-op.
	ErrDuplicateCorrelation = errors.New("reply token already pending")
	// ErrEmptyQuestion is returned by Answer for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// DispatchError collects per-target failures of one dispatch.
type DispatchError struct {
	Kind    string
	Targets map[string]error
}

func (e *DispatchError) Error() string {
	ids := e.failedTargets()
	return fmt.Sprintf("%s to %d target(s) failed: %s", strings.ToLower(e.Kind), len(ids), strings.Join(ids, ", "))
}

// Unwrap exposes every cause to errors.Is / errors.As.
func (e *DispatchError) Unwrap() error {
	errs := make([]error, 0, len(e.Targets))
	for _, id := range e.failedTargets() {
		errs = append(errs, e.Targets[id])
	}
	return errors.Join(errs...)
}

func (e *DispatchError) failedTargets() []string {
	ids := make([]string, 0, len(e.Targets))
	for id := range e.Targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
