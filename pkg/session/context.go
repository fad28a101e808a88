package session

import (
	"context"
	"strings"
	"sync"
)

// Outcome is the resolution of a save attempt.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeAccepted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Result is delivered to the session when a save context is resolved.
type Result struct {
	Outcome     Outcome
	Message     string
	FieldErrors map[string][]string
}

// SaveContext is handed to the save handler with the snapshot taken for one
// save attempt. Exactly one resolution is honoured; later calls return
// ErrAlreadyResolved.
type SaveContext struct {
	// Data is the aggregated value snapshot. The handler owns it.
	Data map[string]any

	mu      sync.Mutex
	outcome Outcome
	settle  func(Result) error
	done    chan struct{}
}

func newSaveContext(data map[string]any, settle func(Result) error) *SaveContext {
	return &SaveContext{
		Data:   data,
		settle: settle,
		done:   make(chan struct{}),
	}
}

// Resolve settles the attempt with r. Rejections with an empty message use
// DefaultRejectMessage.
func (c *SaveContext) Resolve(r Result) error {
	if r.Outcome != OutcomeAccepted && r.Outcome != OutcomeRejected {
		return ErrInvalidOutcome
	}
	if r.Outcome == OutcomeRejected && strings.TrimSpace(r.Message) == "" {
		r.Message = DefaultRejectMessage
	}

	c.mu.Lock()
	if c.outcome != OutcomePending {
		c.mu.Unlock()
		return ErrAlreadyResolved
	}
	c.outcome = r.Outcome
	close(c.done)
	c.mu.Unlock()

	if c.settle == nil {
		return nil
	}
	return c.settle(r)
}

// Accept marks the snapshot as durably saved.
func (c *SaveContext) Accept() error {
	return c.Resolve(Result{Outcome: OutcomeAccepted})
}

// Reject reports a failed save with a user-visible message.
func (c *SaveContext) Reject(message string) error {
	return c.Resolve(Result{Outcome: OutcomeRejected, Message: message})
}

// RejectFields reports a failed save with per-field messages keyed by dotted
// field path.
func (c *SaveContext) RejectFields(message string, fieldErrors map[string][]string) error {
	return c.Resolve(Result{Outcome: OutcomeRejected, Message: message, FieldErrors: fieldErrors})
}

// Outcome returns the recorded outcome, OutcomePending until resolved.
func (c *SaveContext) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Done is closed once the context has been resolved.
func (c *SaveContext) Done() <-chan struct{} {
	return c.done
}

// SaveHandler persists a snapshot and eventually resolves the save context.
// Save is called synchronously from RequestSave; long-running work should
// continue in a goroutine. ctx is cancelled once the attempt settles, times
// out, or the session is unmounted.
type SaveHandler interface {
	Save(ctx context.Context, sc *SaveContext)
}

// SaveHandlerFunc adapts a plain function to the SaveHandler interface.
type SaveHandlerFunc func(ctx context.Context, sc *SaveContext)

func (f SaveHandlerFunc) Save(ctx context.Context, sc *SaveContext) {
	f(ctx, sc)
}
