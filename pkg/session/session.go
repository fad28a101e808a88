// Package session implements the save negotiation of one mounted form: it
// tracks whether the form has unsaved edits, snapshots the aggregated value on
// request, hands it to a save handler, and moves between the clean, dirty,
// saving and error phases as the handler accepts or rejects.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/keybind"
)

type listener struct {
	id uint64
	fn func(State)
}

type attempt struct {
	sc         *SaveContext
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	started    time.Time
}

// Session serialises edits and save negotiation for one form tree. All
// mutation of the tree must go through the session.
type Session struct {
	mu sync.RWMutex

	tree       *form.Tree
	aggregator *form.Aggregator
	handler    SaveHandler
	logger     *slog.Logger
	timeout    time.Duration
	shortcut   keybind.Combo

	phase       Phase
	message     string
	fieldErrors map[string][]string
	err         error
	current     *attempt

	release      func()
	listeners    []listener
	nextListener uint64
}

// New wraps tree in a session starting in the clean phase.
func New(tree *form.Tree, opts ...Option) (*Session, error) {
	if tree == nil {
		return nil, fmt.Errorf("session: tree is required")
	}
	s := &Session{
		tree:     tree,
		logger:   discardLogger(),
		shortcut: keybind.MustParseCombo("ctrl+s"),
		phase:    PhaseClean,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.aggregator = form.NewAggregator(tree)
	s.aggregator.Observe(s.becameDirty)
	return s, nil
}

// Tree returns the form tree owned by the session. Reading it while the
// session may be edited from another goroutine must go through View; use the
// session's edit methods rather than editing nodes directly.
func (s *Session) Tree() *form.Tree {
	return s.tree
}

// View calls fn with the tree while holding the session's read lock. Edits
// wait until fn returns. fn must not call back into the session.
func (s *Session) View(fn func(*form.Tree) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.tree)
}

// State returns the current state snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		Phase:       s.phase,
		Dirty:       s.aggregator.Dirty(),
		SavedOnce:   s.aggregator.SavedOnce(),
		Message:     s.message,
		FieldErrors: cloneFieldErrors(s.fieldErrors),
		err:         s.err,
	}
}

// Subscribe registers fn for state changes and returns its release function.
func (s *Session) Subscribe(fn func(State)) (release func()) {
	s.mu.Lock()
	id := s.subscribe(fn)
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Session) subscribe(fn func(State)) uint64 {
	if fn == nil {
		return 0
	}
	s.nextListener++
	s.listeners = append(s.listeners, listener{id: s.nextListener, fn: fn})
	return s.nextListener
}

// emit must be called without s.mu held.
func (s *Session) emit(state State) {
	s.mu.RLock()
	listeners := append([]listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l.fn(state)
	}
}

// becameDirty runs on the aggregator's clean→dirty notification. Edits only
// reach the tree through session methods, so s.mu is held.
func (s *Session) becameDirty() {
	s.logger.Debug("form became dirty", slog.String("phase", s.phase.String()))
}

// Edit applies value to the field at the dotted path. Clean and error
// sessions become dirty; a saving session stays saving.
func (s *Session) Edit(path string, value any) error {
	return s.mutate(func() error {
		_, err := s.tree.Edit(path, value)
		return err
	})
}

// AppendItem appends an item to the list field at path.
func (s *Session) AppendItem(path string, values map[string]any) error {
	return s.mutate(func() error {
		node, err := s.tree.Lookup(path)
		if err != nil {
			return err
		}
		_, err = node.AppendItem(values)
		return err
	})
}

// RemoveItem removes the item at index from the list field at path.
func (s *Session) RemoveItem(path string, index int) error {
	return s.mutate(func() error {
		node, err := s.tree.Lookup(path)
		if err != nil {
			return err
		}
		return node.RemoveItem(index)
	})
}

// MoveItem reorders the list field at path.
func (s *Session) MoveItem(path string, from, to int) error {
	return s.mutate(func() error {
		node, err := s.tree.Lookup(path)
		if err != nil {
			return err
		}
		return node.MoveItem(from, to)
	})
}

func (s *Session) mutate(apply func() error) error {
	s.mu.Lock()
	if err := apply(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.phase == PhaseClean || s.phase == PhaseError {
		s.phase = PhaseDirty
		s.message = ""
		s.fieldErrors = nil
		s.err = nil
	}
	state := s.stateLocked()
	s.mu.Unlock()
	s.emit(state)
	return nil
}

// Values evaluates the current aggregated value for display. It does not
// affect the negotiation.
func (s *Session) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Snapshot()
}

// RequestSave snapshots the aggregated value and delegates it to the save
// handler. It returns ErrSaveInProgress while an attempt is unresolved,
// ErrNothingToSave when the form is clean, and ErrSaveNotConfigured (after
// entering the error phase) when no handler is installed. The handler is
// called synchronously; the returned error does not reflect its outcome.
func (s *Session) RequestSave(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.phase == PhaseSaving:
		s.mu.Unlock()
		s.logger.Debug("save request ignored", slog.String("reason", "in progress"))
		return ErrSaveInProgress
	case !s.aggregator.Dirty():
		s.mu.Unlock()
		return ErrNothingToSave
	case s.handler == nil:
		s.phase = PhaseError
		s.message = NotConfiguredMessage
		s.fieldErrors = nil
		s.err = ErrSaveNotConfigured
		state := s.stateLocked()
		s.mu.Unlock()
		s.logger.Warn("save requested without a save handler")
		s.emit(state)
		return ErrSaveNotConfigured
	}

	data, _ := s.aggregator.Extractor()().(map[string]any)

	var (
		hctx   context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		hctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	} else {
		hctx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	}
	a := &attempt{
		generation: s.aggregator.Generation(),
		cancel:     cancel,
		done:       make(chan struct{}),
		started:    time.Now(),
	}
	a.sc = newSaveContext(data, func(r Result) error { return s.settle(a, r) })

	s.current = a
	s.phase = PhaseSaving
	s.message = ""
	s.fieldErrors = nil
	s.err = nil
	handler := s.handler
	state := s.stateLocked()
	s.mu.Unlock()

	s.logger.Info("save requested", slog.Int("fields", len(data)))
	s.emit(state)

	if s.timeout > 0 {
		go s.watchTimeout(hctx, a)
	}
	handler.Save(hctx, a.sc)
	return nil
}

func (s *Session) watchTimeout(ctx context.Context, a *attempt) {
	<-ctx.Done()
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return
	}
	if err := a.sc.Reject(TimeoutMessage); err == nil {
		s.logger.Warn("save timed out", slog.Duration("timeout", s.timeout))
	}
}

// settle applies the outcome of attempt a.
func (s *Session) settle(a *attempt, r Result) error {
	s.mu.Lock()
	if s.current != a {
		s.mu.Unlock()
		return ErrAbandoned
	}

	switch r.Outcome {
	case OutcomeAccepted:
		if s.aggregator.MarkCleanAt(a.generation) {
			s.phase = PhaseClean
		} else {
			s.phase = PhaseDirty
		}
		s.message = ""
		s.fieldErrors = nil
		s.err = nil
	case OutcomeRejected:
		s.phase = PhaseError
		s.message = r.Message
		s.fieldErrors = cloneFieldErrors(r.FieldErrors)
		s.err = &SaveRejectedError{Message: r.Message, FieldErrors: cloneFieldErrors(r.FieldErrors)}
	}
	s.current = nil
	a.cancel()
	close(a.done)
	state := s.stateLocked()
	s.mu.Unlock()

	s.logger.Info("save settled",
		slog.String("outcome", r.Outcome.String()),
		slog.String("phase", state.Phase.String()),
		slog.Duration("elapsed", time.Since(a.started)),
	)
	s.emit(state)
	return nil
}

// Await blocks until the in-flight attempt settles or is abandoned, then
// returns the state. It returns immediately when nothing is in flight.
func (s *Session) Await(ctx context.Context) (State, error) {
	s.mu.Lock()
	a := s.current
	if a == nil {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, nil
	}
	s.mu.Unlock()

	select {
	case <-a.done:
		return s.State(), nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// Mount subscribes the save shortcut on bus. Mounting again moves the
// subscription.
func (s *Session) Mount(bus *keybind.Bus) {
	if bus == nil {
		bus = keybind.Default()
	}
	release := bus.Subscribe(keybind.ListenerFunc(s.HandleKey))
	s.mu.Lock()
	previous := s.release
	s.release = release
	s.mu.Unlock()
	if previous != nil {
		previous()
	}
}

// Mounted reports whether the shortcut listener is subscribed.
func (s *Session) Mounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.release != nil
}

// Unmount releases the shortcut listener and abandons any in-flight attempt:
// its handler context is cancelled and resolving it returns ErrAbandoned.
func (s *Session) Unmount() {
	s.mu.Lock()
	release := s.release
	s.release = nil
	a := s.current
	s.current = nil
	var state State
	if a != nil {
		s.phase = PhaseDirty
		a.cancel()
		close(a.done)
		state = s.stateLocked()
	}
	s.mu.Unlock()

	if release != nil {
		release()
	}
	if a != nil {
		s.logger.Info("in-flight save abandoned on unmount")
		s.emit(state)
	}
}

// HandleKey triggers a save when ev matches the shortcut and the form is
// dirty. It reports whether the event was consumed.
func (s *Session) HandleKey(ev keybind.Event) bool {
	if !s.shortcut.Matches(ev) {
		return false
	}
	if !s.State().Dirty {
		return false
	}
	if err := s.RequestSave(context.Background()); err != nil && !errors.Is(err, ErrSaveInProgress) {
		s.logger.Debug("shortcut save failed", slog.Any("error", err))
	}
	return true
}
