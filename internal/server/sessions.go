package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/keybind"
	"github.com/caklein/hokus/pkg/session"
	"github.com/caklein/hokus/pkg/workspace"
)

type workspaceKey struct {
	site      string
	workspace string
}

func (k workspaceKey) String() string {
	return k.site + "/" + k.workspace
}

type entry struct {
	key       workspaceKey
	session   *session.Session
	bus       *keybind.Bus
	createdAt time.Time
}

type sessionManager struct {
	mu      sync.Mutex
	entries map[workspaceKey]*entry
}

func newSessionManager() *sessionManager {
	return &sessionManager{entries: make(map[workspaceKey]*entry)}
}

// open returns the entry for key, creating and mounting its session on first
// use. Creation happens under the manager lock so two requests never build
// two sessions for one workspace.
func (s *Server) open(ctx context.Context, key workspaceKey) (*entry, error) {
	m := s.sessions
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		return e, nil
	}

	values := map[string]any{}
	details, err := s.service.WorkspaceDetails(ctx, key.site, key.workspace)
	switch {
	case err == nil:
		values = details.Config
	case errors.Is(err, workspace.ErrNotFound):
		s.logger.Info("workspace has no stored config", slog.String("workspace", key.String()))
	default:
		return nil, err
	}

	tree, err := form.Build(s.schema, values, s.fields)
	if err != nil {
		return nil, fmt.Errorf("server: build form for %s: %w", key, err)
	}

	logger := s.logger.With(slog.String("workspace", key.String()))
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithSaveHandler(workspace.SaveHandler(s.service, key.site, key.workspace, s.schema, logger)),
	}
	if s.saveTimeout > 0 {
		opts = append(opts, session.WithSaveTimeout(s.saveTimeout))
	}
	sess, err := session.New(tree, opts...)
	if err != nil {
		return nil, fmt.Errorf("server: create session for %s: %w", key, err)
	}
	bus := keybind.NewBus()
	sess.Mount(bus)

	e := &entry{key: key, session: sess, bus: bus, createdAt: time.Now()}
	m.entries[key] = e
	logger.Info("session opened")
	return e, nil
}

func (m *sessionManager) lookup(key workspaceKey) (*entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

// close unmounts and forgets the session for key.
func (m *sessionManager) close(key workspaceKey) bool {
	m.mu.Lock()
	e, ok := m.entries[key]
	delete(m.entries, key)
	m.mu.Unlock()
	if ok {
		e.session.Unmount()
	}
	return ok
}

// closeAll unmounts every session.
func (m *sessionManager) closeAll() int {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[workspaceKey]*entry)
	m.mu.Unlock()
	for _, e := range entries {
		e.session.Unmount()
	}
	return len(entries)
}

func (m *sessionManager) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for key := range m.entries {
		out = append(out, key.String())
	}
	sort.Strings(out)
	return out
}
