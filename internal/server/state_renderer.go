package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/session"
)

// statePayload is the JSON view of a session.
type statePayload struct {
	RootName string         `json:"rootName,omitempty"`
	State    session.State  `json:"state"`
	CanSave  bool           `json:"canSave"`
	Values   map[string]any `json:"values"`
}

// stateRenderer renders a session as JSON for scripted clients.
type stateRenderer struct{}

var _ render.Renderer = stateRenderer{}

func (stateRenderer) Name() string { return "json" }

func (stateRenderer) ContentType() string { return "application/json" }

func (stateRenderer) Render(_ context.Context, s *session.Session, options render.RenderOptions) ([]byte, error) {
	if s == nil {
		return nil, errors.New("server: session is nil")
	}
	return json.Marshal(newStatePayload(s, options.RootName))
}

func newStatePayload(s *session.Session, rootName string) statePayload {
	state := s.State()
	return statePayload{
		RootName: rootName,
		State:    state,
		CanSave:  state.CanSave(),
		Values:   s.Values(),
	}
}
