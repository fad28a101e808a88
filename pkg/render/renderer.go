package render

import (
	"context"

	"github.com/caklein/hokus/pkg/session"
)

// Renderer presents a form session (HTML, terminal, JSON state, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, s *session.Session, options RenderOptions) ([]byte, error)
}
