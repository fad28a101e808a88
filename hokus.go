// Package hokus composes dynamic forms from declarative field schemas and
// negotiates saving them with a caller-supplied handler. The root package
// re-exports the common types and wires the default field catalog; the
// building blocks live under pkg/.
package hokus

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/caklein/hokus/pkg/fields"
	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/renderers/vanilla"
	"github.com/caklein/hokus/pkg/schemafile"
	"github.com/caklein/hokus/pkg/session"
)

// Field describes one form entry.
type Field = model.Field

// Schema is an ordered field list.
type Schema = model.Schema

// SaveContext is handed to a save handler for one attempt.
type SaveContext = session.SaveContext

// SaveHandlerFunc adapts a function to a save handler.
type SaveHandlerFunc = session.SaveHandlerFunc

// RenderOptions carries per-request render settings.
type RenderOptions = render.RenderOptions

// NewRegistry returns a component registry holding the built-in field types.
func NewRegistry(opts ...registry.Option) (*registry.Registry, error) {
	return fields.NewRegistry(opts...)
}

// Build constructs a form tree for schema seeded with values. A nil reg uses
// the built-in field types.
func Build(schema Schema, values map[string]any, reg *registry.Registry) (*form.Tree, error) {
	if reg == nil {
		var err error
		if reg, err = NewRegistry(); err != nil {
			return nil, err
		}
	}
	return form.Build(schema, values, reg)
}

// NewSession builds a tree with the built-in field types and wraps it in a
// save session.
func NewSession(schema Schema, values map[string]any, opts ...session.Option) (*session.Session, error) {
	tree, err := Build(schema, values, nil)
	if err != nil {
		return nil, err
	}
	return session.New(tree, opts...)
}

// LoadSchemas reads every form document of fsys. A nil fsys loads the
// embedded default forms.
func LoadSchemas(fsys fs.FS) (*schemafile.Store, error) {
	if fsys == nil {
		fsys = schemafile.EmbeddedFS()
	}
	return schemafile.LoadFS(fsys)
}

// RenderHTML renders s with a vanilla renderer using the built-in templates.
func RenderHTML(ctx context.Context, s *session.Session, options RenderOptions, opts ...vanilla.Option) ([]byte, error) {
	renderer, err := vanilla.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("hokus: create html renderer: %w", err)
	}
	return renderer.Render(ctx, s, options)
}
