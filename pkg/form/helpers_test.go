package form_test

import (
	"bytes"
	"strconv"
	"sync/atomic"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
)

func noopRender(*bytes.Buffer, model.Field, registry.RenderData) error { return nil }

type extractCounter struct {
	calls atomic.Int64
}

// newTestRegistry registers a small catalog: "string" and "number" leaves,
// a "section" group and an "accordion" list. Every extraction through the
// "number" handler is counted.
func newTestRegistry(counter *extractCounter) *registry.Registry {
	reg := registry.MustNew()
	reg.MustRegister("string", registry.Descriptor{Render: noopRender})
	reg.MustRegister("number", registry.Descriptor{
		Render: noopRender,
		Extract: func(_ model.Field, value any) any {
			if counter != nil {
				counter.calls.Add(1)
			}
			if s, ok := value.(string); ok {
				if n, err := strconv.ParseFloat(s, 64); err == nil {
					return n
				}
			}
			return value
		},
	})
	reg.MustRegister("boolean", registry.Descriptor{
		Render:  noopRender,
		Default: func(model.Field) any { return false },
	})
	reg.MustRegister("section", registry.Descriptor{Render: noopRender, Shape: registry.ShapeGroup})
	reg.MustRegister("accordion", registry.Descriptor{Render: noopRender, Shape: registry.ShapeList})
	return reg
}

func siteSchema() model.Schema {
	return model.Schema{
		{Key: "title", Type: "string"},
		{Key: "paginate", Type: "number"},
		{Key: "address", Type: "section", Fields: []model.Field{
			{Key: "city", Type: "string"},
			{Key: "zip", Type: "string"},
		}},
		{Key: "menu", Type: "accordion", Fields: []model.Field{
			{Key: "title", Type: "string"},
			{Key: "weight", Type: "number"},
		}},
	}
}
