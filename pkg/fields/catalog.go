package fields

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
)

const templatePrefix = "fields/"

// Built-in type identifiers.
const (
	TypeString    = "string"
	TypeTextarea  = "textarea"
	TypeMarkdown  = "markdown"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeSelect    = "select"
	TypeChips     = "chips"
	TypeReadonly  = "readonly"
	TypeHidden    = "hidden"
	TypeSection   = "section"
	TypeNest      = "nest"
	TypeAccordion = "accordion"
)

// Catalog returns a fresh map of the built-in handler descriptors.
func Catalog() map[string]registry.Descriptor {
	return map[string]registry.Descriptor{
		TypeString:   {Render: templateRender("string")},
		TypeTextarea: {Render: templateRender("textarea")},
		TypeMarkdown: {Render: templateRender("textarea")},
		TypeNumber:   {Render: templateRender("number"), Extract: extractNumber},
		TypeBoolean: {
			Render:  templateRender("boolean"),
			Extract: extractBoolean,
			Default: func(model.Field) any { return false },
		},
		TypeSelect: {Render: templateRender("select"), Extract: extractSelect},
		TypeChips: {
			Render:  templateRender("chips"),
			Extract: extractChips,
			Default: func(model.Field) any { return []any{} },
		},
		TypeReadonly:  {Render: templateRender("readonly")},
		TypeHidden:    {Render: templateRender("hidden")},
		TypeSection:   {Render: templateRender("section"), Shape: registry.ShapeGroup},
		TypeNest:      {Render: templateRender("nest"), Shape: registry.ShapeGroup},
		TypeAccordion: {Render: templateRender("accordion"), Shape: registry.ShapeList},
	}
}

// NewRegistry builds a registry seeded with the catalog. Extra options (for
// example registry.WithPlugins) are applied after it.
func NewRegistry(opts ...registry.Option) (*registry.Registry, error) {
	return registry.New(append([]registry.Option{registry.WithCatalog(Catalog())}, opts...)...)
}

func templateRender(name string) registry.RenderFunc {
	templateName := templatePrefix + name
	return func(buf *bytes.Buffer, field model.Field, data registry.RenderData) error {
		if data.Template == nil {
			return fmt.Errorf("fields: template renderer not configured for %q", templateName)
		}

		var children string
		if data.RenderChildren != nil {
			rendered, err := data.RenderChildren()
			if err != nil {
				return err
			}
			children = rendered
		}

		payload := map[string]any{
			"field":    fieldView(field, data.Value),
			"path":     data.Path,
			"value":    DisplayValue(data.Value),
			"errors":   data.Errors,
			"touched":  data.Touched,
			"children": children,
			"config":   data.Config,
		}
		if _, err := data.Template.RenderTemplate(templateName, payload, buf); err != nil {
			return fmt.Errorf("fields: render template %q: %w", templateName, err)
		}
		return nil
	}
}

func fieldView(field model.Field, value any) map[string]any {
	options := make([]any, 0, len(field.Options))
	current := DisplayValue(value)
	for _, opt := range field.Options {
		optValue := DisplayValue(opt.Value)
		text := opt.Text
		if text == "" {
			text = optValue
		}
		options = append(options, map[string]any{
			"value":    optValue,
			"text":     text,
			"selected": optValue == current,
		})
	}
	return map[string]any{
		"key":         field.Key,
		"type":        field.Type,
		"label":       field.Label(),
		"description": SanitizeHelp(field.Description),
		"required":    field.Required(),
		"placeholder": field.ConfigString("placeholder"),
		"options":     options,
	}
}

// DisplayValue renders a value the way inputs show it: lists become a comma
// separated string, nil becomes empty.
func DisplayValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, DisplayValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(typed)
	}
}

func extractNumber(_ model.Field, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return value
}

func extractBoolean(_ model.Field, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "yes", "1":
		return true
	case "false", "off", "no", "0", "":
		return false
	default:
		return value
	}
}

// extractSelect maps the submitted text back to the typed option value.
func extractSelect(field model.Field, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	for _, opt := range field.Options {
		if DisplayValue(opt.Value) == s {
			return model.CloneValue(opt.Value)
		}
	}
	return value
}

func extractChips(_ model.Field, value any) any {
	switch typed := value.(type) {
	case string:
		out := []any{}
		for _, part := range strings.Split(typed, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []string:
		out := make([]any, 0, len(typed))
		for _, part := range typed {
			out = append(out, part)
		}
		return out
	default:
		return value
	}
}
