package vanilla

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/caklein/hokus/pkg/fields"
	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/registry"
	"github.com/caklein/hokus/pkg/render"
	rendertemplate "github.com/caklein/hokus/pkg/render/template"
	"github.com/caklein/hokus/pkg/render/template/pongo"
	"github.com/caklein/hokus/pkg/session"
)

// Renderer produces a server-rendered HTML form for a session.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	cfg       config
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		assetPrefix: "/assets/hokus",
		classes:     defaultChromeClasses(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engineOpts := make([]pongo.Option, 0, len(cfg.overrides)+2)
		for _, files := range cfg.overrides {
			engineOpts = append(engineOpts, pongo.WithFS(files))
		}
		engineOpts = append(engineOpts,
			pongo.WithFS(TemplatesFS()),
			pongo.WithFS(fields.Templates()),
		)
		engine, err := pongo.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, cfg: cfg}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render walks the session's form tree, renders every field through its
// registered handler and wraps the result in the form chrome.
func (r *Renderer) Render(ctx context.Context, s *session.Session, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, errors.New("vanilla renderer: template renderer is nil")
	}
	if s == nil {
		return nil, errors.New("vanilla renderer: session is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := s.State()

	fr := fieldRenderer{
		templates: r.templates,
		errors:    options.FieldErrors(state.FieldErrors),
	}
	var (
		body        string
		stylesheets []string
		scripts     []map[string]any
	)
	err := s.View(func(tree *form.Tree) error {
		var err error
		body, err = fr.renderNodes(tree.Nodes())
		if err != nil {
			return err
		}
		stylesheets, scripts = r.assets(tree)
		return nil
	})
	if err != nil {
		return nil, err
	}

	themeCtx, err := r.resolveTheme(options)
	if err != nil {
		return nil, err
	}

	classes := r.cfg.classes

	payload := map[string]any{
		"form": map[string]any{
			"title":       options.Title,
			"action":      options.Action,
			"breadcrumb":  breadcrumb(options.RootName),
			"body":        body,
			"hidden":      hiddenFieldsView(options.HiddenFields),
			"errors":      options.FormErrors,
			"stylesheets": stylesheets,
			"scripts":     scripts,
		},
		"state": map[string]any{
			"phase":     state.Phase.String(),
			"dirty":     strconv.FormatBool(state.Dirty),
			"savedOnce": strconv.FormatBool(state.SavedOnce),
			"message":   state.Message,
		},
		"save": map[string]any{
			"class":    saveButtonClass(classes[ClassSave], state),
			"disabled": !state.CanSave(),
		},
		"classes": map[string]any{
			"form":       classes[ClassForm],
			"breadcrumb": classes[ClassBreadcrumb],
			"body":       classes[ClassBody],
			"actions":    classes[ClassActions],
			"errors":     classes[ClassErrors],
		},
		"assets": map[string]any{
			"stylesheet": r.cfg.assetPrefix + "/" + StylesheetName,
			"script":     r.cfg.assetPrefix + "/" + RuntimeScriptName,
		},
		"theme": themeCtx,
	}

	result, err := r.templates.RenderTemplate(chromeTemplate, payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

// assets gathers the stylesheets and scripts declared by the field types
// present in the tree, deduplicated in first-seen order.
func (r *Renderer) assets(tree *form.Tree) ([]string, []map[string]any) {
	var (
		stylesheets []string
		scripts     []registry.Script
	)
	if r.cfg.registry != nil {
		stylesheets, scripts = r.cfg.registry.Assets(tree.TypeIDs())
	} else {
		seenCSS := map[string]struct{}{}
		seenJS := map[string]struct{}{}
		tree.Walk(func(node *form.Node) bool {
			desc := node.Descriptor()
			for _, href := range desc.Stylesheets {
				if _, ok := seenCSS[href]; !ok && href != "" {
					seenCSS[href] = struct{}{}
					stylesheets = append(stylesheets, href)
				}
			}
			for _, script := range desc.Scripts {
				key := script.Src + "|" + script.Inline
				if _, ok := seenJS[key]; !ok {
					seenJS[key] = struct{}{}
					scripts = append(scripts, script)
				}
			}
			return true
		})
	}

	views := make([]map[string]any, 0, len(scripts))
	for _, script := range scripts {
		scriptType := script.Type
		if script.Module {
			scriptType = "module"
		}
		views = append(views, map[string]any{
			"src":    script.Src,
			"type":   scriptType,
			"inline": script.Inline,
			"async":  script.Async,
			"defer":  script.Defer,
			"attrs":  script.Attrs,
		})
	}
	return stylesheets, views
}

func hiddenFieldsView(hidden map[string]string) []map[string]any {
	sorted := render.SortedHiddenFields(hidden)
	out := make([]map[string]any, 0, len(sorted))
	for _, field := range sorted {
		out = append(out, map[string]any{"name": field.Name, "value": field.Value})
	}
	return out
}

// Stylesheet returns the embedded default stylesheet.
func Stylesheet() string {
	data, err := fs.ReadFile(AssetsFS(), StylesheetName)
	if err != nil {
		return ""
	}
	return string(data)
}
