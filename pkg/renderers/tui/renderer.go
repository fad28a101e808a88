package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/session"
)

// Renderer implements render.Renderer for terminal sessions. It prompts every
// field of the form, writes answers through the session, offers to save and
// serializes the resulting values.
type Renderer struct {
	driver            PromptDriver
	out               io.Writer
	outputFormat      OutputFormat
	confirmSave       bool
	submitTransformer SubmitTransformer
	theme             Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output,
// confirmation before saving).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		confirmSave:  true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	case OutputFormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// Render runs the prompt flow for s. Save failures are reported through the
// driver and left on the session state; only prompt and serialization
// failures are returned.
func (r *Renderer) Render(ctx context.Context, s *session.Session, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	if heading := strings.TrimSpace(firstNonEmpty(opts.Title, opts.RootName)); heading != "" {
		if err := r.info(ctx, heading); err != nil {
			return nil, err
		}
	}

	p := &prompter{
		driver:  r.driver,
		session: s,
		errors:  opts.FieldErrors(s.State().FieldErrors),
		theme:   r.theme,
	}
	for _, node := range p.nodes(func(t *form.Tree) []*form.Node { return t.Nodes() }) {
		if err := p.node(ctx, node); err != nil {
			return nil, err
		}
	}

	if s.State().Dirty {
		save := true
		if r.confirmSave {
			var err error
			save, err = r.driver.Confirm(ctx, ConfirmConfig{
				Message: r.theme.PromptPrefix + "Save changes?",
				Default: true,
				Help:    "Ctrl+S in the editor does the same",
			})
			if err != nil {
				return nil, err
			}
		}
		if save {
			if err := r.save(ctx, s); err != nil {
				return nil, err
			}
		}
	}

	values := s.Values()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

// save requests a save and waits for the handler to resolve it.
func (r *Renderer) save(ctx context.Context, s *session.Session) error {
	err := s.RequestSave(ctx)
	switch {
	case errors.Is(err, session.ErrSaveNotConfigured):
		return r.fail(ctx, s.State())
	case errors.Is(err, session.ErrNothingToSave):
		return nil
	case err != nil:
		return err
	}

	state, err := s.Await(ctx)
	if err != nil {
		return err
	}
	switch state.Phase {
	case session.PhaseClean:
		return r.info(ctx, "Saved")
	case session.PhaseError:
		return r.fail(ctx, state)
	case session.PhaseDirty:
		return r.info(ctx, "Saved; newer changes are still pending")
	}
	return nil
}

func (r *Renderer) fail(ctx context.Context, state session.State) error {
	if err := r.driver.Info(ctx, r.theme.ErrorPrefix+state.Message); err != nil {
		return err
	}
	paths := make([]string, 0, len(state.FieldErrors))
	for path := range state.FieldErrors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		msg := fmt.Sprintf("%s  %s: %s", r.theme.ErrorPrefix, path, strings.Join(state.FieldErrors[path], "; "))
		if err := r.driver.Info(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	case OutputFormatYAML:
		out, err := yaml.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("tui: encode yaml: %w", err)
		}
		return out, nil
	default:
		out, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return out, nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flatten(join(prefix, key), val, out)
		}
	case []any:
		for idx, val := range v {
			if _, nested := val.(map[string]any); nested {
				flatten(fmt.Sprintf("%s.%d", prefix, idx), val, out)
				continue
			}
			out.Add(prefix+"[]", fmt.Sprint(val))
		}
	case nil:
		out.Set(prefix, "")
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writePretty(b, join(prefix, key), v[key])
		}
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
