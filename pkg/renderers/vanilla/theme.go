package vanilla

import (
	"fmt"
	"maps"
	"strings"

	"github.com/caklein/hokus/pkg/render"
)

// resolveTheme selects the theme for a render and flattens its tokens, with
// variant tokens winning over manifest tokens, into CSS custom properties.
func (r *Renderer) resolveTheme(options render.RenderOptions) (map[string]any, error) {
	if r.cfg.themes == nil {
		return nil, nil
	}
	name := strings.TrimSpace(options.Theme)
	if name == "" {
		name = r.cfg.defaultTheme
	}
	variant := strings.TrimSpace(options.ThemeVariant)
	if variant == "" {
		variant = r.cfg.defaultVariant
	}

	selection, err := r.cfg.themes.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: select theme %q: %w", name, err)
	}
	if selection == nil || selection.Manifest == nil {
		return nil, nil
	}

	tokens := maps.Clone(selection.Manifest.Tokens)
	if tokens == nil {
		tokens = map[string]string{}
	}
	if v, ok := selection.Manifest.Variants[selection.Variant]; ok {
		maps.Copy(tokens, v.Tokens)
	}

	vars := make(map[string]string, len(tokens))
	for token, value := range tokens {
		key := cssVarName(token)
		if key == "" || !safeCSSValue(value) {
			continue
		}
		vars[key] = strings.TrimSpace(value)
	}

	return map[string]any{
		"name":    selection.Theme,
		"variant": selection.Variant,
		"cssVars": vars,
		"style":   cssVarsStyle(vars),
	}, nil
}
