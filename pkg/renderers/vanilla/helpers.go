package vanilla

import (
	"sort"
	"strings"

	"github.com/caklein/hokus/pkg/session"
)

// saveButtonClass mirrors the session state onto the floating save button.
func saveButtonClass(base string, state session.State) string {
	classes := []string{base, saveAnimated}
	if !state.SavedOnce {
		classes = append(classes, saveZoomIn)
	}
	if state.Dirty {
		classes = append(classes, saveRubberBand)
	}
	switch state.Phase {
	case session.PhaseSaving:
		classes = append(classes, saveBusyClass)
	case session.PhaseError:
		classes = append(classes, saveFailedClass)
	}
	return sanitizeClassList(strings.Join(classes, " "))
}

// sanitizeClassList collapses whitespace and drops duplicate tokens.
func sanitizeClassList(value string) string {
	tokens := strings.Fields(value)
	seen := make(map[string]struct{}, len(tokens))
	keep := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}

// breadcrumb splits a root name such as "blog / main" into its segments.
func breadcrumb(rootName string) []string {
	parts := strings.Split(rootName, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(".hk-form {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// cssVarName turns a token such as "color.primary" into "--color-primary".
func cssVarName(token string) string {
	token = strings.TrimSpace(strings.TrimPrefix(token, "--"))
	if token == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("--")
	for _, r := range strings.ToLower(token) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// safeCSSValue rejects token values that could break out of a declaration.
func safeCSSValue(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.ContainsAny(value, "<>{};")
}
