package render

// RenderOptions describe per-request data renderers use to customise their
// output without touching the session.
type RenderOptions struct {
	// RootName labels the top of the form breadcrumb (for example the site
	// or workspace being edited).
	RootName string
	// Title overrides the heading shown above the form.
	Title string
	// Action is the URL the save control posts to.
	Action string
	// Errors surfaces field-level feedback keyed by dotted field path. It is
	// merged with the field errors of a rejected save.
	Errors map[string][]string
	// FormErrors lists messages that do not belong to a single field.
	FormErrors []string
	// HiddenFields are emitted as hidden inputs (CSRF tokens, versions).
	HiddenFields map[string]string
	// Theme and ThemeVariant select a theme manifest when the renderer was
	// configured with a theme selector.
	Theme        string
	ThemeVariant string
}

// FieldErrors merges the option errors with the errors of a rejected save.
func (o RenderOptions) FieldErrors(fromSave map[string][]string) map[string][]string {
	if len(o.Errors) == 0 && len(fromSave) == 0 {
		return nil
	}
	out := make(map[string][]string, len(o.Errors)+len(fromSave))
	for path, messages := range o.Errors {
		out[path] = normalizeMessages(append(out[path], messages...))
	}
	for path, messages := range fromSave {
		out[path] = normalizeMessages(append(out[path], messages...))
	}
	return out
}
