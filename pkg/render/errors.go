package render

import (
	"strconv"
	"strings"

	"github.com/caklein/hokus/pkg/model"
)

// ErrorMapping splits a save-rejection payload into field-level and
// form-level messages keyed by dotted field paths.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors appends extras to existing, trimming blanks and dropping
// repeated messages. Order of first appearance is kept.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return uniqueMessages(combined)
}

// MapErrorPayload rewrites the keys of a service error payload (JSON pointers
// such as "/menu/0/name", bracket paths such as "menu[0].name", or dotted
// paths) into the dotted node paths of the form described by schema and
// holding values. An index is kept only when values has that list item;
// otherwise the message lands on the list itself. Keys that match no field
// become form-level messages.
func MapErrorPayload(schema model.Schema, values map[string]any, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	for raw, messages := range payload {
		messages = uniqueMessages(messages)
		if len(messages) == 0 {
			continue
		}
		segments := splitErrorPath(raw)
		path := resolvePath(schema, values, segments)
		if path == "" {
			path = resolvePath(schema, values, dropEnvelope(segments))
		}
		if path == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[path] = uniqueMessages(append(mapping.Fields[path], messages...))
	}
	mapping.Form = uniqueMessages(mapping.Form)
	return mapping
}

// resolvePath returns the deepest field path matched by segments.
func resolvePath(fields []model.Field, value any, segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	var field *model.Field
	for i := range fields {
		if fields[i].Key == segments[0] {
			field = &fields[i]
			break
		}
	}
	if field == nil {
		return ""
	}

	path := field.Key
	rest := segments[1:]
	if len(rest) == 0 || len(field.Fields) == 0 {
		return path
	}

	current, _ := value.(map[string]any)
	child := current[field.Key]
	if index, err := strconv.Atoi(rest[0]); err == nil {
		items, ok := child.([]any)
		if !ok || index < 0 || index >= len(items) {
			return path
		}
		path = model.JoinPath(path, rest[0])
		if nested := resolvePath(field.Fields, items[index], rest[1:]); nested != "" {
			return model.JoinPath(path, nested)
		}
		return path
	}
	if nested := resolvePath(field.Fields, child, rest); nested != "" {
		return model.JoinPath(path, nested)
	}
	return path
}

var envelopeSegments = map[string]struct{}{
	"body":    {},
	"request": {},
	"payload": {},
	"data":    {},
}

// splitErrorPath breaks a raw payload key into path segments. Form-level keys
// yield no segments.
func splitErrorPath(raw string) []string {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors":
		return nil
	}

	raw = strings.NewReplacer("[", ".", "]", "").Replace(raw)
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '.' || r == '/' || r == '#' || r == '$'
	})

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		segments = append(segments, part)
	}
	return segments
}

// dropEnvelope strips request envelope names ("body", "payload") in front of
// the first field.
func dropEnvelope(segments []string) []string {
	for len(segments) > 1 {
		if _, ok := envelopeSegments[strings.ToLower(segments[0])]; !ok {
			break
		}
		segments = segments[1:]
	}
	return segments
}

func uniqueMessages(messages []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		if _, ok := seen[message]; ok {
			continue
		}
		seen[message] = struct{}{}
		out = append(out, message)
	}
	return out
}
