package model

import (
	"fmt"
	"strconv"
	"strings"
)

// CloneValue deep copies maps and slices produced by JSON/YAML decoding.
// Scalars are returned as-is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = CloneValue(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	case []map[string]any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	default:
		return typed
	}
}

// CloneValues deep copies a value document. A nil input yields an empty map.
func CloneValues(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	out, _ := CloneValue(src).(map[string]any)
	return out
}

// NormalizeValue converts map[any]any nodes (as produced by some YAML
// decoders) into map[string]any so documents can be addressed by path.
func NormalizeValue(value any) any {
	switch typed := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[fmt.Sprint(k)] = NormalizeValue(v)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = NormalizeValue(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = NormalizeValue(v)
		}
		return out
	default:
		return typed
	}
}

// SplitPath breaks a dotted path into segments, ignoring empty ones.
func SplitPath(path string) []string {
	parts := strings.Split(strings.TrimSpace(path), ".")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinPath joins two dotted path fragments.
func JoinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// GetPath resolves a dotted path (`menu.0.title`) inside a value document.
func GetPath(root map[string]any, path string) (any, bool) {
	segments := SplitPath(path)
	if root == nil || len(segments) == 0 {
		return nil, false
	}
	var current any = root
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// SetPath writes value at a dotted path, creating intermediate maps and
// growing slices as needed.
func SetPath(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("model: root map is nil")
	}
	segments := SplitPath(path)
	if len(segments) == 0 {
		return fmt.Errorf("model: path is required")
	}
	_, err := setSegment(root, segments, value, path)
	return err
}

func setSegment(container any, segments []string, value any, path string) (any, error) {
	segment := segments[0]
	last := len(segments) == 1

	switch node := container.(type) {
	case map[string]any:
		if last {
			node[segment] = value
			return node, nil
		}
		child, err := setSegment(ensureContainer(node[segment], segments[1]), segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		node[segment] = child
		return node, nil
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("model: expected numeric segment in %q, got %q", path, segment)
		}
		if idx < 0 {
			return nil, fmt.Errorf("model: negative index in path %q", path)
		}
		if len(node) <= idx {
			node = append(node, make([]any, idx+1-len(node))...)
		}
		if last {
			node[idx] = value
			return node, nil
		}
		child, err := setSegment(ensureContainer(node[idx], segments[1]), segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		node[idx] = child
		return node, nil
	default:
		return nil, fmt.Errorf("model: unexpected container for segment %q in %q", segment, path)
	}
}

func ensureContainer(current any, next string) any {
	if _, err := strconv.Atoi(next); err == nil {
		if list, ok := current.([]any); ok {
			return list
		}
		return []any{}
	}
	if m, ok := current.(map[string]any); ok && m != nil {
		return m
	}
	return make(map[string]any)
}
