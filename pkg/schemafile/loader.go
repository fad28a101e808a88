package schemafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caklein/hokus/pkg/model"
)

// ErrIncludeCycle reports an include that (indirectly) includes itself.
var ErrIncludeCycle = errors.New("schemafile: include cycle")

// LoadFS walks the provided filesystem and parses JSON/YAML schema documents.
// When fsys is nil or no schema files are present, the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]Form)}
	if fsys == nil {
		return store, nil
	}

	includes := make(map[string]fragment)
	includeSource := make(map[string]string)
	raw := make(map[string]formFile)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schemafile: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for name, frag := range doc.Includes {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("schemafile: file %s defines an include with an empty name", path)
			}
			if prev, exists := includeSource[name]; exists {
				return fmt.Errorf("schemafile: duplicate include %q (files %s and %s)", name, prev, path)
			}
			includes[name] = frag
			includeSource[name] = path
		}

		for formID, form := range doc.Forms {
			id := strings.TrimSpace(formID)
			if id == "" {
				return fmt.Errorf("schemafile: file %s defines an empty form id", path)
			}
			if _, exists := raw[id]; exists {
				return fmt.Errorf("schemafile: duplicate form %q (file %s)", id, path)
			}
			raw[id] = form
			store.forms[id] = Form{ID: id, RootName: form.RootName, Title: form.Title, Source: path}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r := resolver{includes: includes}
	for id, form := range raw {
		fields, err := r.resolve(form.Fields, nil)
		if err != nil {
			return nil, fmt.Errorf("schemafile: form %q (file %s): %w", id, store.forms[id].Source, err)
		}
		entry := store.forms[id]
		entry.Fields = fields
		if entry.RootName == "" {
			entry.RootName = id
		}
		store.forms[id] = entry
	}
	return store, nil
}

// LoadValues parses a JSON or YAML value document. Empty input yields an
// empty map.
func LoadValues(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err == nil {
		if out == nil {
			out = map[string]any{}
		}
		return out, nil
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("schemafile: parse values: %w", err)
	}
	normalized, _ := model.NormalizeValue(out).(map[string]any)
	if normalized == nil {
		normalized = map[string]any{}
	}
	return normalized, nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(bytes.TrimSpace(data)) == 0 {
		return documentFile{}, fmt.Errorf("schemafile: file %s is empty", source)
	}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("schemafile: parse %s: %w", source, err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("schemafile: parse %s: %w", source, err)
	}
	return doc, nil
}

type resolver struct {
	includes map[string]fragment
}

// resolve expands includes in fields. stack holds the include names being
// expanded to detect cycles.
func (r resolver) resolve(fields []model.Field, stack []string) (model.Schema, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make(model.Schema, 0, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Include)
		if name == "" {
			nested, err := r.resolve(field.Fields, stack)
			if err != nil {
				return nil, err
			}
			field.Fields = nested
			field.Default = model.NormalizeValue(field.Default)
			if strings.TrimSpace(field.Type) == "" {
				return nil, fmt.Errorf("field %q has no type", field.Key)
			}
			out = append(out, field)
			continue
		}

		for _, seen := range stack {
			if seen == name {
				return nil, fmt.Errorf("%w: %s -> %s", ErrIncludeCycle, strings.Join(stack, " -> "), name)
			}
		}
		frag, ok := r.includes[name]
		if !ok {
			return nil, fmt.Errorf("unknown include %q", name)
		}
		expanded, err := r.resolve(frag.fields, append(stack, name))
		if err != nil {
			return nil, err
		}

		if frag.list {
			if field.Key != "" {
				return nil, fmt.Errorf("field %q includes the field list %q; list includes cannot be keyed", field.Key, name)
			}
			out = append(out, expanded...)
			continue
		}

		merged := expanded[0]
		if field.Key != "" {
			merged.Key = field.Key
		}
		if field.Title != "" {
			merged.Title = field.Title
		}
		if field.Description != "" {
			merged.Description = field.Description
		}
		if field.Default != nil {
			merged.Default = model.NormalizeValue(field.Default)
		}
		out = append(out, merged)
	}
	return out, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
