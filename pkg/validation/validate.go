package validation

import (
	"sort"
	"strconv"

	"github.com/caklein/hokus/pkg/model"
)

// Issue is one failed rule, located by dotted field path.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result collects the issues of a document check.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// FieldErrors groups the issues by path in the shape save rejections use.
func (r Result) FieldErrors() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(r.Issues))
	for _, issue := range r.Issues {
		out[issue.Path] = append(out[issue.Path], issue.Message)
	}
	return out
}

// Document checks values against the rules declared in schema, descending
// into nested maps and list items. Keys the schema does not describe are
// ignored.
func Document(schema model.Schema, values map[string]any) Result {
	var issues []Issue
	walk(schema, values, "", &issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return Result{Valid: len(issues) == 0, Issues: issues}
}

func walk(schema model.Schema, values map[string]any, prefix string, issues *[]Issue) {
	for _, field := range schema {
		path := model.JoinPath(prefix, field.Key)
		value, present := values[field.Key]
		if !present {
			value = nil
		}

		rules := Compile(field)
		if err := rules.Check(value); err != nil {
			*issues = append(*issues, Issue{Path: path, Message: err.Error()})
		}

		if len(field.Fields) == 0 {
			continue
		}
		switch nested := value.(type) {
		case map[string]any:
			walk(field.Fields, nested, path, issues)
		case []any:
			for i, item := range nested {
				if m, ok := item.(map[string]any); ok {
					walk(field.Fields, m, model.JoinPath(path, strconv.Itoa(i)), issues)
				}
			}
		}
	}
}
