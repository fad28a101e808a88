package schemafile

import (
	"sort"

	"github.com/caklein/hokus/pkg/model"
)

// Form is one loaded form definition with includes resolved.
type Form struct {
	ID       string
	RootName string
	Title    string
	Source   string
	Fields   model.Schema
}

// Store indexes the forms loaded from a filesystem.
type Store struct {
	forms map[string]Form
}

// Form returns a copy of the form registered under id.
func (s *Store) Form(id string) (Form, bool) {
	if s == nil {
		return Form{}, false
	}
	f, ok := s.forms[id]
	if !ok {
		return Form{}, false
	}
	f.Fields = f.Fields.Clone()
	return f, true
}

// IDs lists the form identifiers in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

type documentFile struct {
	Includes map[string]fragment `json:"includes" yaml:"includes"`
	Forms    map[string]formFile `json:"forms" yaml:"forms"`
}

type formFile struct {
	RootName string        `json:"rootName" yaml:"rootName"`
	Title    string        `json:"title" yaml:"title"`
	Fields   []model.Field `json:"fields" yaml:"fields"`
}
