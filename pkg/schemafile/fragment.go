package schemafile

import (
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"

	"github.com/caklein/hokus/pkg/model"
)

// fragment is an include body: either a single field or a list of fields.
type fragment struct {
	fields []model.Field
	list   bool
}

func (f *fragment) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		f.list = true
		return node.Decode(&f.fields)
	case yaml.MappingNode:
		var field model.Field
		if err := node.Decode(&field); err != nil {
			return err
		}
		f.fields = []model.Field{field}
		return nil
	default:
		return errors.New("include must be a field or a list of fields")
	}
}

func (f *fragment) UnmarshalJSON(data []byte) error {
	var list []model.Field
	if err := json.Unmarshal(data, &list); err == nil {
		f.list = true
		f.fields = list
		return nil
	}
	var field model.Field
	if err := json.Unmarshal(data, &field); err != nil {
		return errors.New("include must be a field or a list of fields")
	}
	f.fields = []model.Field{field}
	return nil
}
