package model

const (
	ValidationRuleRequired  = "required"
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single validation constraint applied to a field.
// Numeric bounds and length limits encode their threshold in Params["value"]
// while pattern rules keep the expression in Params["pattern"].
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Option is a selectable value offered by choice fields.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Field is the declarative description of one form entry. Type names a
// field-type identifier known to the registry; Fields holds the nested schema
// for group and list types.
type Field struct {
	Key         string           `json:"key" yaml:"key"`
	Type        string           `json:"type" yaml:"type"`
	Title       string           `json:"title,omitempty" yaml:"title,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any              `json:"default,omitempty" yaml:"default,omitempty"`
	Fields      []Field          `json:"fields,omitempty" yaml:"fields,omitempty"`
	Options     []Option         `json:"options,omitempty" yaml:"options,omitempty"`
	Validations []ValidationRule `json:"validations,omitempty" yaml:"validations,omitempty"`
	Config      map[string]any   `json:"config,omitempty" yaml:"config,omitempty"`
	Include     string           `json:"include,omitempty" yaml:"include,omitempty"`
}

// Schema is the ordered field list a form tree is built from.
type Schema []Field

// Label returns the display title, deriving one from the key when unset.
func (f Field) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return DefaultLabeler(f.Key)
}

// HasDefault reports whether the descriptor declares a default value.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// Required reports whether a required validation rule is attached.
func (f Field) Required() bool {
	for _, rule := range f.Validations {
		if rule.Kind == ValidationRuleRequired {
			return true
		}
	}
	return false
}

// ConfigString reads a string entry from Config.
func (f Field) ConfigString(key string) string {
	if f.Config == nil {
		return ""
	}
	value, _ := f.Config[key].(string)
	return value
}

// Clone returns a deep copy of the field and its nested schema.
func (f Field) Clone() Field {
	out := f
	out.Default = CloneValue(f.Default)
	if len(f.Fields) > 0 {
		out.Fields = Schema(f.Fields).Clone()
	}
	if len(f.Options) > 0 {
		out.Options = make([]Option, len(f.Options))
		for i, opt := range f.Options {
			out.Options[i] = Option{Value: CloneValue(opt.Value), Text: opt.Text}
		}
	}
	if len(f.Validations) > 0 {
		out.Validations = make([]ValidationRule, len(f.Validations))
		for i, rule := range f.Validations {
			params := make(map[string]string, len(rule.Params))
			for k, v := range rule.Params {
				params[k] = v
			}
			out.Validations[i] = ValidationRule{Kind: rule.Kind, Params: params}
		}
	}
	if f.Config != nil {
		out.Config, _ = CloneValue(f.Config).(map[string]any)
	}
	return out
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for i, field := range s {
		out[i] = field.Clone()
	}
	return out
}

// Keys returns the top-level field keys in schema order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, field := range s {
		keys = append(keys, field.Key)
	}
	return keys
}
