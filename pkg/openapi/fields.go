package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/caklein/hokus/pkg/model"
)

const (
	// TypeExtension overrides the field type inferred for a schema.
	TypeExtension = "x-hokus-type"
	// ConfigExtension is copied into the field's handler configuration.
	ConfigExtension = "x-hokus-config"
)

// ErrComponentNotFound is returned when the requested component is missing.
var ErrComponentNotFound = errors.New("openapi: component schema not found")

// Components lists the component schema names declared by doc.
func Components(ctx context.Context, doc Document) ([]string, error) {
	spec, err := loadSpec(ctx, doc)
	if err != nil {
		return nil, err
	}
	if spec.Components == nil {
		return nil, nil
	}
	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FieldsFromComponent converts the properties of the named component schema
// into a form schema. Properties are ordered by name.
func FieldsFromComponent(ctx context.Context, doc Document, name string) (model.Schema, error) {
	spec, err := loadSpec(ctx, doc)
	if err != nil {
		return nil, err
	}
	if spec.Components == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	ref, ok := spec.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}

	c := converter{visiting: map[*openapi3.Schema]bool{}}
	fields, err := c.properties(ref.Value, name)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("openapi: component %q declares no properties", name)
	}
	return fields, nil
}

func loadSpec(ctx context.Context, doc Document) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document %s: %w", doc.Location(), err)
	}
	return spec, nil
}

type converter struct {
	visiting map[*openapi3.Schema]bool
}

func (c converter) properties(schema *openapi3.Schema, path string) (model.Schema, error) {
	if c.visiting[schema] {
		return nil, fmt.Errorf("openapi: schema %q is recursive", path)
	}
	c.visiting[schema] = true
	defer delete(c.visiting, schema)

	required := make(map[string]bool, len(schema.Required))
	for _, key := range schema.Required {
		required[key] = true
	}

	keys := make([]string, 0, len(schema.Properties))
	for key := range schema.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(model.Schema, 0, len(keys))
	for _, key := range keys {
		ref := schema.Properties[key]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, err := c.field(key, ref.Value, required[key], path+"."+key)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (c converter) field(key string, schema *openapi3.Schema, required bool, path string) (model.Field, error) {
	field := model.Field{
		Key:         key,
		Title:       schema.Title,
		Description: schema.Description,
		Default:     model.NormalizeValue(schema.Default),
		Validations: validations(schema, required),
		Config:      configExtension(schema.Extensions),
	}

	schemaType := firstSchemaType(schema.Type)
	switch {
	case schemaType == "object" && len(schema.Properties) > 0:
		nested, err := c.properties(schema, path)
		if err != nil {
			return model.Field{}, err
		}
		field.Type = "section"
		field.Fields = nested
	case schemaType == "array" && schema.Items != nil && schema.Items.Value != nil:
		items := schema.Items.Value
		if firstSchemaType(items.Type) == "object" && len(items.Properties) > 0 {
			nested, err := c.properties(items, path)
			if err != nil {
				return model.Field{}, err
			}
			field.Type = "accordion"
			field.Fields = nested
		} else {
			field.Type = "chips"
		}
	case schemaType == "integer" || schemaType == "number":
		field.Type = "number"
		if schema.Min != nil {
			field.Config = withConfig(field.Config, "min", *schema.Min)
		}
		if schema.Max != nil {
			field.Config = withConfig(field.Config, "max", *schema.Max)
		}
	case schemaType == "boolean":
		field.Type = "boolean"
	case len(schema.Enum) > 0:
		field.Type = "select"
		for _, value := range schema.Enum {
			field.Options = append(field.Options, model.Option{Value: model.NormalizeValue(value)})
		}
	case schema.Format == "markdown":
		field.Type = "markdown"
	case schema.Format == "textarea" || (schema.MaxLength != nil && *schema.MaxLength > 255):
		field.Type = "textarea"
	default:
		field.Type = "string"
	}
	if schema.ReadOnly && len(field.Fields) == 0 {
		field.Type = "readonly"
	}
	if override := stringExtension(schema.Extensions, TypeExtension); override != "" {
		field.Type = override
	}
	return field, nil
}

func validations(schema *openapi3.Schema, required bool) []model.ValidationRule {
	var rules []model.ValidationRule
	add := func(kind, param, value string) {
		rule := model.ValidationRule{Kind: kind}
		if param != "" {
			rule.Params = map[string]string{param: value}
		}
		rules = append(rules, rule)
	}
	if required {
		add(model.ValidationRuleRequired, "", "")
	}
	if schema.Min != nil {
		add(model.ValidationRuleMin, "value", strconv.FormatFloat(*schema.Min, 'f', -1, 64))
	}
	if schema.Max != nil {
		add(model.ValidationRuleMax, "value", strconv.FormatFloat(*schema.Max, 'f', -1, 64))
	}
	if schema.MinLength > 0 {
		add(model.ValidationRuleMinLength, "value", strconv.FormatUint(schema.MinLength, 10))
	}
	if schema.MaxLength != nil {
		add(model.ValidationRuleMaxLength, "value", strconv.FormatUint(*schema.MaxLength, 10))
	}
	if schema.MinItems > 0 {
		add(model.ValidationRuleMinLength, "value", strconv.FormatUint(schema.MinItems, 10))
	}
	if schema.MaxItems != nil {
		add(model.ValidationRuleMaxLength, "value", strconv.FormatUint(*schema.MaxItems, 10))
	}
	if schema.Pattern != "" {
		add(model.ValidationRulePattern, "pattern", schema.Pattern)
	}
	return rules
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	for _, value := range values {
		if value != "null" {
			return value
		}
	}
	return ""
}

func stringExtension(extensions map[string]any, key string) string {
	value, ok := extensions[key]
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func configExtension(extensions map[string]any) map[string]any {
	value, ok := extensions[ConfigExtension]
	if !ok {
		return nil
	}
	if raw, isRaw := value.(json.RawMessage); isRaw {
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil
		}
		return decoded
	}
	mapped, _ := model.NormalizeValue(value).(map[string]any)
	return mapped
}

func withConfig(config map[string]any, key string, value any) map[string]any {
	if config == nil {
		config = make(map[string]any, 1)
	}
	if _, exists := config[key]; !exists {
		config[key] = value
	}
	return config
}
