package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/caklein/hokus/pkg/model"
)

var errRequired = errors.New("required")

// Rules is the compiled form of the validation rules attached to a field.
type Rules struct {
	Required bool
	Min      *float64
	Max      *float64
	MinLen   *int
	MaxLen   *int
	Pattern  *regexp.Regexp
}

// Compile reads the validation rules of field. Rules with malformed
// parameters are ignored.
func Compile(field model.Field) Rules {
	rules := Rules{Required: field.Required()}
	for _, v := range field.Validations {
		switch v.Kind {
		case model.ValidationRuleMin:
			if val, ok := parseFloat(v.Params["value"]); ok {
				rules.Min = &val
			}
		case model.ValidationRuleMax:
			if val, ok := parseFloat(v.Params["value"]); ok {
				rules.Max = &val
			}
		case model.ValidationRuleMinLength:
			if val, ok := parseInt(v.Params["value"]); ok {
				rules.MinLen = &val
			}
		case model.ValidationRuleMaxLength:
			if val, ok := parseInt(v.Params["value"]); ok {
				rules.MaxLen = &val
			}
		case model.ValidationRulePattern:
			if expr := v.Params["pattern"]; expr != "" {
				if re, err := regexp.Compile(expr); err == nil {
					rules.Pattern = re
				}
			}
		}
	}
	return rules
}

// Empty reports whether no rule is set.
func (r Rules) Empty() bool {
	return !r.Required && r.Min == nil && r.Max == nil && r.MinLen == nil && r.MaxLen == nil && r.Pattern == nil
}

// Check validates value against the rules. Absent or empty values only fail
// the required rule.
func (r Rules) Check(value any) error {
	switch v := value.(type) {
	case nil:
		if r.Required {
			return errRequired
		}
		return nil
	case string:
		return r.checkString(v)
	case bool:
		return nil
	case []any:
		return r.checkList(len(v))
	case []map[string]any:
		return r.checkList(len(v))
	case map[string]any:
		return nil
	default:
		if n, ok := toFloat(v); ok {
			return r.checkNumber(n)
		}
		return r.checkString(fmt.Sprint(v))
	}
}

func (r Rules) checkString(value string) error {
	if strings.TrimSpace(value) == "" {
		if r.Required {
			return errRequired
		}
		return nil
	}
	length := utf8.RuneCountInString(value)
	if r.MinLen != nil && length < *r.MinLen {
		return fmt.Errorf("must be at least %d characters", *r.MinLen)
	}
	if r.MaxLen != nil && length > *r.MaxLen {
		return fmt.Errorf("must be at most %d characters", *r.MaxLen)
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return errors.New("does not match required pattern")
	}
	return nil
}

func (r Rules) checkNumber(value float64) error {
	if r.Min != nil && value < *r.Min {
		return fmt.Errorf("must be at least %v", *r.Min)
	}
	if r.Max != nil && value > *r.Max {
		return fmt.Errorf("must be at most %v", *r.Max)
	}
	return nil
}

func (r Rules) checkList(length int) error {
	if r.Required && length == 0 {
		return errRequired
	}
	if r.MinLen != nil && length < *r.MinLen {
		return fmt.Errorf("needs at least %d items", *r.MinLen)
	}
	if r.MaxLen != nil && length > *r.MaxLen {
		return fmt.Errorf("allows at most %d items", *r.MaxLen)
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	return val, err == nil
}

func parseInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	return val, err == nil
}
