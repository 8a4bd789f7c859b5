package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/intake-api/pkg/errors"
)

// Kind selects how a field's raw value is interpreted.
type Kind int

const (
	// RequiredString must be a non-empty string on create.
	RequiredString Kind = iota + 1
	// OptionalNonNegInt may be absent or an empty string; otherwise it must
	// be an integer. null is rejected.
	OptionalNonNegInt
	// PatternString is a required string that must also match Rule.Pattern.
	PatternString
	// DefaultString is optional and filled with Rule.Default on create.
	DefaultString
)

// Rule declares the constraints on one input field.
type Rule struct {
	Field string
	Kind  Kind
	// Tag holds go-playground validator tags applied to the parsed value,
	// e.g. "min=7,max=20" for strings or "gte=0" for integers.
	Tag     string
	Pattern *regexp.Regexp
	Default string
	// Messages overrides the default message for a tag ("required",
	// "type", "pattern", "min", ...). A single %s receives the field name.
	Messages map[string]string
}

type notProvided struct{}

func (notProvided) String() string { return "<not provided>" }

// NotProvided marks a field the caller did not send. It is distinct from
// an explicit empty string, zero or null.
var NotProvided interface{} = notProvided{}

// IsNotProvided reports whether v is the NotProvided sentinel.
func IsNotProvided(v interface{}) bool {
	_, ok := v.(notProvided)
	return ok
}

// Field is one entry of a validated, ordered field mapping.
type Field struct {
	Name  string
	Value interface{}
}

// Fields is an ordered sparse mapping from field name to value.
type Fields []Field

// Get returns the value for name and whether it was provided.
func (f Fields) Get(name string) (interface{}, bool) {
	for _, field := range f {
		if field.Name == name {
			if IsNotProvided(field.Value) {
				return nil, false
			}
			return field.Value, true
		}
	}
	return nil, false
}

// Provided lists the names of fields carrying a real value.
func (f Fields) Provided() []string {
	names := make([]string, 0, len(f))
	for _, field := range f {
		if !IsNotProvided(field.Value) {
			names = append(names, field.Name)
		}
	}
	return names
}

var defaultMessages = map[string]string{
	"required": "%s is required",
	"type":     "%s must be a string",
	"integer":  "%s must be a whole number",
	"pattern":  "%s has invalid characters",
	"min":      "%s too short",
	"max":      "%s too long",
	"gte":      "%s must be a whole number >= 0",
}

// Schema evaluates a fixed rule set against decoded JSON objects. The create
// and update variants share the same rules.
type Schema struct {
	rules    []Rule
	validate *playground.Validate
}

func NewSchema(rules ...Rule) *Schema {
	return &Schema{
		rules:    rules,
		validate: playground.New(),
	}
}

// Rules returns the declared rules in order.
func (s *Schema) Rules() []Rule {
	return s.rules
}

// ValidateCreate checks a full record. Required fields must be present and
// optional ones are normalized.
func (s *Schema) ValidateCreate(input map[string]interface{}) (Fields, error) {
	return s.run(input, true)
}

// ValidateUpdate checks only the fields present in input; absent fields come
// back as NotProvided.
func (s *Schema) ValidateUpdate(input map[string]interface{}) (Fields, error) {
	return s.run(input, false)
}

func (s *Schema) run(input map[string]interface{}, create bool) (Fields, error) {
	verr := &apperrors.ValidationError{}
	fields := make(Fields, 0, len(s.rules))

	for _, rule := range s.rules {
		raw, present := input[rule.Field]
		value, msg := s.evaluate(rule, raw, present, create)
		if msg != "" {
			verr.Add(rule.Field, msg)
			continue
		}
		fields = append(fields, Field{Name: rule.Field, Value: value})
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return fields, nil
}

func (s *Schema) evaluate(rule Rule, raw interface{}, present, create bool) (interface{}, string) {
	switch rule.Kind {
	case RequiredString, PatternString:
		if !present {
			if create {
				return nil, rule.message("required")
			}
			return NotProvided, ""
		}
		if raw == nil {
			return nil, rule.message("required")
		}
		str, ok := raw.(string)
		if !ok {
			return nil, rule.message("type")
		}
		if str == "" {
			return nil, rule.message("required")
		}
		if msg := s.checkTag(rule, str); msg != "" {
			return nil, msg
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(str) {
			return nil, rule.message("pattern")
		}
		return str, ""

	case OptionalNonNegInt:
		if !present {
			return NotProvided, ""
		}
		if str, ok := raw.(string); ok && strings.TrimSpace(str) == "" {
			return NotProvided, ""
		}
		n, ok := toInt(raw)
		if !ok {
			return nil, rule.message("integer")
		}
		if msg := s.checkTag(rule, n); msg != "" {
			return nil, msg
		}
		return n, ""

	case DefaultString:
		if !present {
			if create {
				return rule.Default, ""
			}
			return NotProvided, ""
		}
		str, ok := raw.(string)
		if !ok {
			return nil, rule.message("type")
		}
		if msg := s.checkTag(rule, str); msg != "" {
			return nil, msg
		}
		return str, ""
	}

	return nil, fmt.Sprintf("%s has an unsupported rule", rule.Field)
}

func (s *Schema) checkTag(rule Rule, value interface{}) string {
	if rule.Tag == "" {
		return ""
	}
	err := s.validate.Var(value, rule.Tag)
	if err == nil {
		return ""
	}
	if errs, ok := err.(playground.ValidationErrors); ok && len(errs) > 0 {
		return rule.message(errs[0].Tag())
	}
	return fmt.Sprintf("%s is invalid", rule.Field)
}

func (r Rule) message(tag string) string {
	format, ok := r.Messages[tag]
	if !ok {
		format, ok = defaultMessages[tag]
	}
	if !ok {
		format = "%s is invalid"
	}
	if strings.Contains(format, "%s") {
		return fmt.Sprintf(format, r.Field)
	}
	return format
}

// toInt accepts JSON numbers and numeric strings with no fractional part.
func toInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return floatToInt(v)
	case json.Number:
		return parseIntString(v.String())
	case string:
		return parseIntString(strings.TrimSpace(v))
	}
	return 0, false
}

func parseIntString(s string) (int, bool) {
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
