// Package schema defines the closed constraint language used for editable
// workspace fields. Each field declares one Schema; the registry validates
// every incoming value against it before any state is mutated, and the
// workspace renders Describe() output so the model knows what inputs are
// acceptable.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Schema validates arbitrary JSON-decoded values against a closed set of
// constraint kinds. Validate returns the (possibly coerced) value plus a
// list of human-readable problems; an empty list means the value passed.
type Schema interface {
	Validate(value any) (any, []string)
	Describe() string
	AllowsNull() bool
}

// String constrains a value to a string with optional length and pattern
// bounds. MaxLength of 0 means unbounded.
type String struct {
	MinLength int
	MaxLength int
	Pattern   string
	Nullable  bool
}

func (s String) AllowsNull() bool { return s.Nullable }

func (s String) Validate(value any) (any, []string) {
	if value == nil {
		return nullResult(s.Nullable)
	}
	str, ok := value.(string)
	if !ok {
		return nil, []string{fmt.Sprintf("value: expected a string, got %T", value)}
	}
	var problems []string
	if len(str) < s.MinLength {
		problems = append(problems, fmt.Sprintf("value: must be at least %d characters, got %d", s.MinLength, len(str)))
	}
	if s.MaxLength > 0 && len(str) > s.MaxLength {
		problems = append(problems, fmt.Sprintf("value: must be at most %d characters, got %d", s.MaxLength, len(str)))
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			problems = append(problems, fmt.Sprintf("value: invalid pattern %q: %v", s.Pattern, err))
		} else if !re.MatchString(str) {
			problems = append(problems, fmt.Sprintf("value: must match pattern %s", s.Pattern))
		}
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return str, nil
}

func (s String) Describe() string {
	desc := "string"
	switch {
	case s.MinLength > 0 && s.MaxLength > 0:
		desc += fmt.Sprintf(" (%d..%d chars)", s.MinLength, s.MaxLength)
	case s.MinLength > 0:
		desc += fmt.Sprintf(" (min %d chars)", s.MinLength)
	case s.MaxLength > 0:
		desc += fmt.Sprintf(" (max %d chars)", s.MaxLength)
	}
	if s.Pattern != "" {
		desc += fmt.Sprintf(" matching %s", s.Pattern)
	}
	return withNullable(desc, s.Nullable)
}

// Integer constrains a value to a whole number. JSON numbers arrive as
// float64; integral floats are coerced to int. Nil bounds are unbounded.
type Integer struct {
	Min      *int
	Max      *int
	Nullable bool
}

func (s Integer) AllowsNull() bool { return s.Nullable }

func (s Integer) Validate(value any) (any, []string) {
	if value == nil {
		return nullResult(s.Nullable)
	}
	n, ok := toInt(value)
	if !ok {
		return nil, []string{fmt.Sprintf("value: expected an integer, got %T", value)}
	}
	var problems []string
	if s.Min != nil && n < *s.Min {
		problems = append(problems, fmt.Sprintf("value: must be at least %d, got %d", *s.Min, n))
	}
	if s.Max != nil && n > *s.Max {
		problems = append(problems, fmt.Sprintf("value: must be at most %d, got %d", *s.Max, n))
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return n, nil
}

func (s Integer) Describe() string {
	return withNullable("integer"+boundsText(s.Min, s.Max), s.Nullable)
}

// Number constrains a value to a float; ints are accepted and widened.
type Number struct {
	Min      *float64
	Max      *float64
	Nullable bool
}

func (s Number) AllowsNull() bool { return s.Nullable }

func (s Number) Validate(value any) (any, []string) {
	if value == nil {
		return nullResult(s.Nullable)
	}
	f, ok := toFloat(value)
	if !ok {
		return nil, []string{fmt.Sprintf("value: expected a number, got %T", value)}
	}
	var problems []string
	if s.Min != nil && f < *s.Min {
		problems = append(problems, fmt.Sprintf("value: must be at least %v, got %v", *s.Min, f))
	}
	if s.Max != nil && f > *s.Max {
		problems = append(problems, fmt.Sprintf("value: must be at most %v, got %v", *s.Max, f))
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return f, nil
}

func (s Number) Describe() string {
	desc := "number"
	switch {
	case s.Min != nil && s.Max != nil:
		desc += fmt.Sprintf(" (%v..%v)", *s.Min, *s.Max)
	case s.Min != nil:
		desc += fmt.Sprintf(" (min %v)", *s.Min)
	case s.Max != nil:
		desc += fmt.Sprintf(" (max %v)", *s.Max)
	}
	return withNullable(desc, s.Nullable)
}

// Boolean accepts true or false.
type Boolean struct {
	Nullable bool
}

func (s Boolean) AllowsNull() bool { return s.Nullable }

func (s Boolean) Validate(value any) (any, []string) {
	if value == nil {
		return nullResult(s.Nullable)
	}
	b, ok := value.(bool)
	if !ok {
		return nil, []string{fmt.Sprintf("value: expected a boolean, got %T", value)}
	}
	return b, nil
}

func (s Boolean) Describe() string {
	return withNullable("boolean", s.Nullable)
}

// Enum accepts one of a fixed set of string values.
type Enum struct {
	Values   []string
	Nullable bool
}

func (s Enum) AllowsNull() bool { return s.Nullable }

func (s Enum) Validate(value any) (any, []string) {
	if value == nil {
		return nullResult(s.Nullable)
	}
	str, ok := value.(string)
	if !ok {
		return nil, []string{fmt.Sprintf("value: expected a string, got %T", value)}
	}
	for _, v := range s.Values {
		if v == str {
			return str, nil
		}
	}
	return nil, []string{fmt.Sprintf("value: must be one of %s, got %q", strings.Join(s.Values, " | "), str)}
}

func (s Enum) Describe() string {
	return withNullable("one of: "+strings.Join(s.Values, " | "), s.Nullable)
}

// Array constrains a value to a list whose elements all satisfy Elem.
// MaxItems of 0 means unbounded.
type Array struct {
	Elem     Schema
	MinItems int
	MaxItems int
	Nullable bool
}

func (s Array) AllowsNull() bool { return s.Nullable }

func (s Array) Validate(value any) (any, []string) {
	if value == nil {
		return nullResult(s.Nullable)
	}
	list, ok := value.([]any)
	if !ok {
		return nil, []string{fmt.Sprintf("value: expected an array, got %T", value)}
	}
	var problems []string
	if len(list) < s.MinItems {
		problems = append(problems, fmt.Sprintf("value: must have at least %d items, got %d", s.MinItems, len(list)))
	}
	if s.MaxItems > 0 && len(list) > s.MaxItems {
		problems = append(problems, fmt.Sprintf("value: must have at most %d items, got %d", s.MaxItems, len(list)))
	}
	coerced := make([]any, len(list))
	for i, elem := range list {
		v, elemProblems := s.Elem.Validate(elem)
		for _, p := range elemProblems {
			problems = append(problems, fmt.Sprintf("value[%d]%s", i, strings.TrimPrefix(p, "value")))
		}
		coerced[i] = v
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return coerced, nil
}

func (s Array) Describe() string {
	desc := "array of " + s.Elem.Describe()
	switch {
	case s.MinItems > 0 && s.MaxItems > 0:
		desc += fmt.Sprintf(" (%d..%d items)", s.MinItems, s.MaxItems)
	case s.MinItems > 0:
		desc += fmt.Sprintf(" (min %d items)", s.MinItems)
	case s.MaxItems > 0:
		desc += fmt.Sprintf(" (max %d items)", s.MaxItems)
	}
	return withNullable(desc, s.Nullable)
}

func nullResult(nullable bool) (any, []string) {
	if nullable {
		return nil, nil
	}
	return nil, []string{"value: may not be null"}
}

func withNullable(desc string, nullable bool) string {
	if nullable {
		return desc + ", nullable"
	}
	return desc
}

func boundsText(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf(" (%d..%d)", *min, *max)
	case min != nil:
		return fmt.Sprintf(" (min %d)", *min)
	case max != nil:
		return fmt.Sprintf(" (max %d)", *max)
	}
	return ""
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), true
		}
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
