package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringValidate(t *testing.T) {
	tests := []struct {
		name         string
		schema       String
		value        any
		want         any
		wantProblems bool
	}{
		{
			name:   "plain string passes",
			schema: String{},
			value:  "hello",
			want:   "hello",
		},
		{
			name:         "non-string rejected",
			schema:       String{},
			value:        42,
			wantProblems: true,
		},
		{
			name:         "too short",
			schema:       String{MinLength: 3},
			value:        "ab",
			wantProblems: true,
		},
		{
			name:         "too long",
			schema:       String{MaxLength: 4},
			value:        "hello",
			wantProblems: true,
		},
		{
			name:   "within bounds",
			schema: String{MinLength: 2, MaxLength: 8},
			value:  "hello",
			want:   "hello",
		},
		{
			name:   "pattern match",
			schema: String{Pattern: `^[a-z]+$`},
			value:  "hello",
			want:   "hello",
		},
		{
			name:         "pattern mismatch",
			schema:       String{Pattern: `^[a-z]+$`},
			value:        "Hello!",
			wantProblems: true,
		},
		{
			name:         "null rejected when not nullable",
			schema:       String{},
			value:        nil,
			wantProblems: true,
		},
		{
			name:   "null accepted when nullable",
			schema: String{Nullable: true},
			value:  nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, problems := tt.schema.Validate(tt.value)
			if tt.wantProblems {
				assert.NotEmpty(t, problems)
				return
			}
			require.Empty(t, problems)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntegerValidate(t *testing.T) {
	min, max := 0, 100

	tests := []struct {
		name         string
		schema       Integer
		value        any
		want         any
		wantProblems bool
	}{
		{name: "int passes", schema: Integer{}, value: 7, want: 7},
		{name: "integral float coerced", schema: Integer{}, value: float64(7), want: 7},
		{name: "fractional float rejected", schema: Integer{}, value: 7.5, wantProblems: true},
		{name: "string rejected", schema: Integer{}, value: "7", wantProblems: true},
		{name: "below min", schema: Integer{Min: &min}, value: -1, wantProblems: true},
		{name: "above max", schema: Integer{Max: &max}, value: 101, wantProblems: true},
		{name: "at bounds", schema: Integer{Min: &min, Max: &max}, value: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, problems := tt.schema.Validate(tt.value)
			if tt.wantProblems {
				assert.NotEmpty(t, problems)
				return
			}
			require.Empty(t, problems)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnumValidate(t *testing.T) {
	s := Enum{Values: []string{"draft", "published"}}

	got, problems := s.Validate("draft")
	require.Empty(t, problems)
	assert.Equal(t, "draft", got)

	_, problems = s.Validate("archived")
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "must be one of draft | published")
}

func TestArrayValidate(t *testing.T) {
	s := Array{Elem: String{MinLength: 1}, MinItems: 1, MaxItems: 3}

	got, problems := s.Validate([]any{"a", "b"})
	require.Empty(t, problems)
	assert.Equal(t, []any{"a", "b"}, got)

	_, problems = s.Validate([]any{})
	assert.NotEmpty(t, problems)

	_, problems = s.Validate([]any{"a", ""})
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0], "value[1]")
}

func TestNumberAndBooleanValidate(t *testing.T) {
	lo := 0.5
	n := Number{Min: &lo}

	got, problems := n.Validate(1)
	require.Empty(t, problems)
	assert.Equal(t, float64(1), got)

	_, problems = n.Validate(0.25)
	assert.NotEmpty(t, problems)

	b := Boolean{}
	got, problems = b.Validate(true)
	require.Empty(t, problems)
	assert.Equal(t, true, got)

	_, problems = b.Validate("true")
	assert.NotEmpty(t, problems)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		want   string
	}{
		{name: "plain string", schema: String{}, want: "string"},
		{name: "bounded string", schema: String{MinLength: 3, MaxLength: 80}, want: "string (3..80 chars)"},
		{name: "nullable string", schema: String{Nullable: true}, want: "string, nullable"},
		{name: "bounded integer", schema: Integer{Min: intPtr(0), Max: intPtr(10)}, want: "integer (0..10)"},
		{name: "enum", schema: Enum{Values: []string{"a", "b"}}, want: "one of: a | b"},
		{name: "array", schema: Array{Elem: String{}, MaxItems: 5}, want: "array of string (max 5 items)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.schema.Describe())
		})
	}
}

func intPtr(n int) *int { return &n }
