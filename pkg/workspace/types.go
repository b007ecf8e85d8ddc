// Package workspace implements the component/state/side-effect engine: a
// registry of isolated stateful components whose editable fields a
// language model mutates through one schema-validated update protocol,
// with dependency-driven side effects re-run when their inputs change.
package workspace

import (
	"context"
	"time"

	"github.com/wjixiang/aikb/pkg/schema"
)

// State is a component's own mutable key/value state.
type State map[string]any

// Props are external-facing parameters handed to a component at
// construction; they participate in side-effect dependency tracking but
// are not mutated through the update protocol.
type Props map[string]any

// Snapshot is the merged state+props view handed to side-effect handlers.
// Props shadow state keys on conflict. Handlers must treat it as
// read-only; writes go through the owning component's state setter.
type Snapshot map[string]any

// EditableField is a named, schema-typed, optionally read-only value slot
// the model is allowed to mutate. Value is either nil or the last value
// that passed schema validation.
type EditableField struct {
	Value       any
	Schema      schema.Schema
	Description string
	ReadOnly    bool
	DependsOn   []string
}

// SideEffectFunc is a side-effect handler. It receives the owning
// component (for state writes) and a fresh merged snapshot.
type SideEffectFunc func(ctx context.Context, c Component, snap Snapshot) error

// SideEffect is an explicit side-effect record: a handler re-run by the
// registry whenever one of its declared dependency keys changes value,
// and at least once on mount.
type SideEffect struct {
	ID           string
	Dependencies []string
	Execute      SideEffectFunc
	// StopOnError halts the remaining effects of the same pass when this
	// one fails.
	StopOnError bool
	// Retryable permits manual re-invocation through RetrySideEffect,
	// bounded by MaxRetries (0 falls back to the registry default).
	Retryable  bool
	MaxRetries int

	executed   bool
	retryCount int
	lastError  *SideEffectError
}

// HasExecuted reports whether the effect has run at least once.
func (e *SideEffect) HasExecuted() bool { return e.executed }

// LastError returns the most recent failure of this effect, or nil.
func (e *SideEffect) LastError() *SideEffectError { return e.lastError }

// SideEffectError captures one side-effect failure with enough context
// for later inspection.
type SideEffectError struct {
	EffectID     string
	Message      string
	Stack        string
	Dependencies Snapshot
	Timestamp    time.Time
	Retryable    bool
}

// SideEffectResult is the outcome of one side-effect execution within a
// pass.
type SideEffectResult struct {
	EffectID string
	Success  bool
	Duration time.Duration
	Err      error
}

// FailureKind classifies the protocol failures the registry reports as
// data rather than errors.
type FailureKind string

const (
	FailureComponentNotFound FailureKind = "component_not_found"
	FailureFieldNotEditable  FailureKind = "field_not_editable"
	FailureFieldReadonly     FailureKind = "field_readonly"
	FailureValidation        FailureKind = "validation_error"
)

// UpdateResult is the structured outcome of one updateComponentState
// call. Failures carry a diagnosable message; the caller is expected to
// show it to the model and retry with corrected input.
type UpdateResult struct {
	Success            bool
	Failure            FailureKind
	Error              string
	ValidationProblems []string
	ComponentID        string
	Key                string
	PreviousValue      any
	NewValue           any
	Rerendered         bool
	Effects            []SideEffectResult
}

// FieldUpdate is one element of a multi-field update.
type FieldUpdate struct {
	FieldName string `json:"field_name"`
	Value     any    `json:"value"`
}

// MultiUpdateResult reports a multi-field update: per-field outcomes plus
// the single side-effect pass run after all values were applied.
type MultiUpdateResult struct {
	Results []*UpdateResult
	Effects []SideEffectResult
}

// FieldSchema describes one editable field for the model-facing schema
// query.
type FieldSchema struct {
	Description string
	DependsOn   []string
	ComponentID string
	Schema      schema.Schema
	Constraints string
}

// PropsSchema is the full editable-field surface of a workspace.
type PropsSchema struct {
	Fields map[string]FieldSchema
	// Order lists field names in declaration order for stable rendering.
	Order []string
}
