package workspace

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/wjixiang/aikb/pkg/config"
	"github.com/wjixiang/aikb/pkg/events"
	"github.com/wjixiang/aikb/pkg/logging"
)

// ComponentRegistry owns the mounted components and is the sole gateway
// between external update calls and component state: it routes a named
// field update to the owning component, validates the value, applies the
// mutation and runs the dependency-driven side-effect pass.
//
// A single mutex serializes every operation. The update protocol was
// designed for cooperative single-threaded execution; on a concurrent
// runtime the mutex provides the equivalent actor-style serialization.
type ComponentRegistry struct {
	mu           sync.Mutex
	components   map[string]Component
	order        []string
	previousDeps map[string]Snapshot
	effectErrors map[string][]SideEffectError

	maxComponents     int
	defaultMaxRetries int

	logger *logging.Logger
	bus    *events.EventBus

	cachedRender string
	renderValid  bool
}

// NewComponentRegistry creates an empty registry. logger and bus may be
// nil.
func NewComponentRegistry(cfg config.Config, logger *logging.Logger, bus *events.EventBus) *ComponentRegistry {
	return &ComponentRegistry{
		components:        make(map[string]Component),
		previousDeps:      make(map[string]Snapshot),
		effectErrors:      make(map[string][]SideEffectError),
		maxComponents:     cfg.MaxComponents,
		defaultMaxRetries: cfg.DefaultMaxRetries,
		logger:            logger,
		bus:               bus,
	}
}

// Register mounts a component: duplicate-ID and capacity checks, the
// OnMount hook, then a first side-effect pass in which every declared
// effect runs regardless of its dependencies.
func (r *ComponentRegistry) Register(ctx context.Context, c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if _, exists := r.components[id]; exists {
		return fmt.Errorf("component %q is already registered", id)
	}
	if r.maxComponents > 0 && len(r.components) >= r.maxComponents {
		return fmt.Errorf("component limit reached (%d), refusing to register %q", r.maxComponents, id)
	}

	c.base().registry = r
	c.base().mounted = true
	if err := c.OnMount(ctx); err != nil {
		c.base().registry = nil
		c.base().mounted = false
		return fmt.Errorf("component %q onMount failed: %w", id, err)
	}

	r.components[id] = c
	r.order = append(r.order, id)
	r.runSideEffectPassLocked(ctx, c)
	r.renderValid = false

	r.logger.LogOperation("register", fmt.Sprintf("component=%s", id))
	r.publish(events.EventTypeComponentRegistered, map[string]any{"component_id": id})
	return nil
}

// Unregister unmounts a component. It never fails: unknown IDs are a
// no-op and OnUnmount errors are logged, not returned.
func (r *ComponentRegistry) Unregister(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.components[id]
	if !exists {
		return
	}
	if err := c.OnUnmount(ctx); err != nil {
		r.logger.LogError(fmt.Errorf("component %q onUnmount: %w", id, err))
	}
	c.base().mounted = false
	c.base().registry = nil
	// A later re-registration is a fresh mount: every effect owes its
	// first run again and gets a new retry budget.
	for _, effect := range c.SideEffects() {
		effect.executed = false
		effect.retryCount = 0
	}
	delete(r.components, id)
	delete(r.previousDeps, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.renderValid = false

	r.logger.LogOperation("unregister", fmt.Sprintf("component=%s", id))
	r.publish(events.EventTypeComponentUnregistered, map[string]any{"component_id": id})
}

// Component returns a mounted component by ID.
func (r *ComponentRegistry) Component(id string) (Component, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.components[id]
	return c, ok
}

// FindComponentByField returns the component declaring the named editable
// field. Field names are unique across a workspace, so the first match is
// the only one.
func (r *ComponentRegistry) FindComponentByField(fieldName string) (Component, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findComponentByFieldLocked(fieldName)
}

func (r *ComponentRegistry) findComponentByFieldLocked(fieldName string) (Component, bool) {
	for _, id := range r.order {
		c := r.components[id]
		if _, ok := c.EditableProps()[fieldName]; ok {
			return c, true
		}
	}
	return nil, false
}

// UpdateComponentState is the core protocol operation: validate the value
// against the field's schema, apply the mutation, run the side-effect
// pass. Every failure kind is returned as data, never as a panic or
// error, so the model receives a diagnosable message.
func (r *ComponentRegistry) UpdateComponentState(ctx context.Context, componentID, key string, value any) *UpdateResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, result := r.resolveFieldLocked(componentID, key)
	if result != nil {
		return result
	}
	prevState := copyState(c.base().state)
	result = r.applyFieldLocked(c, key, value)
	if !result.Success {
		return result
	}

	result.Effects = r.runSideEffectPassLocked(ctx, c)
	result.Rerendered = true
	r.renderValid = false
	r.finishUpdateLocked(ctx, c, result, prevState)
	return result
}

// UpdateMultipleComponentState applies several key/value pairs to one
// component and then runs the side-effect pass exactly once, so fields
// sharing a dependent effect do not trigger it repeatedly.
func (r *ComponentRegistry) UpdateMultipleComponentState(ctx context.Context, componentID string, updates []FieldUpdate) *MultiUpdateResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	multi := &MultiUpdateResult{}
	var c Component
	var prevState State
	applied := false
	for _, update := range updates {
		target, failure := r.resolveFieldLocked(componentID, update.FieldName)
		if failure != nil {
			multi.Results = append(multi.Results, failure)
			continue
		}
		if c == nil {
			c = target
			prevState = copyState(c.base().state)
		}
		result := r.applyFieldLocked(c, update.FieldName, update.Value)
		multi.Results = append(multi.Results, result)
		applied = applied || result.Success
	}
	if !applied {
		return multi
	}

	multi.Effects = r.runSideEffectPassLocked(ctx, c)
	r.renderValid = false
	for _, result := range multi.Results {
		if result.Success {
			result.Rerendered = true
		}
	}
	if err := c.OnUpdate(ctx, prevState); err != nil {
		r.logger.LogError(fmt.Errorf("component %q onUpdate: %w", componentID, err))
	}
	return multi
}

// resolveFieldLocked runs the lookup and editability checks, returning a
// failure result or the target component.
func (r *ComponentRegistry) resolveFieldLocked(componentID, key string) (Component, *UpdateResult) {
	c, exists := r.components[componentID]
	if !exists {
		return nil, &UpdateResult{
			Failure:     FailureComponentNotFound,
			Error:       fmt.Sprintf("component not found: %q", componentID),
			ComponentID: componentID,
			Key:         key,
		}
	}
	field, editable := c.EditableProps()[key]
	if !editable {
		return nil, &UpdateResult{
			Failure:     FailureFieldNotEditable,
			Error:       fmt.Sprintf("field %q is not editable on component %q", key, componentID),
			ComponentID: componentID,
			Key:         key,
		}
	}
	if field.ReadOnly {
		return nil, &UpdateResult{
			Failure:     FailureFieldReadonly,
			Error:       fmt.Sprintf("field %q is read-only", key),
			ComponentID: componentID,
			Key:         key,
		}
	}
	return c, nil
}

// applyFieldLocked validates and applies one value. Validation failures
// leave both the state entry and the field value untouched.
func (r *ComponentRegistry) applyFieldLocked(c Component, key string, value any) *UpdateResult {
	field := c.EditableProps()[key]
	coerced, problems := field.Schema.Validate(value)
	if len(problems) > 0 {
		return &UpdateResult{
			Failure:            FailureValidation,
			Error:              fmt.Sprintf("invalid value for field %q: %s", key, strings.Join(problems, "; ")),
			ValidationProblems: problems,
			ComponentID:        c.ID(),
			Key:                key,
		}
	}

	previous := c.base().state[key]
	c.base().state[key] = coerced
	field.Value = coerced
	return &UpdateResult{
		Success:       true,
		ComponentID:   c.ID(),
		Key:           key,
		PreviousValue: previous,
		NewValue:      coerced,
	}
}

func (r *ComponentRegistry) finishUpdateLocked(ctx context.Context, c Component, result *UpdateResult, prevState State) {
	if err := c.OnUpdate(ctx, prevState); err != nil {
		r.logger.LogError(fmt.Errorf("component %q onUpdate: %w", c.ID(), err))
	}
	r.logger.LogOperation("update", fmt.Sprintf("component=%s field=%s", c.ID(), result.Key))
	r.publish(events.EventTypeStateUpdated,
		events.StateUpdatedEvent(c.ID(), result.Key, result.PreviousValue, result.NewValue))
}

// runSideEffectPassLocked implements the dependency-driven scheduling:
// diff the merged state+props view against the previous pass, then run
// each effect whose dependencies intersect the changed keys, plus every
// effect that has never run. Effects execute sequentially in registration
// order; each one receives a fresh snapshot so it observes the writes of
// earlier effects in the same pass.
func (r *ComponentRegistry) runSideEffectPassLocked(ctx context.Context, c Component) []SideEffectResult {
	current := mergedSnapshot(c)
	previous, seen := r.previousDeps[c.ID()]

	changed := make(map[string]bool)
	for key, value := range current {
		if !seen || !shallowEqual(previous[key], value) {
			changed[key] = true
		}
	}
	// Diff the next pass against this one, not against mount time.
	r.previousDeps[c.ID()] = current

	var results []SideEffectResult
	for _, effect := range c.SideEffects() {
		if effect.executed && !intersects(effect.Dependencies, changed) {
			continue
		}
		result := r.executeEffectLocked(ctx, c, effect)
		results = append(results, result)
		if !result.Success && effect.StopOnError {
			break
		}
	}
	return results
}

// executeEffectLocked runs one effect, recovering panics, and records any
// failure in the per-component error log. A failed effect does not roll
// back the state mutation that triggered it; state changes are never
// transactional across side effects.
func (r *ComponentRegistry) executeEffectLocked(ctx context.Context, c Component, effect *SideEffect) SideEffectResult {
	snap := mergedSnapshot(c)
	start := time.Now()
	err := runEffect(ctx, c, effect, snap)
	effect.executed = true
	result := SideEffectResult{
		EffectID: effect.ID,
		Success:  err == nil,
		Duration: time.Since(start),
		Err:      err,
	}
	if err != nil {
		record := SideEffectError{
			EffectID:     effect.ID,
			Message:      err.Error(),
			Dependencies: snap,
			Timestamp:    time.Now(),
			Retryable:    effect.Retryable,
		}
		if panicked, ok := err.(*effectPanicError); ok {
			record.Stack = panicked.stack
		}
		effect.lastError = &record
		r.effectErrors[c.ID()] = append(r.effectErrors[c.ID()], record)
		r.logger.LogError(fmt.Errorf("side effect %s on component %s: %w", effect.ID, c.ID(), err))
		r.publish(events.EventTypeSideEffectFailed,
			events.SideEffectFailedEvent(c.ID(), effect.ID, err.Error()))
	}
	return result
}

type effectPanicError struct {
	value any
	stack string
}

func (e *effectPanicError) Error() string {
	return fmt.Sprintf("side effect panicked: %v", e.value)
}

func runEffect(ctx context.Context, c Component, effect *SideEffect, snap Snapshot) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &effectPanicError{value: rec, stack: string(debug.Stack())}
		}
	}()
	return effect.Execute(ctx, c, snap)
}

// RetrySideEffect manually re-invokes one named effect. It fails without
// side effects when the effect is not retryable or its retry budget is
// spent.
func (r *ComponentRegistry) RetrySideEffect(ctx context.Context, componentID, effectID string) SideEffectResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.components[componentID]
	if !exists {
		return SideEffectResult{
			EffectID: effectID,
			Err:      fmt.Errorf("component not found: %q", componentID),
		}
	}
	var effect *SideEffect
	for _, candidate := range c.SideEffects() {
		if candidate.ID == effectID {
			effect = candidate
			break
		}
	}
	if effect == nil {
		return SideEffectResult{
			EffectID: effectID,
			Err:      fmt.Errorf("side effect not found: %q", effectID),
		}
	}
	if !effect.Retryable {
		return SideEffectResult{
			EffectID: effectID,
			Err:      fmt.Errorf("side effect %q is not retryable", effectID),
		}
	}
	maxRetries := effect.MaxRetries
	if maxRetries <= 0 {
		maxRetries = r.defaultMaxRetries
	}
	if effect.retryCount >= maxRetries {
		return SideEffectResult{
			EffectID: effectID,
			Err:      fmt.Errorf("side effect %q exceeded its retry limit (%d)", effectID, maxRetries),
		}
	}
	effect.retryCount++

	result := r.executeEffectLocked(ctx, c, effect)
	if result.Success {
		r.renderValid = false
	}
	return result
}

// GetSideEffectErrors returns the recorded failures for one component,
// oldest first.
func (r *ComponentRegistry) GetSideEffectErrors(componentID string) []SideEffectError {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := r.effectErrors[componentID]
	out := make([]SideEffectError, len(errs))
	copy(out, errs)
	return out
}

// Components returns the mounted components in registration order.
func (r *ComponentRegistry) Components() []Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Component, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.components[id])
	}
	return out
}

func (r *ComponentRegistry) publish(eventType string, data any) {
	if r.bus != nil {
		r.bus.Publish(eventType, data)
	}
}

// mergedSnapshot flattens state and props into one view; props shadow
// state keys on conflict.
func mergedSnapshot(c Component) Snapshot {
	base := c.base()
	snap := make(Snapshot, len(base.state)+len(base.props))
	for k, v := range base.state {
		snap[k] = v
	}
	for k, v := range base.props {
		snap[k] = v
	}
	return snap
}

func copyState(state State) State {
	out := make(State, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

// shallowEqual compares dependency values the way the change detection
// wants: primitives by value, everything composite always counts as
// changed. No deep equality; replacing a slice or map with a structurally
// equal one is a change.
func shallowEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	default:
		return false
	}
}

func intersects(dependencies []string, changed map[string]bool) bool {
	for _, dep := range dependencies {
		if changed[dep] {
			return true
		}
	}
	return false
}
