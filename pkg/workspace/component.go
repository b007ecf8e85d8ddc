package workspace

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Component is one isolated unit of state, editable fields and side
// effects, exposed to the model as a partition of the workspace. Concrete
// components embed *BaseComponent, which supplies the storage and default
// lifecycle hooks, and override Render (plus any hooks they need).
type Component interface {
	ID() string
	Name() string
	Description() string

	StateValue(key string) any
	SetStateValue(key string, value any)
	Props() Props
	EditableProps() map[string]*EditableField
	FieldOrder() []string
	SideEffects() []*SideEffect

	// Render produces the component's own textual representation. The
	// registry frames it with the description and field summary.
	Render(ctx context.Context) string

	OnMount(ctx context.Context) error
	OnUpdate(ctx context.Context, prevState State) error
	OnUnmount(ctx context.Context) error

	base() *BaseComponent
}

// BaseComponent is the default Component implementation. It owns the
// state map, the declared editable fields and the side-effect records;
// the registry is its only external mutator.
type BaseComponent struct {
	id          string
	name        string
	description string

	state         State
	props         Props
	editableProps map[string]*EditableField
	fieldOrder    []string
	sideEffects   []*SideEffect

	mounted  bool
	registry *ComponentRegistry
}

// NewBaseComponent creates a component shell with empty state and no
// declared fields.
func NewBaseComponent(id, name, description string) *BaseComponent {
	return &BaseComponent{
		id:            id,
		name:          name,
		description:   description,
		state:         make(State),
		props:         make(Props),
		editableProps: make(map[string]*EditableField),
	}
}

func (c *BaseComponent) ID() string          { return c.id }
func (c *BaseComponent) Name() string        { return c.name }
func (c *BaseComponent) Description() string { return c.description }

// StateValue reads one state entry.
func (c *BaseComponent) StateValue(key string) any { return c.state[key] }

// SetStateValue writes one state entry directly. This is the internal
// write path for side effects and component methods; external updates go
// through the registry's validated protocol instead.
func (c *BaseComponent) SetStateValue(key string, value any) {
	c.state[key] = value
	if field, ok := c.editableProps[key]; ok {
		field.Value = value
	}
}

// StateKeys returns the state's keys, sorted.
func (c *BaseComponent) StateKeys() []string {
	keys := make([]string, 0, len(c.state))
	for k := range c.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Props returns the component's external parameters.
func (c *BaseComponent) Props() Props { return c.props }

// SetProp sets one external parameter. Intended for construction time;
// prop changes are picked up by the next side-effect pass.
func (c *BaseComponent) SetProp(key string, value any) { c.props[key] = value }

// EditableProps returns the declared editable fields by name.
func (c *BaseComponent) EditableProps() map[string]*EditableField { return c.editableProps }

// FieldOrder returns the editable field names in declaration order.
func (c *BaseComponent) FieldOrder() []string { return c.fieldOrder }

// DeclareField registers an editable field and seeds the corresponding
// state entry, keeping the invariant that every editable field has a
// state entry after initialization.
func (c *BaseComponent) DeclareField(name string, field *EditableField) {
	if _, exists := c.editableProps[name]; !exists {
		c.fieldOrder = append(c.fieldOrder, name)
	}
	c.editableProps[name] = field
	c.state[name] = field.Value
}

// SideEffects returns the side-effect records in registration order.
func (c *BaseComponent) SideEffects() []*SideEffect { return c.sideEffects }

// AddSideEffect registers a side effect. Effects execute in registration
// order; later effects may read state written by earlier ones in the same
// pass.
func (c *BaseComponent) AddSideEffect(effect *SideEffect) {
	c.sideEffects = append(c.sideEffects, effect)
}

// Mounted reports whether the component is currently registered.
func (c *BaseComponent) Mounted() bool { return c.mounted }

// Registry returns the owning registry, or nil before registration.
func (c *BaseComponent) Registry() *ComponentRegistry { return c.registry }

// Render is the default textual representation: a sorted state dump.
// Concrete components are expected to override it.
func (c *BaseComponent) Render(ctx context.Context) string {
	var b strings.Builder
	for _, key := range c.StateKeys() {
		fmt.Fprintf(&b, "%s: %v\n", key, c.state[key])
	}
	return b.String()
}

// Default lifecycle hooks; concrete components override as needed.

func (c *BaseComponent) OnMount(ctx context.Context) error { return nil }

func (c *BaseComponent) OnUpdate(ctx context.Context, prevState State) error { return nil }

func (c *BaseComponent) OnUnmount(ctx context.Context) error { return nil }

func (c *BaseComponent) base() *BaseComponent { return c }
