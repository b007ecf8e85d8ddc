package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/wjixiang/aikb/pkg/config"
	"github.com/wjixiang/aikb/pkg/events"
	"github.com/wjixiang/aikb/pkg/logging"
)

// Workspace is the capability set a model-facing workspace exposes:
// initialization, a rendered context string, and an instruction prompt.
// Concrete workspaces delegate to a Core rather than inheriting from it.
type Workspace interface {
	Init(ctx context.Context) error
	RenderContext(ctx context.Context) string
	GetWorkspacePrompt(ctx context.Context) string
}

// UpdatePropsResult is the model-facing outcome of one field update.
type UpdatePropsResult struct {
	Success       bool
	Error         string
	UpdatedField  string
	PreviousValue any
	NewValue      any
}

// Core is the default Workspace implementation: it aggregates components
// behind one flat update surface and one rendered context string, and
// owns their mount/unmount lifecycle through its registry.
type Core struct {
	name        string
	description string
	registry    *ComponentRegistry
	pending     []Component
	initialized bool
	logger      *logging.Logger
}

// NewCore creates a workspace core. logger and bus may be nil.
func NewCore(name, description string, cfg config.Config, logger *logging.Logger, bus *events.EventBus) *Core {
	return &Core{
		name:        name,
		description: description,
		registry:    NewComponentRegistry(cfg, logger, bus),
		logger:      logger,
	}
}

// Registry exposes the underlying component registry.
func (w *Core) Registry() *ComponentRegistry { return w.registry }

// AddComponent queues a component for mounting. Before Init the component
// is held back; afterwards it is registered immediately.
func (w *Core) AddComponent(ctx context.Context, c Component) error {
	if !w.initialized {
		w.pending = append(w.pending, c)
		return nil
	}
	return w.registry.Register(ctx, c)
}

// Init mounts every queued component in order.
func (w *Core) Init(ctx context.Context) error {
	for _, c := range w.pending {
		if err := w.registry.Register(ctx, c); err != nil {
			return err
		}
	}
	w.pending = nil
	w.initialized = true
	w.logger.LogOperation("init", fmt.Sprintf("workspace=%s", w.name))
	return nil
}

// Shutdown unmounts every component.
func (w *Core) Shutdown(ctx context.Context) {
	for _, c := range w.registry.Components() {
		w.registry.Unregister(ctx, c.ID())
	}
}

// UpdateEditableProps routes one named-field update to the owning
// component. Every failure is returned as data with a human-readable
// message.
func (w *Core) UpdateEditableProps(ctx context.Context, fieldName string, value any) *UpdatePropsResult {
	c, found := w.registry.FindComponentByField(fieldName)
	if !found {
		return &UpdatePropsResult{
			Error:        fmt.Sprintf("no component exposes an editable field named %q", fieldName),
			UpdatedField: fieldName,
		}
	}
	return toPropsResult(fieldName, w.registry.UpdateComponentState(ctx, c.ID(), fieldName, value))
}

// UpdateEditablePropsBatch applies several field updates. Updates are
// grouped per owning component so that fields sharing a dependent side
// effect trigger it once, then the results are reported in input order.
func (w *Core) UpdateEditablePropsBatch(ctx context.Context, updates []FieldUpdate) []*UpdatePropsResult {
	results := make([]*UpdatePropsResult, len(updates))

	type group struct {
		componentID string
		updates     []FieldUpdate
		positions   []int
	}
	var groups []*group
	byComponent := make(map[string]*group)

	for i, update := range updates {
		c, found := w.registry.FindComponentByField(update.FieldName)
		if !found {
			results[i] = &UpdatePropsResult{
				Error:        fmt.Sprintf("no component exposes an editable field named %q", update.FieldName),
				UpdatedField: update.FieldName,
			}
			continue
		}
		g, ok := byComponent[c.ID()]
		if !ok {
			g = &group{componentID: c.ID()}
			byComponent[c.ID()] = g
			groups = append(groups, g)
		}
		g.updates = append(g.updates, update)
		g.positions = append(g.positions, i)
	}

	for _, g := range groups {
		multi := w.registry.UpdateMultipleComponentState(ctx, g.componentID, g.updates)
		for j, result := range multi.Results {
			results[g.positions[j]] = toPropsResult(g.updates[j].FieldName, result)
		}
	}
	return results
}

// GetEditablePropsSchema reports every editable field across the mounted
// components, used to generate the structural prompt the model
// self-instructs with.
func (w *Core) GetEditablePropsSchema() PropsSchema {
	propsSchema := PropsSchema{Fields: make(map[string]FieldSchema)}
	for _, c := range w.registry.Components() {
		for _, name := range c.FieldOrder() {
			field := c.EditableProps()[name]
			propsSchema.Fields[name] = FieldSchema{
				Description: field.Description,
				DependsOn:   field.DependsOn,
				ComponentID: c.ID(),
				Schema:      field.Schema,
				Constraints: field.Schema.Describe(),
			}
			propsSchema.Order = append(propsSchema.Order, name)
		}
	}
	return propsSchema
}

// RenderContext returns the aggregate context string: every mounted
// component framed with its description and editable-field summary. The
// result is cached until the next state change.
func (w *Core) RenderContext(ctx context.Context) string {
	return w.registry.RenderContext(ctx)
}

// GetWorkspacePrompt builds the instruction prompt describing the
// workspace and its update surface.
func (w *Core) GetWorkspacePrompt(ctx context.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Workspace: %s\n\n%s\n\n", w.name, w.description)
	b.WriteString("You interact with this workspace by updating editable fields. ")
	b.WriteString("Call updateEditableProps(field_name, value); invalid values are rejected with a reason and leave state unchanged.\n\n")
	b.WriteString("Editable fields:\n")

	propsSchema := w.GetEditablePropsSchema()
	for _, name := range propsSchema.Order {
		field := propsSchema.Fields[name]
		fmt.Fprintf(&b, "- %s (%s): %s\n", name, field.Constraints, field.Description)
		if len(field.DependsOn) > 0 {
			fmt.Fprintf(&b, "  depends on: %s\n", strings.Join(field.DependsOn, ", "))
		}
	}
	return b.String()
}

func toPropsResult(fieldName string, result *UpdateResult) *UpdatePropsResult {
	return &UpdatePropsResult{
		Success:       result.Success,
		Error:         result.Error,
		UpdatedField:  fieldName,
		PreviousValue: result.PreviousValue,
		NewValue:      result.NewValue,
	}
}

// RenderContext renders every mounted component in registration order,
// reusing the cached string while no state has changed.
func (r *ComponentRegistry) RenderContext(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.renderValid {
		return r.cachedRender
	}
	var b strings.Builder
	for i, id := range r.order {
		if i > 0 {
			b.WriteString("\n")
		}
		frameComponent(&b, ctx, r.components[id])
	}
	r.cachedRender = b.String()
	r.renderValid = true
	return r.cachedRender
}

// frameComponent writes one component section: header, description,
// editable-field summary, then the component's own render.
func frameComponent(b *strings.Builder, ctx context.Context, c Component) {
	fmt.Fprintf(b, "=== %s (%s) ===\n%s\n", c.Name(), c.ID(), c.Description())

	if len(c.FieldOrder()) > 0 {
		b.WriteString("\nEditable fields:\n")
		for _, name := range c.FieldOrder() {
			field := c.EditableProps()[name]
			marker := ""
			if field.ReadOnly {
				marker = " (read-only)"
			}
			fmt.Fprintf(b, "- %s%s: %s\n", name, marker, field.Description)
			fmt.Fprintf(b, "  constraints: %s\n", field.Schema.Describe())
			fmt.Fprintf(b, "  current: %s\n", renderValue(field.Value))
			if len(field.DependsOn) > 0 {
				fmt.Fprintf(b, "  depends on: %s\n", strings.Join(field.DependsOn, ", "))
			}
		}
	}

	if body := c.Render(ctx); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
}

func renderValue(value any) string {
	if value == nil {
		return "<null>"
	}
	return fmt.Sprintf("%v", value)
}
