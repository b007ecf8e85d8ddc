// Package events provides the workspace event bus. The registry and the
// wiki editor publish events here so an embedding application can observe
// component activity without polling rendered output.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkspaceEvent is one observable occurrence inside a workspace.
type WorkspaceEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Event types published by the component registry and the wiki editor.
const (
	EventTypeComponentRegistered   = "component_registered"
	EventTypeComponentUnregistered = "component_unregistered"
	EventTypeStateUpdated          = "state_updated"
	EventTypeSideEffectFailed      = "side_effect_failed"
	EventTypeCommandExecuted       = "command_executed"
)

// EventBus distributes workspace events to named subscribers.
type EventBus struct {
	subscribers map[string]chan WorkspaceEvent
	mutex       sync.RWMutex
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string]chan WorkspaceEvent),
	}
}

// Subscribe adds a named subscriber and returns its event channel.
func (eb *EventBus) Subscribe(name string) <-chan WorkspaceEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	ch := make(chan WorkspaceEvent, 100)
	eb.subscribers[name] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (eb *EventBus) Unsubscribe(name string) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if ch, exists := eb.subscribers[name]; exists {
		delete(eb.subscribers, name)
		close(ch)
	}
}

// Publish broadcasts an event to all subscribers. Slow subscribers with a
// full channel are skipped rather than blocking the update path.
func (eb *EventBus) Publish(eventType string, data any) {
	event := WorkspaceEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	eb.mutex.RLock()
	subscribers := make([]chan WorkspaceEvent, 0, len(eb.subscribers))
	for _, ch := range eb.subscribers {
		subscribers = append(subscribers, ch)
	}
	eb.mutex.RUnlock()

	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// StateUpdatedEvent builds the payload for a state update notification.
func StateUpdatedEvent(componentID, key string, previous, next any) map[string]any {
	return map[string]any{
		"component_id": componentID,
		"key":          key,
		"previous":     previous,
		"next":         next,
	}
}

// SideEffectFailedEvent builds the payload for a side-effect failure.
func SideEffectFailedEvent(componentID, effectID, message string) map[string]any {
	return map[string]any{
		"component_id": componentID,
		"effect_id":    effectID,
		"error":        message,
	}
}

// CommandExecutedEvent builds the payload for an executed edit command.
func CommandExecutedEvent(componentID string, success bool, changes int, errMsg string) map[string]any {
	return map[string]any{
		"component_id": componentID,
		"success":      success,
		"changes":      changes,
		"error":        errMsg,
	}
}
