package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe("a")
	b := bus.Subscribe("b")

	bus.Publish(EventTypeStateUpdated, StateUpdatedEvent("wiki_editor", "edit_command", nil, "<append/>"))

	for _, ch := range []<-chan WorkspaceEvent{a, b} {
		select {
		case event := <-ch:
			assert.Equal(t, EventTypeStateUpdated, event.Type)
			assert.NotEmpty(t, event.ID)
			data := event.Data.(map[string]any)
			assert.Equal(t, "wiki_editor", data["component_id"])
		case <-time.After(time.Second):
			t.Fatal("expected event was not delivered")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("a")
	bus.Unsubscribe("a")

	_, open := <-ch
	assert.False(t, open)
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("slow")

	// Fill the buffer, then publish once more; the extra event is dropped
	// instead of blocking.
	for i := 0; i < 101; i++ {
		bus.Publish(EventTypeCommandExecuted, nil)
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			require.Equal(t, 100, count)
			return
		}
	}
}
