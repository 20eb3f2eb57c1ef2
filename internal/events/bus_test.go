package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(TopicDriveSyncRefresh)
	defer cancel()

	bus.Publish(TopicDriveSyncRefresh, nil)

	select {
	case event := <-ch:
		assert.Equal(t, TopicDriveSyncRefresh, event.Topic)
		assert.NotEmpty(t, event.ID)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBusTopicIsolation(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(TopicGmailScanStarted)
	defer cancel()

	bus.Publish(TopicDriveSyncRefresh, nil)

	select {
	case <-ch:
		t.Fatal("event crossed topics")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(TopicDriveSyncRefresh)
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic.
	bus.Publish(TopicDriveSyncRefresh, nil)
}

func TestBusDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe(TopicDriveSyncRefresh)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(TopicDriveSyncRefresh, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on full subscriber")
	}
}
