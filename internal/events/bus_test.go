package events

import "testing"

func TestBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(1, DataChanged)

	select {
	case got := <-ch:
		if got != DataChanged {
			t.Errorf("received %q, want %q", got, DataChanged)
		}
	default:
		t.Error("no signal received")
	}
}

func TestBus_ScopedToUser(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(2, DataChanged)

	select {
	case got := <-ch:
		t.Errorf("received %q for another user's publish", got)
	default:
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	cancel()

	bus.Publish(1, DataChanged)

	select {
	case got := <-ch:
		t.Errorf("received %q after unsubscribe", got)
	default:
	}
}

func TestBus_FullBufferDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe(1)
	defer cancel()

	// more publishes than the buffer holds; must not deadlock
	for i := 0; i < 100; i++ {
		bus.Publish(1, DataChanged)
	}
}
