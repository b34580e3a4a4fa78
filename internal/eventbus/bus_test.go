package eventbus

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	bus := New[RequestEvent](4)
	defer bus.Close()

	events, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(RequestEvent{Endpoint: "me", Status: 200})

	select {
	case ev := <-events:
		if ev.Endpoint != "me" || ev.Status != 200 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := New[int](4)
	defer bus.Close()

	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Publish(7)

	for name, ch := range map[string]<-chan int{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got != 7 {
				t.Fatalf("subscriber %s got %d, want 7", name, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s timed out", name)
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := New[int](1)
	defer bus.Close()

	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Buffer is 1; the second publish must drop, not block.
		bus.Publish(1)
		bus.Publish(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestCancelClosesChannelAndStopsDelivery(t *testing.T) {
	bus := New[int](4)
	defer bus.Close()

	events, cancel := bus.Subscribe()
	cancel()
	cancel() // second call is a no-op

	if _, open := <-events; open {
		t.Fatal("channel still open after cancel")
	}

	// Must not panic on a removed subscriber.
	bus.Publish(1)
}

func TestCloseShutsDownSubscribersAndPublish(t *testing.T) {
	bus := New[int](4)
	events, cancel := bus.Subscribe()
	defer cancel()

	bus.Close()

	if _, open := <-events; open {
		t.Fatal("channel still open after Close")
	}

	bus.Publish(1) // dropped silently

	late, lateCancel := bus.Subscribe()
	defer lateCancel()
	if _, open := <-late; open {
		t.Fatal("subscription after Close should be closed immediately")
	}
}
