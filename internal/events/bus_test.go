package events

import "testing"

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventSignal, 4)
	defer unsub()

	bus.Publish(EventSignal, "payload")
	select {
	case msg := <-ch:
		if msg != "payload" {
			t.Fatalf("got %v", msg)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	bus := NewBus()
	_, unsub := bus.Subscribe(EventSignal, 1)
	defer unsub()

	bus.Publish(EventSignal, 1)
	bus.Publish(EventSignal, 2) // buffer full, must not block

	if got := bus.Dropped(); got != 1 {
		t.Fatalf("Dropped=%d, expected 1", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventSignal, 1)
	unsub()

	if _, open := <-ch; open {
		t.Fatal("channel still open after unsubscribe")
	}
	bus.Publish(EventSignal, "after") // no subscribers, no panic
}
