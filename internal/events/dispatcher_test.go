package events

import (
	"testing"

	"github.com/google/uuid"

	"github.com/mkarev/nftmarket/internal/model"
)

func testEvent(t model.EventType) model.Event {
	return model.Event{
		ID:      uuid.New(),
		Type:    t,
		TokenID: 1,
		Actor:   uuid.New(),
	}
}

func TestDispatcher_FanOut(t *testing.T) {
	d := NewDispatcher(nil)
	a := d.Subscribe("a", 8)
	b := d.Subscribe("b", 8)

	d.Publish(testEvent(model.EventItemCreated))
	d.Publish(testEvent(model.EventItemListed))

	for name, sub := range map[string]*GrowableBuffer[model.Event]{"a": a, "b": b} {
		if got := sub.Len(); got != 2 {
			t.Errorf("subscriber %s Len = %d, want 2", name, got)
		}
		ev, ok := sub.TryReceive()
		if !ok {
			t.Fatalf("subscriber %s TryReceive returned false", name)
		}
		if ev.Type != model.EventItemCreated {
			t.Errorf("subscriber %s first event = %s, want %s", name, ev.Type, model.EventItemCreated)
		}
	}
}

func TestDispatcher_ResubscribeReplacesBuffer(t *testing.T) {
	d := NewDispatcher(nil)
	old := d.Subscribe("a", 8)
	fresh := d.Subscribe("a", 8)

	d.Publish(testEvent(model.EventBidPlaced))

	// The replaced buffer is closed and receives nothing new.
	if old.Send(testEvent(model.EventBidPlaced)) {
		t.Error("old buffer still accepts sends")
	}
	if got := fresh.Len(); got != 1 {
		t.Errorf("fresh buffer Len = %d, want 1", got)
	}

	st := d.Stats()
	if st.Subscribers != 1 {
		t.Errorf("Subscribers = %d, want 1", st.Subscribers)
	}
}

func TestDispatcher_PublishAfterClose(t *testing.T) {
	d := NewDispatcher(nil)
	sub := d.Subscribe("a", 8)

	d.Close()
	d.Publish(testEvent(model.EventItemSold))

	if got := sub.Len(); got != 0 {
		t.Errorf("Len = %d, want 0 after close", got)
	}

	st := d.Stats()
	if st.Published != 0 {
		t.Errorf("Published = %d, want 0", st.Published)
	}
	if st.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", st.Dropped)
	}
}

func TestDispatcher_Stats(t *testing.T) {
	d := NewDispatcher(nil)
	d.Subscribe("a", 8)
	d.Subscribe("b", 8)

	d.Publish(testEvent(model.EventAuctionStarted))

	st := d.Stats()
	if st.Subscribers != 2 {
		t.Errorf("Subscribers = %d, want 2", st.Subscribers)
	}
	if st.Published != 1 {
		t.Errorf("Published = %d, want 1", st.Published)
	}
	if st.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", st.Dropped)
	}
}
