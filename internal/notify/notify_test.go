package notify

import "testing"

func TestNotifier_PublishReachesSubscribers(t *testing.T) {
	n := NewNotifier()

	var got []Event
	n.Subscribe(func(e Event) { got = append(got, e) })
	n.Subscribe(func(e Event) { got = append(got, e) })

	n.Publish(NewEvent("entry.created", "e1", ""))

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Kind != "entry.created" || got[0].EntryID != "e1" {
		t.Errorf("unexpected event: %+v", got[0])
	}
	if got[0].Timestamp.IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestNotifier_UnsubscribeStopsDelivery(t *testing.T) {
	n := NewNotifier()

	count := 0
	cancel := n.Subscribe(func(Event) { count++ })

	n.Publish(NewEvent("entry.updated", "e1", ""))
	cancel()
	n.Publish(NewEvent("entry.updated", "e1", ""))

	if count != 1 {
		t.Errorf("expected 1 delivery after unsubscribe, got %d", count)
	}
}

func TestNotifier_PublishWithNoSubscribers(t *testing.T) {
	n := NewNotifier()
	// Must not panic.
	n.Publish(NewEvent("entry.deleted", "e1", "c1"))
}
