package events

import (
	"strings"
	"testing"
	"time"
)

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}

	b.Unsubscribe(ch2)
	b.Unsubscribe(ch2) // second call is a no-op
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventRename, Path: "/Brand", OldPath: "/Design", Count: 3})

	select {
	case received := <-ch:
		if received.Type != EventRename {
			t.Errorf("expected type %s, got %s", EventRename, received.Type)
		}
		if received.OldPath != "/Design" || received.Path != "/Brand" {
			t.Errorf("unexpected paths %q -> %q", received.OldPath, received.Path)
		}
		if received.Timestamp == 0 {
			t.Error("expected non-zero timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcasterMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish(Event{Type: EventDelete, Path: "/Design"})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Path != "/Design" {
				t.Errorf("subscriber %d: expected /Design, got %s", i, received.Path)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: EventUpload, Path: "/overflow.txt"})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:
	if count != 64 {
		t.Errorf("expected 64 buffered events, got %d", count)
	}
}

func TestMarshalEvent(t *testing.T) {
	data, err := MarshalEvent(Event{Type: EventStar, ItemID: "f1", Timestamp: 1234567890})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"itemId":"f1"`) {
		t.Errorf("unexpected JSON %s", data)
	}
	if strings.Contains(string(data), "oldPath") {
		t.Errorf("empty fields should be omitted: %s", data)
	}
}
