package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		if !ok {
			t.Fatalf("expected event, channel closed")
		}
		return event
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func TestBrokerFansOutWithSequence(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := NewBroker(quietLogger())
	first := broker.Subscribe(ctx, 4)
	second := broker.Subscribe(ctx, 4)

	if err := broker.Publish(ctx, Event{Type: AppointmentCreated, AppointmentID: "a1"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := broker.Publish(ctx, Event{Type: AppointmentDeleted, AppointmentID: "a1"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for _, ch := range []<-chan Event{first, second} {
		created := receive(t, ch)
		deleted := receive(t, ch)
		if created.Seq != 1 || deleted.Seq != 2 {
			t.Fatalf("expected sequence 1, 2, got %d, %d", created.Seq, deleted.Seq)
		}
		if created.Type != AppointmentCreated || deleted.Type != AppointmentDeleted {
			t.Fatalf("unexpected event order: %s, %s", created.Type, deleted.Type)
		}
	}
	if broker.LastSeq() != 2 {
		t.Fatalf("expected LastSeq 2, got %d", broker.LastSeq())
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := NewBroker(quietLogger())
	slow := broker.Subscribe(ctx, 1)

	for i := 0; i < 3; i++ {
		if err := broker.Publish(ctx, Event{Type: AppointmentUpdated}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	if broker.Dropped() != 2 {
		t.Fatalf("expected 2 dropped deliveries, got %d", broker.Dropped())
	}
	if event := receive(t, slow); event.Seq != 1 {
		t.Fatalf("expected first event to be kept, got seq %d", event.Seq)
	}
	if broker.LastSeq() != 3 {
		t.Fatalf("expected sequence to advance past drops, got %d", broker.LastSeq())
	}
}

func TestBrokerUnsubscribesOnCancel(t *testing.T) {
	t.Parallel()

	broker := NewBroker(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx, 0)
	if broker.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", broker.Subscribers())
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for close")
	}
	if broker.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", broker.Subscribers())
	}
	if err := broker.Publish(context.Background(), Event{Type: StaffChanged}); err != nil {
		t.Fatalf("Publish after unsubscribe failed: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	var publisher Publisher = Discard{}
	if err := publisher.Publish(context.Background(), Event{Type: StaffChanged}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
