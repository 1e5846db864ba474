package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestFilter_Match(t *testing.T) {
	c := Change{Table: "calendar_events", UserID: "u1", Op: OpInsert}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"same user", Filter{UserID: "u1"}, true},
		{"other user", Filter{UserID: "u2"}, false},
		{"listed table", Filter{Tables: []string{"meal_plans", "calendar_events"}}, true},
		{"unlisted table", Filter{Tables: []string{"meal_plans"}}, false},
		{"table and user", Filter{Tables: []string{"calendar_events"}, UserID: "u2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(c); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func recv(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

func TestBroker_PublishSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroker()
	defer b.Close()
	ctx := context.Background()

	events, cancelEvents, err := b.Subscribe(ctx, Filter{Tables: []string{"calendar_events"}})
	if err != nil {
		t.Fatal(err)
	}
	defer cancelEvents()
	mine, cancelMine, err := b.Subscribe(ctx, Filter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	defer cancelMine()

	if err := b.Publish(ctx, Change{Table: "meal_plans", UserID: "u1", Op: OpUpdate}); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, Change{Table: "calendar_events", UserID: "u2", Op: OpDelete}); err != nil {
		t.Fatal(err)
	}

	if c := recv(t, mine); c.Table != "meal_plans" || c.At.IsZero() {
		t.Errorf("unexpected change %+v", c)
	}
	if c := recv(t, events); c.UserID != "u2" || c.Op != OpDelete {
		t.Errorf("unexpected change %+v", c)
	}
	select {
	case c := <-mine:
		t.Errorf("unexpected extra change %+v", c)
	default:
	}
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroker()
	defer b.Close()
	ctx := context.Background()
	ch, cancel, err := b.Subscribe(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < DefaultBuffer*4; i++ {
			_ = b.Publish(ctx, Change{Table: "t"})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if len(ch) != DefaultBuffer {
		t.Errorf("expected a full buffer of %d, got %d", DefaultBuffer, len(ch))
	}
}

func TestBroker_CancelReleases(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroker()
	defer b.Close()

	ch, cancel, err := b.Subscribe(context.Background(), Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if b.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.Subscribers())
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
	if b.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.Subscribers())
	}
}

func TestBroker_ContextEndsSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroker()
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())

	ch, unsubscribe, err := b.Subscribe(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	defer unsubscribe()
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription outlived its context")
	}
}

func TestBroker_Close(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroker()
	ch, _, err := b.Subscribe(context.Background(), Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after Close")
	}
	if err := b.Publish(context.Background(), Change{Table: "t"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, _, err := b.Subscribe(context.Background(), Filter{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
