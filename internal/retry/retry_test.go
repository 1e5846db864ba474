package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	opts := Default()

	if opts.MaxAttempts != 30 {
		t.Errorf("Default MaxAttempts: got %d, want 30", opts.MaxAttempts)
	}
	if opts.InitialDelay != 1*time.Second {
		t.Errorf("Default InitialDelay: got %v, want 1s", opts.InitialDelay)
	}
	if opts.MaxDelay != 10*time.Second {
		t.Errorf("Default MaxDelay: got %v, want 10s", opts.MaxDelay)
	}
}

func TestNewBackOff(t *testing.T) {
	b := NewBackOff(Options{InitialDelay: time.Second, MaxDelay: 10 * time.Second})

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("delay %d = %v, want %v", i+1, got, w)
		}
	}

	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("delay after Reset = %v, want 1s", got)
	}
}

func fast(attempts int) Options {
	return Options{
		MaxAttempts:  attempts,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}
}

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fast(3), func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDo_RetriesOnFailure(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fast(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection failed")
		}
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	testErr := errors.New("persistent failure")

	err := Do(context.Background(), fast(3), func() error {
		attempts++
		return testErr
	})

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("error = %v, want wrapped testErr", err)
	}
}

func TestDo_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, Options{
		MaxAttempts:  10,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
	}, func() error {
		attempts++
		return errors.New("keep failing")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts >= 10 {
		t.Errorf("attempts = %d, expected fewer due to context cancel", attempts)
	}
}
