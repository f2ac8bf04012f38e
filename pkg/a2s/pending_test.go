package a2s

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPendingResolve(t *testing.T) {
	p := newPending[int]()

	select {
	case <-p.Done():
		t.Fatal("Done closed before resolve")
	default:
	}

	go p.resolve(7)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if v != 7 {
		t.Errorf("Wait = %d, want 7", v)
	}

	// Result is stable after Done.
	if v, err := p.Result(); v != 7 || err != nil {
		t.Errorf("Result = %d, %v", v, err)
	}
}

func TestPendingReject(t *testing.T) {
	p := newPending[int]()
	want := errors.New("boom")
	p.reject(want)

	if _, err := p.Wait(context.Background()); !errors.Is(err, want) {
		t.Errorf("Wait error = %v, want %v", err, want)
	}
}

func TestPendingWaitContextCancel(t *testing.T) {
	p := newPending[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}

	// The handle itself is still unresolved.
	select {
	case <-p.Done():
		t.Error("Done closed by a cancelled Wait")
	default:
	}
}
