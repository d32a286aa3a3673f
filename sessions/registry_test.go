package sessions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateAndLookup(t *testing.T) {
	r := NewRegistry()
	sc := r.Create(3, 8)
	if sc.ID == "" {
		t.Fatal("expected session ID")
	}

	got, err := r.Lookup(sc.ID)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.StudentID != 3 || got.ExamID != 8 {
		t.Fatalf("unexpected session %+v", got)
	}
	if _, err := r.Lookup("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateReplacesPreviousSession(t *testing.T) {
	r := NewRegistry()
	first := r.Create(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := r.Attach(first.ID, cancel); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	second := r.Create(1, 1)
	if ctx.Err() == nil {
		t.Fatal("expected previous pipeline to be cancelled")
	}
	if _, err := r.Lookup(first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old session removed, got %v", err)
	}
	if _, err := r.Lookup(second.ID); err != nil {
		t.Fatalf("Lookup new session: %v", err)
	}
}

func TestStopCancelsPipeline(t *testing.T) {
	r := NewRegistry()
	sc := r.Create(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	r.Attach(sc.ID, cancel)

	if n, streaming := r.Active(); n != 1 || streaming != 1 {
		t.Fatalf("expected 1 streaming session, got %d/%d", n, streaming)
	}
	r.Stop(sc.ID)
	if ctx.Err() == nil {
		t.Fatal("expected pipeline context cancelled")
	}
	if _, streaming := r.Active(); streaming != 0 {
		t.Fatalf("expected no streaming sessions, got %d", streaming)
	}
	r.Stop(sc.ID)
}

func TestStaleDetachKeepsNewerPipeline(t *testing.T) {
	r := NewRegistry()
	sc := r.Create(1, 2)

	oldCtx, oldCancel := context.WithCancel(context.Background())
	oldGen, _ := r.Attach(sc.ID, oldCancel)
	newCtx, newCancel := context.WithCancel(context.Background())
	if _, err := r.Attach(sc.ID, newCancel); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if oldCtx.Err() == nil {
		t.Fatal("expected old pipeline cancelled by the new one")
	}

	r.Detach(sc.ID, oldGen)
	r.Stop(sc.ID)
	if newCtx.Err() == nil {
		t.Fatal("expected Stop to reach the newer pipeline")
	}
}

func TestAttachUnknownSession(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Attach("nope", func() {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSweepDropsIdleSessions(t *testing.T) {
	r := NewRegistry()
	idle := r.Create(1, 1)
	streaming := r.Create(2, 1)
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := r.Attach(streaming.ID, cancel); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if n := r.Sweep(time.Now(), time.Hour); n != 0 {
		t.Fatalf("swept %d fresh sessions", n)
	}
	if n := r.Sweep(time.Now().Add(2*time.Hour), time.Hour); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if _, err := r.Lookup(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected idle session gone, got %v", err)
	}
	if _, err := r.Lookup(streaming.ID); err != nil {
		t.Fatalf("streaming session dropped: %v", err)
	}
}

func TestLookupKeepsSessionAlive(t *testing.T) {
	r := NewRegistry()
	sc := r.Create(1, 1)
	start := time.Now()

	time.Sleep(20 * time.Millisecond)
	if _, err := r.Lookup(sc.ID); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	// idle for longer than ttl since creation, but not since the lookup
	if n := r.Sweep(start.Add(25*time.Millisecond), 10*time.Millisecond); n != 0 {
		t.Fatalf("swept %d sessions after a lookup", n)
	}
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	r := NewRegistry()
	r.Create(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunSweeper(ctx, 5*time.Millisecond, time.Nanosecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if n, _ := r.Active(); n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session never swept")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
