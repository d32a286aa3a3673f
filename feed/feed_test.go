package feed

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/database"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

func openStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestShouldSubmitBoundary(t *testing.T) {
	cases := map[int64]bool{0: false, 9: false, 10: true, 11: true}
	for count, want := range cases {
		if got := ShouldSubmit(count); got != want {
			t.Errorf("ShouldSubmit(%d) = %v", count, got)
		}
	}
}

func TestPollTenWarningsSubmits(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	for i := 0; i < 12; i++ {
		ev := models.WarningEvent{
			StudentID:   1,
			ExamID:      2,
			ObjectLabel: "cell phone",
			WarningType: "Cell phone detected!",
			Timestamp:   base.Add(time.Duration(i) * 3 * time.Second),
		}
		if i == 11 {
			ev.ObjectLabel, ev.WarningType = "book", "Book detected!"
		}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// another attempt must not leak into this one
	other := models.WarningEvent{StudentID: 1, ExamID: 9, ObjectLabel: "book", WarningType: "Book detected!", Timestamp: base}
	if err := store.Append(ctx, other); err != nil {
		t.Fatalf("append: %v", err)
	}

	resp, err := New(store).Poll(ctx, 1, 2)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if resp.TotalCount != 12 || !resp.ShouldSubmit {
		t.Fatalf("total=%d should_submit=%v", resp.TotalCount, resp.ShouldSubmit)
	}
	if len(resp.Warnings) != RecentLimit {
		t.Fatalf("got %d warnings", len(resp.Warnings))
	}
	first := resp.Warnings[0]
	if first.ObjectName != "book" || first.Timestamp != "09:00:33" {
		t.Fatalf("newest warning first, got %+v", first)
	}
}

func TestPollBelowThreshold(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		ev := models.WarningEvent{StudentID: 4, ExamID: 4, ObjectLabel: "book", WarningType: "Book detected!",
			Timestamp: time.Now().Add(time.Duration(i) * 3 * time.Second)}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	resp, err := New(store).Poll(ctx, 4, 4)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if resp.TotalCount != 9 || resp.ShouldSubmit {
		t.Fatalf("total=%d should_submit=%v", resp.TotalCount, resp.ShouldSubmit)
	}
}

func TestPollIsIdempotent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	ev := models.WarningEvent{StudentID: 1, ExamID: 1, ObjectLabel: "book", WarningType: "Book detected!", Timestamp: time.Now()}
	if err := store.Append(ctx, ev); err != nil {
		t.Fatalf("append: %v", err)
	}

	f := New(store)
	a, err := f.Poll(ctx, 1, 1)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	b, err := f.Poll(ctx, 1, 1)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("polls differ: %+v vs %+v", a, b)
	}
}

func TestPollEmpty(t *testing.T) {
	resp, err := New(openStore(t)).Poll(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if resp.Warnings == nil || len(resp.Warnings) != 0 || resp.TotalCount != 0 {
		t.Fatalf("unexpected %+v", resp)
	}
}

type brokenStore struct{}

func (brokenStore) CountFor(context.Context, uint, uint) (int64, error) {
	return 0, database.ErrStorage
}

func (brokenStore) RecentFor(context.Context, uint, uint, int) ([]models.WarningEvent, error) {
	return nil, database.ErrStorage
}

func TestPollStorageError(t *testing.T) {
	if _, err := New(brokenStore{}).Poll(context.Background(), 1, 1); !errors.Is(err, database.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
