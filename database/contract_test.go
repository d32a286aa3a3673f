package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// exerciseWarningStore checks the behaviour every WarningStore backend shares.
// It expects an empty store.
func exerciseWarningStore(t *testing.T, ws WarningStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if err := ws.Append(ctx, event(1, 10, "book", base.Add(time.Duration(i)*3*time.Second))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := ws.Append(ctx, event(2, 10, "cell phone", base)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := ws.Append(ctx, event(2, 11, "notebook", base.Add(time.Minute))); err != nil {
		t.Fatalf("Append: %v", err)
	}

	count, err := ws.CountFor(ctx, 1, 10)
	if err != nil || count != 4 {
		t.Fatalf("CountFor = %d, %v", count, err)
	}
	if count, _ := ws.CountFor(ctx, 9, 9); count != 0 {
		t.Fatalf("CountFor of an unknown pair = %d", count)
	}

	recent, err := ws.RecentFor(ctx, 1, 10, 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("RecentFor = %d, %v", len(recent), err)
	}
	if !recent[0].Timestamp.Equal(base.Add(9*time.Second)) || !recent[1].Timestamp.After(base) {
		t.Fatalf("RecentFor not newest first: %+v", recent)
	}

	latest, err := ws.Latest(ctx, 3)
	if err != nil || len(latest) != 3 || latest[0].ObjectLabel != "notebook" {
		t.Fatalf("Latest = %+v, %v", latest, err)
	}

	groups, err := ws.GroupSummary(ctx, []uint{10})
	if err != nil {
		t.Fatalf("GroupSummary: %v", err)
	}
	if len(groups) != 2 || groups[0].StudentID != 1 || groups[0].Count != 4 || groups[1].Count != 1 {
		t.Fatalf("GroupSummary = %+v", groups)
	}
	if len(groups[0].Events) != 4 || !groups[0].Events[0].Timestamp.Equal(base) {
		t.Fatalf("details not oldest first: %+v", groups[0].Events)
	}
	if groups, _ := ws.GroupSummary(ctx, nil); len(groups) != 0 {
		t.Fatalf("GroupSummary without exams = %+v", groups)
	}
}

func TestSQLiteWarningStore(t *testing.T) {
	exerciseWarningStore(t, tempStore(t))
}

func TestPostgresWarningStore(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx := context.Background()
	pg, err := OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(pg.Close)
	if _, err := pg.pool.Exec(ctx, "TRUNCATE warning_logs"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	exerciseWarningStore(t, pg)
}
