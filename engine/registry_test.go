package engine

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := OpenRegistry(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpenRegistry_WALModeEnabled(t *testing.T) {
	r := openTestRegistry(t)
	var journalMode string
	if err := r.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected journal_mode=wal, got %q", journalMode)
	}
}

func TestOpenRegistry_BusyTimeoutSet(t *testing.T) {
	r := openTestRegistry(t)
	var busyTimeout int
	if err := r.db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("expected busy_timeout=5000, got %d", busyTimeout)
	}
}

func TestOpenRegistry_InvalidPath(t *testing.T) {
	if _, err := OpenRegistry("/nonexistent/dir/sessions.db"); err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestRegistrySessionLifecycle(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	first, err := r.Start(ctx, "AB_01", 1, "experiment", "results/a.csv", t0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := r.Start(ctx, "AB_01", 2, "experiment", "results/b.csv", t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Start(ctx, "CD_02", 1, "practice", "results/c.csv", t0.Add(time.Hour)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct session ids")
	}

	stamps := []string{"2024-03-01T09:00:01.016667Z", "2024-03-01T09:00:01.116667Z"}
	if err := r.SetBarcode(ctx, first, stamps); err != nil {
		t.Fatalf("SetBarcode: %v", err)
	}
	if err := r.Finish(ctx, first, StatusFinished, 480, Rate{Value: 0.8125, Valid: true}, t0.Add(time.Hour)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := r.Finish(ctx, second, StatusAborted, 12, Rate{}, t0.Add(25*time.Hour)); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	sessions, err := r.List(ctx, "AB_01")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	newest, oldest := sessions[0], sessions[1]
	if newest.ID != second || oldest.ID != first {
		t.Fatalf("expected newest first, got %s then %s", newest.ID, oldest.ID)
	}

	if oldest.Status != StatusFinished || oldest.Trials != 480 || oldest.Accuracy.Value != 0.8125 || !oldest.Accuracy.Valid {
		t.Errorf("unexpected finished session %+v", oldest)
	}
	if !oldest.StartedAt.Equal(t0) || !oldest.FinishedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("unexpected times %v %v", oldest.StartedAt, oldest.FinishedAt)
	}
	if !slices.Equal(oldest.Barcode, stamps) {
		t.Errorf("expected barcode %v, got %v", stamps, oldest.Barcode)
	}
	if newest.Status != StatusAborted || newest.Accuracy.Valid || newest.Barcode != nil {
		t.Errorf("unexpected aborted session %+v", newest)
	}

	all, err := r.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(all))
	}
}

func TestRegistryFinishUnknown(t *testing.T) {
	r := openTestRegistry(t)
	if err := r.Finish(context.Background(), "missing", StatusFailed, 0, Rate{}, t0); err == nil {
		t.Error("expected an error for an unknown session")
	}
}

func TestRegistryRunningSession(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Start(ctx, "AB_01", 1, "experiment", "a.csv", t0); err != nil {
		t.Fatal(err)
	}
	sessions, err := r.List(ctx, "AB_01")
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Status != StatusRunning || !sessions[0].FinishedAt.IsZero() {
		t.Errorf("unexpected running session %+v", sessions)
	}
}
