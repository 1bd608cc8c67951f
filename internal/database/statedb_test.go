package database

import (
	"context"
	"testing"
	"time"

	"github.com/willowgs/viciharvest/internal/model"
)

// setupTestDB creates a StateDB in a temp directory.
func setupTestDB(t *testing.T) *StateDB {
	t.Helper()
	sdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := sdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return sdb
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database", func(t *testing.T) {
		t.Parallel()
		sdb := setupTestDB(t)
		if sdb.dbPath == "" {
			t.Error("dbPath should be set")
		}
	})

	t.Run("refuses to create when disabled", func(t *testing.T) {
		t.Parallel()
		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for a missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		first, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("first open failed: %v", err)
		}
		if err := first.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		second, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		if err := second.Close(); err != nil {
			t.Errorf("close failed: %v", err)
		}
	})
}

func TestSaveAndLoadState(t *testing.T) {
	t.Parallel()

	sdb := setupTestDB(t)
	ctx := context.Background()

	state := model.NewCrawlState()
	state.MarkCompleted("Aeneis/Liber I")
	state.MarkCompleted("Aeneis/Liber II")
	state.MarkFailed("Opus Deletum", model.ErrorKindNotFound)
	state.MarkFailed("Opus Brevissimum", model.ErrorKindTooShort)
	state.MarkDiscovered("Aeneis")

	if err := sdb.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	loaded, err := sdb.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}

	if !loaded.IsCompleted("Aeneis/Liber I") || !loaded.IsCompleted("Aeneis/Liber II") {
		t.Error("completed titles lost in round trip")
	}
	kind, ok := loaded.FailureKind("Opus Deletum")
	if !ok || kind != model.ErrorKindNotFound {
		t.Errorf("FailureKind(Opus Deletum) = %v, %v; want not_found, true", kind, ok)
	}
	kind, ok = loaded.FailureKind("Opus Brevissimum")
	if !ok || kind != model.ErrorKindTooShort {
		t.Errorf("FailureKind(Opus Brevissimum) = %v, %v; want too_short, true", kind, ok)
	}
	completed, failed, discovered := loaded.Counts()
	if completed != 2 || failed != 2 || discovered != 5 {
		t.Errorf("Counts() = %d, %d, %d, want 2, 2, 5", completed, failed, discovered)
	}
}

func TestSaveStateUpsertsTransitions(t *testing.T) {
	t.Parallel()

	sdb := setupTestDB(t)
	ctx := context.Background()

	// First run: the work fails.
	state := model.NewCrawlState()
	state.MarkFailed("Georgica", model.ErrorKindNetwork)
	if err := sdb.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	// Second run: it succeeds. The stored row must flip to completed.
	state.MarkCompleted("Georgica")
	if err := sdb.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState() second error = %v", err)
	}

	loaded, err := sdb.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if !loaded.IsCompleted("Georgica") {
		t.Error("Georgica should be completed after the second save")
	}
	if _, failed := loaded.FailureKind("Georgica"); failed {
		t.Error("Georgica must not remain failed after completing")
	}
}

func TestStateCountsAndFailedWorks(t *testing.T) {
	t.Parallel()

	sdb := setupTestDB(t)
	ctx := context.Background()

	state := model.NewCrawlState()
	state.MarkCompleted("a")
	state.MarkFailed("b", model.ErrorKindUnresolvedIndex)
	state.MarkDiscovered("c")
	if err := sdb.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	counts, err := sdb.StateCounts(ctx)
	if err != nil {
		t.Fatalf("StateCounts() error = %v", err)
	}
	if counts["completed"] != 1 || counts["failed"] != 1 || counts["discovered"] != 1 {
		t.Errorf("StateCounts() = %v, want 1 of each", counts)
	}

	failed, err := sdb.FailedWorks(ctx)
	if err != nil {
		t.Fatalf("FailedWorks() error = %v", err)
	}
	if failed["b"] != model.ErrorKindUnresolvedIndex {
		t.Errorf("FailedWorks()[b] = %v, want unresolved_index", failed["b"])
	}
}

func TestPageCache(t *testing.T) {
	t.Parallel()

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		sdb := setupTestDB(t)
		cache := NewPageCache(sdb, time.Hour)
		ctx := context.Background()

		if err := cache.Put(ctx, "Aeneis", "== markup =="); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		payload, ok, err := cache.Get(ctx, "Aeneis")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || payload != "== markup ==" {
			t.Errorf("Get() = %q, %v; want cached payload", payload, ok)
		}
	})

	t.Run("miss for absent title", func(t *testing.T) {
		t.Parallel()
		sdb := setupTestDB(t)
		cache := NewPageCache(sdb, time.Hour)

		_, ok, err := cache.Get(context.Background(), "Opus Ignotum")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("expected a miss for an uncached title")
		}
	})

	t.Run("expired entry is a miss and prunable", func(t *testing.T) {
		t.Parallel()
		sdb := setupTestDB(t)
		cache := NewPageCache(sdb, time.Hour)
		ctx := context.Background()

		if err := cache.Put(ctx, "Fasti", "old markup"); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		// Age the entry past the TTL by rewriting its creation time.
		if _, err := sdb.db.ExecContext(ctx,
			`UPDATE page_cache SET created = datetime('now', '-2 hours') WHERE title = ?`,
			"Fasti"); err != nil {
			t.Fatalf("failed to age cache entry: %v", err)
		}

		_, ok, err := cache.Get(ctx, "Fasti")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("expired entry must read as a miss")
		}

		pruned, err := cache.Prune(ctx)
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		if pruned != 1 {
			t.Errorf("Prune() = %d, want 1", pruned)
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		t.Parallel()
		sdb := setupTestDB(t)
		cache := NewPageCache(sdb, 0)
		ctx := context.Background()

		if err := cache.Put(ctx, "Tristia", "markup"); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if _, err := sdb.db.ExecContext(ctx,
			`UPDATE page_cache SET created = datetime('now', '-100 days') WHERE title = ?`,
			"Tristia"); err != nil {
			t.Fatalf("failed to age cache entry: %v", err)
		}

		_, ok, err := cache.Get(ctx, "Tristia")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok {
			t.Error("entry must not expire with zero TTL")
		}

		if pruned, err := cache.Prune(ctx); err != nil || pruned != 0 {
			t.Errorf("Prune() = %d, %v; want 0, nil", pruned, err)
		}
	})
}
