package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"netview/internal/position"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		s := openTestStore(t)
		all, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("expected empty, got %+v", all)
		}
	})

	t.Run("upsert inserts and updates by node id", func(t *testing.T) {
		s := openTestStore(t)

		err := s.UpsertBatch(ctx, []position.NodePosition{
			{NodeID: "d1", X: 120, Y: 80, Pinned: true},
			{NodeID: "d2", X: 10, Y: 20},
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}

		err = s.UpsertBatch(ctx, []position.NodePosition{
			{NodeID: "d1", X: 300, Y: 40, Pinned: true},
		})
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		all, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(all))
		}
		if all[0].NodeID != "d1" || all[0].X != 300 || all[0].Y != 40 || !all[0].Pinned {
			t.Errorf("unexpected d1 row: %+v", all[0])
		}
		if all[1].NodeID != "d2" || all[1].Pinned {
			t.Errorf("unexpected d2 row: %+v", all[1])
		}
	})

	t.Run("clear removes all rows", func(t *testing.T) {
		s := openTestStore(t)
		if err := s.UpsertBatch(ctx, []position.NodePosition{{NodeID: "d1", X: 1, Y: 1}}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		all, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("expected empty after clear, got %+v", all)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		s := openTestStore(t)
		if err := s.UpsertBatch(ctx, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
