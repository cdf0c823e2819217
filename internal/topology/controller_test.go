package topology

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"netview/internal/event"
	"netview/internal/graph"
	"netview/internal/position"
	"netview/internal/source"
)

type fakeSource struct {
	mu   sync.Mutex
	snap source.Snapshot
	fail bool
}

func (f *fakeSource) FetchAll(ctx context.Context) (source.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return source.Snapshot{}, errors.New("adapter unavailable")
	}
	return f.snap, nil
}

func (f *fakeSource) set(snap source.Snapshot, fail bool) {
	f.mu.Lock()
	f.snap = snap
	f.fail = fail
	f.mu.Unlock()
}

type fakeStore struct {
	mu       sync.Mutex
	entries  []position.NodePosition
	upserts  [][]position.NodePosition
	cleared  int
	fetchErr error
}

func (f *fakeStore) FetchAll(ctx context.Context) ([]position.NodePosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.entries, nil
}

func (f *fakeStore) UpsertBatch(ctx context.Context, entries []position.NodePosition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, entries)
	return nil
}

func (f *fakeStore) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakeStore) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

type captureRenderer struct {
	mu    sync.Mutex
	calls []graph.Topology
}

func (r *captureRenderer) Render(top graph.Topology) {
	r.mu.Lock()
	r.calls = append(r.calls, top)
	r.mu.Unlock()
}

func (r *captureRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *captureRenderer) last() graph.Topology {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func snapshotWith(ids ...string) source.Snapshot {
	devices := make([]source.Device, len(ids))
	for i, id := range ids {
		devices[i] = source.Device{ID: id, Online: true}
	}
	return source.Snapshot{
		Devices:    devices,
		Interfaces: []source.RouterInterface{{Name: "eth0", IPAddress: "203.0.113.5", LinkState: "up"}},
	}
}

func newController(src DataSource, store PositionStore, bus *event.Bus, r Renderer) *Controller {
	return New(src, store, bus, r, Options{Interval: time.Hour})
}

func TestControllerMount(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1", "d2")}
	store := &fakeStore{entries: []position.NodePosition{
		{NodeID: "d1", X: 120, Y: 80, Pinned: true},
		{NodeID: "d9", X: 5, Y: 5, Pinned: false},
	}}
	rend := &captureRenderer{}
	c := newController(src, store, event.NewBus(), rend)

	c.Start(context.Background())
	defer c.Close()

	if rend.count() != 1 {
		t.Fatalf("expected 1 render on mount, got %d", rend.count())
	}
	top := rend.last()
	if len(top.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(top.Nodes))
	}

	d1 := top.Node("d1")
	if d1.Position != (graph.Position{X: 120, Y: 80}) || !d1.Pinned {
		t.Errorf("expected d1 pinned at (120,80), got %+v pinned=%v", d1.Position, d1.Pinned)
	}
	// Unpinned store entries must not enter the pin cache.
	if n := top.Node("d2"); n.Pinned {
		t.Error("expected d2 unpinned")
	}
}

func TestControllerMountFetchFailure(t *testing.T) {
	src := &fakeSource{fail: true}
	rend := &captureRenderer{}
	c := newController(src, &fakeStore{}, event.NewBus(), rend)

	c.Start(context.Background())
	defer c.Close()

	if rend.count() != 1 {
		t.Fatalf("expected 1 empty-state render, got %d", rend.count())
	}
	if len(rend.last().Nodes) != 0 {
		t.Errorf("expected empty topology, got %d nodes", len(rend.last().Nodes))
	}
}

func TestControllerRefreshPreservesPositions(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1")}
	rend := &captureRenderer{}
	c := newController(src, &fakeStore{}, event.NewBus(), rend)

	ctx := context.Background()
	c.Start(ctx)
	defer c.Close()

	initial := rend.last()
	before := initial.Node("d1").Position

	src.set(snapshotWith("d1", "d2"), false)
	c.Refresh(ctx)

	top := rend.last()
	if top.Node("d1").Position != before {
		t.Errorf("refresh moved d1 from %+v to %+v", before, top.Node("d1").Position)
	}
	if top.Node("d2") == nil {
		t.Fatal("expected new device d2 in refreshed graph")
	}
	if top.Node("d2").Position == (graph.Position{}) {
		t.Error("expected new device to receive a valid default position")
	}
}

func TestControllerFailedRefreshKeepsPreviousGraph(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1")}
	rend := &captureRenderer{}
	c := newController(src, &fakeStore{}, event.NewBus(), rend)

	ctx := context.Background()
	c.Start(ctx)
	defer c.Close()

	src.set(source.Snapshot{}, true)
	c.Refresh(ctx)

	if rend.count() != 1 {
		t.Errorf("expected no render on failed refresh, got %d renders", rend.count())
	}
	cur := c.Current()
	if cur.Node("d1") == nil {
		t.Error("expected previous graph untouched")
	}
}

func TestControllerRecordDrag(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1")}
	store := &fakeStore{}
	rend := &captureRenderer{}
	c := newController(src, store, event.NewBus(), rend)

	ctx := context.Background()
	c.Start(ctx)
	defer c.Close()

	c.RecordDrag("d1", 321, 42)

	cur := c.Current()
	if n := cur.Node("d1"); n.Position != (graph.Position{X: 321, Y: 42}) || !n.Pinned {
		t.Errorf("expected dragged node pinned at (321,42), got %+v", n)
	}

	waitUntil(t, "async upsert", func() bool { return store.upsertCount() == 1 })
	store.mu.Lock()
	entry := store.upserts[0][0]
	store.mu.Unlock()
	if entry.NodeID != "d1" || entry.X != 321 || entry.Y != 42 || !entry.Pinned {
		t.Errorf("unexpected upsert entry %+v", entry)
	}

	// The drag position must survive subsequent refreshes.
	c.Refresh(ctx)
	cur = c.Current()
	if n := cur.Node("d1"); n.Position != (graph.Position{X: 321, Y: 42}) {
		t.Errorf("refresh moved dragged node to %+v", n.Position)
	}
}

func TestControllerResetLayout(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1")}
	store := &fakeStore{}
	rend := &captureRenderer{}
	c := newController(src, store, event.NewBus(), rend)

	ctx := context.Background()
	c.Start(ctx)
	defer c.Close()

	c.RecordDrag("d1", 9999, 9999)
	c.ResetLayout(ctx)

	store.mu.Lock()
	cleared := store.cleared
	store.mu.Unlock()
	if cleared != 1 {
		t.Errorf("expected 1 ClearAll call, got %d", cleared)
	}

	cur := c.Current()
	n := cur.Node("d1")
	if n.Pinned {
		t.Error("expected pin cleared after reset")
	}
	if n.Position == (graph.Position{X: 9999, Y: 9999}) {
		t.Error("expected d1 repositioned by full layout after reset")
	}
}

func TestControllerBusEventTriggersRefresh(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1")}
	rend := &captureRenderer{}
	bus := event.NewBus()
	c := newController(src, &fakeStore{}, bus, rend)

	c.Start(context.Background())
	defer c.Close()

	src.set(snapshotWith("d1", "d2"), false)
	bus.Publish(event.Event{Type: event.NewDevice})

	waitUntil(t, "bus-triggered refresh", func() bool {
		cur := c.Current()
		return rend.count() >= 2 && cur.Node("d2") != nil
	})
}

func TestControllerIgnoresUnrelatedEvents(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1")}
	rend := &captureRenderer{}
	bus := event.NewBus()
	c := newController(src, &fakeStore{}, bus, rend)

	c.Start(context.Background())
	defer c.Close()

	bus.Publish(event.Event{Type: event.ConnectionUp})
	bus.Publish(event.Event{Type: event.Type("settings_changed")})

	time.Sleep(50 * time.Millisecond)
	if rend.count() != 1 {
		t.Errorf("expected no refresh for unrelated events, got %d renders", rend.count())
	}
}

func TestControllerPinLoadFailureIsNonFatal(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("d1")}
	store := &fakeStore{fetchErr: errors.New("store down")}
	rend := &captureRenderer{}
	c := newController(src, store, event.NewBus(), rend)

	c.Start(context.Background())
	defer c.Close()

	if rend.count() != 1 {
		t.Fatalf("expected mount render despite pin-load failure, got %d", rend.count())
	}
	if len(rend.last().Nodes) == 0 {
		t.Error("expected full graph render with empty pin cache")
	}
}
