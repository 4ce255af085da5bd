package session

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"codeberg.org/snonux/cliprecall/internal/history"
	"codeberg.org/snonux/cliprecall/internal/lookup"
	"codeberg.org/snonux/cliprecall/internal/segment"
	"codeberg.org/snonux/cliprecall/internal/testutil"
)

// segmentDir writes segments in insertion order: each id gets a later
// modification time than the one before
func segmentDir(t *testing.T, ids ...string) string {
	t.Helper()

	dir := testutil.CreateSegmentDirectory(t, "fr", ids...)
	base := time.Now().Add(-time.Hour)
	for i, id := range ids {
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filepath.Join(dir, id), mtime, mtime); err != nil {
			t.Fatalf("Failed to set mtime of %s: %v", id, err)
		}
	}
	return dir
}

func newStore(dir string) *segment.Store {
	return segment.NewStore(dir, segment.Options{DefaultLanguage: "fr"})
}

type fixture struct {
	translator *testutil.MockTranslator
	speaker    *testutil.MockSpeaker
	recorder   *fakeRecorder
	controller *Controller
	changes    *changeLog
}

func newFixture(t *testing.T, store Store, order Order) *fixture {
	t.Helper()

	f := &fixture{
		translator: testutil.NewMockTranslator(),
		speaker:    testutil.NewMockSpeaker("fr", "es"),
		recorder:   &fakeRecorder{},
		changes:    &changeLog{},
	}
	service := lookup.NewService(f.translator, f.speaker, lookup.Config{Timeout: 5 * time.Second})
	f.controller = New(store, service, Options{
		Order:          order,
		TargetLanguage: "en",
		Rand:           rand.New(rand.NewPCG(1, 2)),
		Recorder:       f.recorder,
	})
	f.controller.OnChange(f.changes.add)
	t.Cleanup(func() { f.controller.Close() })
	return f
}

func (f *fixture) start(t *testing.T) Snapshot {
	t.Helper()
	if err := f.controller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return f.controller.Snapshot()
}

func currentID(t *testing.T, snap Snapshot) string {
	t.Helper()
	if snap.Current == nil {
		t.Fatalf("no current segment in state %s", snap.State)
	}
	return snap.Current.ID
}

// changeLog collects the snapshots passed to OnChange
type changeLog struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (l *changeLog) add(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snaps = append(l.snaps, s)
}

func (l *changeLog) all() []Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Snapshot(nil), l.snaps...)
}

// fakeRecorder keeps recorded history entries in memory
type fakeRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *fakeRecorder) Record(ctx context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRecorder) all() []history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Entry(nil), r.entries...)
}

// gatedStore blocks loads once armed until the gate is closed
type gatedStore struct {
	Store

	mu      sync.Mutex
	gate    chan struct{}
	entered chan string
}

func (g *gatedStore) arm() chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	g.entered = make(chan string, 16)
	return g.gate
}

func (g *gatedStore) Load(ctx context.Context, id string) (segment.Record, error) {
	g.mu.Lock()
	gate, entered := g.gate, g.entered
	g.mu.Unlock()

	if gate != nil {
		entered <- id
		select {
		case <-gate:
		case <-ctx.Done():
			return segment.Record{}, ctx.Err()
		}
	}
	return g.Store.Load(ctx, id)
}

// faultyStore injects errors in front of a real store
type faultyStore struct {
	Store

	listErr    error
	loadErrs   map[string]error
	deleteErrs []error
	deletes    []string
}

func (f *faultyStore) List(ctx context.Context) ([]segment.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.List(ctx)
}

func (f *faultyStore) Load(ctx context.Context, id string) (segment.Record, error) {
	if err, ok := f.loadErrs[id]; ok {
		return segment.Record{}, err
	}
	return f.Store.Load(ctx, id)
}

func (f *faultyStore) Delete(ctx context.Context, id string) error {
	f.deletes = append(f.deletes, id)
	if len(f.deleteErrs) > 0 {
		err := f.deleteErrs[0]
		f.deleteErrs = f.deleteErrs[1:]
		return err
	}
	return f.Store.Delete(ctx, id)
}

// testTime returns a modification time older than any segmentDir file
func testTime(minutes int) time.Time {
	return time.Now().Add(-2*time.Hour + time.Duration(minutes)*time.Minute)
}
