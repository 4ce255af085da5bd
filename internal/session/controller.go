package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/cliprecall/internal/logger"
	"codeberg.org/snonux/cliprecall/internal/segment"
)

// Options configure a Controller
type Options struct {
	Order Order

	// TargetLanguage is the language words are translated into
	TargetLanguage string

	// Rand drives the random order. Nil seeds one from the clock.
	Rand *rand.Rand

	// Recorder, if set, receives every resolved lookup
	Recorder Recorder

	Logger *logger.Logger
}

// Controller owns the session queue. All methods are safe for concurrent
// use; the presentation layer only ever reads Snapshots.
type Controller struct {
	store   Store
	lookups Lookup
	opts    Options
	rng     *rand.Rand
	log     *logger.Logger
	id      string

	mu        sync.Mutex
	state     State
	order     []string
	cursor    int
	current   *segment.Record
	lookup    WordLookup
	token     uint64
	skipped   []SkippedRecord
	lastErr   error
	listeners []func(Snapshot)
	closed    bool

	// notifyMu keeps listener calls in snapshot order
	notifyMu sync.Mutex

	lookupCtx    context.Context
	cancelLookup context.CancelFunc
	wg           sync.WaitGroup
}

// New creates a controller reading from store and looking words up
// through lookups
func New(store Store, lookups Lookup, opts Options) *Controller {
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "en"
	}

	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		store:        store,
		lookups:      lookups,
		opts:         opts,
		rng:          rng,
		log:          log.With("session"),
		id:           uuid.NewString(),
		state:        Empty,
		lookupCtx:    ctx,
		cancelLookup: cancel,
	}
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// OnChange registers fn to be called with a fresh snapshot after every
// state change. fn runs outside the controller lock but must not call
// Start, Advance, DeleteCurrent or LookupWord synchronously.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns the current view of the session
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: c.id,
		State:     c.state,
		Cursor:    c.cursor,
		Len:       len(c.order),
		Lookup:    c.lookup,
		Err:       c.lastErr,
	}
	if c.current != nil {
		rec := *c.current
		snap.Current = &rec
	}
	if len(c.skipped) > 0 {
		snap.Skipped = append([]SkippedRecord(nil), c.skipped...)
	}
	return snap
}

func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	snap := c.snapshotLocked()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Start lists the segment directory, orders it once and loads the first
// segment. It can be called again to restart a session from any state
// but Loading.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Loading
	c.lastErr = nil
	c.skipped = nil
	c.mu.Unlock()
	c.notify()

	entries, err := c.store.List(ctx)
	if err != nil {
		c.log.Error("Failed to list segments: %v", err)
		c.finish(func() {
			c.state = Failed
			c.order = nil
			c.cursor = 0
			c.current = nil
			c.lastErr = err
		})
		return err
	}

	order := arrange(entries, c.opts.Order, c.rng)
	c.log.Info("Starting session %s with %d segments (%s order)", c.id, len(order), c.opts.Order)

	rec, order, skipped, found, err := c.loadAt(ctx, order, 0)
	switch {
	case err != nil:
		c.log.Error("Failed to load first segment: %v", err)
		c.finish(func() {
			c.state = Failed
			c.order = order
			c.cursor = 0
			c.current = nil
			c.skipped = skipped
			c.lastErr = err
		})
		return err

	case !found:
		c.finish(func() {
			c.state = Exhausted
			c.order = nil
			c.cursor = 0
			c.current = nil
			c.skipped = skipped
			c.lastErr = ErrEmptyQueue
		})
		return ErrEmptyQueue
	}

	c.finish(func() {
		c.state = Ready
		c.order = order
		c.cursor = 0
		c.skipped = skipped
		c.setCurrentLocked(rec)
	})
	return nil
}

// Advance moves to the next segment, or to Exhausted after the last one
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkReadyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	next := c.cursor + 1
	if next >= len(c.order) {
		c.state = Exhausted
		c.cursor = len(c.order)
		c.current = nil
		c.lastErr = nil
		c.supersedeLookupLocked()
		c.mu.Unlock()
		c.log.Info("Session %s exhausted", c.id)
		c.notify()
		return nil
	}

	order := c.order
	c.state = Loading
	c.mu.Unlock()
	c.notify()

	rec, order, skipped, found, err := c.loadAt(ctx, order, next)
	if err != nil {
		c.log.Error("Failed to load next segment: %v", err)
		// The previous segment stays current
		c.finish(func() {
			c.state = Ready
			c.order = order
			c.skipped = append(c.skipped, skipped...)
			c.lastErr = err
		})
		return err
	}

	c.finish(func() {
		c.order = order
		c.skipped = append(c.skipped, skipped...)
		c.lastErr = nil
		if !found {
			c.state = Exhausted
			c.cursor = len(order)
			c.current = nil
			c.supersedeLookupLocked()
			return
		}
		c.state = Ready
		c.cursor = next
		c.setCurrentLocked(rec)
	})
	return nil
}

// DeleteCurrent removes the current segment from storage and from the
// queue. The next segment slides into the current position; the cursor
// does not move. A failed deletion keeps the segment current.
func (c *Controller) DeleteCurrent(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkReadyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	cursor := c.cursor
	order := c.order
	id := order[cursor]
	c.state = Loading
	c.mu.Unlock()
	c.notify()

	if err := c.store.Delete(ctx, id); err != nil {
		c.log.Error("Failed to delete segment %s: %v", id, err)
		c.finish(func() {
			c.state = Ready
			c.lastErr = err
		})
		return err
	}
	c.log.Info("Deleted segment %s", id)

	order = removeAt(order, cursor)
	rec, order, skipped, found, err := c.loadAt(ctx, order, cursor)
	if err != nil {
		// The deleted segment is gone and its successor cannot be read
		c.log.Error("Failed to load segment after deletion: %v", err)
		c.finish(func() {
			c.state = Failed
			c.order = order
			c.current = nil
			c.skipped = append(c.skipped, skipped...)
			c.lastErr = err
			c.supersedeLookupLocked()
		})
		return err
	}

	c.finish(func() {
		c.order = order
		c.skipped = append(c.skipped, skipped...)
		c.lastErr = nil
		if !found {
			c.state = Exhausted
			c.current = nil
			c.supersedeLookupLocked()
			return
		}
		c.state = Ready
		c.setCurrentLocked(rec)
	})
	return nil
}

// Wait blocks until all in-flight lookups have finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close abandons in-flight lookups and waits for them to return
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancelLookup()
	c.wg.Wait()
	return nil
}

// loadAt loads order[cursor]. Corrupt records are dropped from the
// returned order and reported in skipped, and the segment that slides
// into their place is tried next. found is false when the queue ran out.
func (c *Controller) loadAt(ctx context.Context, order []string, cursor int) (rec segment.Record, rest []string, skipped []SkippedRecord, found bool, err error) {
	for cursor < len(order) {
		id := order[cursor]
		rec, err = c.store.Load(ctx, id)
		if err == nil {
			return rec, order, skipped, true, nil
		}
		if !errors.Is(err, segment.ErrCorruptRecord) {
			return segment.Record{}, order, skipped, false, err
		}

		c.log.Warn("Skipping corrupt segment %s: %v", id, err)
		skipped = append(skipped, SkippedRecord{ID: id, Err: err})
		order = removeAt(order, cursor)
	}
	return segment.Record{}, order, skipped, false, nil
}

func (c *Controller) checkReadyLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.state == Loading:
		return ErrBusy
	case c.state != Ready:
		return ErrNotReady
	}
	return nil
}

// finish applies a state transition under the lock and notifies
func (c *Controller) finish(apply func()) {
	c.mu.Lock()
	apply()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) setCurrentLocked(rec segment.Record) {
	if c.current != nil && c.current.ID == rec.ID {
		c.current = &rec
		return
	}
	c.current = &rec
	c.supersedeLookupLocked()
	c.log.Debug("Current segment %s (%s)", rec.ID, rec.Language)
}

// supersedeLookupLocked clears the lookup of the previous segment and
// makes any in-flight result stale
func (c *Controller) supersedeLookupLocked() {
	c.token++
	c.lookup = WordLookup{Token: c.token}
}
