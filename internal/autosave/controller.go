// Package autosave debounces mutations of the live project document and
// writes them back to the document store.
//
// The controller owns the single up-to-date handle to the document. Every
// read, including the forced flush on shutdown, goes through that handle,
// so the flush always persists the latest snapshot.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
	"github.com/Merlito456/ospsurveyengine/internal/models"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/documents"
)

// DefaultDelay is the quiescence window before a write is issued.
const DefaultDelay = 400 * time.Millisecond

// Controller is a saved/unsaved/saving state machine with a debounce timer.
//
// Documents passed to Load and Update must not be modified afterwards;
// callers clone, edit, and hand in the copy.
type Controller struct {
	repo   documents.Repository
	key    string
	delay  time.Duration
	clock  clock.Clock
	logger logging.Logger

	mu         sync.Mutex
	current    *models.Project
	state      State
	generation uint64
	timer      *clock.Timer
	closed     bool
	onChange   func(State)

	// saveMu serializes writes so a timer save and a forced flush never
	// overlap.
	saveMu sync.Mutex
}

func New(repo documents.Repository, key string, delay time.Duration, clk clock.Clock, logger logging.Logger) *Controller {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Controller{
		repo:   repo,
		key:    key,
		delay:  delay,
		clock:  clk,
		logger: logger.With("component", "autosave", "key", key),
		state:  StateSaved,
	}
}

// OnStateChange registers f to be called after every state transition.
// f runs without the controller lock held.
func (c *Controller) OnStateChange(f func(State)) {
	c.mu.Lock()
	c.onChange = f
	c.mu.Unlock()
}

// Load installs doc as the current document without scheduling a save.
func (c *Controller) Load(doc *models.Project) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.current = doc
	c.generation++
	c.mu.Unlock()
	c.setState(StateSaved)
}

// Update replaces the current document and restarts the debounce window.
func (c *Controller) Update(doc *models.Project) {
	c.mu.Lock()
	c.current = doc
	c.generation++
	if !c.closed {
		c.stopTimerLocked()
		c.timer = c.clock.AfterFunc(c.delay, c.fire)
	}
	c.mu.Unlock()
	c.setState(StateUnsaved)
}

// Current returns the latest document. The result must be treated as
// read-only.
func (c *Controller) Current() *models.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Flush cancels any pending debounce timer and synchronously writes the
// current document if it is not saved.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
	return c.save(ctx)
}

// Close flushes and stops scheduling further timer writes. Updates after
// Close are kept in memory and persisted by the next Flush.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.Flush(ctx)
}

func (c *Controller) fire() {
	ctx := context.Background()
	if err := c.save(ctx); err != nil {
		c.logger.Error(ctx, "autosave failed", "error", err)
	}
}

func (c *Controller) save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.state == StateSaved || c.current == nil {
		c.mu.Unlock()
		return nil
	}
	snapshot := c.current
	gen := c.generation
	c.state = StateSaving
	c.mu.Unlock()
	c.notify(StateSaving)

	err := c.repo.Put(ctx, c.key, snapshot)

	c.mu.Lock()
	switch {
	case err != nil:
		c.state = StateUnsaved
	case c.generation == gen:
		c.state = StateSaved
	default:
		// mutated while the write was in flight; a timer is already pending
		c.state = StateUnsaved
	}
	next := c.state
	c.mu.Unlock()
	c.notify(next)

	if err != nil {
		return err
	}
	c.logger.Debug(ctx, "document saved", "records", len(snapshot.Records))
	return nil
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) notify(s State) {
	c.mu.Lock()
	f := c.onChange
	c.mu.Unlock()
	if f != nil {
		f(s)
	}
}
