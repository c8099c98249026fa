// Package device holds the per-printer controller: it tracks whether the
// printer is reachable and runs print jobs against it.
package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"thermal_printer/internal/logger"
	"thermal_printer/internal/models"
	"thermal_printer/internal/render"
	"thermal_printer/internal/transport"
)

// DefaultTimeout bounds every transport call made by a Controller.
const DefaultTimeout = 5 * time.Second

// Observer is told about every status refresh. prev and cur may have the
// same State when nothing changed. Calls for one controller never overlap and
// arrive in the order the refreshes were applied, so an Observer must not call
// back into UpdateStatus.
type Observer func(prev, cur models.PrinterStatus)

// Options tune a Controller. Zero values select defaults.
type Options struct {
	Timeout  time.Duration
	Now      func() time.Time
	Observer Observer
}

// Controller owns the connection state of one printer.
//
// The printer starts Offline and only UpdateStatus changes that, either when
// called by a poller or after a failed print.
type Controller struct {
	entry     models.PrinterEntry
	transport transport.Transport
	log       *logger.Logger
	timeout   time.Duration
	now       func() time.Time
	observer  Observer

	// printMu serializes jobs on this printer.
	printMu sync.Mutex
	// notifyMu keeps observer calls in the order status changes were applied.
	notifyMu sync.Mutex

	mu          sync.RWMutex
	online      bool
	lastUpdated *time.Time
}

// NewController returns an Offline controller for entry.
func NewController(entry models.PrinterEntry, t transport.Transport, log *logger.Logger, opts Options) *Controller {
	c := &Controller{
		entry:     entry,
		transport: t,
		log:       logger.OrNop(log).With("entry_id", entry.ID, "printer", entry.Addr()),
		timeout:   opts.Timeout,
		now:       opts.Now,
		observer:  opts.Observer,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Entry returns the configured endpoint.
func (c *Controller) Entry() models.PrinterEntry { return c.entry }

// IsOnline reports the last known status.
func (c *Controller) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// LastUpdated returns when the status was last refreshed, or nil if never.
func (c *Controller) LastUpdated() *time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastUpdated == nil {
		return nil
	}
	t := *c.lastUpdated
	return &t
}

// Snapshot returns a consistent copy of the status.
func (c *Controller) Snapshot() models.PrinterStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() models.PrinterStatus {
	st := models.PrinterStatus{
		EntryID:   c.entry.ID,
		UniqueID:  models.UniqueID(c.entry.IPAddress),
		Name:      c.entry.Title,
		State:     models.StateOffline,
		IPAddress: c.entry.IPAddress,
		Port:      c.entry.Port,
	}
	if c.online {
		st.State = models.StateOnline
	}
	if c.lastUpdated != nil {
		t := *c.lastUpdated
		st.LastUpdated = &t
	}
	return st
}

// UpdateStatus asks the printer whether it is online. It never fails: any
// transport error counts as offline. lastUpdated is set on every call.
func (c *Controller) UpdateStatus(ctx context.Context) bool {
	online, err := c.queryStatus(ctx)
	if err != nil {
		c.logTransportError("status", err)
		online = false
	}
	now := c.now().UTC()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	prev := c.snapshotLocked()
	c.online = online
	c.lastUpdated = &now
	cur := c.snapshotLocked()
	c.mu.Unlock()

	if prev.State != cur.State {
		c.log.Infow("status_changed", "from", prev.State, "to", cur.State)
	}
	if c.observer != nil {
		c.observer(prev, cur)
	}
	return online
}

// PrintContent renders content and sends it to the printer. It returns false
// right away, without touching the transport, when the printer is known to be
// offline. A job that fails part way triggers a status refresh and is not
// retried.
func (c *Controller) PrintContent(ctx context.Context, content string) bool {
	c.printMu.Lock()
	defer c.printMu.Unlock()

	// No liveness re-check here: a stale Offline is accepted until the next poll.
	if !c.IsOnline() {
		c.log.Warnw("printer_offline", "action", "print_skipped")
		return false
	}

	directives := render.Render(content)
	if err := c.execute(ctx, directives); err != nil {
		c.logTransportError("print", err)
		c.UpdateStatus(context.WithoutCancel(ctx))
		return false
	}
	c.log.Infow("print_completed", "directives", len(directives))
	return true
}

func (c *Controller) execute(ctx context.Context, directives []render.Directive) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	defer recoverTransport("print", &err)

	return c.transport.Session(ctx, func(cmd render.Commander) error {
		return render.Execute(cmd, directives)
	})
}

func (c *Controller) queryStatus(ctx context.Context) (online bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	defer recoverTransport("status", &err)

	return c.transport.IsOnline(ctx)
}

// recoverTransport turns a panic inside a transport call into a KindOther error.
func recoverTransport(op string, err *error) {
	if r := recover(); r != nil {
		*err = &transport.Error{Kind: transport.KindOther, Op: op, Err: fmt.Errorf("panic: %v", r)}
	}
}

func (c *Controller) logTransportError(op string, err error) {
	switch kind := transport.KindOf(err); kind {
	case transport.KindUnreachable:
		c.log.Warnw("printer_unreachable", "op", op, "err", err)
	case transport.KindProtocol:
		c.log.Warnw("printer_protocol_error", "op", op, "err", err)
	case transport.KindOther:
		c.log.Errorw("printer_failed", "op", op, "err", err)
	default:
		c.log.Errorw("printer_failed", "op", op, "kind", kind.String(), "err", err)
	}
}
