package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status is the phase of the controller's last load.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Messages shown to the user.
const (
	MsgLoadFailed   = "failed to load trades; check that the journal service is running"
	MsgSubmitFailed = "operation failed"
	MsgDeleteFailed = "failed to delete trade"

	MsgCreated = "trade recorded"
	MsgUpdated = "trade updated"
	MsgDeleted = "trade deleted"
)

// SuccessTTL is how long a success message stays visible.
const SuccessTTL = 3 * time.Second

// State is a point-in-time copy of what the journal view renders.
type State struct {
	Status   Status
	Trades   []Trade
	Stats    Statistics
	Editing  *Trade
	FormOpen bool
	// Pending is set while a submit is in flight. It only tells the view to
	// disable the submit control; the controller does not refuse overlapping
	// submissions.
	Pending bool
	Err     string
	Success string
}

// Controller keeps one session's view of the journal. The trade list and
// statistics it holds are a cache of the service: every mutation is
// followed by a full reload instead of a local patch, and a failed call
// leaves the cached values untouched.
type Controller struct {
	svc    Service
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	status    Status
	trades    []Trade
	stats     Statistics
	editing   *Trade
	formOpen  bool
	pending   int
	err       string
	success   string
	successAt time.Time
}

func NewController(svc Service, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		svc:    svc,
		logger: logger,
		now:    time.Now,
		trades: []Trade{},
	}
}

// WithClock replaces the clock used to expire success messages.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Load fetches trades and statistics concurrently and replaces both on
// success. On failure both are kept and an error message is set.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.status = StatusLoading
	c.err = ""
	c.mu.Unlock()

	var (
		trades []Trade
		stats  Statistics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trades, err = c.svc.ListTrades(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = c.svc.Statistics(gctx)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = StatusFailed
		c.err = MsgLoadFailed
		c.logger.Warn("journal load failed", zap.Error(err))
		return err
	}
	if trades == nil {
		trades = []Trade{}
	}
	c.trades = trades
	c.stats = stats
	c.status = StatusReady
	c.logger.Debug("journal loaded", zap.Int("trades", len(trades)))
	return nil
}

// Submit creates a trade, or updates the one being edited, then reloads.
func (c *Controller) Submit(ctx context.Context, in TradeInput) error {
	c.mu.Lock()
	var editing *Trade
	if c.editing != nil {
		e := c.editing.Clone()
		editing = &e
	}
	c.pending++
	c.mu.Unlock()

	err := c.submit(ctx, editing, in)

	c.mu.Lock()
	c.pending--
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return c.Load(ctx)
}

func (c *Controller) submit(ctx context.Context, editing *Trade, in TradeInput) error {
	if err := in.Validate(); err != nil {
		c.fail(UserMessage(err, MsgSubmitFailed), err)
		return err
	}

	var (
		err error
		msg string
	)
	if editing != nil {
		_, err = c.svc.UpdateTrade(ctx, editing.ID, in)
		msg = MsgUpdated
	} else {
		_, err = c.svc.CreateTrade(ctx, in)
		msg = MsgCreated
	}
	if err != nil {
		c.fail(UserMessage(err, MsgSubmitFailed), err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setSuccess(msg)
	if editing != nil && c.editing != nil && c.editing.ID == editing.ID {
		c.editing = nil
	}
	return nil
}

// Delete removes a trade by id, then reloads.
func (c *Controller) Delete(ctx context.Context, tradeID string) error {
	if err := c.svc.DeleteTrade(ctx, tradeID); err != nil {
		c.fail(MsgDeleteFailed, err)
		return err
	}

	c.mu.Lock()
	c.setSuccess(MsgDeleted)
	if c.editing != nil && c.editing.ID == tradeID {
		c.editing = nil
	}
	c.mu.Unlock()

	return c.Load(ctx)
}

// Edit puts t in edit mode and opens the form. Only one trade is edited at
// a time; a second call replaces the first.
func (c *Controller) Edit(t Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t = t.Clone()
	c.editing = &t
	c.formOpen = true
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// ToggleForm opens or closes the form. Closing it also leaves edit mode.
func (c *Controller) ToggleForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.formOpen {
		c.editing = nil
	}
	c.formOpen = !c.formOpen
}

func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = ""
}

// Snapshot returns a deep copy of the current state. A success message older
// than SuccessTTL is dropped.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.success != "" && c.now().Sub(c.successAt) >= SuccessTTL {
		c.success = ""
	}

	st := State{
		Status:   c.status,
		Trades:   make([]Trade, len(c.trades)),
		Stats:    c.stats,
		FormOpen: c.formOpen,
		Pending:  c.pending > 0,
		Err:      c.err,
		Success:  c.success,
	}
	for i, t := range c.trades {
		st.Trades[i] = t.Clone()
	}
	if c.editing != nil {
		e := c.editing.Clone()
		st.Editing = &e
	}
	return st
}

func (c *Controller) fail(msg string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = msg
	c.logger.Warn("journal operation failed", zap.String("message", msg), zap.Error(err))
}

// setSuccess must be called with mu held.
func (c *Controller) setSuccess(msg string) {
	c.success = msg
	c.successAt = c.now()
}

// UserMessage picks the line to show for err: the service's flattened
// detail or local validation errors when present, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return fallback
}
