package loginclient

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is the delay between two job status requests.
	DefaultPollInterval = 3000 * time.Millisecond
	// DefaultReloadDelay is the delay between a completed job and the reload.
	DefaultReloadDelay = 800 * time.Millisecond
)

// Status messages shown through UI.SetMessage.
const (
	MsgStarting       = "Starting login..."
	MsgStartFailed    = "Login could not be started."
	MsgInProgress     = "Login in progress."
	MsgWaitingForUser = "Waiting for you to finish the login in the browser window."
	MsgCompleted      = "Login completed."
	MsgFailed         = "Login failed."
	MsgEnded          = "Login ended."
)

// UI is the surface the controller drives. Methods are called from the poll goroutine while the
// controller holds its lock, so implementations must not call back into the Controller.
type UI interface {
	SetMessage(msg string)
	SetControlEnabled(enabled bool)
	Reload()
}

// API is the subset of Client used by the controller.
type API interface {
	StartLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	JobStatus(ctx context.Context, accountID string) (*JobView, error)
}

// Controller owns one login flow at a time: the submit, the poll loop and the delayed reload.
type Controller struct {
	api         API
	ui          UI
	log         *zap.Logger
	interval    time.Duration
	reloadDelay time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	reload *time.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithReloadDelay overrides DefaultReloadDelay.
func WithReloadDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.reloadDelay = d
		}
	}
}

// WithLogger sets the logger used for skipped ticks. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// NewController returns a Controller that talks to api and reports to ui.
func NewController(api API, ui UI, opts ...Option) *Controller {
	c := &Controller{
		api:         api,
		ui:          ui,
		log:         zap.NewNop(),
		interval:    DefaultPollInterval,
		reloadDelay: DefaultReloadDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit starts a login flow. The control is disabled while the request is in flight. On failure the
// control is re-enabled, a failure message is shown and no poll starts. On success polling starts for the
// returned account id, which is also returned. Any poll or pending reload of a previous flow is
// cancelled before the request is sent.
func (c *Controller) Submit(ctx context.Context, req LoginRequest) (string, error) {
	c.mu.Lock()
	c.stopLocked()
	c.gen++
	c.mu.Unlock()

	c.ui.SetControlEnabled(false)
	c.ui.SetMessage(MsgStarting)

	resp, err := c.api.StartLogin(ctx, req)
	if err != nil {
		c.log.Warn("login start failed", zap.Error(err))
		c.ui.SetMessage(MsgStartFailed)
		c.ui.SetControlEnabled(true)
		return "", err
	}

	accountID := string(resp.AccountID)
	c.ui.SetMessage(MsgInProgress)
	c.StartPolling(accountID)
	return accountID, nil
}

// StartPolling polls the job of accountID until a terminal status. Any poll or pending reload of a
// previous flow is cancelled first.
func (c *Controller) StartPolling(accountID string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.stopLocked()
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.poll(ctx, gen, accountID, done)
}

// Stop cancels the active poll and any pending reload, and waits for the poll goroutine to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	done := c.done
	c.stopLocked()
	c.gen++
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Polling reports whether a poll loop is active.
func (c *Controller) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.done = nil
	if c.reload != nil {
		c.reload.Stop()
		c.reload = nil
	}
}

func (c *Controller) poll(ctx context.Context, gen uint64, accountID string, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if c.tick(ctx, gen, accountID) {
			return
		}
	}
}

// tick runs one status request and applies it. It returns true when the loop must end.
func (c *Controller) tick(ctx context.Context, gen uint64, accountID string) bool {
	job, err := c.api.JobStatus(ctx, accountID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		c.log.Debug("job status tick skipped", zap.String("account_id", accountID), zap.Error(err))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || ctx.Err() != nil {
		return true
	}

	status := ParseStatus(job.Status)
	switch status.Kind {
	case KindWaitingForUser:
		c.ui.SetMessage(MsgWaitingForUser)
		return false
	case KindRunning:
		c.ui.SetMessage(MsgInProgress)
		return false
	case KindCompleted:
		c.ui.SetMessage(MsgCompleted)
		c.cancel()
		c.cancel = nil
		c.reload = time.AfterFunc(c.reloadDelay, c.ui.Reload)
		return true
	case KindFailed:
		msg := MsgFailed
		if job.Error != "" {
			msg += " " + job.Error
		}
		c.ui.SetMessage(msg)
	default:
		c.log.Info("login job ended with unknown status", zap.String("account_id", accountID), zap.String("status", status.Raw))
		c.ui.SetMessage(MsgEnded)
	}
	c.cancel()
	c.cancel = nil
	c.ui.SetControlEnabled(true)
	return true
}
