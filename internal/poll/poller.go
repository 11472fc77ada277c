package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/swang373/zillowbot/internal/events"
	"github.com/swang373/zillowbot/internal/logging"
	"github.com/swang373/zillowbot/internal/mailbox"
)

// Status is a snapshot of the loop for the local status surface.
type Status struct {
	LastRunAt   string `json:"last_run_at"`
	LastOkAt    string `json:"last_ok_at"`
	LastError   string `json:"last_error"`
	LastPosted  int    `json:"last_posted"`
	TotalPosted int    `json:"total_posted"`
	Running     bool   `json:"running"`
}

type Poller struct {
	Dial             DialFunc
	Extract          ExtractFunc
	Notifier         Notifier
	Interval         time.Duration
	IterationTimeout time.Duration
	Log              *logging.Logger
	Hub              *events.Hub // optional

	status atomic.Value // Status
	total  int
}

// Run polls immediately and then once per interval until the context
// is cancelled. Cancellation is observed both at the top of an
// iteration and during the wait. Authentication failures stop the loop
// outright; anything else ends the iteration and the next tick retries
// against a fresh session.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	p.Log.Printf("[poll] polling every %s", interval)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.runOnce(ctx); err != nil {
			var authErr *mailbox.AuthError
			if errors.As(err, &authErr) {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// runOnce wraps PollOnce with status bookkeeping.
func (p *Poller) runOnce(ctx context.Context) error {
	st := p.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	p.status.Store(st)

	posted, err := p.PollOnce(ctx)

	p.total += posted
	st = p.Status()
	st.Running = false
	st.LastPosted = posted
	st.TotalPosted = p.total
	if err != nil {
		st.LastError = err.Error()
		p.Log.Printf("[poll] error: %v", err)
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
		p.Log.Debugf("[poll] ok posted=%d", posted)
	}
	p.status.Store(st)
	return err
}

func (p *Poller) Status() Status {
	if v := p.status.Load(); v != nil {
		return v.(Status)
	}
	return Status{}
}
