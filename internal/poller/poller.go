// Package poller observes a submitted task until it reaches a terminal status.
//
// A polling session is strictly sequential: fetch, notify the observer, then
// either finish or wait for the interval and fetch again. Fetches for one task
// never overlap. Status values outside the known set keep the session going so
// that new server-side states do not abort clients.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
	"github.com/IbnuJabir/AuralFlowAI/internal/metrics"
)

const (
	DefaultInterval      = 2 * time.Second
	DefaultMaxConcurrent = 5
)

// StatusFetcher returns the current snapshot of a task.
type StatusFetcher interface {
	Status(ctx context.Context, taskID string) (*domain.TaskStatus, error)
}

// Observer is called with every fetched snapshot, in poll order. attempt
// starts at 1.
type Observer func(attempt int, status *domain.TaskStatus)

// TaskObserver is the WatchAll counterpart of Observer. It may be called from
// several goroutines at once.
type TaskObserver func(taskID string, attempt int, status *domain.TaskStatus)

// Poller runs polling sessions against a StatusFetcher.
type Poller struct {
	fetcher       StatusFetcher
	clock         Clock
	interval      time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithInterval sets the default wait between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxConcurrent bounds the number of sessions WatchAll runs at once.
func WithMaxConcurrent(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxConcurrent = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New creates a Poller.
func New(fetcher StatusFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:       fetcher,
		clock:         RealClock(),
		interval:      DefaultInterval,
		maxConcurrent: DefaultMaxConcurrent,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll fetches the status of taskID until it is terminal. A positive interval
// overrides the default wait between polls.
//
// On success the final snapshot is returned. A failure status yields a
// *errors.TaskFailedError. A fetch error ends the session immediately and is
// returned unchanged; it is not retried. Cancelling ctx stops a pending wait or
// in-flight fetch and returns the context error.
func (p *Poller) Poll(ctx context.Context, taskID string, observer Observer, interval time.Duration) (*domain.TaskStatus, error) {
	if interval <= 0 {
		interval = p.interval
	}

	start := p.clock.Now()
	defer func() {
		metrics.PollSessionDuration.Observe(p.clock.Now().Sub(start).Seconds())
	}()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, err := p.fetcher.Status(ctx, taskID)
		metrics.PollsTotal.Inc()
		if err != nil {
			metrics.PollErrors.Inc()
			p.logger.Error("status poll failed",
				"task_id", taskID,
				"attempt", attempt,
				"error", err,
			)
			return nil, err
		}
		if status == nil {
			metrics.PollErrors.Inc()
			return nil, fmt.Errorf("empty status for %s", taskID)
		}

		p.logger.Debug("status polled",
			"task_id", taskID,
			"attempt", attempt,
			"status", status.Status,
			"progress", status.ProgressValue(),
		)

		if observer != nil {
			observer(attempt, status)
		}

		switch status.Status {
		case domain.StatusSuccess:
			metrics.TasksSucceeded.Inc()
			p.logger.Info("task succeeded", "task_id", taskID, "attempts", attempt)
			return status, nil
		case domain.StatusFailure:
			metrics.TasksFailed.Inc()
			failErr := errpkg.NewTaskFailedError(status)
			p.logger.Warn("task failed", "task_id", taskID, "attempts", attempt, "error", failErr.Message)
			return nil, failErr
		case domain.StatusPending, domain.StatusProcessing:
		default:
			metrics.UnknownStatuses.Inc()
			p.logger.Warn("unrecognized task status, polling continues",
				"task_id", taskID,
				"status", status.Status,
			)
		}

		if err := p.wait(ctx, interval); err != nil {
			p.logger.Info("polling stopped", "task_id", taskID, "attempts", attempt, "reason", err)
			return nil, err
		}
	}
}

func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// Result is the outcome of one WatchAll session.
type Result struct {
	TaskID string
	Status *domain.TaskStatus
	Err    error
}

// WatchAll polls every id in its own session, at most maxConcurrent at a time.
// Sessions are independent: one failing does not stop the others. Results are
// in input order; the returned error joins the per-session errors.
func (p *Poller) WatchAll(ctx context.Context, taskIDs []string, observer TaskObserver, interval time.Duration) ([]Result, error) {
	results := make([]Result, len(taskIDs))

	var g errgroup.Group
	g.SetLimit(p.maxConcurrent)

	for i, id := range taskIDs {
		g.Go(func() error {
			var obs Observer
			if observer != nil {
				obs = func(attempt int, status *domain.TaskStatus) {
					observer(id, attempt, status)
				}
			}
			status, err := p.Poll(ctx, id, obs, interval)
			results[i] = Result{TaskID: id, Status: status, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}
