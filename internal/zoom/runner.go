// internal/zoom/runner.go
package zoom

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/osdlabs/chromepuppet/internal/config"
	apperrors "github.com/osdlabs/chromepuppet/internal/errors"
	"github.com/osdlabs/chromepuppet/internal/monitoring"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

// Result is the outcome of one number's DNC submission.
type Result struct {
	Number    string    `json:"number"`
	Target    string    `json:"target"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder persists per-number outcomes.
type Recorder interface {
	RecordResult(Result) error
}

// Submitter is the slice of Client the batch runner drives.
type Submitter interface {
	AddToContactCenterDNC(ctx context.Context, number string) (Status, string, error)
	AddToWorkplaceDNC(ctx context.Context, number string) (Status, string, error)
}

// Summary totals one batch run.
type Summary struct {
	Processed  int
	Added      int
	Duplicates int
	Failed     int
}

// Runner feeds numbers through a DNC flow behind a rate limiter.
// Submission failures retry with backoff through the recovery service,
// whose circuit breaker stops a run from hammering a broken console.
type Runner struct {
	submitter Submitter
	target    string
	limiter   *utils.RateLimiter
	recorder  Recorder
	metrics   *monitoring.Metrics
	recovery  *apperrors.Service
	logger    utils.Logger
}

// NewRunner builds a batch runner for the configured target. MaxRetries
// counts total attempts per number.
func NewRunner(submitter Submitter, cfg *config.ZoomConfig, recorder Recorder, metrics *monitoring.Metrics, logger utils.Logger) *Runner {
	if logger == nil {
		logger = utils.NewLogger()
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 3
	}

	var limiter *utils.RateLimiter
	if cfg.RateLimit != nil {
		limiter = utils.NewIntervalLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Period)
	}

	recovery := apperrors.NewService().WithRetryConfig(apperrors.RetryConfig{
		MaxRetries:    retries - 1,
		BaseDelay:     2 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
	})

	return &Runner{
		submitter: submitter,
		target:    cfg.Target,
		limiter:   limiter,
		recorder:  recorder,
		metrics:   metrics,
		recovery:  recovery,
		logger:    logger,
	}
}

// Run processes the batch. Individual failures are recorded and do not
// stop the run; only context cancellation or an intervention page
// aborts it.
func (r *Runner) Run(ctx context.Context, numbers []string) (*Summary, error) {
	summary := &Summary{}
	var mu sync.Mutex

	stream := make(chan string, len(numbers))
	for _, number := range numbers {
		stream <- number
	}
	close(stream)

	if err := r.drain(ctx, stream, summary, &mu); err != nil {
		return summary, err
	}

	r.logger.Infof("batch finished: %d processed, %d added, %d duplicates, %d failed",
		summary.Processed, summary.Added, summary.Duplicates, summary.Failed)
	return summary, nil
}

// drain consumes numbers until the stream closes, tallying outcomes
// into the shared summary. Pool workers run several drains against the
// same stream and summary.
func (r *Runner) drain(ctx context.Context, stream <-chan string, summary *Summary, mu *sync.Mutex) error {
	for number := range stream {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		result, abort := r.processNumber(ctx, number)

		mu.Lock()
		summary.Processed++
		switch {
		case result.Error != "":
			summary.Failed++
		case result.Status == StatusDuplicate:
			summary.Duplicates++
		case result.Status == StatusAdded:
			summary.Added++
		}
		mu.Unlock()

		if r.metrics != nil {
			r.metrics.RecordDNCNumber(r.target, result.Error == "")
		}
		if r.recorder != nil {
			if err := r.recorder.RecordResult(result); err != nil {
				r.logger.Warnf("failed to record result for %s: %v", number, err)
			}
		}

		// An intervention page blocks the whole session; the rest of
		// the batch cannot proceed unattended.
		if abort != nil {
			return abort
		}
	}
	return nil
}

// processNumber submits one number through the recovery service. A
// non-nil second return means the session needs a human and the batch
// must stop.
func (r *Runner) processNumber(ctx context.Context, number string) (Result, error) {
	result := Result{
		Number:    number,
		Target:    r.target,
		Timestamp: time.Now(),
	}

	err := r.recovery.ExecuteWithRetry(ctx, "dnc_"+r.target, func() error {
		result.Attempts++

		status, message, err := r.submit(ctx, number)
		if err == nil {
			result.Status = status
			result.Message = message
			return nil
		}
		if err == ErrUserIntervention || ctx.Err() != nil {
			return err
		}
		r.logger.Warnf("number %s attempt %d failed: %v", number, result.Attempts, err)
		return fmt.Errorf("%w: %v", apperrors.ErrDNC, err)
	})
	if err == nil {
		r.logger.Infof("number %s: %s (%s)", number, result.Status, result.Message)
		return result, nil
	}

	result.Status = StatusUnknown
	result.Error = err.Error()
	if stderrors.Is(err, ErrUserIntervention) {
		return result, ErrUserIntervention
	}
	return result, nil
}

func (r *Runner) submit(ctx context.Context, number string) (Status, string, error) {
	switch r.target {
	case config.ZoomTargetWorkplace:
		return r.submitter.AddToWorkplaceDNC(ctx, number)
	case config.ZoomTargetContactCenter:
		return r.submitter.AddToContactCenterDNC(ctx, number)
	default:
		return StatusUnknown, "", fmt.Errorf("unknown DNC target %q", r.target)
	}
}
