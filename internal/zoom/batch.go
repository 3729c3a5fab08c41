// internal/zoom/batch.go
package zoom

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/osdlabs/chromepuppet/internal/browser"
	"github.com/osdlabs/chromepuppet/internal/config"
	apperrors "github.com/osdlabs/chromepuppet/internal/errors"
	"github.com/osdlabs/chromepuppet/internal/monitoring"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

// Batch fans one DNC run out over a pool of browser sessions. Each
// worker leases a session from the pool, signs into the console, and
// drains numbers from a shared stream behind one rate limiter.
type Batch struct {
	pool     browser.Pool
	cfg      *config.ZoomConfig
	recorder Recorder
	metrics  *monitoring.Metrics
	logger   utils.Logger
	workers  int
	limiter  *utils.RateLimiter

	// connect turns a leased session into a signed-in submitter.
	connect func(ctx context.Context, sess browser.Client) (Submitter, error)
}

// NewBatch builds a batch over the pool. The default connector signs a
// Client into the console with the given credentials.
func NewBatch(pool browser.Pool, cfg *config.ZoomConfig, creds config.Credentials, recorder Recorder, metrics *monitoring.Metrics, logger utils.Logger) *Batch {
	if logger == nil {
		logger = utils.NewLogger()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var limiter *utils.RateLimiter
	if cfg.RateLimit != nil {
		limiter = utils.NewIntervalLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Period)
	}

	b := &Batch{
		pool:     pool,
		cfg:      cfg,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
		workers:  workers,
		limiter:  limiter,
	}
	b.connect = func(ctx context.Context, sess browser.Client) (Submitter, error) {
		client := NewClient(sess, cfg, logger)
		err := client.Login(ctx, creds)
		if metrics != nil {
			metrics.RecordLogin("zoom", err == nil)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrLogin, err)
		}
		return client, nil
	}
	return b
}

// Run processes the batch across the workers. A login failure or an
// intervention page on any session aborts the whole run.
func (b *Batch) Run(ctx context.Context, numbers []string) (*Summary, error) {
	workers := b.workers
	if workers > len(numbers) {
		workers = len(numbers)
	}
	if workers < 1 {
		workers = 1
	}

	recorder := b.recorder
	if recorder != nil && workers > 1 {
		recorder = &lockedRecorder{inner: recorder}
	}

	summary := &Summary{}
	var mu sync.Mutex
	stream := make(chan string)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(stream)
		for _, number := range numbers {
			select {
			case stream <- number:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			sess, err := b.pool.Get(gctx)
			if err != nil {
				return err
			}
			defer b.pool.Put(sess)

			submitter, err := b.connect(gctx, sess)
			if err != nil {
				return err
			}

			runner := NewRunner(submitter, b.cfg, recorder, b.metrics, b.logger)
			runner.limiter = b.limiter
			return runner.drain(gctx, stream, summary, &mu)
		})
	}

	err := group.Wait()
	b.logger.Infof("batch finished: %d processed, %d added, %d duplicates, %d failed",
		summary.Processed, summary.Added, summary.Duplicates, summary.Failed)
	return summary, err
}

// lockedRecorder serializes result writes from concurrent workers.
type lockedRecorder struct {
	mu    sync.Mutex
	inner Recorder
}

func (l *lockedRecorder) RecordResult(r Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.RecordResult(r)
}
