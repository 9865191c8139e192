package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/pkg/jobs"
)

const warmTotalsJob = "warm_totals"

// ReportWarmer recomputes the totals report of edited courses on a worker
// pool so the next read is a cache hit. Requests for a course that is already
// waiting are coalesced.
type ReportWarmer struct {
	totals totalsSource
	queue  *jobs.Queue
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewReportWarmer builds a warmer over totals. Call Start before use.
func NewReportWarmer(totals totalsSource, cfg jobs.QueueConfig) *ReportWarmer {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	w := &ReportWarmer{
		totals:  totals,
		logger:  cfg.Logger,
		pending: make(map[string]struct{}),
	}
	w.queue = jobs.NewQueue("report-warmer", w.handle, cfg)
	return w
}

// Start launches the workers.
func (w *ReportWarmer) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop waits for running jobs to finish. Queued jobs are dropped.
func (w *ReportWarmer) Stop() {
	w.queue.Stop()
}

// QueueDepth reports how many warm jobs are waiting for a worker.
func (w *ReportWarmer) QueueDepth() int {
	return w.queue.Len()
}

// Warm schedules a recompute for courseKey without blocking the caller.
func (w *ReportWarmer) Warm(courseKey string) {
	w.mu.Lock()
	if _, queued := w.pending[courseKey]; queued {
		w.mu.Unlock()
		return
	}
	w.pending[courseKey] = struct{}{}
	w.mu.Unlock()

	job := jobs.Job{ID: uuid.NewString(), Type: warmTotalsJob, Payload: courseKey}
	if !w.queue.TryEnqueue(job) {
		w.release(courseKey)
		w.logger.Debug("report warm skipped", zap.String("course_key", courseKey))
	}
}

func (w *ReportWarmer) handle(ctx context.Context, job jobs.Job) error {
	courseKey, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	w.release(courseKey)
	if _, _, err := w.totals.Totals(ctx, courseKey); err != nil {
		return fmt.Errorf("warm totals %s: %w", courseKey, err)
	}
	return nil
}

func (w *ReportWarmer) release(courseKey string) {
	w.mu.Lock()
	delete(w.pending, courseKey)
	w.mu.Unlock()
}
