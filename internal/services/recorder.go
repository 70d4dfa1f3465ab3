package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/models"
)

// RecordAppender persists one record.
type RecordAppender interface {
	Append(ctx context.Context, record models.Record) error
}

// Recorder writes analysis results in the background so requests never wait
// on the database.
type Recorder interface {
	Start(ctx context.Context)
	Stop()
	// Record queues rec. It reports false when the recorder is stopped.
	Record(rec models.Record) bool
}

type recorder struct {
	repo        RecordAppender
	queue       chan models.Record
	concurrency int
	retry       RetryConfig
	wg          sync.WaitGroup
	logger      *zap.Logger

	// mu guards closed and the close of queue against in-flight sends.
	mu       sync.RWMutex
	closed   bool
	stopping chan struct{}
	stopOnce sync.Once
}

type RecorderOption func(*recorder)

func WithRecorderRetry(rc RetryConfig) RecorderOption {
	return func(r *recorder) { r.retry = rc }
}

func NewRecorder(repo RecordAppender, concurrency, queueSize int, l *zap.Logger, opts ...RecorderOption) Recorder {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	r := &recorder{
		repo:        repo,
		queue:       make(chan models.Record, queueSize),
		concurrency: concurrency,
		retry:       DefaultRetryConfig,
		logger:      logger.OrNop(l),
		stopping:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start implements Recorder.
func (r *recorder) Start(ctx context.Context) {
	for i := 0; i < r.concurrency; i++ {
		r.wg.Add(1)
		go r.process(ctx, i+1)
	}
	r.logger.Info("recorder started", zap.Int("concurrency", r.concurrency))
}

// Stop implements Recorder. Every record accepted by Record is written before
// it returns.
func (r *recorder) Stop() {
	r.stopOnce.Do(func() {
		// release senders blocked on a full queue before taking the write lock
		close(r.stopping)

		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})
	r.wg.Wait()
	r.logger.Info("recorder stopped")
}

// Record implements Recorder.
func (r *recorder) Record(rec models.Record) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("recorder stopped, dropping record", zap.String("table", rec.TableName()))
		return false
	}

	select {
	case r.queue <- rec:
		return true
	case <-r.stopping:
		r.logger.Warn("recorder stopped, dropping record", zap.String("table", rec.TableName()))
		return false
	}
}

func (r *recorder) process(ctx context.Context, workerID int) {
	defer r.wg.Done()
	log := r.logger.With(zap.Int("worker", workerID))

	// queued records are written even once ctx is cancelled
	ctx = context.WithoutCancel(ctx)
	for rec := range r.queue {
		r.append(ctx, log, rec)
	}
}

func (r *recorder) append(ctx context.Context, log *zap.Logger, rec models.Record) {
	start := time.Now()
	onRetry := func(attempt int, err error) {
		log.Warn("append failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}

	_, err := retryDo(ctx, r.retry, onRetry, func() (struct{}, error) {
		return struct{}{}, r.repo.Append(ctx, rec)
	})
	if err != nil {
		log.Error("failed to record", zap.String("table", rec.TableName()), zap.Error(err))
		return
	}

	log.Debug("recorded", zap.String("table", rec.TableName()), zap.Duration("took", time.Since(start)))
}
