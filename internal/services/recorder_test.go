package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/skill-matcher/internal/models"
)

type fakeAppender struct {
	mu       sync.Mutex
	records  []models.Record
	calls    int
	failures int
}

func (f *fakeAppender) Append(ctx context.Context, rec models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAppender) snapshot() ([]models.Record, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Record(nil), f.records...), f.calls
}

func TestRecorderWritesQueuedRecordsBeforeStop(t *testing.T) {
	repo := &fakeAppender{}
	r := NewRecorder(repo, 2, 10, nil, WithRecorderRetry(fastRetry))
	r.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.True(t, r.Record(&models.Resume{ID: uuid.New()}))
	}
	r.Stop()

	records, _ := repo.snapshot()
	assert.Len(t, records, 5)
}

func TestRecorderRetriesFailedAppend(t *testing.T) {
	repo := &fakeAppender{failures: 1}
	core, observed := observer.New(zapcore.WarnLevel)
	r := NewRecorder(repo, 1, 1, zap.New(core), WithRecorderRetry(fastRetry))
	r.Start(context.Background())

	require.True(t, r.Record(&models.JobDescription{ID: uuid.New()}))
	r.Stop()

	records, calls := repo.snapshot()
	assert.Len(t, records, 1)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, observed.FilterMessage("append failed, retrying").Len())
}

func TestRecorderGivesUpAfterRetries(t *testing.T) {
	repo := &fakeAppender{failures: 10}
	core, observed := observer.New(zapcore.ErrorLevel)
	r := NewRecorder(repo, 1, 1, zap.New(core), WithRecorderRetry(fastRetry))
	r.Start(context.Background())

	r.Record(&models.User{ID: uuid.New()})
	r.Stop()

	records, calls := repo.snapshot()
	assert.Empty(t, records)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, observed.FilterMessage("failed to record").Len())
}

func TestRecorderRejectsAfterStop(t *testing.T) {
	r := NewRecorder(&fakeAppender{}, 1, 1, nil)
	r.Start(context.Background())
	r.Stop()
	r.Stop()

	assert.False(t, r.Record(&models.User{ID: uuid.New()}))
}

func TestRecorderWritesEveryAcceptedRecordWhenStopRaces(t *testing.T) {
	for round := 0; round < 20; round++ {
		repo := &fakeAppender{}
		r := NewRecorder(repo, 2, 4, nil, WithRecorderRetry(fastRetry))
		r.Start(context.Background())

		var (
			accepted atomic.Int32
			wg       sync.WaitGroup
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if r.Record(&models.User{ID: uuid.New()}) {
					accepted.Add(1)
				}
			}()
		}
		r.Stop()
		wg.Wait()

		records, _ := repo.snapshot()
		require.Len(t, records, int(accepted.Load()), "round %d", round)
	}
}

func TestRecorderStopReleasesBlockedRecord(t *testing.T) {
	// never started, so the single slot stays full
	r := NewRecorder(&fakeAppender{}, 1, 1, nil)
	require.True(t, r.Record(&models.User{ID: uuid.New()}))

	done := make(chan bool)
	go func() { done <- r.Record(&models.User{ID: uuid.New()}) }()

	r.Stop()
	assert.False(t, <-done)
}
