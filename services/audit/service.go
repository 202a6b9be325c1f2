package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/repositories"
	"go.uber.org/zap"
)

// Recorder buffers restriction audit entries and persists them from a small
// worker pool so audit writes never sit on the request path. It implements
// repositories.AuditRepository, so services that take the repository can be
// handed the recorder unchanged.
type Recorder struct {
	repo        repositories.AuditRepository
	logger      *zap.Logger
	entries     chan *models.RestrictionAuditEntry
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the Recorder
type Config struct {
	BufferSize  int // Size of the entry buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1024,
		WorkerCount: 2,
	}
}

// NewRecorder creates a new Recorder over the given audit repository
func NewRecorder(repo repositories.AuditRepository, logger *zap.Logger, config Config) *Recorder {
	return &Recorder{
		repo:        repo,
		logger:      logger,
		entries:     make(chan *models.RestrictionAuditEntry, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("audit recorder already started")
	}

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.started = true
	r.logger.Info("started audit recorder",
		zap.Int("worker_count", r.workerCount),
		zap.Int("buffer_size", r.bufferSize))

	return nil
}

// Stop gracefully stops the recorder, waiting for buffered entries to be
// persisted up to the timeout
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return fmt.Errorf("audit recorder not started")
	}
	r.started = false
	r.mu.Unlock()

	r.logger.Info("stopping audit recorder", zap.Int("pending_entries", len(r.entries)))

	close(r.entries)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("audit recorder stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit recorder stop timeout after %v", timeout)
	}
}

// Insert enqueues an entry for background persistence. It never blocks: when
// the buffer is full the entry is dropped and an error returned, which
// callers treat as best-effort.
func (r *Recorder) Insert(ctx context.Context, entry *models.RestrictionAuditEntry) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return fmt.Errorf("audit recorder not started")
	}
	r.mu.Unlock()

	select {
	case r.entries <- entry:
		return nil
	default:
		r.logger.Warn("audit buffer full, dropping entry",
			zap.String("actor", entry.Actor),
			zap.String("scope", entry.Scope),
			zap.String("action", string(entry.Action)))
		return fmt.Errorf("audit buffer full")
	}
}

// ListByScope reads straight through to the repository
func (r *Recorder) ListByScope(ctx context.Context, scope string, limit, offset int) ([]*models.RestrictionAuditEntry, error) {
	return r.repo.ListByScope(ctx, scope, limit, offset)
}

// WithTx returns the underlying repository bound to the transaction. Writes
// inside a transaction must be synchronous, so the recorder steps aside.
func (r *Recorder) WithTx(tx repositories.Transaction) repositories.AuditRepository {
	return r.repo.WithTx(tx)
}

// worker drains entries from the channel
func (r *Recorder) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for entry := range r.entries {
		if err := r.persist(entry); err != nil {
			r.logger.Error("failed to persist audit entry",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("actor", entry.Actor),
				zap.String("scope", entry.Scope))
		}
	}

	r.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (r *Recorder) persist(entry *models.RestrictionAuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.repo.Insert(ctx, entry)
}

// Stats represents recorder statistics
type Stats struct {
	BufferSize     int
	PendingEntries int
	WorkerCount    int
	Started        bool
}

// GetStats returns statistics about the recorder
func (r *Recorder) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		BufferSize:     r.bufferSize,
		PendingEntries: len(r.entries),
		WorkerCount:    r.workerCount,
		Started:        r.started,
	}
}
