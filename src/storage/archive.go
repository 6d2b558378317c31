package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quote-charts/src/interfaces"
	"quote-charts/src/logger"
	"quote-charts/src/metrics"
	"quote-charts/src/models"
)

const (
	archiveQueueSize  = 1024
	tickBatchSize     = 256
	tickFlushInterval = time.Second
)

// NewDatabase picks the backend configured in storage.db_type
func NewDatabase(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch cfg.Storage.DBType {
	case "postgres":
		return NewPostgresDB(&cfg.Storage, cfg.Name, log)
	case "sqlite", "":
		return NewAsyncSQLiteDB(&cfg.Storage, log)
	default:
		return nil, fmt.Errorf("unsupported database type '%s'", cfg.Storage.DBType)
	}
}

// -----------------------------------------------------------------------------
// Archive journals applied events to a database in the background. Nothing
// is ever read back. Writes never block the caller; when the queue is full
// the job is dropped and counted as an archive error.
// -----------------------------------------------------------------------------

type archiveJob struct {
	sessionID string
	history   map[string][]models.MDailyBar
	tick      *models.MTick
}

type Archive struct {
	DB            interfaces.IDatabase
	Logger        *logger.Logger
	RetentionDays int
	jobs          chan archiveJob
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

// -----------------------------------------------------------------------------

func NewArchive(db interfaces.IDatabase, retentionDays int, log *logger.Logger) *Archive {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Archive{
		DB:            db,
		Logger:        log,
		RetentionDays: retentionDays,
		jobs:          make(chan archiveJob, archiveQueueSize),
	}
}

// -----------------------------------------------------------------------------

// Start initializes the database and launches the writer. The writer keeps
// draining until Stop, even after parentCtx is cancelled.
func (a *Archive) Start(parentCtx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("archive already running")
	}
	if err := a.DB.Initialize(); err != nil {
		return err
	}
	a.cleanup()

	ctx, cancel := context.WithCancel(context.WithoutCancel(parentCtx))
	a.cancel = cancel
	a.running = true

	a.wg.Add(1)
	go a.runLoop(ctx)
	a.Logger.Info("Archive started")
	return nil
}

// -----------------------------------------------------------------------------

// Stop flushes pending writes and closes the database
func (a *Archive) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.cancel()
	a.wg.Wait()
	a.running = false

	return a.DB.Close()
}

// -----------------------------------------------------------------------------

// RecordHistory queues an applied history snapshot
func (a *Archive) RecordHistory(sessionID string, history map[string][]models.MDailyBar) {
	a.enqueue(archiveJob{sessionID: sessionID, history: history})
}

// -----------------------------------------------------------------------------

// RecordTick queues an applied tick
func (a *Archive) RecordTick(sessionID string, tick models.MTick) {
	a.enqueue(archiveJob{sessionID: sessionID, tick: &tick})
}

// -----------------------------------------------------------------------------

func (a *Archive) enqueue(job archiveJob) {
	select {
	case a.jobs <- job:
	default:
		metrics.ArchiveErrors.Inc()
		a.Logger.Warning("Archive queue full, dropping write")
	}
}

// -----------------------------------------------------------------------------

func (a *Archive) runLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(tickFlushInterval)
	defer ticker.Stop()

	pending := make([]models.MTick, 0, tickBatchSize)
	pendingSession := ""

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := a.DB.SaveTicks(pendingSession, pending); err != nil {
			metrics.ArchiveErrors.Inc()
			a.Logger.Error("Failed to archive %d ticks: %v", len(pending), err)
		}
		pending = pending[:0]
	}

	handle := func(job archiveJob) {
		if job.tick != nil {
			if job.sessionID != pendingSession {
				flush()
				pendingSession = job.sessionID
			}
			pending = append(pending, *job.tick)
			if len(pending) >= tickBatchSize {
				flush()
			}
			return
		}

		// keep ticks and bars in arrival order
		flush()
		if err := a.DB.SaveDailyBars(job.sessionID, job.history); err != nil {
			metrics.ArchiveErrors.Inc()
			a.Logger.Error("Failed to archive history for %d tickers: %v", len(job.history), err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			// drain what is already queued
			for {
				select {
				case job := <-a.jobs:
					handle(job)
				default:
					flush()
					return
				}
			}
		case job := <-a.jobs:
			handle(job)
		case <-ticker.C:
			flush()
		}
	}
}

// -----------------------------------------------------------------------------

func (a *Archive) cleanup() {
	if a.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -a.RetentionDays)
	if err := a.DB.CleanupOldData(cutoff); err != nil {
		metrics.ArchiveErrors.Inc()
		a.Logger.Error("Archive cleanup failed: %v", err)
	}
}
