package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"quote-charts/src/interfaces"
	"quote-charts/src/logger"
	"quote-charts/src/metrics"
	"quote-charts/src/models"
	"quote-charts/src/store"
)

const defaultEventBuffer = 256

// -----------------------------------------------------------------------------
// Session drains the events of one feed connection into the store. It is the
// only writer of the store.
// -----------------------------------------------------------------------------

type Session struct {
	Store     *store.SeriesStore
	Source    interfaces.IEventSource
	Publisher interfaces.IQuotePublisher // optional
	Recorder  interfaces.IEventRecorder  // optional
	Logger    *logger.Logger

	bufferSize int
	state      atomic.Int32
	startedAt  atomic.Int64
	lastEvent  atomic.Int64
	consumed   atomic.Int64
	snapshots  atomic.Int64
	applied    atomic.Int64
	ignored    atomic.Int64

	cancel    context.CancelFunc
	sourceWg  sync.WaitGroup
	consumeWg sync.WaitGroup
	done      chan struct{}
	started   atomic.Bool
	stopOnce  sync.Once
}

// -----------------------------------------------------------------------------

func NewSession(cfg *models.MConfig, st *store.SeriesStore, source interfaces.IEventSource, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewNopLogger()
	}
	buffer := cfg.Feed.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Session{
		Store:      st,
		Source:     source,
		Logger:     log,
		bufferSize: buffer,
		done:       make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Start opens the feed and begins applying its events
func (s *Session) Start(parentCtx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("session already started")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	s.startedAt.Store(time.Now().UnixMilli())

	events := make(chan models.MEvent, s.bufferSize)
	s.setState(models.Connecting)

	if err := s.Source.Start(ctx, events, &s.sourceWg); err != nil {
		cancel()
		s.setState(models.Disconnected)
		close(s.done)
		return fmt.Errorf("failed to start feed: %w", err)
	}

	s.consumeWg.Add(1)
	go s.consume(ctx, events)
	return nil
}

// -----------------------------------------------------------------------------

// Run starts the session and blocks until ctx is cancelled or the feed ends
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-s.done:
	}
	s.Stop()
	return nil
}

// -----------------------------------------------------------------------------

// Done is closed when the consumer loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// -----------------------------------------------------------------------------

// Stop closes the feed and waits for the consumer. The store is not mutated
// after Stop returns. Idempotent.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		if !s.started.Load() {
			return
		}
		if s.cancel != nil {
			s.cancel()
		}
		if err := s.Source.Close(); err != nil {
			s.Logger.Warning("Closing feed: %v", err)
		}
		s.sourceWg.Wait()
		s.consumeWg.Wait()
		s.setState(models.Disconnected)
		s.Logger.Info("Session stopped")
	})
}

// -----------------------------------------------------------------------------

// State returns the current connection state
func (s *Session) State() models.ConnectionState {
	return models.ConnectionState(s.state.Load())
}

// -----------------------------------------------------------------------------

// Stats returns a copy of the session counters
func (s *Session) Stats() models.MSessionStats {
	return models.MSessionStats{
		SessionID:        s.Source.SessionID(),
		Connection:       s.State().String(),
		EventsConsumed:   s.consumed.Load(),
		SnapshotsApplied: s.snapshots.Load(),
		TicksApplied:     s.applied.Load(),
		TicksIgnored:     s.ignored.Load(),
		StartedAt:        s.startedAt.Load(),
		LastEventAt:      s.lastEvent.Load(),
	}
}

// -----------------------------------------------------------------------------

func (s *Session) consume(ctx context.Context, events <-chan models.MEvent) {
	defer s.consumeWg.Done()
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			// Stop may have raced the receive
			if ctx.Err() != nil {
				return
			}
			s.handle(event)
			if event.IsTerminal() {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (s *Session) handle(event models.MEvent) {
	s.consumed.Add(1)
	s.lastEvent.Store(time.Now().UnixMilli())

	switch event.Kind {
	case models.EventConnectionOpened:
		s.setState(models.Connected)

	case models.EventHistorySnapshot:
		n := s.Store.ApplyHistorySnapshot(event.History, event.ReceivedAt)
		s.snapshots.Add(1)
		metrics.SnapshotsApplied.Inc()
		s.Logger.Info("Received history data for %d tickers (range %q)", n, event.Range)

		if s.Recorder != nil {
			s.Recorder.RecordHistory(event.SessionID, event.History)
		}
		if s.Publisher != nil {
			s.Publisher.PublishQuotes(s.Store.LatestQuotes())
		}

	case models.EventTick:
		tick := event.Tick
		if !s.Store.ApplyTick(tick.Ticker, tick.Price, tick.Timestamp) {
			s.ignored.Add(1)
			metrics.TicksIgnored.Inc()
			s.Logger.Debug("Ignoring tick for unknown symbol %s", tick.Ticker)
			return
		}
		s.applied.Add(1)
		metrics.TicksApplied.Inc()

		if s.Recorder != nil {
			s.Recorder.RecordTick(event.SessionID, tick)
		}
		if s.Publisher != nil {
			if quote, ok := s.Store.LatestQuote(tick.Ticker); ok {
				s.Publisher.PublishQuote(quote)
			}
		}

	case models.EventConnectionClosed, models.EventConnectionFailed:
		s.setState(models.Disconnected)
		if event.Reason != "" {
			s.Logger.Warning("Feed disconnected: %s", event.Reason)
		}
		// no reconnect: release the transport now
		if err := s.Source.Close(); err != nil {
			s.Logger.Warning("Closing feed: %v", err)
		}

	default:
		s.Logger.Warning("Unhandled event kind %d", event.Kind)
	}
}

// -----------------------------------------------------------------------------

func (s *Session) setState(state models.ConnectionState) {
	old := models.ConnectionState(s.state.Swap(int32(state)))
	if old == state {
		return
	}
	metrics.SetConnectionState(state)
	s.Logger.Info("Connection %s -> %s", old, state)
	if s.Publisher != nil {
		s.Publisher.PublishConnection(state)
	}
}
