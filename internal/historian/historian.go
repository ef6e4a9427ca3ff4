// internal/historian/historian.go
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records. Pop returns (nil, nil) when nothing arrived in time.
type Source interface {
	Pop(ctx context.Context) (*cache.GameActionRecord, error)
}

// Sink persists records.
type Sink interface {
	InsertActions(ctx context.Context, records []cache.GameActionRecord) error
	MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) error
}

// Service drains a Source into a Sink in batches and marks games abandoned once they
// have been quiet for longer than Inactivity.
type Service struct {
	Source     Source
	Sink       Sink
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration
	Logger     logrus.FieldLogger

	batchMu      sync.Mutex
	batch        []cache.GameActionRecord
	lastActivity sync.Map // map[uuid.UUID]time.Time
	finished     sync.Map // map[uuid.UUID]struct{}
}

// Run blocks until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.Logger.Info("uno-historian service started.")
	<-ctx.Done()
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.Logger.Info("uno-historian shutting down.")
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		record, err := s.Source.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.Logger.WithError(err).Error("pop failed")
			time.Sleep(time.Second)
			continue
		}
		if record == nil {
			continue
		}
		s.Append(ctx, *record)
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// Append adds a record to the in-memory batch and flushes if the batch is full.
func (s *Service) Append(ctx context.Context, record cache.GameActionRecord) {
	if record.ActionType == cache.ActionGameEnd {
		s.finished.Store(record.GameID, struct{}{})
		s.lastActivity.Delete(record.GameID)
	} else if _, done := s.finished.Load(record.GameID); !done {
		s.lastActivity.Store(record.GameID, time.Now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	full := len(s.batch) >= s.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the current batch. A failed batch is put back in front of the queue.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if len(s.batch) == 0 {
		return
	}
	pending := s.batch
	s.batch = nil

	if err := s.Sink.InsertActions(ctx, pending); err != nil {
		s.Logger.WithError(err).Errorf("failed to flush %d actions", len(pending))
		s.batch = pending
		return
	}
	s.Logger.Debugf("Flushed %d actions to DB.", len(pending))
}

// Pending is the number of records waiting for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

func (s *Service) inactivityLoop(ctx context.Context) {
	interval := s.Inactivity / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.SweepInactive(ctx, now)
		}
	}
}

// SweepInactive marks every game whose last action is older than Inactivity as abandoned.
func (s *Service) SweepInactive(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.Inactivity {
			return true
		}
		// Pending actions must land before the game row is closed.
		s.Flush(ctx)
		if err := s.Sink.MarkGameAbandoned(ctx, gameID); err != nil {
			s.Logger.WithError(err).Warnf("failed to mark game %v abandoned", gameID)
			return true
		}
		s.Logger.Infof("Marked game %v as 'abandoned' due to inactivity.", gameID)
		s.lastActivity.Delete(gameID)
		return true
	})
}
