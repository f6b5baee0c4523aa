package progression

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pot-code/course-gateway/internal/progress"
	"go.uber.org/zap"
)

// Syncer writes snapshots of one (user, course) one at a time, in the order
// their turns were reserved
type Syncer struct {
	userID   string
	courseID string
	saver    progress.Saver
	cfg      *Config
	logger   *zap.Logger

	mu   sync.Mutex
	cond *sync.Cond
	next uint64 // next turn handed out
	turn uint64 // turn allowed to write
}

// NewSyncer .
func NewSyncer(userID, courseID string, saver progress.Saver, cfg *Config, logger *zap.Logger) *Syncer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{
		userID:   userID,
		courseID: courseID,
		saver:    saver,
		cfg:      cfg,
		logger:   logger,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Save persist snapshot, retrying once. Failures wrap ErrPersistenceFailure.
func (s *Syncer) Save(ctx context.Context, snapshot *progress.Snapshot) error {
	return s.saveInTurn(ctx, s.reserve(), snapshot)
}

// reserve take the next write turn
func (s *Syncer) reserve() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next++
	return t
}

// Wait blocks until every reserved save has finished
func (s *Syncer) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.turn != s.next {
		s.cond.Wait()
	}
}

func (s *Syncer) saveInTurn(ctx context.Context, turn uint64, snapshot *progress.Snapshot) error {
	s.mu.Lock()
	for s.turn != turn {
		s.cond.Wait()
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.turn++
		s.cond.Broadcast()
		s.mu.Unlock()
	}()

	ctx = detach(ctx)
	err := s.attempt(ctx, snapshot)
	if err == nil {
		return nil
	}
	s.logger.Warn("progress save failed, retrying",
		zap.String("user.id", s.userID),
		zap.String("course.id", s.courseID),
		zap.Error(err))

	if s.cfg.RetryDelay > 0 {
		time.Sleep(s.cfg.RetryDelay)
	}
	if err = s.attempt(ctx, snapshot); err != nil {
		s.logger.Error("progress save failed",
			zap.String("user.id", s.userID),
			zap.String("course.id", s.courseID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return nil
}

func (s *Syncer) attempt(ctx context.Context, snapshot *progress.Snapshot) error {
	if s.cfg.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SaveTimeout)
		defer cancel()
	}
	return s.saver.SaveProgress(ctx, s.userID, s.courseID, snapshot)
}

// detachedContext keeps the values of its parent but not its cancellation
type detachedContext struct {
	context.Context
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{}       { return nil }
func (detachedContext) Err() error                  { return nil }

func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return detachedContext{ctx}
}
