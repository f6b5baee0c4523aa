package progression

import (
	"context"
	"fmt"
	"sync"

	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/progress"
	"go.elastic.co/apm"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CourseFetcher .
type CourseFetcher interface {
	FetchCourse(ctx context.Context, courseID string) (*course.Course, error)
}

// Registry live engines keyed by (user, course)
type Registry struct {
	courses CourseFetcher
	store   progress.ProgressRepository
	cfg     *Config
	hub     *Hub
	logger  *zap.Logger

	group   singleflight.Group
	mu      sync.Mutex
	engines map[sessionKey]*Engine
	syncers map[sessionKey]*Syncer // kept after Close so a reload waits for pending saves
}

var _ course.EngineCloser = &Registry{}

// NewRegistry hub may be nil
func NewRegistry(courses CourseFetcher, store progress.ProgressRepository, cfg *Config, hub *Hub, logger *zap.Logger) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		courses: courses,
		store:   store,
		cfg:     cfg,
		hub:     hub,
		logger:  logger,
		engines: make(map[sessionKey]*Engine),
		syncers: make(map[sessionKey]*Syncer),
	}
}

// Open live engine of a (user, course), loading course and stored progress when there is none
func (r *Registry) Open(ctx context.Context, userID, courseID string) (*Engine, error) {
	if engine, err := r.Get(userID, courseID); err == nil {
		return engine, nil
	}

	apmSpan, ctx := apm.StartSpan(ctx, "Registry.Open", "service")
	defer apmSpan.End()

	key := sessionKey{userID, courseID}
	v, err, _ := r.group.Do(userID+"\x00"+courseID, func() (interface{}, error) {
		if engine, err := r.Get(userID, courseID); err == nil {
			return engine, nil
		}
		engine, err := r.load(ctx, key)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.engines[key] = engine
		r.mu.Unlock()
		return engine, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Engine), nil
}

func (r *Registry) syncer(key sessionKey) *Syncer {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.syncers[key]
	if !ok {
		s = NewSyncer(key.userID, key.courseID, r.store, r.cfg, r.logger)
		r.syncers[key] = s
	}
	return s
}

func (r *Registry) load(ctx context.Context, key sessionKey) (*Engine, error) {
	userID, courseID := key.userID, key.courseID
	c, err := r.courses.FetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.Enrolled {
		return nil, ErrNotEnrolled
	}
	// saves of a closed engine land before the reload reads them
	syncer := r.syncer(key)
	syncer.Wait()
	stored, err := r.store.FetchProgress(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch progress: %w", err)
	}

	engine := newEngine(syncer, r.cfg, r.logger)
	if _, err := engine.Initialize(c, stored); err != nil {
		return nil, err
	}
	if r.hub != nil {
		engine.SetPublisher(r.hub)
	}
	r.logger.Debug("learning session opened",
		zap.String("user.id", userID),
		zap.String("course.id", courseID),
		zap.Bool("resumed", stored != nil))
	return engine, nil
}

// Get live engine
func (r *Registry) Get(userID, courseID string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if engine, ok := r.engines[sessionKey{userID, courseID}]; ok {
		return engine, nil
	}
	return nil, ErrNoSession
}

// Close discard the engine of a (user, course)
func (r *Registry) Close(userID, courseID string) {
	key := sessionKey{userID, courseID}
	// shut down under r.mu so a reload cannot drain the syncer before the last turn is taken
	r.mu.Lock()
	engine, ok := r.engines[key]
	if ok {
		delete(r.engines, key)
		engine.shutdown()
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if r.hub != nil {
		r.hub.Publish(userID, courseID, Event{Type: EventClosed})
	}
}

// CloseUser discard every engine of a user
func (r *Registry) CloseUser(userID string) {
	var closed []string
	r.mu.Lock()
	for key, engine := range r.engines {
		if key.userID == userID {
			delete(r.engines, key)
			engine.shutdown()
			closed = append(closed, key.courseID)
		}
	}
	r.mu.Unlock()

	if r.hub != nil {
		for _, courseID := range closed {
			r.hub.Publish(userID, courseID, Event{Type: EventClosed})
		}
	}
}

// Len number of live engines
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
