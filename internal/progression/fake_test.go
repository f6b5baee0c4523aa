package progression

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/progress"
)

func newCourse(technical, quiz int) *course.Course {
	c := &course.Course{ID: "c1", Name: "Go", Description: "Go", Enrolled: true}
	for i := 0; i < technical; i++ {
		c.TechnicalContent = append(c.TechnicalContent, course.TechnicalItem{
			Title:   fmt.Sprintf("Lesson %d", i),
			Content: "content",
		})
	}
	for i := 0; i < quiz; i++ {
		c.MCQQuestions = append(c.MCQQuestions, course.QuizItem{
			Question:           fmt.Sprintf("Question %d", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectAnswerIndex: (i + 1) % 4,
			Explanation:        fmt.Sprintf("because %d", i),
		})
	}
	return c
}

// memoryStore ProgressRepository kept in memory, failing the next `fail` saves
type memoryStore struct {
	mu       sync.Mutex
	saved    map[string]*progress.Snapshot
	saves    []*progress.Snapshot
	fail     int
	delay    time.Duration
	inFlight int
	maxIn    int

	// when gate is set, saves signal entered and block until gate is closed
	gate    chan struct{}
	entered chan struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string]*progress.Snapshot)}
}

func (m *memoryStore) FetchProgress(ctx context.Context, userID, courseID string) (*progress.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[userID+"/"+courseID].Clone(), nil
}

func (m *memoryStore) SaveProgress(ctx context.Context, userID, courseID string, s *progress.Snapshot) error {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxIn {
		m.maxIn = m.inFlight
	}
	gate, entered := m.gate, m.entered
	m.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	if m.fail > 0 {
		m.fail--
		return errors.New("store unavailable")
	}
	m.saved[userID+"/"+courseID] = s.Clone()
	m.saves = append(m.saves, s.Clone())
	return nil
}

// hold make every save wait for the returned release
func (m *memoryStore) hold() (entered <-chan struct{}, release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
	m.entered = make(chan struct{}, 16)
	gate := m.gate
	return m.entered, func() { close(gate) }
}

func (m *memoryStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *memoryStore) last() *progress.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

func testConfig() *Config {
	return &Config{RetryDelay: time.Millisecond, SaveTimeout: time.Second}
}
