package progression

import (
	"context"
	"errors"
	"sync"

	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/progress"
	"go.uber.org/zap"
)

// OptionsPerQuestion every quiz item has exactly this many options
const OptionsPerQuestion = 4

// Summary aggregate progress
type Summary struct {
	OverallPercent int `json:"overallPercent"`
	CompletedCount int `json:"completedCount"`
	TotalCount     int `json:"totalCount"`
}

// QuizPrompt a question as shown before it is answered
type QuizPrompt struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Item the item at the current position
type Item struct {
	Section   progress.Section      `json:"section"`
	Index     int                   `json:"index"`
	Done      bool                  `json:"done"`
	Technical *course.TechnicalItem `json:"technical,omitempty"`
	Quiz      *QuizPrompt           `json:"quiz,omitempty"`
}

// AnswerResult outcome of AnswerQuiz
type AnswerResult struct {
	Snapshot      *progress.Snapshot `json:"snapshot"`
	Correct       bool               `json:"correct"`
	CorrectOption int                `json:"correctOption"`
	Explanation   string             `json:"explanation,omitempty"`
}

// AdvanceResult outcome of Advance
type AdvanceResult struct {
	Snapshot *progress.Snapshot `json:"snapshot"`
	Finished bool               `json:"finished"`
}

// View consistent read of the whole engine state
type View struct {
	CourseID     string             `json:"courseId"`
	Snapshot     *progress.Snapshot `json:"snapshot"`
	Progress     Summary            `json:"progress"`
	Current      Item               `json:"current"`
	CanEnterQuiz bool               `json:"canEnterQuiz"`
}

// Engine lesson and quiz progression of one learner in one course
type Engine struct {
	userID    string
	courseID  string
	cfg       *Config
	syncer    *Syncer
	publisher Publisher
	logger    *zap.Logger

	mu       sync.Mutex
	closed   bool
	course   *course.Course
	snapshot *progress.Snapshot
}

// NewEngine .
func NewEngine(userID, courseID string, saver progress.Saver, cfg *Config, logger *zap.Logger) *Engine {
	return newEngine(NewSyncer(userID, courseID, saver, cfg, logger), cfg, logger)
}

// newEngine engine writing through an existing syncer, which may outlive it
func newEngine(syncer *Syncer, cfg *Config, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("user.id", syncer.userID), zap.String("course.id", syncer.courseID))
	return &Engine{
		userID:   syncer.userID,
		courseID: syncer.courseID,
		cfg:      cfg,
		syncer:   syncer,
		logger:   logger,
	}
}

// SetPublisher receive an event after every change
func (e *Engine) SetPublisher(p Publisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publisher = p
}

// UserID .
func (e *Engine) UserID() string { return e.userID }

// CourseID .
func (e *Engine) CourseID() string { return e.courseID }

// Initialize adopt stored progress or start fresh, stored may be nil
func (e *Engine) Initialize(c *course.Course, stored *progress.Snapshot) (*progress.Snapshot, error) {
	if c == nil || len(c.TechnicalContent)+len(c.MCQQuestions) == 0 {
		return nil, ErrContentMismatch
	}
	nt, nq := len(c.TechnicalContent), len(c.MCQQuestions)

	var s *progress.Snapshot
	if stored == nil {
		s = progress.NewSnapshot(nt, nq)
		if nt == 0 {
			s.CurrentSection = progress.SectionQuiz
		}
	} else {
		s = stored.Clone()
		s.TechnicalDone = clampFlags(s.TechnicalDone, nt)
		s.QuizDone = clampFlags(s.QuizDone, nq)
		e.normalizePosition(s)
	}
	s.Recompute()

	e.mu.Lock()
	e.course = c
	e.snapshot = s
	e.mu.Unlock()
	return s.Clone(), nil
}

// clampFlags pad with false or truncate to n entries
func clampFlags(flags []bool, n int) []bool {
	out := make([]bool, n)
	copy(out, flags)
	return out
}

// normalizePosition move a stored pointer onto a valid item
func (e *Engine) normalizePosition(s *progress.Snapshot) {
	nt, nq := len(s.TechnicalDone), len(s.QuizDone)
	if !s.CurrentSection.Valid() {
		s.CurrentSection = progress.SectionTechnical
	}
	if s.CurrentSection == progress.SectionQuiz && nq == 0 {
		s.CurrentSection, s.CurrentIndex = progress.SectionTechnical, nt-1
	}
	if s.CurrentSection == progress.SectionTechnical && nt == 0 {
		s.CurrentSection, s.CurrentIndex = progress.SectionQuiz, 0
	}
	if s.CurrentSection == progress.SectionQuiz && e.cfg.GateQuizView && !s.AllTechnicalDone() {
		s.CurrentSection, s.CurrentIndex = progress.SectionTechnical, firstUndone(s.TechnicalDone)
	}

	n := nt
	if s.CurrentSection == progress.SectionQuiz {
		n = nq
	}
	if s.CurrentIndex >= n {
		s.CurrentIndex = n - 1
	}
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
}

func firstUndone(flags []bool) int {
	for i, f := range flags {
		if !f {
			return i
		}
	}
	return 0
}

// MarkTechnicalComplete mark the current lesson done, does not advance
func (e *Engine) MarkTechnicalComplete(ctx context.Context) (*progress.Snapshot, error) {
	return e.apply(ctx, func(s *progress.Snapshot) (bool, error) {
		if s.CurrentSection != progress.SectionTechnical || !validIndex(s.CurrentIndex, len(s.TechnicalDone)) {
			return false, ErrInvalidPosition
		}
		if s.TechnicalDone[s.CurrentIndex] {
			return false, nil
		}
		s.TechnicalDone[s.CurrentIndex] = true
		s.Recompute()
		return true, nil
	})
}

// AnswerQuiz check option against the current question, only the first correct answer counts
func (e *Engine) AnswerQuiz(ctx context.Context, option int) (*AnswerResult, error) {
	result := new(AnswerResult)
	snapshot, err := e.apply(ctx, func(s *progress.Snapshot) (bool, error) {
		if s.CurrentSection != progress.SectionQuiz {
			return false, ErrInvalidPosition
		}
		if !s.AllTechnicalDone() {
			return false, ErrSectionLocked
		}
		if !validIndex(s.CurrentIndex, len(s.QuizDone)) {
			return false, ErrInvalidPosition
		}
		q := e.course.MCQQuestions[s.CurrentIndex]
		if option < 0 || option >= OptionsPerQuestion || option >= len(q.Options) {
			return false, ErrInvalidOption
		}

		result.Correct = option == q.CorrectAnswerIndex
		result.CorrectOption = q.CorrectAnswerIndex
		result.Explanation = q.Explanation
		if !result.Correct || s.QuizDone[s.CurrentIndex] {
			return false, nil
		}
		s.QuizDone[s.CurrentIndex] = true
		s.Recompute()
		return true, nil
	})
	if snapshot == nil {
		return nil, err
	}
	result.Snapshot = snapshot
	return result, err
}

// Advance move to the next item, crossing into the quiz after the last lesson
func (e *Engine) Advance(ctx context.Context) (*AdvanceResult, error) {
	result := new(AdvanceResult)
	snapshot, err := e.apply(ctx, func(s *progress.Snapshot) (bool, error) {
		nt, nq := len(s.TechnicalDone), len(s.QuizDone)

		switch s.CurrentSection {
		case progress.SectionTechnical:
			if !validIndex(s.CurrentIndex, nt) {
				return false, ErrInvalidPosition
			}
			if s.CurrentIndex < nt-1 {
				s.CurrentIndex++
				return true, nil
			}
			if nq == 0 {
				result.Finished = true
				return false, nil
			}
			if e.cfg.GateQuizView && !s.AllTechnicalDone() {
				return false, ErrSectionLocked
			}
			s.CurrentSection, s.CurrentIndex = progress.SectionQuiz, 0
		case progress.SectionQuiz:
			if !validIndex(s.CurrentIndex, nq) {
				return false, ErrInvalidPosition
			}
			if s.CurrentIndex >= nq-1 {
				result.Finished = true
				return false, nil
			}
			s.CurrentIndex++
		default:
			return false, ErrInvalidPosition
		}
		return true, nil
	})
	if snapshot == nil {
		return nil, err
	}
	result.Snapshot = snapshot
	return result, err
}

// Retreat move to the previous item, from the first question back to the last lesson
func (e *Engine) Retreat(ctx context.Context) (*progress.Snapshot, error) {
	return e.apply(ctx, func(s *progress.Snapshot) (bool, error) {
		switch {
		case s.CurrentIndex > 0:
			s.CurrentIndex--
		case s.CurrentSection == progress.SectionQuiz:
			if len(s.TechnicalDone) == 0 {
				// nothing before the first question
				return false, nil
			}
			s.CurrentSection, s.CurrentIndex = progress.SectionTechnical, len(s.TechnicalDone)-1
		default:
			return false, nil
		}
		return true, nil
	})
}

// CanEnterQuiz every lesson is done
func (e *Engine) CanEnterQuiz() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snapshot == nil {
		return false
	}
	return e.snapshot.AllTechnicalDone()
}

// ComputeProgress .
func (e *Engine) ComputeProgress() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return summarize(e.snapshot)
}

func summarize(s *progress.Snapshot) Summary {
	if s == nil {
		return Summary{}
	}
	done, total := s.Counts()
	return Summary{
		OverallPercent: progress.Percent(done, total),
		CompletedCount: done,
		TotalCount:     total,
	}
}

// Snapshot copy of the current state, nil before Initialize
func (e *Engine) Snapshot() *progress.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

// Current item at the current position
func (e *Engine) Current() (Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snapshot == nil {
		return Item{}, ErrNotInitialized
	}
	return e.current(), nil
}

// View .
func (e *Engine) View() (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snapshot == nil {
		return nil, ErrNotInitialized
	}
	return e.view(), nil
}

func (e *Engine) view() *View {
	return &View{
		CourseID:     e.courseID,
		Snapshot:     e.snapshot.Clone(),
		Progress:     summarize(e.snapshot),
		Current:      e.current(),
		CanEnterQuiz: e.snapshot.AllTechnicalDone(),
	}
}

func (e *Engine) current() Item {
	s := e.snapshot
	item := Item{Section: s.CurrentSection, Index: s.CurrentIndex}
	switch s.CurrentSection {
	case progress.SectionTechnical:
		if validIndex(s.CurrentIndex, len(e.course.TechnicalContent)) {
			t := e.course.TechnicalContent[s.CurrentIndex]
			item.Technical = &t
			item.Done = s.TechnicalDone[s.CurrentIndex]
		}
	case progress.SectionQuiz:
		if validIndex(s.CurrentIndex, len(e.course.MCQQuestions)) {
			q := e.course.MCQQuestions[s.CurrentIndex]
			item.Quiz = &QuizPrompt{Question: q.Question, Options: append([]string(nil), q.Options...)}
			item.Done = s.QuizDone[s.CurrentIndex]
		}
	}
	return item
}

// apply run mutate under the state lock, then persist the result outside it.
// Saves keep the order of their mutations through the syncer turns.
func (e *Engine) apply(ctx context.Context, mutate func(s *progress.Snapshot) (bool, error)) (*progress.Snapshot, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrNoSession
	}
	if e.snapshot == nil {
		e.mu.Unlock()
		return nil, ErrNotInitialized
	}
	changed, err := mutate(e.snapshot)
	if err != nil || !changed {
		var snapshot *progress.Snapshot
		if err == nil {
			snapshot = e.snapshot.Clone()
		}
		e.mu.Unlock()
		return snapshot, err
	}

	snapshot := e.snapshot.Clone()
	turn := e.syncer.reserve()
	publisher := e.publisher
	if publisher != nil {
		publisher.Publish(e.userID, e.courseID, Event{Type: EventSnapshot, View: e.view()})
	}
	e.mu.Unlock()

	err = e.syncer.saveInTurn(ctx, turn, snapshot)
	if publisher != nil && errors.Is(err, ErrPersistenceFailure) {
		publisher.Publish(e.userID, e.courseID, Event{Type: EventWarning, Warning: err.Error()})
	}
	return snapshot, err
}

// shutdown detach the engine, later mutations fail with ErrNoSession
func (e *Engine) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.publisher = nil
}

func validIndex(i, n int) bool {
	return i >= 0 && i < n
}
