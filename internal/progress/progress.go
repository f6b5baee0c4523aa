package progress

import "context"

// Section which item list the learner is in
type Section string

// sections, values are the wire names of the remote contract
const (
	SectionTechnical Section = "technical"
	SectionQuiz      Section = "mcq"
)

// Valid .
func (s Section) Valid() bool {
	return s == SectionTechnical || s == SectionQuiz
}

// Snapshot completion and position state of one learner in one course
type Snapshot struct {
	TechnicalDone  []bool  `json:"technicalProgress"`
	QuizDone       []bool  `json:"mcqProgress"`
	CurrentSection Section `json:"currentSection"`
	CurrentIndex   int     `json:"currentIndex"`
	OverallPercent int     `json:"progress"`
	Completed      bool    `json:"completed"`
}

// NewSnapshot fresh snapshot, nothing done, first lesson
func NewSnapshot(technical, quiz int) *Snapshot {
	return &Snapshot{
		TechnicalDone:  make([]bool, technical),
		QuizDone:       make([]bool, quiz),
		CurrentSection: SectionTechnical,
	}
}

// Clone deep copy
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.TechnicalDone = append(make([]bool, 0, len(s.TechnicalDone)), s.TechnicalDone...)
	c.QuizDone = append(make([]bool, 0, len(s.QuizDone)), s.QuizDone...)
	return &c
}

// Counts completed and total items over both sections
func (s *Snapshot) Counts() (done, total int) {
	done = CountTrue(s.TechnicalDone) + CountTrue(s.QuizDone)
	total = len(s.TechnicalDone) + len(s.QuizDone)
	return
}

// Recompute derive OverallPercent and Completed from the completion arrays
func (s *Snapshot) Recompute() {
	done, total := s.Counts()
	s.OverallPercent = Percent(done, total)
	s.Completed = total > 0 && s.OverallPercent == 100
}

// AllTechnicalDone gating invariant of the quiz section
func (s *Snapshot) AllTechnicalDone() bool {
	return CountTrue(s.TechnicalDone) == len(s.TechnicalDone)
}

// Percent round(100*done/total) with halves rounded up, 0 when total is 0
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}

// CountTrue .
func CountTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// Saver persists a snapshot
type Saver interface {
	SaveProgress(ctx context.Context, userID, courseID string, snapshot *Snapshot) error
}

// ProgressRepository progress store, FetchProgress returns nil when nothing is stored
type ProgressRepository interface {
	Saver
	FetchProgress(ctx context.Context, userID, courseID string) (*Snapshot, error)
}
