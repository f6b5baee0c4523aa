package course

import (
	"context"
	"errors"

	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
)

// ErrInvalidCourseJSON uploaded course file is not a JSON course object
var ErrInvalidCourseJSON = errors.New("Invalid JSON: expected a course object")

// TechnicalItem one lesson
type TechnicalItem struct {
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
	CodeExample string `json:"codeExample,omitempty"`
	Language    string `json:"language,omitempty"`
}

// QuizItem one multiple-choice question
type QuizItem struct {
	Question           string   `json:"question" validate:"required"`
	Options            []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex" validate:"min=0,max=3"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Course catalog entry with its content, learner state fields are filled by the platform per caller
type Course struct {
	ID               string          `json:"id,omitempty"`
	Name             string          `json:"name" validate:"required"`
	Description      string          `json:"description" validate:"required"`
	FullDescription  string          `json:"fullDescription,omitempty"`
	Level            string          `json:"level,omitempty"`
	Duration         string          `json:"duration,omitempty"`
	Curriculum       []string        `json:"curriculum,omitempty"`
	TotalLessons     int             `json:"totalLessons,omitempty"`
	TotalExercises   int             `json:"totalExercises,omitempty"`
	TechnicalContent []TechnicalItem `json:"technicalContent" validate:"min=5,dive"`
	MCQQuestions     []QuizItem      `json:"mcqQuestions" validate:"min=5,dive"`

	Enrolled  bool `json:"enrolled"`
	Liked     bool `json:"liked"`
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// ValidationError course authoring payload rejected
type ValidationError struct {
	Fields []*validate.FieldError
}

func (ve *ValidationError) Error() string {
	return "Failed to validate course"
}

// CourseRepository course platform catalog, the caller is implied by ctx
type CourseRepository interface {
	FetchCourse(ctx context.Context, courseID string) (*Course, error)
	ListCourses(ctx context.Context) ([]*Course, error)
	CatalogCourses(ctx context.Context) ([]*Course, error)
	EnrolledCourses(ctx context.Context) ([]*Course, error)
	LikedCourseIDs(ctx context.Context) ([]string, error)
	Enroll(ctx context.Context, courseID string) error
	Unenroll(ctx context.Context, courseID string) error
	Like(ctx context.Context, courseID string) error
	Unlike(ctx context.Context, courseID string) error
	CreateCourse(ctx context.Context, c *Course) (string, error)
	UpdateCourse(ctx context.Context, courseID string, c *Course) error
	DeleteCourse(ctx context.Context, courseID string) error
}

// EngineCloser drops the in-memory learning session of a (user, course)
type EngineCloser interface {
	Close(userID, courseID string)
}

// CourseUseCase .
type CourseUseCase interface {
	FetchCourse(ctx context.Context, courseID string) (*Course, error)
	CatalogCourses(ctx context.Context) ([]*Course, error)
	EnrolledCourses(ctx context.Context) ([]*Course, error)
	LikedCourses(ctx context.Context) ([]string, error)
	Enroll(ctx context.Context, courseID string) error
	Unenroll(ctx context.Context, userID, courseID string) error
	Like(ctx context.Context, courseID string) error
	Unlike(ctx context.Context, courseID string) error

	ListCourses(ctx context.Context) ([]*Course, error)
	CreateCourse(ctx context.Context, c *Course) (string, error)
	UpdateCourse(ctx context.Context, courseID string, c *Course) error
	DeleteCourse(ctx context.Context, courseID string) error
}
