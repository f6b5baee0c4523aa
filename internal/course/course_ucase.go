package course

import (
	"context"

	"github.com/pot-code/course-gateway/internal/infrastructure/logging"
	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// CourseUseCaseImpl ...
type CourseUseCaseImpl struct {
	CourseRepository CourseRepository
	Engines          EngineCloser
	Validator        validate.Validator
}

var _ CourseUseCase = &CourseUseCaseImpl{}

// NewCourseUseCase ...
func NewCourseUseCase(
	CourseRepository CourseRepository,
	Engines EngineCloser,
	Validator validate.Validator,
) *CourseUseCaseImpl {
	return &CourseUseCaseImpl{
		CourseRepository: CourseRepository,
		Engines:          Engines,
		Validator:        Validator,
	}
}

// FetchCourse course details with content
func (cu *CourseUseCaseImpl) FetchCourse(ctx context.Context, courseID string) (*Course, error) {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.FetchCourse", "service")
	defer apmSpan.End()

	return cu.CourseRepository.FetchCourse(ctx, courseID)
}

// CatalogCourses .
func (cu *CourseUseCaseImpl) CatalogCourses(ctx context.Context) ([]*Course, error) {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.CatalogCourses", "service")
	defer apmSpan.End()

	return cu.CourseRepository.CatalogCourses(ctx)
}

// EnrolledCourses .
func (cu *CourseUseCaseImpl) EnrolledCourses(ctx context.Context) ([]*Course, error) {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.EnrolledCourses", "service")
	defer apmSpan.End()

	return cu.CourseRepository.EnrolledCourses(ctx)
}

// LikedCourses ids of liked courses
func (cu *CourseUseCaseImpl) LikedCourses(ctx context.Context) ([]string, error) {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.LikedCourses", "service")
	defer apmSpan.End()

	return cu.CourseRepository.LikedCourseIDs(ctx)
}

// Enroll .
func (cu *CourseUseCaseImpl) Enroll(ctx context.Context, courseID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.Enroll", "service")
	defer apmSpan.End()

	return cu.CourseRepository.Enroll(ctx, courseID)
}

// Unenroll drops the enrollment and the learning session of the course
func (cu *CourseUseCaseImpl) Unenroll(ctx context.Context, userID, courseID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.Unenroll", "service")
	defer apmSpan.End()

	if err := cu.CourseRepository.Unenroll(ctx, courseID); err != nil {
		return err
	}
	if cu.Engines != nil {
		cu.Engines.Close(userID, courseID)
	}
	logging.ExtractLoggerFromContext(ctx).Debug("unenrolled",
		zap.String("user.id", userID), zap.String("course.id", courseID))
	return nil
}

// Like .
func (cu *CourseUseCaseImpl) Like(ctx context.Context, courseID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.Like", "service")
	defer apmSpan.End()

	return cu.CourseRepository.Like(ctx, courseID)
}

// Unlike .
func (cu *CourseUseCaseImpl) Unlike(ctx context.Context, courseID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.Unlike", "service")
	defer apmSpan.End()

	return cu.CourseRepository.Unlike(ctx, courseID)
}

// ListCourses .
func (cu *CourseUseCaseImpl) ListCourses(ctx context.Context) ([]*Course, error) {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.ListCourses", "service")
	defer apmSpan.End()

	return cu.CourseRepository.ListCourses(ctx)
}

// CreateCourse validate and publish a new course, returns *ValidationError for a bad payload
func (cu *CourseUseCaseImpl) CreateCourse(ctx context.Context, c *Course) (string, error) {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.CreateCourse", "service")
	defer apmSpan.End()

	if ve := Validate(cu.Validator, c); ve != nil {
		return "", ve
	}
	fillTotals(c)
	return cu.CourseRepository.CreateCourse(ctx, c)
}

// UpdateCourse validate and replace a course
func (cu *CourseUseCaseImpl) UpdateCourse(ctx context.Context, courseID string, c *Course) error {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.UpdateCourse", "service")
	defer apmSpan.End()

	if ve := Validate(cu.Validator, c); ve != nil {
		return ve
	}
	fillTotals(c)
	c.ID = courseID
	return cu.CourseRepository.UpdateCourse(ctx, courseID, c)
}

// DeleteCourse .
func (cu *CourseUseCaseImpl) DeleteCourse(ctx context.Context, courseID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.DeleteCourse", "service")
	defer apmSpan.End()

	return cu.CourseRepository.DeleteCourse(ctx, courseID)
}
