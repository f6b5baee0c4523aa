package course

import (
	"context"
	"net/url"

	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
)

// CourseRemote CourseRepository backed by the course platform API
type CourseRemote struct {
	Client *apiclient.Client
}

var _ CourseRepository = &CourseRemote{}

// NewCourseRemote .
func NewCourseRemote(client *apiclient.Client) *CourseRemote {
	return &CourseRemote{Client: client}
}

func escape(id string) string {
	return url.PathEscape(id)
}

// FetchCourse .
func (cr *CourseRemote) FetchCourse(ctx context.Context, courseID string) (*Course, error) {
	out := new(Course)
	if err := cr.Client.Get(ctx, "/course/"+escape(courseID), out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = courseID
	}
	return out, nil
}

// ListCourses all courses, admin only
func (cr *CourseRemote) ListCourses(ctx context.Context) ([]*Course, error) {
	var out []*Course
	err := cr.Client.Get(ctx, "/admin/courses", &out)
	return out, err
}

// CatalogCourses courses shown on the learner dashboard
func (cr *CourseRemote) CatalogCourses(ctx context.Context) ([]*Course, error) {
	var out []*Course
	err := cr.Client.Get(ctx, "/user/dashboard", &out)
	return out, err
}

// EnrolledCourses .
func (cr *CourseRemote) EnrolledCourses(ctx context.Context) ([]*Course, error) {
	var out []*Course
	err := cr.Client.Get(ctx, "/user/enrolled-courses", &out)
	return out, err
}

// LikedCourseIDs .
func (cr *CourseRemote) LikedCourseIDs(ctx context.Context) ([]string, error) {
	out := []string{}
	err := cr.Client.Get(ctx, "/course/liked", &out)
	return out, err
}

// Enroll .
func (cr *CourseRemote) Enroll(ctx context.Context, courseID string) error {
	return cr.Client.Post(ctx, "/user/enroll/"+escape(courseID), struct{}{}, nil)
}

// Unenroll .
func (cr *CourseRemote) Unenroll(ctx context.Context, courseID string) error {
	return cr.Client.Delete(ctx, "/course/"+escape(courseID)+"/unenroll", nil)
}

// Like .
func (cr *CourseRemote) Like(ctx context.Context, courseID string) error {
	return cr.Client.Post(ctx, "/course/"+escape(courseID)+"/like", nil, nil)
}

// Unlike .
func (cr *CourseRemote) Unlike(ctx context.Context, courseID string) error {
	return cr.Client.Delete(ctx, "/course/"+escape(courseID)+"/like", nil)
}

// CreateCourse returns the id assigned by the platform
func (cr *CourseRemote) CreateCourse(ctx context.Context, c *Course) (string, error) {
	var out struct {
		CourseID string `json:"courseId"`
	}
	err := cr.Client.Post(ctx, "/admin/courses", c, &out)
	return out.CourseID, err
}

// UpdateCourse .
func (cr *CourseRemote) UpdateCourse(ctx context.Context, courseID string, c *Course) error {
	return cr.Client.Put(ctx, "/admin/courses/"+escape(courseID), c, nil)
}

// DeleteCourse .
func (cr *CourseRemote) DeleteCourse(ctx context.Context, courseID string) error {
	return cr.Client.Delete(ctx, "/admin/courses/"+escape(courseID), nil)
}
