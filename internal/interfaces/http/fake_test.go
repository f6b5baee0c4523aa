package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
	"github.com/pot-code/course-gateway/internal/infrastructure/auth"
	"github.com/pot-code/course-gateway/internal/interfaces/http/middleware"
	"github.com/pot-code/course-gateway/internal/progress"
)

func sampleCourse(id string, technical, quiz int, enrolled bool) *course.Course {
	c := &course.Course{ID: id, Name: "Go", Description: "Go basics", Enrolled: enrolled}
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

// fakeCourses CourseUseCase and CourseFetcher over a fixed catalog
type fakeCourses struct {
	course.CourseUseCase
	courses   map[string]*course.Course
	created   *course.Course
	createErr error
}

func (f *fakeCourses) FetchCourse(ctx context.Context, courseID string) (*course.Course, error) {
	c, ok := f.courses[courseID]
	if !ok {
		return nil, apiclient.ErrNotFound
	}
	return c, nil
}

func (f *fakeCourses) CreateCourse(ctx context.Context, c *course.Course) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = c
	return "c9", nil
}

type memoryProgress struct {
	mu    sync.Mutex
	saved map[string]*progress.Snapshot
	fail  bool
}

func newMemoryProgress() *memoryProgress {
	return &memoryProgress{saved: make(map[string]*progress.Snapshot)}
}

func (m *memoryProgress) FetchProgress(ctx context.Context, userID, courseID string) (*progress.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[userID+"/"+courseID].Clone(), nil
}

func (m *memoryProgress) SaveProgress(ctx context.Context, userID, courseID string, s *progress.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("platform unavailable")
	}
	m.saved[userID+"/"+courseID] = s.Clone()
	return nil
}

func newTestJWT() *auth.JWTUtil {
	return auth.NewJWTUtil("HS256", "secret", "cgw_token", time.Hour)
}

// call run h behind the error handling middleware as user u1
func call(t *testing.T, ju *auth.JWTUtil, h echo.HandlerFunc, method, body string, courseID string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if courseID != "" {
		c.SetParamNames("id")
		c.SetParamValues(courseID)
	}
	ju.SetContextToken(c, &auth.AppTokenClaims{UID: "u1", SessionID: "sid-1"})
	if err := middleware.ErrorHandling(&middleware.ErrorHandlingOption{Handler: handleError})(h)(c); err != nil {
		t.Fatalf("error leaked from middleware: %v", err)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}
