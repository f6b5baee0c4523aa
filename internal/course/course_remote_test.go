package course

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
)

func newRemote(t *testing.T, h http.HandlerFunc) *CourseRemote {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := apiclient.New(&apiclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return NewCourseRemote(client)
}

func TestRemoteFetchCourse(t *testing.T) {
	cr := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/course/c1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"id":"c1","name":"Go","technicalContent":[{"title":"t","content":"c"}],"mcqQuestions":[],"enrolled":true,"progress":40}`))
	})

	c, err := cr.FetchCourse(context.Background(), "c1")
	if err != nil {
		t.Fatalf("FetchCourse: %v", err)
	}
	if len(c.TechnicalContent) != 1 || !c.Enrolled || c.Progress != 40 {
		t.Fatalf("unexpected course %+v", c)
	}
	if _, err := cr.FetchCourse(context.Background(), "missing"); !errors.Is(err, apiclient.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoteCreateCourse(t *testing.T) {
	cr := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/courses" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Course created successfully","courseId":"c9","courseName":"Go"}`))
	})
	id, err := cr.CreateCourse(context.Background(), sampleCourse(5, 5))
	if err != nil || id != "c9" {
		t.Fatalf("CreateCourse: %q %v", id, err)
	}
}

func TestRemoteLikedCourseIDs(t *testing.T) {
	cr := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["c1","c2"]`))
	})
	ids, err := cr.LikedCourseIDs(context.Background())
	if err != nil || len(ids) != 2 || ids[1] != "c2" {
		t.Fatalf("LikedCourseIDs: %v %v", ids, err)
	}
}
