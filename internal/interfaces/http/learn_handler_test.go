package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	"github.com/pot-code/course-gateway/internal/progress"
	"github.com/pot-code/course-gateway/internal/progression"
)

func newLearnHandler(store *memoryProgress) *LearnHandler {
	courses := &fakeCourses{courses: map[string]*course.Course{
		"go":     sampleCourse("go", 2, 2, true),
		"closed": sampleCourse("closed", 2, 2, false),
	}}
	cfg := progression.DefaultConfig()
	cfg.RetryDelay = 0
	hub := progression.NewHub(8)
	registry := progression.NewRegistry(courses, store, cfg, hub, nil)
	return NewLearnHandler(newTestJWT(), registry, hub, validate.NewValidator())
}

func TestLearnFlow(t *testing.T) {
	store := newMemoryProgress()
	lh := newLearnHandler(store)
	ju := lh.JWTUtil

	rec := call(t, ju, lh.HandleOpen, http.MethodGet, "", "go")
	if rec.Code != http.StatusOK {
		t.Fatalf("open: %d %s", rec.Code, rec.Body)
	}
	var res learnResponse
	decode(t, rec, &res)
	if res.Current.Section != progress.SectionTechnical || res.Current.Index != 0 || res.CanEnterQuiz {
		t.Fatalf("unexpected start %+v", res.View)
	}

	rec = call(t, ju, lh.HandleAnswer, http.MethodPost, `{"option":1}`, "go")
	if rec.Code != http.StatusConflict {
		t.Fatalf("answer during lessons: expected 409, got %d", rec.Code)
	}

	rec = call(t, ju, lh.HandleComplete, http.MethodPost, "", "go")
	res = learnResponse{}
	decode(t, rec, &res)
	if !res.Snapshot.TechnicalDone[0] || res.Progress.OverallPercent != 25 {
		t.Fatalf("complete: %+v", res.View)
	}

	call(t, ju, lh.HandleNext, http.MethodPost, "", "go")
	call(t, ju, lh.HandleComplete, http.MethodPost, "", "go")
	rec = call(t, ju, lh.HandleNext, http.MethodPost, "", "go")
	res = learnResponse{}
	decode(t, rec, &res)
	if res.Current.Section != progress.SectionQuiz || res.Current.Index != 0 || !res.CanEnterQuiz {
		t.Fatalf("expected first question, got %+v", res.Current)
	}
	if res.Current.Quiz == nil || len(res.Current.Quiz.Options) != 4 {
		t.Fatalf("question prompt missing: %+v", res.Current)
	}

	rec = call(t, ju, lh.HandleAnswer, http.MethodPost, `{"option":3}`, "go")
	res = learnResponse{}
	decode(t, rec, &res)
	if res.Answer == nil || res.Answer.Correct || res.Answer.CorrectOption != 1 || res.Answer.Explanation != "because 0" {
		t.Fatalf("wrong answer outcome: %+v", res.Answer)
	}
	if res.Snapshot.QuizDone[0] {
		t.Fatal("wrong answer must not count")
	}

	rec = call(t, ju, lh.HandleAnswer, http.MethodPost, `{"option":1}`, "go")
	res = learnResponse{}
	decode(t, rec, &res)
	if !res.Answer.Correct || !res.Snapshot.QuizDone[0] || res.Progress.OverallPercent != 75 {
		t.Fatalf("correct answer outcome: %+v %+v", res.Answer, res.View)
	}

	if rec = call(t, ju, lh.HandleAnswer, http.MethodPost, `{}`, "go"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing option: expected 400, got %d", rec.Code)
	}
	if rec = call(t, ju, lh.HandleAnswer, http.MethodPost, `{"option":7}`, "go"); rec.Code != http.StatusBadRequest {
		t.Fatalf("option out of range: expected 400, got %d", rec.Code)
	}

	rec = call(t, ju, lh.HandlePrevious, http.MethodPost, "", "go")
	res = learnResponse{}
	decode(t, rec, &res)
	if res.Current.Section != progress.SectionTechnical || res.Current.Index != 1 {
		t.Fatalf("previous from first question: %+v", res.Current)
	}

	saved, _ := store.FetchProgress(context.Background(), "u1", "go")
	if saved == nil || saved.CurrentSection != progress.SectionTechnical || !saved.QuizDone[0] {
		t.Fatalf("progress not persisted: %+v", saved)
	}
}

func TestLearnLastQuestionFinishes(t *testing.T) {
	lh := newLearnHandler(newMemoryProgress())
	ju := lh.JWTUtil
	call(t, ju, lh.HandleOpen, http.MethodGet, "", "go")
	for i := 0; i < 3; i++ {
		call(t, ju, lh.HandleNext, http.MethodPost, "", "go")
	}
	rec := call(t, ju, lh.HandleNext, http.MethodPost, "", "go")
	var res learnResponse
	decode(t, rec, &res)
	if !res.Finished || res.Current.Section != progress.SectionQuiz || res.Current.Index != 1 {
		t.Fatalf("expected finished on the last question, got %+v", res)
	}
}

func TestLearnQuizLockedUntilLessonsDone(t *testing.T) {
	lh := newLearnHandler(newMemoryProgress())
	ju := lh.JWTUtil
	call(t, ju, lh.HandleOpen, http.MethodGet, "", "go")
	call(t, ju, lh.HandleNext, http.MethodPost, "", "go")
	call(t, ju, lh.HandleNext, http.MethodPost, "", "go")

	rec := call(t, ju, lh.HandleAnswer, http.MethodPost, `{"option":1}`, "go")
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d %s", rec.Code, rec.Body)
	}
}

func TestLearnPersistenceWarning(t *testing.T) {
	store := newMemoryProgress()
	lh := newLearnHandler(store)
	ju := lh.JWTUtil
	call(t, ju, lh.HandleOpen, http.MethodGet, "", "go")

	store.fail = true
	rec := call(t, ju, lh.HandleComplete, http.MethodPost, "", "go")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a warning, got %d", rec.Code)
	}
	var res learnResponse
	decode(t, rec, &res)
	if res.Warning == "" || !res.Snapshot.TechnicalDone[0] {
		t.Fatalf("expected local change and a warning, got %+v", res)
	}
}

func TestLearnReopenKeepsLiveSession(t *testing.T) {
	store := newMemoryProgress()
	lh := newLearnHandler(store)
	ju := lh.JWTUtil
	call(t, ju, lh.HandleOpen, http.MethodGet, "", "go")

	store.fail = true
	call(t, ju, lh.HandleComplete, http.MethodPost, "", "go")
	store.fail = false

	rec := call(t, ju, lh.HandleOpen, http.MethodGet, "", "go")
	var res learnResponse
	decode(t, rec, &res)
	if !res.Snapshot.TechnicalDone[0] {
		t.Fatalf("reopen must keep the live engine state, got %+v", res.Snapshot)
	}
}

func TestLearnOpenErrors(t *testing.T) {
	lh := newLearnHandler(newMemoryProgress())
	ju := lh.JWTUtil
	if rec := call(t, ju, lh.HandleOpen, http.MethodGet, "", "closed"); rec.Code != http.StatusForbidden {
		t.Fatalf("not enrolled: expected 403, got %d", rec.Code)
	}
	rec := call(t, ju, lh.HandleOpen, http.MethodGet, "", "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown course: expected 404, got %d", rec.Code)
	}
	var body RESTStandardError
	decode(t, rec, &body)
	if body.Code != http.StatusNotFound || body.Detail == "" {
		t.Fatalf("unexpected error body %+v", body)
	}
}
