package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(&Config{BaseURL: srv.URL + "/api/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(&Config{BaseURL: "  "}); !errors.Is(err, ErrNoBaseURL) {
		t.Fatalf("expected ErrNoBaseURL, got %v", err)
	}
}

func TestDoAttachesTokenAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/course/c1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization %q", got)
		}
		if r.Header.Get("X-Request-ID") != "rid-1" {
			t.Errorf("request id not forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","name":"Go"}`))
	})

	ctx := WithRequestID(WithToken(context.Background(), "tok"), "rid-1")
	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.Get(ctx, "/course/c1", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.ID != "c1" || out.Name != "Go" {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestDoAnonymousRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("anonymous request carries a token")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("request id should be generated")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.Post(context.Background(), "/auth/register", map[string]string{"email": "a@b.c"}, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusNotFound, `{"error":"Course not found"}`, ErrNotFound},
		{http.StatusConflict, `{"error":"Email already registered"}`, ErrConflict},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		})
		if err := c.Get(context.Background(), "/x", nil); !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestUnauthorizedRunsHook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	var dropped string
	c.OnUnauthorized(func(ctx context.Context) {
		dropped, _ = TokenFromContext(ctx)
	})
	err := c.Get(WithToken(context.Background(), "stale"), "/user/profile", nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if dropped != "stale" {
		t.Fatalf("hook not called with the caller context, got %q", dropped)
	}
}

func TestGenericErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Course name is required"}`))
	})
	err := c.Post(context.Background(), "/admin/courses", struct{}{}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Course name is required" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestTokenSourceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})
	boom := errors.New("kv down")
	c.SetTokenSource(func(ctx context.Context) (string, error) { return "", boom })
	if err := c.Get(context.Background(), "/x", nil); !errors.Is(err, boom) {
		t.Fatalf("expected token source error, got %v", err)
	}
}
