package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func TestOriginChecker(t *testing.T) {
	cases := []struct {
		allow  []string
		origin string
		want   bool
	}{
		{[]string{"https://learn.example.com"}, "https://learn.example.com", true},
		{[]string{"https://learn.example.com/"}, "https://Learn.example.com", true},
		{[]string{"https://learn.example.com"}, "https://evil.example.com", false},
		{[]string{"https://learn.example.com"}, "", true},
		{[]string{"*"}, "https://evil.example.com", true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := originChecker(tc.allow)(r); got != tc.want {
			t.Errorf("allow %v, origin %q: expected %v, got %v", tc.allow, tc.origin, tc.want, got)
		}
	}
	if originChecker(nil) != nil {
		t.Error("empty allow list must fall back to the same host check")
	}
}

func TestWebsocketRejectsForeignOrigin(t *testing.T) {
	e := echo.New()
	ws := NewWebsocket([]string{"https://learn.example.com"})
	e.GET("/ws", ws.WithHeartbeat(func(ctx context.Context, c echo.Context, wc *WebsocketConn) error {
		return wc.WriteJSON(map[string]string{"hello": "world"})
	}))
	srv := httptest.NewServer(e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, res, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	if err == nil {
		t.Fatal("expected the upgrade to be refused")
	}
	if res == nil || res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", res)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://learn.example.com"}})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil || msg["hello"] != "world" {
		t.Fatalf("unexpected message %v: %v", msg, err)
	}
}
