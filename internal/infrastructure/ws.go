package infra

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// StreamHandler serves one websocket connection until ctx is done or it returns
type StreamHandler func(ctx context.Context, c echo.Context, ws *WebsocketConn) error

// Websocket upgrades requests and keeps connections alive with ping/pong
type Websocket struct {
	upgrader     websocket.Upgrader
	writeWait    time.Duration
	pongWait     time.Duration
	pingInterval time.Duration
}

// NewWebsocket accept upgrades from allowOrigins, "*" allows any origin.
// Without allowOrigins only same host requests are upgraded.
func NewWebsocket(allowOrigins []string) *Websocket {
	pongWait := 30 * time.Second
	return &Websocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      originChecker(allowOrigins),
			HandshakeTimeout: 3 * time.Second,
		},
		writeWait:    10 * time.Second,
		pongWait:     pongWait,
		pingInterval: pongWait * 9 / 10,
	}
}

// originChecker nil keeps the gorilla same host check
func originChecker(allowOrigins []string) func(r *http.Request) bool {
	if len(allowOrigins) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// not a browser
			return true
		}
		return allowed[strings.ToLower(origin)]
	}
}

// WebsocketConn serializes writes on a gorilla connection
type WebsocketConn struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	writeWait time.Duration
}

// WriteJSON write v as a text frame
func (wc *WebsocketConn) WriteJSON(v interface{}) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.conn.SetWriteDeadline(time.Now().Add(wc.writeWait))
	return wc.conn.WriteJSON(v)
}

func (wc *WebsocketConn) ping() error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return wc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wc.writeWait))
}

// WithHeartbeat upgrade the request and keep the connection alive with pings
func (w *Websocket) WithHeartbeat(handler StreamHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := w.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// upgrader has already replied to the client
			return nil
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()

		wc := &WebsocketConn{conn: conn, writeWait: w.writeWait}
		go w.readRoutine(conn, cancel)
		go w.heartbeatRoutine(ctx, wc, cancel)

		handler(ctx, c, wc)
		wc.mu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(w.writeWait))
		wc.mu.Unlock()
		return nil
	}
}

// readRoutine drains client frames so pong and close frames get processed
func (w *Websocket) readRoutine(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(w.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(w.pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (w *Websocket) heartbeatRoutine(ctx context.Context, wc *WebsocketConn, cancel context.CancelFunc) {
	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				cancel()
				return
			}
		}
	}
}
