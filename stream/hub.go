package stream

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WriteTimeout bounds a single frame write to one client.
const WriteTimeout = 2 * time.Second

// Hub fans binary frames out to every connected websocket client.
type Hub struct {
	upgrader websocket.Upgrader
	layout   Layout

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	closed  bool
}

// NewHub creates a hub that greets clients with layout.
func NewHub(layout Layout) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		layout:  layout,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		var herr websocket.HandshakeError
		if !errors.As(err, &herr) {
			slog.Warn("websocket upgrade failed", "error", err)
		}
		return
	}

	// The layout goes out before any frame can be broadcast to this client.
	connMu := &sync.Mutex{}
	connMu.Lock()
	if !h.add(conn, connMu) {
		connMu.Unlock()
		conn.Close()
		return
	}
	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	err = conn.WriteJSON(h.layout)
	connMu.Unlock()
	if err != nil {
		h.remove(conn)
		return
	}
	slog.Info("stream client connected", "remote", r.RemoteAddr, "clients", h.Clients())

	// Clients only send control frames; reading drives close detection.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("stream client read error", "error", err)
			}
			break
		}
	}
	h.remove(conn)
	slog.Info("stream client disconnected", "remote", r.RemoteAddr, "clients", h.Clients())
}

func (h *Hub) add(conn *websocket.Conn, mu *sync.Mutex) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[conn] = mu
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast writes frame to every client as one binary message and drops
// clients whose write fails. It returns the number of successful writes.
func (h *Hub) Broadcast(frame []byte) int {
	var failed []*websocket.Conn
	sent := 0

	h.mu.RLock()
	for conn, mu := range h.clients {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		err := conn.WriteMessage(websocket.BinaryMessage, frame)
		mu.Unlock()
		if err != nil {
			slog.Debug("stream write failed", "error", err)
			failed = append(failed, conn)
			continue
		}
		sent++
	}
	h.mu.RUnlock()

	for _, conn := range failed {
		h.remove(conn)
	}
	return sent
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	clear(h.clients)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Serve listens on addr and serves the hub at path until ctx is done.
// It returns the bound address, which differs from addr when addr uses
// port 0.
func Serve(ctx context.Context, addr, path string, hub *Hub) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(path, hub)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stream server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("stream listening", "addr", ln.Addr().String(), "path", path)
	return ln.Addr(), nil
}
