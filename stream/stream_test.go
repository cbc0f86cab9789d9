package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/sphfluid/fluid"
)

func testVertexData(n int) []byte {
	ps := make([]fluid.Particle, n)
	for i := range ps {
		ps[i] = fluid.NewDynamic(float32(i), float32(2*i))
	}
	return fluid.VertexBytes(ps)
}

func TestFrameRoundTrip(t *testing.T) {
	vertex := testVertexData(3)
	frame := EncodeFrame(nil, 42, vertex)

	if len(frame) != HeaderSize+3*fluid.ParticleStride {
		t.Fatalf("frame length = %d, want %d", len(frame), HeaderSize+3*fluid.ParticleStride)
	}
	h, payload, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if h.Count != 3 || h.Tick != 42 {
		t.Errorf("header = %+v, want count 3 tick 42", h)
	}
	if string(payload) != string(vertex) {
		t.Error("payload differs from vertex data")
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	good := EncodeFrame(nil, 1, testVertexData(2))
	tests := []struct {
		name  string
		frame []byte
	}{
		{"short", good[:8]},
		{"bad magic", append([]byte("XXXX"), good[4:]...)},
		{"truncated payload", good[:len(good)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeFrame(tt.frame); !errors.Is(err, ErrFrame) {
				t.Errorf("DecodeFrame err = %v, want ErrFrame", err)
			}
		})
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	cfg := fluid.DefaultConfig()
	hub := NewHub(NewLayout(cfg))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv.URL)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var layout Layout
	if err := conn.ReadJSON(&layout); err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if layout.Stride != fluid.ParticleStride || layout.DensityOffset != fluid.DensityOffset {
		t.Errorf("layout = %+v", layout)
	}
	if layout.Width != cfg.Width || layout.H != cfg.H {
		t.Errorf("layout domain = %vx%v h=%v", layout.Width, layout.Height, layout.H)
	}

	// The client is registered before the layout is written.
	if n := hub.Clients(); n != 1 {
		t.Fatalf("Clients() = %d, want 1", n)
	}

	frame := EncodeFrame(nil, 7, testVertexData(4))
	if sent := hub.Broadcast(frame); sent != 1 {
		t.Fatalf("Broadcast sent %d, want 1", sent)
	}

	mt, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", mt)
	}
	h, _, err := DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if h.Tick != 7 || h.Count != 4 {
		t.Errorf("header = %+v, want tick 7 count 4", h)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub(NewLayout(fluid.DefaultConfig()))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv.URL)
	var layout Layout
	if err := conn.ReadJSON(&layout); err != nil {
		t.Fatalf("read layout: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after disconnect")
		}
		hub.Broadcast(EncodeFrame(nil, 1, nil))
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubCloseRejectsNewClients(t *testing.T) {
	hub := NewHub(NewLayout(fluid.DefaultConfig()))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Close()
	conn := dial(t, srv.URL)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read error from a closed hub")
	}
	if n := hub.Clients(); n != 0 {
		t.Errorf("Clients() = %d after Close, want 0", n)
	}
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(NewLayout(fluid.DefaultConfig()))
	addr, err := Serve(ctx, "127.0.0.1:0", "/ws", hub)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	conn := dial(t, "http://"+addr.String()+"/ws")
	var layout Layout
	if err := conn.ReadJSON(&layout); err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if layout.Stride != fluid.ParticleStride {
		t.Errorf("stride = %d", layout.Stride)
	}
}
