package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/pinchgrab/internal/detector"
	"github.com/ayusman/pinchgrab/internal/scene"
	"github.com/gorilla/websocket"
)

// WriteTimeout bounds a single websocket write.
const WriteTimeout = 2 * time.Second

var (
	errUnknownMessage       = errors.New("unknown message type")
	errMissingShowLandmarks = errors.New("show_landmarks is required")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SceneSource publishes rendered snapshots.
type SceneSource interface {
	Subscribe() (<-chan scene.Snapshot, func())
}

// Viewport receives viewer-side changes.
type Viewport interface {
	OnResize(width, height int) error
	SetShowLandmarks(show bool) error
}

// clientMessage is sent by viewers on /api/scene.
type clientMessage struct {
	Type          string `json:"type"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	ShowLandmarks *bool  `json:"show_landmarks,omitempty"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// SceneHandler streams snapshots to viewers and applies their resize and
// settings messages.
type SceneHandler struct {
	source   SceneSource
	viewport Viewport
}

// NewSceneHandler creates a new SceneHandler.
func NewSceneHandler(source SceneSource, viewport Viewport) *SceneHandler {
	return &SceneHandler{source: source, viewport: viewport}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	snapshots, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// gorilla connections allow one concurrent writer.
	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				write(errorMessage{Type: "error", Error: "invalid message"})
				continue
			}
			if err := h.apply(msg); err != nil {
				write(errorMessage{Type: "error", Error: err.Error()})
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case snap := <-snapshots:
			if err := write(snap); err != nil {
				return
			}
		}
	}
}

func (h *SceneHandler) apply(msg clientMessage) error {
	switch msg.Type {
	case "resize":
		return h.viewport.OnResize(msg.Width, msg.Height)
	case "settings":
		if msg.ShowLandmarks == nil {
			return errMissingShowLandmarks
		}
		return h.viewport.SetShowLandmarks(*msg.ShowLandmarks)
	default:
		return errUnknownMessage
	}
}

// landmarkMessage is what /api/landmarks clients receive.
type landmarkMessage struct {
	Hands     []detector.HandLandmarks `json:"hands"`
	Timestamp int64                    `json:"timestamp"`
}

// LandmarkHub fans landmark frames out to websocket clients. Publish is
// registered as a tracking frame handler; each client keeps only the
// newest frame so a slow viewer never stalls detection.
type LandmarkHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewLandmarkHub creates an empty hub.
func NewLandmarkHub() *LandmarkHub {
	return &LandmarkHub{clients: make(map[*websocket.Conn]chan []byte)}
}

// Publish sends frame to every connected client.
func (h *LandmarkHub) Publish(frame detector.LandmarkFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}

	hands := frame.Hands
	if hands == nil {
		hands = []detector.HandLandmarks{}
	}
	msg, err := json.Marshal(landmarkMessage{Hands: hands, Timestamp: frame.Timestamp.UnixMilli()})
	if err != nil {
		log.Printf("landmark encode error: %v", err)
		return
	}

	for _, ch := range h.clients {
		select {
		case <-ch:
		default:
		}
		ch <- msg
	}
}

// Clients returns the number of connected clients.
func (h *LandmarkHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarkHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan []byte, 1)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Reads only detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case msg := <-ch:
			conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
