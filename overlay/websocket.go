package overlay

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ClientMessage is what the browser sends: overlay actions and the key and
// pointer events of its document.
type ClientMessage struct {
	Type   string `json:"type"` // open, close, clear, type, keydown, pointerdown
	Text   string `json:"text,omitempty"`
	Key    string `json:"key,omitempty"`
	Inside bool   `json:"inside,omitempty"`
}

type ServerMessage struct {
	Type  string `json:"type"` // state or error
	State *State `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// Handler runs one search session per websocket connection.
type Handler struct {
	searcher Searcher
	opts     Options
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(searcher Searcher, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		searcher: searcher,
		opts:     opts,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	logger := h.logger.With(zap.String("session", uuid.NewString()))
	opts := h.opts
	opts.Logger = logger
	target := NewEventTarget()
	session := NewSession(h.searcher, target, opts)
	logger.Debug("overlay session connected")

	errs := make(chan string, 8)
	done := make(chan struct{})
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		h.writeLoop(ws, session, errs, done)
	}()

	for {
		var msg ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		if err := h.apply(session, target, msg); err != nil {
			select {
			case errs <- err.Error():
			default:
			}
		}
	}

	session.Close()
	session.Wait()
	close(done)
	writer.Wait()
	logger.Debug("overlay session disconnected")
}

func (h *Handler) apply(session *Session, target *EventTarget, msg ClientMessage) error {
	switch msg.Type {
	case "open":
		return session.Open()
	case "close":
		session.Close()
	case "clear":
		session.Clear()
	case "type":
		session.Type(msg.Text)
	case "keydown":
		target.Dispatch(Event{Type: EventKeyDown, Key: msg.Key})
	case "pointerdown":
		target.Dispatch(Event{Type: EventPointerDown, InsideForm: msg.Inside})
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (h *Handler) writeLoop(ws *websocket.Conn, session *Session, errs <-chan string, done <-chan struct{}) {
	send := func() bool {
		state := session.Snapshot()
		return ws.WriteJSON(ServerMessage{Type: "state", State: &state}) == nil
	}
	if !send() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-session.Changes():
			if !send() {
				return
			}
		case e := <-errs:
			if err := ws.WriteJSON(ServerMessage{Type: "error", Error: e}); err != nil {
				return
			}
		}
	}
}
