package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/directory"
	"github.com/hamed0406/pingboard/internal/engine"
)

var upgrader = websocket.Upgrader{
	// origins are already enforced by CORS and the API key
	CheckOrigin: func(r *http.Request) bool { return true },
}

type streamMessage struct {
	Type    string `json:"type"` // progress, report, error
	Payload any    `json:"payload"`
}

// handleSweepStream runs a sweep and pushes each progress step, then the
// final report, over a websocket.
func (s *Server) handleSweepStream(w http.ResponseWriter, r *http.Request) {
	all, err := s.Directory.List(r.Context())
	if err != nil {
		s.directoryError(w, err)
		return
	}
	eps := directory.Sorted(all)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket_upgrade_error", zap.Error(err))
		return
	}
	defer conn.Close()

	// closed when the client goes away
	gone, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// room for every progress step plus the closing message
	out := make(chan streamMessage, len(eps)+1)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range out {
			if err := conn.WriteJSON(msg); err != nil {
				s.Logger.Debug("websocket_write_error", zap.Error(err))
				return
			}
		}
	}()

	send := func(msg streamMessage) {
		select {
		case <-gone.Done():
		case out <- msg:
		}
	}

	rep, err := s.Engine.SweepAll(context.WithoutCancel(r.Context()), eps, func(p engine.Progress) {
		send(streamMessage{Type: "progress", Payload: p})
	})
	switch {
	case errors.Is(err, engine.ErrSweepInProgress):
		send(streamMessage{Type: "error", Payload: err.Error()})
	case err != nil:
		send(streamMessage{Type: "error", Payload: "sweep failed"})
	default:
		send(streamMessage{Type: "report", Payload: rep})
	}
	close(out)
	<-writerDone

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}
