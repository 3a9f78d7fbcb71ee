package service

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/olahol/melody"

	"github.com/mmynk/billvault/internal/refresh"
)

// StatusHub pushes refresh status transitions to websocket clients. A new
// client first receives every known status, then each transition as it
// happens, one JSON Status per message.
type StatusHub struct {
	m     *melody.Melody
	board *refresh.Board
	log   *slog.Logger
}

// NewStatusHub subscribes a hub to board.
func NewStatusHub(board *refresh.Board, logger *slog.Logger) *StatusHub {
	h := &StatusHub{
		m:     melody.New(),
		board: board,
		log:   logger.With("component", "status_hub"),
	}
	h.m.HandleConnect(h.onConnect)
	h.m.HandleError(func(s *melody.Session, err error) {
		h.log.Debug("websocket error", "remote_addr", s.Request.RemoteAddr, "error", err)
	})
	board.Subscribe(h.publish)
	return h
}

func (h *StatusHub) onConnect(s *melody.Session) {
	for _, st := range h.board.All() {
		data, err := json.Marshal(st)
		if err != nil {
			continue
		}
		if err := s.Write(data); err != nil {
			return
		}
	}
}

func (h *StatusHub) publish(st refresh.Status) {
	if h.m.Len() == 0 {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		h.log.Error("failed to encode status", "entry_id", st.EntryID, "error", err)
		return
	}
	if err := h.m.Broadcast(data); err != nil {
		h.log.Debug("broadcast dropped", "error", err)
	}
}

// ServeHTTP upgrades the request to a websocket.
func (h *StatusHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.m.HandleRequest(w, r); err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
	}
}

// Close disconnects every client.
func (h *StatusHub) Close() error {
	return h.m.Close()
}
