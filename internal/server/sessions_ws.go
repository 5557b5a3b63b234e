package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/codequiz/internal/session"
	httperrors "github.com/gokatarajesh/codequiz/pkg/http/errors"
	ws "github.com/gokatarajesh/codequiz/pkg/http/ws"
)

// SessionWSHandler streams session snapshots and accepts player commands
// over a WebSocket.
type SessionWSHandler struct {
	manager  *session.Manager
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewSessionWSHandler(manager *session.Manager, hub *ws.Hub, upgrader websocket.Upgrader, logger zerolog.Logger) *SessionWSHandler {
	return &SessionWSHandler{
		manager:  manager,
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "session_ws").Logger(),
	}
}

// SnapshotPublisher returns a session notify hook that pushes every snapshot
// to the session's watchers.
func SnapshotPublisher(hub *ws.Hub, logger zerolog.Logger) func(session.Snapshot) {
	return func(snap session.Snapshot) {
		msg, err := ws.NewMessage(ws.TypeSessionState, snap)
		if err != nil {
			logger.Error().Err(err).Msg("encode session snapshot")
			return
		}
		_ = hub.Broadcast(snap.ID, msg)
	}
}

// HandleWebSocket upgrades GET /ws/sessions/{id}.
func (h *SessionWSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	ctrl, err := h.manager.Get(id)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	logger := h.logger.With().Str("session_id", id.String()).Logger()
	wsConn := ws.NewConnection(conn, logger)
	// Queue the initial state and join the broadcast set in one step so a
	// concurrent update cannot arrive ahead of it.
	ctrl.Subscribe(func(snap session.Snapshot) {
		if msg, err := ws.NewMessage(ws.TypeSessionState, snap); err == nil {
			_ = wsConn.Send(msg)
		}
		h.hub.Register(id, wsConn)
	})
	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(r, id, wsConn, msg)
	})

	h.hub.Unregister(id, wsConn)
}

func (h *SessionWSHandler) handleMessage(r *http.Request, id uuid.UUID, conn *ws.Connection, msg ws.Message) error {
	ctrl, err := h.manager.Get(id)
	if err != nil {
		return h.sendError(conn, msg, httperrors.ErrCodeSessionNotFound, "Session not found")
	}

	switch msg.Type {
	case ws.TypeSelectAnswer:
		var req ws.SelectAnswerPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Option == "" {
			return h.sendError(conn, msg, httperrors.ErrCodeInvalidPayload, "Invalid select_answer payload")
		}
		_, err = ctrl.Select(req.Option)
	case ws.TypeAdvance:
		_, err = ctrl.Advance()
	case ws.TypeRestart:
		_, err = h.manager.Restart(r.Context(), id)
	case ws.TypePing:
		return conn.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
	default:
		return h.sendError(conn, msg, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}

	if err != nil {
		_, code := classify(err)
		return h.sendError(conn, msg, code, err.Error())
	}
	return nil
}

func (h *SessionWSHandler) sendError(conn *ws.Connection, req ws.Message, code, message string) error {
	reply, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	reply.RequestID = req.RequestID
	if err := conn.Send(reply); err != nil && !errors.Is(err, ws.ErrConnectionClosed) {
		return err
	}
	return nil
}
