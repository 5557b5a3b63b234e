package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/codequiz/internal/fetch"
	"github.com/gokatarajesh/codequiz/internal/quiz"
	"github.com/gokatarajesh/codequiz/internal/session"
	httperrors "github.com/gokatarajesh/codequiz/pkg/http/errors"
)

// ClientIDHeader identifies the caller for the one-attempt-per-client rule.
const ClientIDHeader = "X-Client-ID"

// SessionHandlers exposes REST endpoints for quiz sessions.
type SessionHandlers struct {
	manager *session.Manager
	logger  zerolog.Logger
}

func NewSessionHandlers(manager *session.Manager, logger zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		manager: manager,
		logger:  logger.With().Str("component", "session_http").Logger(),
	}
}

type answerRequest struct {
	Option string `json:"option"`
}

// Create starts a new session: POST /v1/sessions
func (h *SessionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var cfg quiz.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz configuration body")
		return
	}

	ctrl, err := h.manager.Create(r.Context(), clientKey(r), cfg)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/sessions/"+ctrl.ID().String())
	writeJSON(w, http.StatusAccepted, ctrl.Snapshot())
}

// Get returns the current snapshot: GET /v1/sessions/{id}
func (h *SessionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// Answer records a letter: POST /v1/sessions/{id}/answer
func (h *SessionHandlers) Answer(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid answer body")
		return
	}
	if strings.TrimSpace(req.Option) == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "option is required", "option")
		return
	}

	snap, err := ctrl.Select(req.Option)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Advance locks the current answer: POST /v1/sessions/{id}/advance
func (h *SessionHandlers) Advance(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	snap, err := ctrl.Advance()
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Restart fetches a fresh quiz with the same config: POST /v1/sessions/{id}/restart
func (h *SessionHandlers) Restart(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	ctrl, err := h.manager.Restart(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ctrl.Snapshot())
}

// Delete discards a session: DELETE /v1/sessions/{id}
func (h *SessionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.manager.Delete(id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandlers) lookup(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	id, ok := sessionID(w, r)
	if !ok {
		return nil, false
	}
	ctrl, err := h.manager.Get(id)
	if err != nil {
		h.respondError(w, err)
		return nil, false
	}
	return ctrl, true
}

func (h *SessionHandlers) respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("session request failed")
		httperrors.RespondInternalError(w, "Something went wrong")
		return
	}
	switch status {
	case http.StatusNotFound:
		httperrors.RespondNotFound(w, code, err.Error())
	case http.StatusConflict:
		httperrors.RespondConflict(w, code, err.Error())
	case http.StatusBadRequest:
		httperrors.RespondBadRequest(w, code, err.Error())
	default:
		var qe *quiz.Error
		if errors.As(err, &qe) && qe.Status > 0 {
			httperrors.RespondErrorWithDetails(w, status, code, err.Error(), map[string]interface{}{"upstream_status": qe.Status})
			return
		}
		httperrors.RespondError(w, status, code, err.Error())
	}
}

// classify maps domain errors onto HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, httperrors.ErrCodeSessionNotFound
	case errors.Is(err, fetch.ErrAttemptInFlight):
		return http.StatusConflict, httperrors.ErrCodeAttemptInFlight
	case errors.Is(err, session.ErrSessionBusy):
		return http.StatusConflict, httperrors.ErrCodeSessionBusy
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone, httperrors.ErrCodeSessionClosed
	case errors.Is(err, quiz.ErrNoAnswerSelected):
		return http.StatusUnprocessableEntity, httperrors.ErrCodeNoAnswerSelected
	case errors.Is(err, quiz.ErrUnknownOption):
		return http.StatusBadRequest, httperrors.ErrCodeUnknownOption
	case errors.Is(err, quiz.ErrNotAnswerable):
		return http.StatusConflict, httperrors.ErrCodeNotAnswerable
	}

	switch quiz.KindOf(err) {
	case quiz.KindConfig:
		return http.StatusBadRequest, httperrors.ErrCodeValidationFailed
	case quiz.KindTransport:
		return http.StatusBadGateway, httperrors.ErrCodeUpstreamError
	case quiz.KindEnvelope, quiz.KindParse, quiz.KindStructure:
		return http.StatusBadGateway, httperrors.ErrCodeGenerationFailed
	}
	return http.StatusInternalServerError, httperrors.ErrCodeInternalError
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

// clientKey prefers the explicit client header and falls back to the
// caller's host.
func clientKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
