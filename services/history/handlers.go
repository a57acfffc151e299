package history

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"automation-builder/api/internal/metrics"
	"automation-builder/api/internal/respond"
)

var (
	ErrInternalServerError = errors.New("internal server error")
	ErrInvalidJSON         = errors.New("invalid JSON")
)

type Handler struct {
	conversations *Conversations
	metrics       *metrics.Metrics
}

func NewHandler(c *Conversations, m *metrics.Metrics) *Handler {
	return &Handler{conversations: c, metrics: m}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/inbox/conversations/{id}/messages", h.HandleGetMessages).Methods(http.MethodGet)
	r.HandleFunc("/inbox/conversations/{id}/messages", h.HandleAppendMessage).Methods(http.MethodPost)
}

func (h *Handler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	msgs, err := h.conversations.Messages(r.Context(), id)
	if err != nil {
		writeHistoryError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, msgs)
}

func (h *Handler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var m Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		slog.Error("Invalid JSON payload", "conversation", id, "error", err)
		respond.Error(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	msgs, err := h.conversations.Append(r.Context(), id, m)
	if err != nil {
		writeHistoryError(w, id, err)
		return
	}
	h.metrics.InboxMessages.Inc()
	respond.JSON(w, http.StatusCreated, msgs)
}

func writeHistoryError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrInvalidConversation):
		respond.Error(w, http.StatusBadRequest, err)
	default:
		slog.Error("Conversation history error", "conversation", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, ErrInternalServerError)
	}
}
