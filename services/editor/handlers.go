package editor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"automation-builder/api/internal/respond"
	"automation-builder/api/services/automation"
	"automation-builder/api/services/canvas"
	"automation-builder/api/services/catalog"
	"automation-builder/api/services/inspector"
	"automation-builder/api/services/workflow"
)

type Handler struct {
	manager *Manager
	catalog *catalog.Catalog
}

func NewHandler(m *Manager, c *catalog.Catalog) *Handler {
	return &Handler{manager: m, catalog: c}
}

// RegisterRoutes mounts the template palette and editor session endpoints on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/templates", h.HandleListTemplates).Methods(http.MethodGet)

	r.HandleFunc("/editor/sessions", h.HandleOpenSession).Methods(http.MethodPost)
	r.HandleFunc("/editor/sessions/{id}", h.HandleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/editor/sessions/{id}", h.HandleCloseSession).Methods(http.MethodDelete)
	r.HandleFunc("/editor/sessions/{id}/events", h.HandleApplyEvents).Methods(http.MethodPost)
	r.HandleFunc("/editor/sessions/{id}/inspector", h.HandleGetInspector).Methods(http.MethodGet)
	r.HandleFunc("/editor/sessions/{id}/inspector", h.HandleEditInspector).Methods(http.MethodPatch)
	r.HandleFunc("/editor/sessions/{id}/save", h.HandleSave).Methods(http.MethodPost)
}

type openRequest struct {
	AutomationID string `json:"automationId"`
}

type eventsRequest struct {
	Events []canvas.Event `json:"events"`
}

type eventsResponse struct {
	Results []canvas.Result `json:"results"`
	Session *View           `json:"session"`
}

type inspectorResponse struct {
	Inspector *inspector.Panel `json:"inspector"`
}

func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.catalog.Groups())
}

func (h *Handler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	// the body is optional
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Invalid JSON payload", "error", err)
		respond.Error(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	v, err := h.manager.Open(r.Context(), req.AutomationID)
	if err != nil {
		writeEditorError(w, "", err)
		return
	}
	respond.JSON(w, http.StatusCreated, v)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	v, err := h.manager.View(id)
	if err != nil {
		writeEditorError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.manager.Close(id); err != nil {
		writeEditorError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleApplyEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Invalid JSON payload", "session", id, "error", err)
		respond.Error(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	results, v, err := h.manager.Apply(id, req.Events)
	if err != nil {
		writeEditorError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, eventsResponse{Results: results, Session: v})
}

func (h *Handler) HandleGetInspector(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.manager.Inspect(id)
	if err != nil {
		writeEditorError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, inspectorResponse{Inspector: p})
}

func (h *Handler) HandleEditInspector(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var edit InspectorEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		slog.Error("Invalid JSON payload", "session", id, "error", err)
		respond.Error(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	v, err := h.manager.Edit(id, edit)
	if err != nil {
		writeEditorError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var meta workflow.Metadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		slog.Error("Invalid JSON payload", "session", id, "error", err)
		respond.Error(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	res, err := h.manager.Save(r.Context(), id, meta)
	if err != nil {
		writeEditorError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func writeEditorError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(w, http.StatusNotFound, ErrSessionNotFound)
	case errors.Is(err, automation.ErrAutomationNotFound):
		respond.Error(w, http.StatusNotFound, automation.ErrAutomationNotFound)
	case errors.Is(err, ErrSaveInProgress):
		respond.Error(w, http.StatusConflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		respond.Error(w, http.StatusGatewayTimeout, workflow.ErrSaveFailed)
	case errors.Is(err, workflow.ErrSaveFailed):
		slog.Error("Automation save failed", "session", id, "error", err)
		respond.Error(w, http.StatusBadGateway, workflow.ErrSaveFailed)
	case errors.Is(err, workflow.ErrEmptyGraph),
		errors.Is(err, workflow.ErrInvalidMetadata),
		errors.Is(err, workflow.ErrSelfConnection),
		errors.Is(err, workflow.ErrInvalidStep),
		errors.Is(err, inspector.ErrNoSelection),
		errors.Is(err, inspector.ErrInvalidValue),
		errors.Is(err, ErrNoLoader):
		respond.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, workflow.ErrUnknownNode), errors.Is(err, workflow.ErrUnknownTemplate):
		// stale ids from the client
		slog.Warn("Editor request referenced a missing id", "session", id, "error", err)
		respond.Error(w, http.StatusBadRequest, err)
	default:
		slog.Error("Editor error", "session", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, ErrInternalServerError)
	}
}
