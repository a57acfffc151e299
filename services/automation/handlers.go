package automation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"automation-builder/api/internal/respond"
	"automation-builder/api/services/workflow"
)

// RegisterRoutes mounts the automation endpoints on r.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/automations", s.HandleListAutomations).Methods(http.MethodGet)
	r.HandleFunc("/automations", s.HandleCreateAutomation).Methods(http.MethodPost)
	r.HandleFunc("/automations/{id}", s.HandleGetAutomation).Methods(http.MethodGet)
	r.HandleFunc("/automations/{id}", s.HandleUpdateAutomation).Methods(http.MethodPut)
}

type persistResponse struct {
	ID string `json:"id"`
}

func (s *Service) HandleGetAutomation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slog.Debug("Returning automation for id", "id", id)

	a, err := s.Load(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (s *Service) HandleListAutomations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.List(r.Context())
	if err != nil {
		slog.Error("Error listing automations", "error", err)
		respond.Error(w, http.StatusInternalServerError, ErrInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, summaries)
}

func (s *Service) HandleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	var a workflow.Automation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		slog.Error("Invalid JSON payload", "error", err)
		respond.Error(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}
	// ids are assigned by the store
	a.ID = ""

	id, err := s.Persist(r.Context(), a)
	if err != nil {
		writeStoreError(w, "", err)
		return
	}
	respond.JSON(w, http.StatusCreated, persistResponse{ID: id})
}

func (s *Service) HandleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var a workflow.Automation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		slog.Error("Invalid JSON payload", "id", id, "error", err)
		respond.Error(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}
	a.ID = id

	if _, err := s.Persist(r.Context(), a); err != nil {
		writeStoreError(w, id, err)
		return
	}
	respond.JSON(w, http.StatusOK, persistResponse{ID: id})
}

func writeStoreError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, ErrAutomationNotFound):
		respond.Error(w, http.StatusNotFound, ErrAutomationNotFound)
	case errors.Is(err, workflow.ErrInvalidMetadata):
		respond.Error(w, http.StatusBadRequest, err)
	default:
		slog.Error("Automation store error", "id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, ErrInternalServerError)
	}
}
