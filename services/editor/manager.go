// Package editor hosts open editor sessions and exposes them over HTTP.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"automation-builder/api/internal/metrics"
	"automation-builder/api/services/canvas"
	"automation-builder/api/services/inspector"
	"automation-builder/api/services/workflow"
)

// Loader fetches a saved automation for editing.
type Loader interface {
	Load(ctx context.Context, id string) (*workflow.Automation, error)
}

type Manager struct {
	templates   workflow.Templates
	persister   workflow.Persister
	loader      Loader
	metrics     *metrics.Metrics
	saveTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	newID    func() string
	now      func() time.Time
}

// NewManager returns a manager that saves through p and seeds sessions through
// l. l may be nil, in which case only new automations can be edited.
func NewManager(templates workflow.Templates, p workflow.Persister, l Loader, m *metrics.Metrics, saveTimeout time.Duration) *Manager {
	return &Manager{
		templates:   templates,
		persister:   p,
		loader:      l,
		metrics:     m,
		saveTimeout: saveTimeout,
		sessions:    map[string]*Session{},
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Open starts a session. With an automation id the saved steps are loaded
// and laid out as a linear chain.
func (m *Manager) Open(ctx context.Context, automationID string) (*View, error) {
	g := workflow.NewGraph(m.templates)
	var a *workflow.Automation

	if automationID != "" {
		if m.loader == nil {
			return nil, ErrNoLoader
		}
		var err error
		a, err = m.loader.Load(ctx, automationID)
		if err != nil {
			return nil, err
		}
		g, err = workflow.Deserialize(m.templates, a.Workflow.Steps)
		if err != nil {
			return nil, fmt.Errorf("automation %s: %w", automationID, err)
		}
	}

	s := newSession(m.newID(), g, m.now().UTC())
	if a != nil {
		s.automationID = automationID
		s.name = a.Name
		s.description = a.Description
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.metrics.SessionsOpened.Inc()
	m.metrics.ActiveSessions.Inc()
	slog.Info("Opened editor session", "session", s.id, "automation", automationID, "steps", g.Len())

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

func (m *Manager) session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// View returns the current state of a session.
func (m *Manager) View(id string) (*View, error) {
	s, err := m.session(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.view(), nil
}

// Close discards a session and its unsaved changes.
func (m *Manager) Close(id string) error {
	s, err := m.session(id)
	if err != nil {
		return err
	}
	m.close(s)
	slog.Info("Closed editor session", "session", id)
	return nil
}

func (m *Manager) close(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()

	s.mu.Lock()
	wasOpen := !s.closed
	s.closed = true
	s.mu.Unlock()

	if wasOpen {
		m.metrics.ActiveSessions.Dec()
	}
}

// Apply runs canvas events in order. A failing event is reported in its
// result and does not stop the batch.
func (m *Manager) Apply(id string, events []canvas.Event) ([]canvas.Result, *View, error) {
	s, err := m.session(id)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return nil, nil, err
	}

	results := s.applyEvents(events)
	for _, res := range results {
		eventType := res.Type
		if !canvas.KnownEvent(eventType) {
			eventType = "unknown"
		}
		outcome := "ok"
		if res.Error != "" {
			outcome = "error"
			slog.Debug("Canvas event failed", "session", id, "type", res.Type, "error", res.Error)
		}
		m.metrics.CanvasEvents.WithLabelValues(eventType, outcome).Inc()
	}
	return results, s.view(), nil
}

// Inspect returns the inspector panel, or nil when nothing is selected.
func (m *Manager) Inspect(id string) (*inspector.Panel, error) {
	v, err := m.View(id)
	if err != nil {
		return nil, err
	}
	return v.Inspector, nil
}

// Edit applies inspector changes to the selected node.
func (m *Manager) Edit(id string, edit InspectorEdit) (*View, error) {
	s, err := m.session(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return nil, err
	}

	if err := s.applyEdit(edit); err != nil {
		return nil, err
	}
	return s.view(), nil
}

// Save persists the session's graph. The session refuses edits while the
// save runs. On success it is closed; on failure it stays open for a retry.
func (m *Manager) Save(ctx context.Context, id string, meta workflow.Metadata) (*workflow.SaveResult, error) {
	s, err := m.session(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.saving = true
	// details not resent by the client keep the loaded automation's values
	if meta.ID == "" {
		meta.ID = s.automationID
	}
	if meta.Name == "" {
		meta.Name = s.name
	}
	if meta.Description == "" {
		meta.Description = s.description
	}
	s.mu.Unlock()

	start := time.Now()
	res, err := workflow.Save(ctx, s.graph, meta, m.persister, m.saveTimeout)
	m.metrics.SaveDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	s.saving = false
	s.mu.Unlock()

	if err != nil {
		m.metrics.Saves.WithLabelValues(saveOutcome(err)).Inc()
		return nil, err
	}

	m.metrics.Saves.WithLabelValues(metrics.OutcomeSaved).Inc()
	m.close(s)
	return res, nil
}

func saveOutcome(err error) string {
	if errors.Is(err, workflow.ErrSaveFailed) {
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeRejected
}
