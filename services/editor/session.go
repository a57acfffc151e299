package editor

import (
	"sync"
	"time"

	"automation-builder/api/services/canvas"
	"automation-builder/api/services/inspector"
	"automation-builder/api/services/workflow"
)

// Session is one open editor: a graph with its canvas and inspector. All
// access goes through the session mutex.
type Session struct {
	id           string
	automationID string
	name         string
	description  string
	createdAt    time.Time

	mu        sync.Mutex
	saving    bool
	closed    bool
	graph     *workflow.Graph
	canvas    *canvas.Controller
	inspector *inspector.Inspector
}

func newSession(id string, g *workflow.Graph, now time.Time) *Session {
	c := canvas.New(g)
	return &Session{
		id:        id,
		createdAt: now,
		graph:     g,
		canvas:    c,
		inspector: inspector.New(g, c),
	}
}

// View is the full editor state returned to the client.
type View struct {
	ID           string           `json:"id"`
	AutomationID string           `json:"automationId,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Canvas       canvas.State     `json:"canvas"`
	Nodes        []workflow.Node  `json:"nodes"`
	Edges        []workflow.Edge  `json:"edges"`
	Inspector    *inspector.Panel `json:"inspector,omitempty"`
	Saving       bool             `json:"saving"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// InspectorEdit is a batch of inspector changes. Either all of it is applied
// or none of it; AddConnection runs last since it clears the selection.
type InspectorEdit struct {
	Label            *string           `json:"label,omitempty"`
	Description      *string           `json:"description,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
	RemoveConnection string            `json:"removeConnection,omitempty"`
	AddConnection    bool              `json:"addConnection,omitempty"`
}

// view must be called with s.mu held.
func (s *Session) view() *View {
	v := &View{
		ID:           s.id,
		AutomationID: s.automationID,
		Name:         s.name,
		Description:  s.description,
		Nodes:        s.graph.Nodes(),
		Edges:        s.graph.Edges(),
		Saving:       s.saving,
		CreatedAt:    s.createdAt,
	}
	if p, ok := s.inspector.View(); ok {
		v.Inspector = p
	}
	v.Canvas = s.canvas.State()
	return v
}

// mutable must be called with s.mu held.
func (s *Session) mutable() error {
	if s.closed {
		return ErrSessionNotFound
	}
	if s.saving {
		return ErrSaveInProgress
	}
	return nil
}

func (s *Session) applyEvents(events []canvas.Event) []canvas.Result {
	results := make([]canvas.Result, 0, len(events))
	for _, e := range events {
		res, _ := s.canvas.Dispatch(e)
		results = append(results, res)
	}
	return results
}

// applyEdit validates field values before touching the node, so a rejected
// edit leaves the session unchanged.
func (s *Session) applyEdit(edit InspectorEdit) error {
	if edit.AddConnection {
		if m := s.canvas.Mode(); m == canvas.ModeDraggingNode || m == canvas.ModeDraggingTemplate {
			return canvas.ErrBusy
		}
	}
	if len(edit.Fields) > 0 {
		if err := s.inspector.SetFields(edit.Fields); err != nil {
			return err
		}
	}
	if edit.Label != nil {
		if err := s.inspector.SetLabel(*edit.Label); err != nil {
			return err
		}
	}
	if edit.Description != nil {
		if err := s.inspector.SetDescription(*edit.Description); err != nil {
			return err
		}
	}
	if edit.RemoveConnection != "" {
		if err := s.inspector.RemoveConnection(edit.RemoveConnection); err != nil {
			return err
		}
	}
	if edit.AddConnection {
		return s.inspector.AddConnection()
	}
	return nil
}
