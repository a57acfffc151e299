package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"automation-builder/api/services/catalog"
)

// this file save.go bundles a graph with its automation details and hands it to a persister.

const (
	// DefaultTrigger is used when the graph has no trigger node.
	DefaultTrigger = "manual"

	// DefaultSaveTimeout bounds the persistence call.
	DefaultSaveTimeout = 30 * time.Second
)

var validate = validator.New()

// Automation is the payload accepted by the persistence endpoint and returned by the loader.
type Automation struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Trigger     string     `json:"trigger" validate:"required,max=100"`
	Workflow    Definition `json:"workflow"`
}

type Definition struct {
	Steps []SerializedStep `json:"steps" validate:"dive"`
}

// Validate checks the payload's field constraints.
func (a Automation) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return nil
}

// Metadata is what the user enters alongside the graph. ID is set when an
// existing automation is being edited.
type Metadata struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Persister stores an automation and returns its id.
type Persister interface {
	Persist(ctx context.Context, a Automation) (string, error)
}

type SaveResult struct {
	ID      string `json:"id"`
	Trigger string `json:"trigger"`
	Steps   int    `json:"steps"`
}

// Bundle builds the persistence payload for the graph.
func Bundle(g *Graph, meta Metadata) Automation {
	return Automation{
		ID:          meta.ID,
		Name:        meta.Name,
		Description: meta.Description,
		Trigger:     TriggerOf(g),
		Workflow:    Definition{Steps: Serialize(g)},
	}
}

// TriggerOf returns the trigger type of the first trigger node, or DefaultTrigger.
func TriggerOf(g *Graph) string {
	for _, id := range g.order {
		n := g.nodes[id]
		if n.Kind != catalog.KindTrigger {
			continue
		}
		if tpl, ok := g.Template(*n); ok && tpl.TriggerType != "" {
			return tpl.TriggerType
		}
		return DefaultTrigger
	}
	return DefaultTrigger
}

// Save validates the graph and details, then persists them. An empty graph is
// rejected before the persister is called. The graph is never modified.
func Save(ctx context.Context, g *Graph, meta Metadata, p Persister, timeout time.Duration) (*SaveResult, error) {
	if g.Len() == 0 {
		return nil, ErrEmptyGraph
	}
	if err := validate.Struct(meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	bundle := Bundle(g, meta)
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	id, err := p.Persist(ctx, bundle)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Error("Saving automation timed out", "name", meta.Name, "timeout", timeout)
		} else {
			slog.Error("Error saving automation", "name", meta.Name, "error", err)
		}
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	slog.Info("Saved automation", "id", id, "steps", len(bundle.Workflow.Steps), "trigger", bundle.Trigger)
	return &SaveResult{ID: id, Trigger: bundle.Trigger, Steps: len(bundle.Workflow.Steps)}, nil
}
