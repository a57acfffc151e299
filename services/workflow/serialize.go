package workflow

import (
	"fmt"
	"maps"

	"automation-builder/api/services/catalog"
)

// this file serialize.go converts the graph to and from the step list that is persisted.
// Positions and branch topology are not persisted: a reloaded graph is always a linear chain.

// SerializedStep is one persisted step. Index is recomputed on every save and is not an id.
type SerializedStep struct {
	Index      int            `json:"index" validate:"min=1"`
	Name       string         `json:"name" validate:"max=200"`
	Action     string         `json:"action" validate:"max=2000"`
	Kind       catalog.Kind   `json:"kind" validate:"required,oneof=trigger condition action branch delay"`
	TemplateID string         `json:"templateId,omitempty"`
	Config     map[string]any `json:"config"`
}

// layout of reloaded nodes
const (
	gridColumns  = 3
	gridOriginX  = 100.0
	gridOriginY  = 100.0
	gridSpacingX = 250.0
	gridSpacingY = 150.0
)

// Serialize returns one step per node, in insertion order.
func Serialize(g *Graph) []SerializedStep {
	steps := make([]SerializedStep, 0, len(g.order))
	for i, id := range g.order {
		n := g.nodes[id]
		steps = append(steps, SerializedStep{
			Index:      i + 1,
			Name:       n.Data.Label,
			Action:     n.Data.Description,
			Kind:       n.Kind,
			TemplateID: n.TemplateID,
			Config:     maps.Clone(n.Data.Config),
		})
	}
	return steps
}

// Deserialize rebuilds a graph from saved steps. Nodes are laid out on a grid
// and each step is connected to the next one.
func Deserialize(templates Templates, steps []SerializedStep) (*Graph, error) {
	g := NewGraph(templates)

	var prev string
	for i, step := range steps {
		if !step.Kind.Valid() {
			return nil, fmt.Errorf("%w: step %d has kind %q", ErrInvalidStep, i+1, step.Kind)
		}

		cfg := make(map[string]any, len(step.Config))
		for k, v := range step.Config {
			nv, err := catalog.NormalizeValue(v)
			if err != nil {
				return nil, fmt.Errorf("%w: step %d field %s: %v", ErrInvalidStep, i+1, k, err)
			}
			cfg[k] = nv
		}

		n := &Node{
			ID:         g.freshID(),
			Kind:       step.Kind,
			TemplateID: step.TemplateID,
			Position:   gridPosition(i),
			Data: NodeData{
				Label:       step.Name,
				Description: step.Action,
				Config:      cfg,
			},
		}
		g.insert(n)

		if prev != "" {
			g.nodes[prev].Connections = append(g.nodes[prev].Connections, n.ID)
		}
		prev = n.ID
	}

	return g, nil
}

func gridPosition(i int) Position {
	return Position{
		X: gridOriginX + float64(i%gridColumns)*gridSpacingX,
		Y: gridOriginY + float64(i/gridColumns)*gridSpacingY,
	}
}
