package workflow

import (
	"maps"
	"slices"

	"automation-builder/api/services/catalog"
)

// this file node.go contains the struct definition of the editor graph (nodes and their connections).

type Node struct {
	ID         string       `json:"id"`
	Kind       catalog.Kind `json:"kind"`
	TemplateID string       `json:"templateId,omitempty"`
	Position   Position     `json:"position"`
	Data       NodeData     `json:"data"`
	// target node ids, in the order they were connected
	Connections []string `json:"connections"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// clamped keeps the node on the visible canvas.
func (p Position) clamped() Position {
	return Position{X: max(p.X, 0), Y: max(p.Y, 0)}
}

type NodeData struct {
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
}

// Edge is a read-only view of one connection, shaped for the canvas renderer.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func edgeID(source, target string) string {
	return "e-" + source + "-" + target
}

// ConnectsTo reports whether the node has an outgoing connection to target.
func (n Node) ConnectsTo(target string) bool {
	return slices.Contains(n.Connections, target)
}

func (n *Node) clone() Node {
	out := *n
	out.Data.Config = maps.Clone(n.Data.Config)
	if out.Data.Config == nil {
		out.Data.Config = map[string]any{}
	}
	out.Connections = slices.Clone(n.Connections)
	if out.Connections == nil {
		out.Connections = []string{}
	}
	return out
}
