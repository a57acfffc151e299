package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"automation-builder/api/services/catalog"
)

// this file graph.go contains the in-memory graph edited by a single editor session.
// All operations are synchronous and take effect immediately; there is no undo.

// Templates resolves node templates by id.
type Templates interface {
	Get(id string) (catalog.NodeTemplate, error)
}

type Graph struct {
	templates Templates
	nodes     map[string]*Node
	// insertion order, used for stable serialization
	order []string
	// every id handed out this session, including deleted nodes
	issued map[string]bool
	newID  func() string
}

// NewGraph returns an empty graph that places nodes from the given templates.
func NewGraph(templates Templates) *Graph {
	return &Graph{
		templates: templates,
		nodes:     make(map[string]*Node),
		issued:    make(map[string]bool),
		newID:     func() string { return "node-" + uuid.NewString() },
	}
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// Edges returns every connection in the graph.
func (g *Graph) Edges() []Edge {
	edges := []Edge{}
	for _, id := range g.order {
		for _, target := range g.nodes[id].Connections {
			edges = append(edges, Edge{ID: edgeID(id, target), Source: id, Target: target})
		}
	}
	return edges
}

// PlaceNode adds a node built from the template at the given position.
func (g *Graph) PlaceNode(templateID string, pos Position) (Node, error) {
	if g.templates == nil {
		return Node{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	tpl, err := g.templates.Get(templateID)
	if err != nil {
		if errors.Is(err, catalog.ErrTemplateNotFound) {
			slog.Warn("Placing node from unknown template", "template id", templateID)
			return Node{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
		}
		return Node{}, err
	}

	n := &Node{
		ID:         g.freshID(),
		Kind:       tpl.Kind,
		TemplateID: tpl.ID,
		Position:   pos.clamped(),
		Data: NodeData{
			Label:       tpl.Label,
			Description: tpl.Description,
			Config:      tpl.DefaultConfig(),
		},
	}
	g.insert(n)

	slog.Debug("Placed node", "node id", n.ID, "template id", tpl.ID)
	return n.clone(), nil
}

// MoveNode repositions a node, clamping both coordinates to zero or more.
// Moving a node that no longer exists is ignored: move events may arrive
// after the node was deleted.
func (g *Graph) MoveNode(id string, pos Position) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	n.Position = pos.clamped()
}

// DeleteNode removes the node and every connection that targets it.
func (g *Graph) DeleteNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(o string) bool { return o == id })

	for _, n := range g.nodes {
		n.Connections = slices.DeleteFunc(n.Connections, func(t string) bool { return t == id })
	}
	slog.Debug("Deleted node", "node id", id)
}

// Connect adds a connection from one node to another. Connecting an existing
// pair again is a no-op. Cycles longer than one node are allowed.
func (g *Graph) Connect(from, to string) error {
	if from == to {
		return ErrSelfConnection
	}
	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	if src.ConnectsTo(to) {
		return nil
	}
	src.Connections = append(src.Connections, to)
	return nil
}

// Disconnect removes the connection if present.
func (g *Graph) Disconnect(from, to string) {
	src, ok := g.nodes[from]
	if !ok {
		return
	}
	src.Connections = slices.DeleteFunc(src.Connections, func(t string) bool { return t == to })
}

// UpdateNodeField sets one config value. The value's type is not checked
// here; the inspector binds each field to an input of the right type.
func (g *Graph) UpdateNodeField(id, field string, value any) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.Data.Config == nil {
		n.Data.Config = make(map[string]any)
	}
	n.Data.Config[field] = value
	return nil
}

func (g *Graph) RenameNode(id, label string) {
	if n, ok := g.nodes[id]; ok {
		n.Data.Label = label
	}
}

func (g *Graph) UpdateDescription(id, description string) {
	if n, ok := g.nodes[id]; ok {
		n.Data.Description = description
	}
}

// Template returns the template a node was placed from, if it is still known.
func (g *Graph) Template(n Node) (catalog.NodeTemplate, bool) {
	if n.TemplateID == "" || g.templates == nil {
		return catalog.NodeTemplate{}, false
	}
	tpl, err := g.templates.Get(n.TemplateID)
	if err != nil {
		return catalog.NodeTemplate{}, false
	}
	return tpl, true
}

func (g *Graph) insert(n *Node) {
	if n.Data.Config == nil {
		n.Data.Config = make(map[string]any)
	}
	g.nodes[n.ID] = n
	g.issued[n.ID] = true
	g.order = append(g.order, n.ID)
}

func (g *Graph) freshID() string {
	for {
		id := g.newID()
		if !g.issued[id] {
			return id
		}
	}
}
