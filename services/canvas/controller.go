// Package canvas turns pointer and drag events from the editor canvas into
// graph mutations. It tracks the interaction mode and the selected node.
package canvas

import (
	"errors"
	"fmt"
	"log/slog"

	"automation-builder/api/services/workflow"
)

// Mode is the controller's interaction state.
type Mode string

const (
	ModeIdle             Mode = "idle"
	ModeDraggingTemplate Mode = "dragging-template"
	ModeDraggingNode     Mode = "dragging-node"
	ModeConnecting       Mode = "connecting"
)

var (
	ErrNotDraggingTemplate = errors.New("no template is being dragged")
	ErrBusy                = errors.New("finish the current interaction first")
)

// State is a snapshot of the controller.
type State struct {
	Mode Mode `json:"mode"`
	// TemplateID is set while dragging a template from the palette.
	TemplateID string `json:"templateId,omitempty"`
	// NodeID is the node being dragged, or the connection source.
	NodeID   string `json:"nodeId,omitempty"`
	Selected string `json:"selectedNodeId,omitempty"`
}

type Controller struct {
	graph *workflow.Graph
	state State
	// pointer offset from the dragged node's origin
	grab workflow.Position
}

func New(g *workflow.Graph) *Controller {
	return &Controller{graph: g, state: State{Mode: ModeIdle}}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Mode() Mode { return c.state.Mode }

// Selected returns the selected node, if any.
func (c *Controller) Selected() (workflow.Node, bool) {
	if c.state.Selected == "" {
		return workflow.Node{}, false
	}
	n, ok := c.graph.Node(c.state.Selected)
	if !ok {
		c.state.Selected = ""
	}
	return n, ok
}

// PickTemplate starts dragging a template from the palette.
func (c *Controller) PickTemplate(templateID string) error {
	if c.state.Mode != ModeIdle && c.state.Mode != ModeDraggingTemplate {
		return ErrBusy
	}
	c.state.Mode = ModeDraggingTemplate
	c.state.TemplateID = templateID
	return nil
}

// DropTemplate places the dragged template at pos and returns to idle. The
// controller returns to idle even when the template is unknown.
func (c *Controller) DropTemplate(pos workflow.Position) (workflow.Node, error) {
	if c.state.Mode != ModeDraggingTemplate {
		return workflow.Node{}, ErrNotDraggingTemplate
	}
	templateID := c.state.TemplateID
	c.idle()

	n, err := c.graph.PlaceNode(templateID, pos)
	if err != nil {
		return workflow.Node{}, err
	}
	return n, nil
}

// CancelDrag abandons a palette drag.
func (c *Controller) CancelDrag() {
	if c.state.Mode == ModeDraggingTemplate {
		c.idle()
	}
}

// GrabNode starts repositioning a node. at is the pointer position; the
// offset to the node's origin is kept while dragging.
func (c *Controller) GrabNode(nodeID string, at workflow.Position) error {
	if c.state.Mode != ModeIdle {
		return ErrBusy
	}
	n, ok := c.graph.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", workflow.ErrUnknownNode, nodeID)
	}
	c.state.Mode = ModeDraggingNode
	c.state.NodeID = nodeID
	c.grab = workflow.Position{X: at.X - n.Position.X, Y: at.Y - n.Position.Y}
	return nil
}

// PointerMove moves the dragged node. Moves are applied in arrival order.
func (c *Controller) PointerMove(at workflow.Position) {
	if c.state.Mode != ModeDraggingNode {
		return
	}
	c.graph.MoveNode(c.state.NodeID, workflow.Position{X: at.X - c.grab.X, Y: at.Y - c.grab.Y})
}

// PointerRelease ends a node drag.
func (c *Controller) PointerRelease() {
	if c.state.Mode == ModeDraggingNode {
		c.idle()
	}
}

// StartConnection enters connecting mode from nodeID and clears the selection.
func (c *Controller) StartConnection(nodeID string) error {
	if c.state.Mode != ModeIdle && c.state.Mode != ModeConnecting {
		return ErrBusy
	}
	if _, ok := c.graph.Node(nodeID); !ok {
		return fmt.Errorf("%w: %s", workflow.ErrUnknownNode, nodeID)
	}
	c.state.Mode = ModeConnecting
	c.state.NodeID = nodeID
	c.state.Selected = ""
	return nil
}

// ClickNode selects the node when idle. While connecting, it connects the
// source to the clicked node; clicking the source itself cancels.
func (c *Controller) ClickNode(nodeID string) error {
	switch c.state.Mode {
	case ModeIdle:
		if _, ok := c.graph.Node(nodeID); !ok {
			return fmt.Errorf("%w: %s", workflow.ErrUnknownNode, nodeID)
		}
		c.state.Selected = nodeID
		return nil

	case ModeConnecting:
		from := c.state.NodeID
		c.idle()
		if from == nodeID {
			return nil
		}
		if err := c.graph.Connect(from, nodeID); err != nil {
			slog.Debug("Connection rejected", "from", from, "to", nodeID, "error", err)
			return err
		}
		return nil
	}
	return nil
}

// ClickCanvas deselects when idle and cancels a pending connection.
func (c *Controller) ClickCanvas() {
	switch c.state.Mode {
	case ModeIdle:
		c.state.Selected = ""
	case ModeConnecting:
		c.idle()
	}
}

func (c *Controller) CancelConnection() {
	if c.state.Mode == ModeConnecting {
		c.idle()
	}
}

// DeleteNode removes the node and drops any interaction that refers to it.
func (c *Controller) DeleteNode(nodeID string) {
	c.graph.DeleteNode(nodeID)
	if c.state.Selected == nodeID {
		c.state.Selected = ""
	}
	if (c.state.Mode == ModeDraggingNode || c.state.Mode == ModeConnecting) && c.state.NodeID == nodeID {
		c.idle()
	}
}

func (c *Controller) DeleteConnection(from, to string) {
	c.graph.Disconnect(from, to)
}

// idle returns to idle, keeping the selection.
func (c *Controller) idle() {
	c.state = State{Mode: ModeIdle, Selected: c.state.Selected}
	c.grab = workflow.Position{}
}
