package canvas

import (
	"errors"
	"fmt"

	"automation-builder/api/services/workflow"
)

// event types
const (
	EventPickTemplate     = "pick_template"
	EventDrop             = "drop"
	EventCancelDrag       = "cancel_drag"
	EventGrabNode         = "grab_node"
	EventPointerMove      = "pointer_move"
	EventPointerRelease   = "pointer_release"
	EventStartConnection  = "start_connection"
	EventClickNode        = "click_node"
	EventClickCanvas      = "click_canvas"
	EventCancelConnection = "cancel_connection"
	EventDeleteNode       = "delete_node"
	EventDeleteConnection = "delete_connection"
)

var ErrUnknownEvent = errors.New("unknown canvas event")

var eventTypes = map[string]bool{
	EventPickTemplate: true, EventDrop: true, EventCancelDrag: true,
	EventGrabNode: true, EventPointerMove: true, EventPointerRelease: true,
	EventStartConnection: true, EventClickNode: true, EventClickCanvas: true,
	EventCancelConnection: true, EventDeleteNode: true, EventDeleteConnection: true,
}

// KnownEvent reports whether t is an event type Dispatch understands.
func KnownEvent(t string) bool { return eventTypes[t] }

// Event is one pointer or keyboard action sent by the canvas.
type Event struct {
	Type       string  `json:"type"`
	TemplateID string  `json:"templateId,omitempty"`
	NodeID     string  `json:"nodeId,omitempty"`
	TargetID   string  `json:"targetId,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
}

func (e Event) position() workflow.Position {
	return workflow.Position{X: e.X, Y: e.Y}
}

// Result reports what an event produced.
type Result struct {
	Type string `json:"type"`
	// Placed is set when a drop created a node.
	Placed *workflow.Node `json:"placed,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Dispatch applies one event.
func (c *Controller) Dispatch(e Event) (Result, error) {
	res := Result{Type: e.Type}

	var err error
	switch e.Type {
	case EventPickTemplate:
		err = c.PickTemplate(e.TemplateID)
	case EventDrop:
		var n workflow.Node
		n, err = c.DropTemplate(e.position())
		if err == nil {
			res.Placed = &n
		}
	case EventCancelDrag:
		c.CancelDrag()
	case EventGrabNode:
		err = c.GrabNode(e.NodeID, e.position())
	case EventPointerMove:
		c.PointerMove(e.position())
	case EventPointerRelease:
		c.PointerRelease()
	case EventStartConnection:
		err = c.StartConnection(e.NodeID)
	case EventClickNode:
		err = c.ClickNode(e.NodeID)
	case EventClickCanvas:
		c.ClickCanvas()
	case EventCancelConnection:
		c.CancelConnection()
	case EventDeleteNode:
		c.DeleteNode(e.NodeID)
	case EventDeleteConnection:
		c.DeleteConnection(e.NodeID, e.TargetID)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}

	if err != nil {
		res.Error = err.Error()
	}
	return res, err
}
