package canvas

import (
	"testing"

	"github.com/stretchr/testify/require"

	"automation-builder/api/services/catalog"
	"automation-builder/api/services/workflow"
)

func newTestController(t *testing.T) (*Controller, *workflow.Graph) {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	g := workflow.NewGraph(c)
	return New(g), g
}

func drop(t *testing.T, c *Controller, templateID string, x, y float64) workflow.Node {
	t.Helper()
	require.NoError(t, c.PickTemplate(templateID))
	n, err := c.DropTemplate(workflow.Position{X: x, Y: y})
	require.NoError(t, err)
	return n
}

func TestDragTemplateFromPalette(t *testing.T) {
	c, g := newTestController(t)
	require.Equal(t, ModeIdle, c.Mode())

	require.NoError(t, c.PickTemplate("webhook-trigger"))
	require.Equal(t, ModeDraggingTemplate, c.Mode())

	n, err := c.DropTemplate(workflow.Position{X: 100, Y: 100})
	require.NoError(t, err)
	require.Equal(t, ModeIdle, c.Mode())
	require.Equal(t, workflow.Position{X: 100, Y: 100}, n.Position)
	require.Equal(t, 1, g.Len())

	// drop without a pick
	_, err = c.DropTemplate(workflow.Position{})
	require.ErrorIs(t, err, ErrNotDraggingTemplate)
}

func TestCancelTemplateDrag(t *testing.T) {
	c, g := newTestController(t)

	require.NoError(t, c.PickTemplate("send-email"))
	c.CancelDrag()

	require.Equal(t, ModeIdle, c.Mode())
	require.Equal(t, 0, g.Len())
}

func TestDropUnknownTemplateReturnsToIdle(t *testing.T) {
	c, g := newTestController(t)

	require.NoError(t, c.PickTemplate("ghost"))
	_, err := c.DropTemplate(workflow.Position{X: 1, Y: 1})

	require.ErrorIs(t, err, workflow.ErrUnknownTemplate)
	require.Equal(t, ModeIdle, c.Mode())
	require.Equal(t, 0, g.Len())
}

func TestDragNode(t *testing.T) {
	c, g := newTestController(t)
	n := drop(t, c, "send-email", 100, 100)

	// grab 10px right and 5px below the node origin
	require.NoError(t, c.GrabNode(n.ID, workflow.Position{X: 110, Y: 105}))
	require.Equal(t, ModeDraggingNode, c.Mode())

	c.PointerMove(workflow.Position{X: 200, Y: 150})
	c.PointerMove(workflow.Position{X: 260, Y: 180})

	got, _ := g.Node(n.ID)
	require.Equal(t, workflow.Position{X: 250, Y: 175}, got.Position)

	c.PointerMove(workflow.Position{X: -40, Y: -40})
	got, _ = g.Node(n.ID)
	require.Equal(t, workflow.Position{X: 0, Y: 0}, got.Position)

	c.PointerRelease()
	require.Equal(t, ModeIdle, c.Mode())

	// moves after release are ignored
	c.PointerMove(workflow.Position{X: 500, Y: 500})
	got, _ = g.Node(n.ID)
	require.Equal(t, workflow.Position{X: 0, Y: 0}, got.Position)
}

func TestGrabUnknownNode(t *testing.T) {
	c, _ := newTestController(t)

	err := c.GrabNode("ghost", workflow.Position{})
	require.ErrorIs(t, err, workflow.ErrUnknownNode)
	require.Equal(t, ModeIdle, c.Mode())
}

func TestSelection(t *testing.T) {
	c, _ := newTestController(t)
	a := drop(t, c, "webhook-trigger", 0, 0)
	b := drop(t, c, "send-email", 0, 0)

	_, ok := c.Selected()
	require.False(t, ok)

	require.NoError(t, c.ClickNode(a.ID))
	sel, ok := c.Selected()
	require.True(t, ok)
	require.Equal(t, a.ID, sel.ID)
	require.Equal(t, ModeIdle, c.Mode())

	require.NoError(t, c.ClickNode(b.ID))
	sel, _ = c.Selected()
	require.Equal(t, b.ID, sel.ID)

	c.ClickCanvas()
	_, ok = c.Selected()
	require.False(t, ok)

	require.ErrorIs(t, c.ClickNode("ghost"), workflow.ErrUnknownNode)
}

func TestConnectByClicking(t *testing.T) {
	c, g := newTestController(t)
	a := drop(t, c, "webhook-trigger", 0, 0)
	b := drop(t, c, "send-email", 0, 0)

	require.NoError(t, c.ClickNode(a.ID))
	require.NoError(t, c.StartConnection(a.ID))
	require.Equal(t, ModeConnecting, c.Mode())

	// entering connecting mode clears the selection
	_, ok := c.Selected()
	require.False(t, ok)

	require.NoError(t, c.ClickNode(b.ID))
	require.Equal(t, ModeIdle, c.Mode())

	got, _ := g.Node(a.ID)
	require.Equal(t, []string{b.ID}, got.Connections)

	// the click that finished the connection does not select
	_, ok = c.Selected()
	require.False(t, ok)
}

func TestConnectingCancelled(t *testing.T) {
	tests := []struct {
		label  string
		cancel func(c *Controller, source string)
	}{
		{label: "click the same node", cancel: func(c *Controller, source string) { _ = c.ClickNode(source) }},
		{label: "click empty canvas", cancel: func(c *Controller, _ string) { c.ClickCanvas() }},
		{label: "explicit cancel", cancel: func(c *Controller, _ string) { c.CancelConnection() }},
		{label: "source deleted", cancel: func(c *Controller, source string) { c.DeleteNode(source) }},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			c, g := newTestController(t)
			a := drop(t, c, "webhook-trigger", 0, 0)
			drop(t, c, "send-email", 0, 0)

			require.NoError(t, c.StartConnection(a.ID))
			tt.cancel(c, a.ID)

			require.Equal(t, ModeIdle, c.Mode())
			require.Empty(t, g.Edges())
		})
	}
}

func TestConnectToDeletedTarget(t *testing.T) {
	c, g := newTestController(t)
	a := drop(t, c, "webhook-trigger", 0, 0)
	b := drop(t, c, "send-email", 0, 0)

	require.NoError(t, c.StartConnection(a.ID))
	g.DeleteNode(b.ID)

	require.ErrorIs(t, c.ClickNode(b.ID), workflow.ErrUnknownNode)
	require.Equal(t, ModeIdle, c.Mode())
	require.Empty(t, g.Edges())
}

func TestBusyModes(t *testing.T) {
	c, _ := newTestController(t)
	a := drop(t, c, "webhook-trigger", 0, 0)

	require.NoError(t, c.GrabNode(a.ID, workflow.Position{}))
	require.ErrorIs(t, c.PickTemplate("send-email"), ErrBusy)
	require.ErrorIs(t, c.StartConnection(a.ID), ErrBusy)

	// clicks are ignored while dragging
	require.NoError(t, c.ClickNode(a.ID))
	_, ok := c.Selected()
	require.False(t, ok)
}

func TestDeleteSelectedNode(t *testing.T) {
	c, g := newTestController(t)
	a := drop(t, c, "webhook-trigger", 0, 0)
	b := drop(t, c, "send-email", 0, 0)
	require.NoError(t, g.Connect(a.ID, b.ID))

	require.NoError(t, c.ClickNode(b.ID))
	c.DeleteNode(b.ID)

	_, ok := c.Selected()
	require.False(t, ok)
	require.Empty(t, g.Edges())

	c.DeleteConnection(a.ID, b.ID)
	require.Equal(t, 1, g.Len())
}

func TestDeleteDraggedNode(t *testing.T) {
	c, g := newTestController(t)
	a := drop(t, c, "webhook-trigger", 0, 0)

	require.NoError(t, c.GrabNode(a.ID, workflow.Position{}))
	c.DeleteNode(a.ID)

	require.Equal(t, ModeIdle, c.Mode())
	require.Equal(t, 0, g.Len())
}

func TestDispatch(t *testing.T) {
	c, g := newTestController(t)

	events := []Event{
		{Type: EventPickTemplate, TemplateID: "webhook-trigger"},
		{Type: EventDrop, X: 100, Y: 100},
		{Type: EventPickTemplate, TemplateID: "send-email"},
		{Type: EventDrop, X: 300, Y: 100},
	}

	var placed []workflow.Node
	for _, e := range events {
		res, err := c.Dispatch(e)
		require.NoError(t, err)
		if res.Placed != nil {
			placed = append(placed, *res.Placed)
		}
	}
	require.Len(t, placed, 2)

	_, err := c.Dispatch(Event{Type: EventStartConnection, NodeID: placed[0].ID})
	require.NoError(t, err)
	_, err = c.Dispatch(Event{Type: EventClickNode, NodeID: placed[1].ID})
	require.NoError(t, err)
	require.Len(t, g.Edges(), 1)

	_, err = c.Dispatch(Event{Type: EventDeleteConnection, NodeID: placed[0].ID, TargetID: placed[1].ID})
	require.NoError(t, err)
	require.Empty(t, g.Edges())

	res, err := c.Dispatch(Event{Type: "teleport"})
	require.ErrorIs(t, err, ErrUnknownEvent)
	require.NotEmpty(t, res.Error)
}

func TestKnownEvent(t *testing.T) {
	require.True(t, KnownEvent(EventDrop))
	require.True(t, KnownEvent(EventDeleteConnection))
	require.False(t, KnownEvent("teleport"))
	require.False(t, KnownEvent(""))
}
