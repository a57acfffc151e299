// Package inspector builds the editable view of the selected node and applies
// edits from it to the graph.
package inspector

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"automation-builder/api/services/canvas"
	"automation-builder/api/services/catalog"
	"automation-builder/api/services/workflow"
)

var (
	ErrNoSelection  = errors.New("no node is selected")
	ErrInvalidValue = errors.New("invalid field value")
)

// Control is the input rendered for a field.
type Control string

const (
	ControlToggle   Control = "toggle"
	ControlTextArea Control = "textarea"
	ControlText     Control = "text"
	ControlNumber   Control = "number"
)

// the two fixed toggle options
var toggleOptions = []Option{
	{Label: "Enabled", Value: "true"},
	{Label: "Disabled", Value: "false"},
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Field struct {
	Name    string            `json:"name"`
	Hint    catalog.FieldHint `json:"hint"`
	Control Control           `json:"control"`
	Value   any               `json:"value"`
	Options []Option          `json:"options,omitempty"`
}

type Connection struct {
	TargetID    string `json:"targetId"`
	TargetLabel string `json:"targetLabel"`
}

// Panel is the inspector content for one node.
type Panel struct {
	NodeID      string       `json:"nodeId"`
	Kind        catalog.Kind `json:"kind"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Fields      []Field      `json:"fields"`
	Connections []Connection `json:"connections"`
}

type Inspector struct {
	graph  *workflow.Graph
	canvas *canvas.Controller
}

func New(g *workflow.Graph, c *canvas.Controller) *Inspector {
	return &Inspector{graph: g, canvas: c}
}

// View returns the panel for the selected node, or false when nothing is selected.
func (i *Inspector) View() (*Panel, bool) {
	n, ok := i.canvas.Selected()
	if !ok {
		return nil, false
	}

	p := &Panel{
		NodeID:      n.ID,
		Kind:        n.Kind,
		Label:       n.Data.Label,
		Description: n.Data.Description,
		Fields:      i.fields(n),
		Connections: make([]Connection, 0, len(n.Connections)),
	}
	for _, target := range n.Connections {
		c := Connection{TargetID: target}
		if t, ok := i.graph.Node(target); ok {
			c.TargetLabel = t.Data.Label
		}
		p.Connections = append(p.Connections, c)
	}
	return p, true
}

// fields lists template fields first, in template order, then any other
// config keys sorted by name.
func (i *Inspector) fields(n workflow.Node) []Field {
	tpl, hasTemplate := i.graph.Template(n)

	var names []string
	if hasTemplate {
		for _, f := range tpl.Config {
			if _, ok := n.Data.Config[f.Name]; ok {
				names = append(names, f.Name)
			}
		}
	}
	var extra []string
	for name := range n.Data.Config {
		if !slices.Contains(names, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	names = append(names, extra...)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		value := n.Data.Config[name]
		hint := i.hint(n, name, value)
		f := Field{Name: name, Hint: hint, Control: controlFor(hint), Value: value}
		if f.Control == ControlToggle {
			f.Options = toggleOptions
		}
		fields = append(fields, f)
	}
	return fields
}

func (i *Inspector) hint(n workflow.Node, name string, value any) catalog.FieldHint {
	if tpl, ok := i.graph.Template(n); ok {
		if f, ok := tpl.Field(name); ok {
			return f.Hint
		}
	}
	return catalog.InferHint(name, value)
}

func controlFor(h catalog.FieldHint) Control {
	switch h {
	case catalog.HintBoolean:
		return ControlToggle
	case catalog.HintLongText:
		return ControlTextArea
	case catalog.HintNumber:
		return ControlNumber
	}
	return ControlText
}

// SetField parses raw input for the field and writes it to the selected node.
func (i *Inspector) SetField(name, raw string) error {
	return i.SetFields(map[string]string{name: raw})
}

// SetFields parses every raw input before writing any of them, so a bad value
// leaves the node unchanged. Only fields already in the node's config can be set.
func (i *Inspector) SetFields(raw map[string]string) error {
	n, ok := i.canvas.Selected()
	if !ok {
		return ErrNoSelection
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	values := make(map[string]any, len(raw))
	for _, name := range names {
		current, ok := n.Data.Config[name]
		if !ok {
			return fmt.Errorf("%w: %s: no such field", ErrInvalidValue, name)
		}
		v, err := parseValue(i.hint(n, name, current), raw[name])
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
		}
		values[name] = v
	}

	for _, name := range names {
		if err := i.graph.UpdateNodeField(n.ID, name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

func parseValue(h catalog.FieldHint, raw string) (any, error) {
	switch h {
	case catalog.HintBoolean:
		return strconv.ParseBool(raw)
	case catalog.HintNumber:
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return 0.0, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		// not representable in JSON
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%q is not a finite number", raw)
		}
		return v, nil
	}
	return raw, nil
}

func (i *Inspector) SetLabel(label string) error {
	n, ok := i.canvas.Selected()
	if !ok {
		return ErrNoSelection
	}
	i.graph.RenameNode(n.ID, label)
	return nil
}

func (i *Inspector) SetDescription(description string) error {
	n, ok := i.canvas.Selected()
	if !ok {
		return ErrNoSelection
	}
	i.graph.UpdateDescription(n.ID, description)
	return nil
}

// RemoveConnection disconnects the selected node from target.
func (i *Inspector) RemoveConnection(target string) error {
	n, ok := i.canvas.Selected()
	if !ok {
		return ErrNoSelection
	}
	i.graph.Disconnect(n.ID, target)
	return nil
}

// AddConnection puts the canvas into connecting mode from the selected node.
// The selection is cleared; the next node click completes the connection.
func (i *Inspector) AddConnection() error {
	n, ok := i.canvas.Selected()
	if !ok {
		return ErrNoSelection
	}
	return i.canvas.StartConnection(n.ID)
}
