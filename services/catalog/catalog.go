package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// this file catalog.go contains the node template registry used by the editor palette.

//go:embed templates.yaml
var defaultTemplates []byte

// node kinds
type Kind string

const (
	KindTrigger   Kind = "trigger"
	KindCondition Kind = "condition"
	KindAction    Kind = "action"
	KindBranch    Kind = "branch"
	KindDelay     Kind = "delay"
)

// Valid reports whether k is one of the known node kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTrigger, KindCondition, KindAction, KindBranch, KindDelay:
		return true
	}
	return false
}

// ConfigField is one entry of a template's default configuration.
type ConfigField struct {
	Name    string    `json:"name" yaml:"name"`
	Hint    FieldHint `json:"hint" yaml:"hint"`
	Default any       `json:"default" yaml:"default"`
}

// NodeTemplate describes a node kind that can be placed on the canvas.
type NodeTemplate struct {
	ID          string        `json:"id" yaml:"id"`
	Kind        Kind          `json:"kind" yaml:"kind"`
	TriggerType string        `json:"triggerType,omitempty" yaml:"triggerType"`
	Label       string        `json:"label" yaml:"label"`
	Description string        `json:"description" yaml:"description"`
	Category    string        `json:"category" yaml:"category"`
	Config      []ConfigField `json:"config" yaml:"config"`
}

// DefaultConfig returns a fresh copy of the template's default configuration.
func (t NodeTemplate) DefaultConfig() map[string]any {
	cfg := make(map[string]any, len(t.Config))
	for _, f := range t.Config {
		cfg[f.Name] = f.Default
	}
	return cfg
}

// Field returns the config field with the given name.
func (t NodeTemplate) Field(name string) (ConfigField, bool) {
	for _, f := range t.Config {
		if f.Name == name {
			return f, true
		}
	}
	return ConfigField{}, false
}

// Group is a palette section.
type Group struct {
	Category  string         `json:"category"`
	Templates []NodeTemplate `json:"templates"`
}

// Catalog is an immutable set of node templates.
type Catalog struct {
	templates []NodeTemplate
	byID      map[string]int
}

type catalogFile struct {
	Templates []NodeTemplate `yaml:"templates"`
}

// New validates the templates and builds a catalog from them.
func New(templates ...NodeTemplate) (*Catalog, error) {
	c := &Catalog{
		templates: make([]NodeTemplate, 0, len(templates)),
		byID:      make(map[string]int, len(templates)),
	}

	for _, t := range templates {
		if t.ID == "" {
			return nil, ErrMissingTemplateID
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.ID)
		}
		if !t.Kind.Valid() {
			return nil, fmt.Errorf("%w: template %s has kind %q", ErrInvalidKind, t.ID, t.Kind)
		}

		fields := make([]ConfigField, 0, len(t.Config))
		seen := make(map[string]bool, len(t.Config))
		for _, f := range t.Config {
			if seen[f.Name] {
				return nil, fmt.Errorf("%w: template %s field %s", ErrDuplicateField, t.ID, f.Name)
			}
			seen[f.Name] = true

			v, err := NormalizeValue(f.Default)
			if err != nil {
				return nil, fmt.Errorf("template %s field %s: %w", t.ID, f.Name, err)
			}
			f.Default = v

			if f.Hint == "" {
				f.Hint = InferHint(f.Name, v)
			}
			if !f.Hint.Valid() {
				return nil, fmt.Errorf("%w: template %s field %s has hint %q", ErrInvalidHint, t.ID, f.Name, f.Hint)
			}
			if !f.Hint.Accepts(v) {
				return nil, fmt.Errorf("%w: template %s field %s (%s) default %v", ErrDefaultMismatch, t.ID, f.Name, f.Hint, v)
			}
			fields = append(fields, f)
		}
		t.Config = fields

		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}

	return c, nil
}

// Load reads a YAML template document.
func Load(r io.Reader) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(doc.Templates...)
}

// LoadFile reads a YAML template document from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(defaultTemplates, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(doc.Templates...)
}

// List returns all templates in declaration order.
func (c *Catalog) List() []NodeTemplate {
	out := make([]NodeTemplate, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (NodeTemplate, error) {
	i, ok := c.byID[id]
	if !ok {
		return NodeTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return c.templates[i], nil
}

// Groups returns templates grouped by category, in order of first appearance.
func (c *Catalog) Groups() []Group {
	var groups []Group
	index := make(map[string]int)
	for _, t := range c.templates {
		i, ok := index[t.Category]
		if !ok {
			i = len(groups)
			index[t.Category] = i
			groups = append(groups, Group{Category: t.Category})
		}
		groups[i].Templates = append(groups[i].Templates, t)
	}
	return groups
}
