package catalog

import "errors"

var (
	ErrTemplateNotFound = errors.New("template not found")

	// catalog definition errors
	ErrInvalidCatalog    = errors.New("invalid catalog document")
	ErrMissingTemplateID = errors.New("template id is required")
	ErrDuplicateTemplate = errors.New("duplicate template id")
	ErrDuplicateField    = errors.New("duplicate config field")
	ErrInvalidKind       = errors.New("invalid node kind")
	ErrInvalidHint       = errors.New("invalid field hint")
	ErrDefaultMismatch   = errors.New("default value does not match field hint")
	ErrUnsupportedValue  = errors.New("unsupported config value type")
)
