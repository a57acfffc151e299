package workflow

import "errors"

// this file errors.go contains the graph editing and save errors

var (
	// caller errors: the id does not exist (invariant violations, log them)
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnknownNode     = errors.New("unknown node")

	// user errors
	ErrSelfConnection  = errors.New("a node cannot connect to itself")
	ErrEmptyGraph      = errors.New("add at least one step before saving")
	ErrInvalidMetadata = errors.New("invalid automation details")

	// serialization errors
	ErrInvalidStep = errors.New("invalid workflow step")

	// persistence errors
	ErrSaveFailed = errors.New("failed to save automation")
)
