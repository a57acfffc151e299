package automation

import "errors"

// this file errors.go contains automation store errors

var (
	// generic errors
	ErrInternalServerError = errors.New("internal server error")
	ErrInvalidJSON         = errors.New("invalid JSON")

	ErrAutomationNotFound     = errors.New("automation not found")
	ErrInvalidAutomationStore = errors.New("stored automation has an invalid definition")

	// remote endpoint errors
	ErrUnexpectedStatus = errors.New("unexpected response from automation endpoint")
)
