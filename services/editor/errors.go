package editor

import "errors"

// this file errors.go contains editor session errors

var (
	// generic errors
	ErrInternalServerError = errors.New("internal server error")
	ErrInvalidJSON         = errors.New("invalid JSON")

	ErrSessionNotFound = errors.New("editor session not found")
	ErrSaveInProgress  = errors.New("a save is already in progress")
	ErrNoLoader        = errors.New("existing automations cannot be loaded")
)
