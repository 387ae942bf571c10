package model

import "errors"

var (
	ErrNotFound          = errors.New("report not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("actor may not perform this transition")
	ErrConflict          = errors.New("report was modified concurrently")
	ErrInvalidDraft      = errors.New("invalid report")
)
