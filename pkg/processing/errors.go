package processing

import (
	"errors"
	"fmt"
)

var (
	ErrNoFiles              = errors.New("no files supplied")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrNotActive            = errors.New("no active phase")
	ErrIncompleteExtraction = errors.New("extraction is incomplete")
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrFileTooLarge         = errors.New("file too large")
)

func transitionError(op string, from Status) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, from)
}
