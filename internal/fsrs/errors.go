package fsrs

import "errors"

var (
	ErrInvalidRetention   = errors.New("fsrs: desired retention must be within (0, 1)")
	ErrInvalidMemoryState = errors.New("fsrs: invalid memory state")
	ErrInvalidElapsedDays = errors.New("fsrs: elapsed days must not be negative")
	ErrInvalidParameters  = errors.New("fsrs: parameters out of bounds")
)
