package cli

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when the user quits a review run.
var ErrAborted = errors.New("review aborted")

// ReviewError reports the entity and operation a review failed on.
type ReviewError struct {
	EntityID int64
	Op       string
	Err      error
}

func (e *ReviewError) Error() string {
	return fmt.Sprintf("review of %d failed at %s > %v", e.EntityID, e.Op, e.Err)
}

func (e *ReviewError) Unwrap() error {
	return e.Err
}
