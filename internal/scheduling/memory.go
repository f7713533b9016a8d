package scheduling

import (
	"fmt"
	"time"

	"github.com/at-ishikawa/revise/internal/fsrs"
)

// Rating is the answer given to a card, entered as a digit from 0 to 3.
type Rating int

const (
	Again Rating = iota
	Hard
	Good
	Easy
)

var ratingNames = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}

func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

//go:generate mockgen -source=memory.go -destination=../mocks/scheduling/mock_retention_model.go -package=mock_scheduling RetentionModel

// RetentionModel computes the candidate memory states of a card for every rating.
type RetentionModel interface {
	NextStates(prior *fsrs.MemoryState, desiredRetention float64, elapsedDays int) (fsrs.NextStates, error)
}

// MemoryOutcome is the state selected for the given rating.
type MemoryOutcome struct {
	Memory       fsrs.MemoryState
	IntervalDays int
}

// AdvanceMemory asks the model for the next states once and picks the one matching rating.
// prior is nil for a card that was never reviewed.
func AdvanceMemory(
	model RetentionModel,
	rating Rating,
	prior *fsrs.MemoryState,
	elapsedDays int,
	desiredRetention float64,
) (MemoryOutcome, error) {
	if !rating.IsValid() {
		return MemoryOutcome{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	states, err := model.NextStates(prior, desiredRetention, elapsedDays)
	if err != nil {
		return MemoryOutcome{}, fmt.Errorf("model.NextStates() > %w", err)
	}

	var selected fsrs.ItemState
	switch rating {
	case Again:
		selected = states.Again
	case Hard:
		selected = states.Hard
	case Good:
		selected = states.Good
	case Easy:
		selected = states.Easy
	}
	return MemoryOutcome{
		Memory:       selected.Memory,
		IntervalDays: selected.IntervalDays,
	}, nil
}

// ElapsedDays counts the whole days between anchor and now, never negative.
func ElapsedDays(anchor, now time.Time) int {
	if !now.After(anchor) {
		return 0
	}
	return int(now.Sub(anchor) / (24 * time.Hour))
}

// DueAfter returns the time intervalDays days after now.
func DueAfter(now time.Time, intervalDays int) time.Time {
	return now.Add(time.Duration(intervalDays) * 24 * time.Hour)
}
