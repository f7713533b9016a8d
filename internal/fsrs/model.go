// Package fsrs computes the memory state of a card after a review.
//
// Given the previous memory state (nil for a card never reviewed), the number of
// days since the card was last seen and the probability of recall the learner wants
// at the next review, the model returns one candidate state per rating. Callers pick
// the candidate matching the rating the learner gave.
//
// The numbers come from go-fsrs. This package only translates between its card
// representation and the memory state kept in the review history.
package fsrs

import (
	"fmt"
	"math"
	"time"

	gofsrs "github.com/open-spaced-repetition/go-fsrs/v3"
)

// DefaultMaximumInterval caps intervals at a hundred years.
const DefaultMaximumInterval = 36500

// MemoryState approximates the forgetting curve of a single card.
type MemoryState struct {
	Difficulty float64 `yaml:"difficulty"`
	Stability  float64 `yaml:"stability"`
}

// ItemState is a candidate memory state with the interval it implies.
type ItemState struct {
	Memory       MemoryState
	IntervalDays int
}

// NextStates holds one candidate per rating.
type NextStates struct {
	Again ItemState
	Hard  ItemState
	Good  ItemState
	Easy  ItemState
}

// go-fsrs measures elapsed time between two instants, so every call is evaluated
// at the same instant with the last review moved back by the elapsed days.
var evaluatedAt = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type Model struct {
	params          gofsrs.Parameters
	maximumInterval int
}

// New returns a model scheduling with params. Retention and maximum interval in
// params are replaced per call and by maximumInterval.
func New(params gofsrs.Parameters, maximumInterval int) (*Model, error) {
	if maximumInterval < 1 {
		return nil, fmt.Errorf("%w: maximum interval %d", ErrInvalidParameters, maximumInterval)
	}
	for i, w := range params.W {
		if !isFinite(w) {
			return nil, fmt.Errorf("%w: w[%d]=%v", ErrInvalidParameters, i, w)
		}
	}

	params.MaximumInterval = float64(maximumInterval)
	// Intervals are whole days; learning steps measured in minutes do not apply.
	params.EnableShortTerm = false
	params.EnableFuzz = false
	return &Model{
		params:          params,
		maximumInterval: maximumInterval,
	}, nil
}

// NewDefault returns a model with the go-fsrs default weights.
func NewDefault(maximumInterval int) (*Model, error) {
	return New(gofsrs.DefaultParam(), maximumInterval)
}

// NextStates returns the candidate states for every rating.
func (m *Model) NextStates(prior *MemoryState, desiredRetention float64, elapsedDays int) (NextStates, error) {
	if math.IsNaN(desiredRetention) || desiredRetention <= 0 || desiredRetention >= 1 {
		return NextStates{}, fmt.Errorf("%w: %v", ErrInvalidRetention, desiredRetention)
	}
	if elapsedDays < 0 {
		return NextStates{}, fmt.Errorf("%w: %d", ErrInvalidElapsedDays, elapsedDays)
	}
	if prior != nil {
		if !isFinite(prior.Stability) || prior.Stability <= 0 || !isFinite(prior.Difficulty) {
			return NextStates{}, fmt.Errorf("%w: difficulty=%v stability=%v",
				ErrInvalidMemoryState, prior.Difficulty, prior.Stability)
		}
	}

	params := m.params
	params.RequestRetention = desiredRetention
	records := gofsrs.NewFSRS(params).Repeat(m.card(prior, elapsedDays), evaluatedAt)

	return NextStates{
		Again: m.itemState(records[gofsrs.Again]),
		Hard:  m.itemState(records[gofsrs.Hard]),
		Good:  m.itemState(records[gofsrs.Good]),
		Easy:  m.itemState(records[gofsrs.Easy]),
	}, nil
}

func (m *Model) card(prior *MemoryState, elapsedDays int) gofsrs.Card {
	card := gofsrs.NewCard()
	if prior == nil {
		card.Due = evaluatedAt
		return card
	}
	card.State = gofsrs.Review
	card.Reps = 1
	card.Difficulty = prior.Difficulty
	card.Stability = prior.Stability
	card.LastReview = evaluatedAt.AddDate(0, 0, -elapsedDays)
	card.Due = evaluatedAt
	return card
}

func (m *Model) itemState(info gofsrs.SchedulingInfo) ItemState {
	interval := int(info.Card.ScheduledDays)
	// go-fsrs keeps Again < Hard < Good < Easy by pushing later ratings a day
	// past the previous one, which can step over the cap.
	if interval > m.maximumInterval {
		interval = m.maximumInterval
	}
	return ItemState{
		Memory: MemoryState{
			Difficulty: info.Card.Difficulty,
			Stability:  info.Card.Stability,
		},
		IntervalDays: interval,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
