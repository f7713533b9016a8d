// Package scheduling decides when an item or a card is shown again.
//
// Two schedulers are provided. IntervalEase is the SM-2 interval/ease-factor model used for
// items; it rates recall from 0 to 5 and keeps its whole state on the item. MemoryModel is used
// for cards; it rates recall from 0 to 3 and derives a difficulty/stability pair from the
// previous review record and the time elapsed since then.
package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/at-ishikawa/revise/internal/fsrs"
	"github.com/at-ishikawa/revise/internal/store"
)

var ErrInvalidRating = errors.New("invalid rating")

// Algorithm turns a rating into the next schedule of an entity and the review record to append.
type Algorithm interface {
	Name() string
	// MaxRating is the highest accepted rating; the lowest is always 0.
	MaxRating() int
	// NeedsHistory reports whether Apply needs the entity's last review.
	NeedsHistory() bool
	// Initial is the schedule of a newly created entity, due at now.
	Initial(now time.Time) store.Schedule
	Apply(entity store.Entity, last *store.Review, rating int, now time.Time) (store.Schedule, store.Review, error)
}

var (
	_ Algorithm = IntervalEase{}
	_ Algorithm = (*MemoryModel)(nil)
)

// IntervalEase schedules items with AdvanceIntervalEase.
type IntervalEase struct{}

func (IntervalEase) Name() string {
	return "interval-ease"
}

func (IntervalEase) MaxRating() int {
	return MaxQuality
}

func (IntervalEase) NeedsHistory() bool {
	return false
}

func (IntervalEase) Initial(now time.Time) store.Schedule {
	state := InitialIntervalEaseState()
	return store.Schedule{
		Repetitions:  state.Repetitions,
		IntervalDays: state.IntervalDays,
		EaseFactor:   state.EaseFactor,
		NextDue:      now,
	}
}

func (IntervalEase) Apply(entity store.Entity, _ *store.Review, rating int, now time.Time) (store.Schedule, store.Review, error) {
	if rating < 0 || rating > MaxQuality {
		return store.Schedule{}, store.Review{}, fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}

	next := AdvanceIntervalEase(rating, IntervalEaseState{
		Repetitions:  entity.Repetitions,
		IntervalDays: entity.IntervalDays,
		EaseFactor:   entity.EaseFactor,
	})
	schedule := store.Schedule{
		Repetitions:  next.Repetitions,
		IntervalDays: next.IntervalDays,
		EaseFactor:   next.EaseFactor,
		NextDue:      DueAfter(now, next.IntervalDays),
	}
	review := store.Review{
		EntityID:   entity.ID,
		ReviewedAt: now,
		Rating:     rating,
	}
	return schedule, review, nil
}

// MemoryModel schedules cards with AdvanceMemory.
type MemoryModel struct {
	model            RetentionModel
	desiredRetention float64
}

func NewMemoryModel(model RetentionModel, desiredRetention float64) *MemoryModel {
	return &MemoryModel{
		model:            model,
		desiredRetention: desiredRetention,
	}
}

func (m *MemoryModel) Name() string {
	return "memory-state"
}

func (m *MemoryModel) MaxRating() int {
	return int(Easy)
}

func (m *MemoryModel) NeedsHistory() bool {
	return true
}

func (m *MemoryModel) Initial(now time.Time) store.Schedule {
	return store.Schedule{NextDue: now}
}

// Apply measures elapsed time from the last review, or from the creation of the entity
// when it was never reviewed.
func (m *MemoryModel) Apply(entity store.Entity, last *store.Review, rating int, now time.Time) (store.Schedule, store.Review, error) {
	anchor := entity.CreatedAt
	var prior *fsrs.MemoryState
	if last != nil {
		anchor = last.ReviewedAt
		prior = &fsrs.MemoryState{
			Difficulty: last.Difficulty,
			Stability:  last.Stability,
		}
	}
	elapsed := ElapsedDays(anchor, now)

	outcome, err := AdvanceMemory(m.model, Rating(rating), prior, elapsed, m.desiredRetention)
	if err != nil {
		return store.Schedule{}, store.Review{}, fmt.Errorf("AdvanceMemory() > %w", err)
	}

	repetitions := entity.Repetitions + 1
	if Rating(rating) == Again {
		repetitions = 0
	}
	schedule := store.Schedule{
		Repetitions:  repetitions,
		IntervalDays: outcome.IntervalDays,
		NextDue:      DueAfter(now, outcome.IntervalDays),
	}
	review := store.Review{
		EntityID:         entity.ID,
		ReviewedAt:       now,
		Rating:           rating,
		Difficulty:       outcome.Memory.Difficulty,
		Stability:        outcome.Memory.Stability,
		IntervalDays:     outcome.IntervalDays,
		LastIntervalDays: elapsed,
	}
	return schedule, review, nil
}

// ForKind returns the algorithm that schedules entities of the given kind.
func ForKind(kind store.Kind, model RetentionModel, desiredRetention float64) (Algorithm, error) {
	switch kind {
	case store.KindItem:
		return IntervalEase{}, nil
	case store.KindCard:
		return NewMemoryModel(model, desiredRetention), nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}
