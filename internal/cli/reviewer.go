package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/revise/internal/scheduling"
	"github.com/at-ishikawa/revise/internal/store"
)

// ReviewSummary counts the outcomes of a review run.
type ReviewSummary struct {
	Due      int
	Reviewed int
	Skipped  int
}

// Reviewer runs interactive reviews of the entities in a store.
type Reviewer struct {
	store     store.Store
	algorithm scheduling.Algorithm
	reader    *bufio.Reader
	printer   *printer
	now       func() time.Time
}

func NewReviewer(s store.Store, algorithm scheduling.Algorithm, in io.Reader, out io.Writer) *Reviewer {
	return &Reviewer{
		store:     s,
		algorithm: algorithm,
		reader:    bufio.NewReader(in),
		printer:   newPrinter(out),
		now:       time.Now,
	}
}

// ReviewDue reviews every entity due now, optionally limited to a group, in ascending id order.
// Entities becoming due during the run are left for the next run.
// Quitting returns ErrAborted; reviews completed before that stay persisted.
func (r *Reviewer) ReviewDue(ctx context.Context, group string) (ReviewSummary, error) {
	var summary ReviewSummary
	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID, "kind", r.store.Kind(), "algorithm", r.algorithm.Name())

	candidates, err := r.store.List(ctx, store.Filter{Group: group})
	if err != nil {
		return summary, fmt.Errorf("store.List() > %w", err)
	}
	startedAt := r.now()
	var due []store.Entity
	for _, entity := range candidates {
		if entity.IsDue(startedAt) {
			due = append(due, entity)
		}
	}
	summary.Due = len(due)
	logger.Debug("Start reviewing", "candidates", len(candidates), "due", len(due), "group", group)
	if len(due) == 0 {
		r.printer.line("no %ss to review", r.store.Kind())
		return summary, nil
	}

	for i, entity := range due {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r.printer.line("(%d/%d)", i+1, len(due))
		state, err := r.review(ctx, logger, entity)
		if err != nil {
			return summary, err
		}
		switch state {
		case StateDone:
			summary.Reviewed++
		case StateSkipped:
			summary.Skipped++
		case StateAborted:
			logger.Debug("Review aborted", "reviewed", summary.Reviewed, "skipped", summary.Skipped)
			return summary, ErrAborted
		}
	}
	r.printer.line("reviewed %d, skipped %d", summary.Reviewed, summary.Skipped)
	return summary, nil
}

// ReviewByID reviews one entity whether it is due or not.
func (r *Reviewer) ReviewByID(ctx context.Context, id int64) (State, error) {
	logger := slog.Default().With("run_id", uuid.NewString(), "kind", r.store.Kind(), "algorithm", r.algorithm.Name())

	entity, err := r.store.Get(ctx, id)
	if err != nil {
		return StateAwaitingInput, &ReviewError{EntityID: id, Op: "get", Err: err}
	}
	state, err := r.review(ctx, logger, *entity)
	if err != nil {
		return state, err
	}
	if state == StateAborted {
		return state, ErrAborted
	}
	return state, nil
}

func (r *Reviewer) review(ctx context.Context, logger *slog.Logger, entity store.Entity) (State, error) {
	var last *store.Review
	if r.algorithm.NeedsHistory() {
		var err error
		last, err = r.store.LastReview(ctx, entity.ID)
		if err != nil {
			return StateAwaitingInput, &ReviewError{EntityID: entity.ID, Op: "last review", Err: err}
		}
	}

	r.printer.entity(entity)
	if r.algorithm.NeedsHistory() {
		r.printer.lastReview(last)
	}
	r.printer.ratingGuide(entity.Kind, r.algorithm.MaxRating())

	session := newReviewSession(r.algorithm.MaxRating())
	for !session.State().IsTerminal() {
		r.printer.prompt()
		line, readErr := r.reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return session.State(), &ReviewError{EntityID: entity.ID, Op: "read input", Err: readErr}
		}

		switch session.Feed(line) {
		case StateAwaitingInput:
			if errors.Is(readErr, io.EOF) {
				// Nothing more to read, so the run cannot continue.
				r.printer.line("")
				session.Abort()
				continue
			}
			r.printer.invalidInput()
		case StateSkipped:
			r.printer.skipped()
			logger.Debug("Skipped", "entity_id", entity.ID)
		case StateApplying:
			if err := r.apply(ctx, logger, entity, last, session.Rating()); err != nil {
				return session.State(), err
			}
			session.Complete()
		}
	}
	return session.State(), nil
}

func (r *Reviewer) apply(ctx context.Context, logger *slog.Logger, entity store.Entity, last *store.Review, rating int) error {
	now := r.now()
	schedule, review, err := r.algorithm.Apply(entity, last, rating, now)
	if err != nil {
		return &ReviewError{EntityID: entity.ID, Op: "schedule", Err: err}
	}
	if err := r.store.UpdateSchedule(ctx, entity.ID, schedule); err != nil {
		return &ReviewError{EntityID: entity.ID, Op: "update schedule", Err: err}
	}
	if err := r.store.AppendReview(ctx, &review); err != nil {
		return &ReviewError{EntityID: entity.ID, Op: "append review", Err: err}
	}

	logger.Debug("Reviewed",
		"entity_id", entity.ID,
		"rating", rating,
		"interval_days", schedule.IntervalDays,
		"next_due", schedule.NextDue,
	)
	r.printer.nextReview(schedule.NextDue)
	return nil
}
