// Package store persists reviewable entities and their append-only review history.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateDescription = errors.New("description already exists")
)

// Kind separates entities scheduled by different algorithms.
// Descriptions only need to be unique within a kind.
type Kind string

const (
	KindItem Kind = "item"
	KindCard Kind = "card"
)

// Schedule is the part of an entity rewritten by a review.
// Cards only use IntervalDays, Repetitions and NextDue; their memory state lives in the review history.
type Schedule struct {
	Repetitions  int       `db:"repetitions" yaml:"repetitions"`
	IntervalDays int       `db:"interval_days" yaml:"interval_days"`
	EaseFactor   float64   `db:"ease_factor" yaml:"ease_factor"`
	NextDue      time.Time `db:"next_due" yaml:"next_due"`
}

// Entity is an item or a card.
type Entity struct {
	ID          int64     `db:"id"`
	Kind        Kind      `db:"kind"`
	Description string    `db:"description"`
	Group       string    `db:"group_name"`
	CreatedAt   time.Time `db:"created_at"`
	Schedule
}

// IsDue reports whether the entity should be reviewed at now.
func (e Entity) IsDue(now time.Time) bool {
	return !e.NextDue.After(now)
}

// NewEntity holds what is needed to create an entity.
type NewEntity struct {
	Description string
	Group       string
	CreatedAt   time.Time
	Schedule    Schedule
}

// Review is one completed review. Reviews are never updated or deleted.
// Difficulty, Stability, IntervalDays and LastIntervalDays are only set for cards.
type Review struct {
	ID               int64     `db:"id" yaml:"-"`
	EntityID         int64     `db:"entity_id" yaml:"-"`
	ReviewedAt       time.Time `db:"reviewed_at" yaml:"reviewed_at"`
	Rating           int       `db:"rating" yaml:"rating"`
	Difficulty       float64   `db:"difficulty" yaml:"difficulty,omitempty"`
	Stability        float64   `db:"stability" yaml:"stability,omitempty"`
	IntervalDays     int       `db:"interval_days" yaml:"interval_days,omitempty"`
	LastIntervalDays int       `db:"last_interval_days" yaml:"last_interval_days,omitempty"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Group string
	Query string
}

//go:generate mockgen -source=store.go -destination=../mocks/store/mock_store.go -package=mock_store Store

// Store is scoped to a single Kind.
type Store interface {
	Kind() Kind
	Create(ctx context.Context, entity NewEntity) (int64, error)
	// CreateWithReviews creates the entity together with its review history.
	// Either all of them are stored or none is.
	CreateWithReviews(ctx context.Context, entity NewEntity, reviews []Review) (int64, error)
	UpdateDescription(ctx context.Context, id int64, description string) error
	Get(ctx context.Context, id int64) (*Entity, error)
	// List returns entities ordered by ascending id.
	List(ctx context.Context, filter Filter) ([]Entity, error)
	Delete(ctx context.Context, id int64) error
	UpdateSchedule(ctx context.Context, id int64, schedule Schedule) error
	AppendReview(ctx context.Context, review *Review) error
	// LastReview returns the most recent review of the entity, or nil if it was never reviewed.
	LastReview(ctx context.Context, id int64) (*Review, error)
	// Reviews returns the reviews of the entity ordered by time.
	Reviews(ctx context.Context, id int64) ([]Review, error)
}
