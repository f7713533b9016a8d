// Package archive exports entities with their review history and restores them.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/revise/internal/store"
)

var ErrKindMismatch = errors.New("archive kind does not match")

// Document is the exported form of every entity of one kind.
type Document struct {
	Kind       store.Kind `yaml:"kind"`
	ExportedAt time.Time  `yaml:"exported_at"`
	Entities   []Entity   `yaml:"entities"`
}

// Entity is an exported entity. ID is informational; imports assign new ids.
type Entity struct {
	ID             int64          `yaml:"id"`
	Description    string         `yaml:"description"`
	Group          string         `yaml:"group,omitempty"`
	CreatedAt      time.Time      `yaml:"created_at"`
	store.Schedule `yaml:",inline"`
	Reviews        []store.Review `yaml:"reviews,omitempty"`
}

// Collect reads every entity of the store together with its reviews.
func Collect(ctx context.Context, s store.Store, exportedAt time.Time) (*Document, error) {
	entities, err := s.List(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("store.List() > %w", err)
	}

	doc := &Document{
		Kind:       s.Kind(),
		ExportedAt: exportedAt.UTC(),
		Entities:   make([]Entity, 0, len(entities)),
	}
	for _, entity := range entities {
		reviews, err := s.Reviews(ctx, entity.ID)
		if err != nil {
			return nil, fmt.Errorf("store.Reviews(%d) > %w", entity.ID, err)
		}
		doc.Entities = append(doc.Entities, Entity{
			ID:          entity.ID,
			Description: entity.Description,
			Group:       entity.Group,
			CreatedAt:   entity.CreatedAt,
			Schedule:    entity.Schedule,
			Reviews:     reviews,
		})
	}
	return doc, nil
}

func Encode(w io.Writer, doc *Document) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoder.Encode() > %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoder.Close() > %w", err)
	}
	return nil
}

func Decode(r io.Reader) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoder.Decode() > %w", err)
	}
	switch doc.Kind {
	case store.KindItem, store.KindCard:
	default:
		return nil, fmt.Errorf("unknown kind %q in archive", doc.Kind)
	}
	return &doc, nil
}

// Restore creates the entities of doc in s with their schedules and reviews.
// Each entity is stored together with its reviews or not at all. Restore stops at
// the first failure, for example a description that already exists, and returns
// how many entities were restored before it.
func Restore(ctx context.Context, s store.Store, doc *Document) (int, error) {
	if doc.Kind != s.Kind() {
		return 0, fmt.Errorf("%w: archive has %ss, store has %ss", ErrKindMismatch, doc.Kind, s.Kind())
	}

	for i, entity := range doc.Entities {
		reviews := make([]store.Review, len(entity.Reviews))
		for j, review := range entity.Reviews {
			review.ID = 0
			reviews[j] = review
		}
		if _, err := s.CreateWithReviews(ctx, store.NewEntity{
			Description: entity.Description,
			Group:       entity.Group,
			CreatedAt:   entity.CreatedAt,
			Schedule:    entity.Schedule,
		}, reviews); err != nil {
			return i, fmt.Errorf("store.CreateWithReviews(%q) > %w", entity.Description, err)
		}
	}
	return len(doc.Entities), nil
}
