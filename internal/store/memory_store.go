package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store. Several stores of different kinds can
// share one MemoryData to mirror a shared database.
type MemoryStore struct {
	data *MemoryData
	kind Kind
}

// MemoryData holds the rows shared by memory stores.
type MemoryData struct {
	mu           sync.Mutex
	entities     map[int64]Entity
	reviews      []Review
	nextEntityID int64
	nextReviewID int64
}

// NewMemoryData creates empty shared storage.
func NewMemoryData() *MemoryData {
	return &MemoryData{
		entities:     make(map[int64]Entity),
		nextEntityID: 1,
		nextReviewID: 1,
	}
}

// NewMemoryStore creates a MemoryStore with its own storage.
func NewMemoryStore(kind Kind) *MemoryStore {
	return NewMemoryStoreWithData(NewMemoryData(), kind)
}

// NewMemoryStoreWithData creates a MemoryStore backed by data.
func NewMemoryStoreWithData(data *MemoryData, kind Kind) *MemoryStore {
	return &MemoryStore{data: data, kind: kind}
}

func (s *MemoryStore) Kind() Kind {
	return s.kind
}

func (s *MemoryStore) Create(_ context.Context, entity NewEntity) (int64, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	return s.create(entity)
}

func (s *MemoryStore) CreateWithReviews(_ context.Context, entity NewEntity, reviews []Review) (int64, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	id, err := s.create(entity)
	if err != nil {
		return 0, err
	}
	for _, review := range reviews {
		review.EntityID = id
		s.appendReview(&review)
	}
	return id, nil
}

func (s *MemoryStore) create(entity NewEntity) (int64, error) {
	if s.hasDescription(entity.Description, 0) {
		return 0, fmt.Errorf("%q: %w", entity.Description, ErrDuplicateDescription)
	}
	id := s.data.nextEntityID
	s.data.nextEntityID++
	schedule := entity.Schedule
	schedule.NextDue = schedule.NextDue.UTC()
	s.data.entities[id] = Entity{
		ID:          id,
		Kind:        s.kind,
		Description: entity.Description,
		Group:       entity.Group,
		CreatedAt:   entity.CreatedAt.UTC(),
		Schedule:    schedule,
	}
	return id, nil
}

func (s *MemoryStore) UpdateDescription(_ context.Context, id int64, description string) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	entity, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	if s.hasDescription(description, id) {
		return fmt.Errorf("%q: %w", description, ErrDuplicateDescription)
	}
	entity.Description = description
	s.data.entities[id] = entity
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Entity, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	entity, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", s.kind, id, ErrNotFound)
	}
	return &entity, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Entity, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	var entities []Entity
	for _, entity := range s.data.entities {
		if entity.Kind != s.kind {
			continue
		}
		if filter.Group != "" && entity.Group != filter.Group {
			continue
		}
		if filter.Query != "" && !strings.Contains(entity.Description, filter.Query) {
			continue
		}
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].ID < entities[j].ID
	})
	return entities, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	if _, ok := s.lookup(id); !ok {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	delete(s.data.entities, id)
	return nil
}

func (s *MemoryStore) UpdateSchedule(_ context.Context, id int64, schedule Schedule) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	entity, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	schedule.NextDue = schedule.NextDue.UTC()
	entity.Schedule = schedule
	s.data.entities[id] = entity
	return nil
}

func (s *MemoryStore) AppendReview(_ context.Context, review *Review) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	s.appendReview(review)
	return nil
}

func (s *MemoryStore) appendReview(review *Review) {
	review.ID = s.data.nextReviewID
	s.data.nextReviewID++
	stored := *review
	stored.ReviewedAt = stored.ReviewedAt.UTC()
	s.data.reviews = append(s.data.reviews, stored)
}

func (s *MemoryStore) LastReview(_ context.Context, id int64) (*Review, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	entity, ok := s.data.entities[id]
	if !ok {
		return nil, nil
	}
	var last *Review
	for i := range s.data.reviews {
		review := s.data.reviews[i]
		if review.EntityID != id || review.ReviewedAt.Before(entity.CreatedAt) {
			continue
		}
		if last == nil || !review.ReviewedAt.Before(last.ReviewedAt) {
			copied := review
			last = &copied
		}
	}
	return last, nil
}

func (s *MemoryStore) Reviews(_ context.Context, id int64) ([]Review, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	var reviews []Review
	for _, review := range s.data.reviews {
		if review.EntityID == id {
			reviews = append(reviews, review)
		}
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].ReviewedAt.Before(reviews[j].ReviewedAt)
	})
	return reviews, nil
}

func (s *MemoryStore) lookup(id int64) (Entity, bool) {
	entity, ok := s.data.entities[id]
	if !ok || entity.Kind != s.kind {
		return Entity{}, false
	}
	return entity, true
}

func (s *MemoryStore) hasDescription(description string, exceptID int64) bool {
	for id, entity := range s.data.entities {
		if id != exceptID && entity.Kind == s.kind && entity.Description == description {
			return true
		}
	}
	return false
}
