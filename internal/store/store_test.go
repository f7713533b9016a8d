package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

// storeFactories builds each implementation so the same behavior is checked on both.
func storeFactories() map[string]func(t *testing.T, kind Kind) Store {
	return map[string]func(t *testing.T, kind Kind) Store{
		"db": func(t *testing.T, kind Kind) Store {
			return NewDBStore(newSQLiteDB(t), kind)
		},
		"memory": func(t *testing.T, kind Kind) Store {
			return NewMemoryStore(kind)
		},
	}
}

func newEntity(description string, createdAt time.Time) NewEntity {
	return NewEntity{
		Description: description,
		CreatedAt:   createdAt,
		Schedule: Schedule{
			EaseFactor: 2.5,
			NextDue:    createdAt,
		},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindItem)

			entity := newEntity("capital of France", createdAt)
			entity.Group = "geography"
			id, err := s.Create(ctx, entity)
			require.NoError(t, err)
			assert.Positive(t, id)

			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, got.ID)
			assert.Equal(t, KindItem, got.Kind)
			assert.Equal(t, "capital of France", got.Description)
			assert.Equal(t, "geography", got.Group)
			assert.True(t, createdAt.Equal(got.CreatedAt))
			assert.True(t, createdAt.Equal(got.NextDue))
			assert.Equal(t, 2.5, got.EaseFactor)
			assert.True(t, got.IsDue(createdAt))
		})
	}
}

func TestStore_DuplicateDescription(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindItem)

			_, err := s.Create(ctx, newEntity("same", now))
			require.NoError(t, err)
			otherID, err := s.Create(ctx, newEntity("other", now))
			require.NoError(t, err)

			_, err = s.Create(ctx, newEntity("same", now))
			assert.ErrorIs(t, err, ErrDuplicateDescription)

			err = s.UpdateDescription(ctx, otherID, "same")
			assert.ErrorIs(t, err, ErrDuplicateDescription)
		})
	}
}

func TestStore_KindsAreSeparate(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	db := newSQLiteDB(t)
	data := NewMemoryData()
	pairs := map[string][2]Store{
		"db":     {NewDBStore(db, KindItem), NewDBStore(db, KindCard)},
		"memory": {NewMemoryStoreWithData(data, KindItem), NewMemoryStoreWithData(data, KindCard)},
	}
	for name, pair := range pairs {
		t.Run(name, func(t *testing.T) {
			items, cards := pair[0], pair[1]

			itemID, err := items.Create(ctx, newEntity("shared description", now))
			require.NoError(t, err)
			_, err = cards.Create(ctx, newEntity("shared description", now))
			require.NoError(t, err)

			_, err = cards.Get(ctx, itemID)
			assert.ErrorIs(t, err, ErrNotFound)

			got, err := items.List(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, itemID, got[0].ID)
		})
	}
}

func TestStore_UpdateDescriptionKeepsSchedule(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindItem)

			id, err := s.Create(ctx, newEntity("before", now))
			require.NoError(t, err)
			schedule := Schedule{Repetitions: 2, IntervalDays: 6, EaseFactor: 2.7, NextDue: now.AddDate(0, 0, 6)}
			require.NoError(t, s.UpdateSchedule(ctx, id, schedule))

			require.NoError(t, s.UpdateDescription(ctx, id, "after"))
			// Setting the same description again still finds the row.
			require.NoError(t, s.UpdateDescription(ctx, id, "after"))

			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "after", got.Description)
			assert.Equal(t, 2, got.Repetitions)
			assert.Equal(t, 6, got.IntervalDays)
			assert.Equal(t, 2.7, got.EaseFactor)
			assert.True(t, schedule.NextDue.Equal(got.NextDue))
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindCard)

			_, err := s.Get(ctx, 42)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.UpdateDescription(ctx, 42, "x"), ErrNotFound)
			assert.ErrorIs(t, s.UpdateSchedule(ctx, 42, Schedule{}), ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, 42), ErrNotFound)

			last, err := s.LastReview(ctx, 42)
			require.NoError(t, err)
			assert.Nil(t, last)
		})
	}
}

func TestStore_List(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindItem)

			for _, e := range []struct {
				description string
				group       string
			}{
				{"go channels", "go"},
				{"go interfaces", "go"},
				{"sql joins", "db"},
			} {
				entity := newEntity(e.description, now)
				entity.Group = e.group
				_, err := s.Create(ctx, entity)
				require.NoError(t, err)
			}

			tests := []struct {
				name   string
				filter Filter
				want   []string
			}{
				{name: "everything in id order", filter: Filter{}, want: []string{"go channels", "go interfaces", "sql joins"}},
				{name: "by group", filter: Filter{Group: "go"}, want: []string{"go channels", "go interfaces"}},
				{name: "by query", filter: Filter{Query: "join"}, want: []string{"sql joins"}},
				{name: "group and query", filter: Filter{Group: "go", Query: "inter"}, want: []string{"go interfaces"}},
				{name: "no match", filter: Filter{Group: "none"}, want: nil},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.List(ctx, tt.filter)
					require.NoError(t, err)
					var descriptions []string
					for i, entity := range got {
						descriptions = append(descriptions, entity.Description)
						if i > 0 {
							assert.Less(t, got[i-1].ID, entity.ID)
						}
					}
					assert.Equal(t, tt.want, descriptions)
				})
			}
		})
	}
}

func TestStore_Reviews(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindCard)

			id, err := s.Create(ctx, newEntity("card", now))
			require.NoError(t, err)

			first := &Review{EntityID: id, ReviewedAt: now.Add(time.Hour), Rating: 2, Difficulty: 5.3, Stability: 3.2, IntervalDays: 3}
			second := &Review{EntityID: id, ReviewedAt: now.AddDate(0, 0, 3), Rating: 0, Difficulty: 6.9, Stability: 0.8, IntervalDays: 1, LastIntervalDays: 3}
			require.NoError(t, s.AppendReview(ctx, first))
			require.NoError(t, s.AppendReview(ctx, second))
			assert.NotEqual(t, first.ID, second.ID)

			last, err := s.LastReview(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, last)
			assert.Equal(t, second.ID, last.ID)
			assert.Equal(t, 0, last.Rating)
			assert.Equal(t, 6.9, last.Difficulty)
			assert.Equal(t, 0.8, last.Stability)
			assert.Equal(t, 3, last.LastIntervalDays)
			assert.True(t, second.ReviewedAt.Equal(last.ReviewedAt))

			all, err := s.Reviews(ctx, id)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, first.ID, all[0].ID)
			assert.Equal(t, second.ID, all[1].ID)
		})
	}
}

func TestStore_DeleteLeavesReviews(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindItem)

			id, err := s.Create(ctx, newEntity("doomed", now))
			require.NoError(t, err)
			require.NoError(t, s.AppendReview(ctx, &Review{EntityID: id, ReviewedAt: now, Rating: 4}))

			require.NoError(t, s.Delete(ctx, id))
			_, err = s.Get(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound)

			reviews, err := s.Reviews(ctx, id)
			require.NoError(t, err)
			assert.Len(t, reviews, 1)
		})
	}
}

func TestEntity_IsDue(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		nextDue time.Time
		want    bool
	}{
		{name: "in the past", nextDue: now.Add(-time.Second), want: true},
		{name: "exactly now", nextDue: now, want: true},
		{name: "in the future", nextDue: now.Add(time.Second), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := Entity{Schedule: Schedule{NextDue: tt.nextDue}}
			assert.Equal(t, tt.want, entity.IsDue(now))
		})
	}
}

func TestStore_CreateWithReviews(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindCard)

			id, err := s.CreateWithReviews(ctx, newEntity("imported", now), []Review{
				{ReviewedAt: now, Rating: 2, Difficulty: 5.3, Stability: 3.2, IntervalDays: 3},
				{ReviewedAt: now.AddDate(0, 0, 3), Rating: 3, Difficulty: 4.9, Stability: 12.1, IntervalDays: 12, LastIntervalDays: 3},
			})
			require.NoError(t, err)

			reviews, err := s.Reviews(ctx, id)
			require.NoError(t, err)
			require.Len(t, reviews, 2)
			for _, review := range reviews {
				assert.Equal(t, id, review.EntityID)
			}
			assert.Equal(t, 12.1, reviews[1].Stability)

			_, err = s.CreateWithReviews(ctx, newEntity("imported", now), []Review{{ReviewedAt: now, Rating: 1}})
			assert.ErrorIs(t, err, ErrDuplicateDescription)
			entities, err := s.List(ctx, Filter{})
			require.NoError(t, err)
			assert.Len(t, entities, 1)
		})
	}
}

func TestStore_LastReviewIgnoresReviewsBeforeCreation(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, KindCard)

			id, err := s.Create(ctx, newEntity("reused id", createdAt))
			require.NoError(t, err)
			// Left behind by a deleted entity that had the same id.
			require.NoError(t, s.AppendReview(ctx, &Review{EntityID: id, ReviewedAt: createdAt.AddDate(0, 0, -2), Rating: 3, Difficulty: 2, Stability: 40}))

			last, err := s.LastReview(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, last)

			own := &Review{EntityID: id, ReviewedAt: createdAt, Rating: 2, Difficulty: 5.3, Stability: 3.2}
			require.NoError(t, s.AppendReview(ctx, own))
			last, err = s.LastReview(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, last)
			assert.Equal(t, own.ID, last.ID)
		})
	}
}
