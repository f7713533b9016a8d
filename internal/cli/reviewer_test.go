package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/revise/internal/fsrs"
	mock_store "github.com/at-ishikawa/revise/internal/mocks/store"
	"github.com/at-ishikawa/revise/internal/scheduling"
	"github.com/at-ishikawa/revise/internal/store"
)

var reviewStart = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time {
		return t
	}
}

func newTestReviewer(s store.Store, algorithm scheduling.Algorithm, input string, now time.Time) (*Reviewer, *bytes.Buffer) {
	var out bytes.Buffer
	reviewer := NewReviewer(s, algorithm, strings.NewReader(input), &out)
	reviewer.now = fixedClock(now)
	return reviewer, &out
}

func seedItems(t *testing.T, s store.Store, descriptions ...string) []int64 {
	t.Helper()
	var ids []int64
	for _, description := range descriptions {
		id, err := s.Create(context.Background(), store.NewEntity{
			Description: description,
			CreatedAt:   reviewStart.Add(-time.Hour),
			Schedule:    scheduling.IntervalEase{}.Initial(reviewStart.Add(-time.Hour)),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func newCardAlgorithm(t *testing.T) scheduling.Algorithm {
	t.Helper()
	model, err := fsrs.NewDefault(fsrs.DefaultMaximumInterval)
	require.NoError(t, err)
	return scheduling.NewMemoryModel(model, 0.9)
}

func TestReviewer_ReviewDue_InvalidInputReprompts(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.KindItem)
	ids := seedItems(t, s, "first")

	reviewer, out := newTestReviewer(s, scheduling.IntervalEase{}, "x\n55\n9\n\n5\n", reviewStart)
	summary, err := reviewer.ReviewDue(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, ReviewSummary{Due: 1, Reviewed: 1}, summary)
	assert.Equal(t, 4, strings.Count(out.String(), "invalid input"))
	assert.Equal(t, 5, strings.Count(out.String(), "input value: "))

	got, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, got.Repetitions)
	assert.Equal(t, 1, got.IntervalDays)
	assert.InDelta(t, 2.6, got.EaseFactor, 1e-9)
	assert.True(t, reviewStart.AddDate(0, 0, 1).Equal(got.NextDue))

	reviews, err := s.Reviews(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestReviewer_ReviewDue_SkipLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.KindItem)
	ids := seedItems(t, s, "first", "second")

	before, err := s.Get(ctx, ids[0])
	require.NoError(t, err)

	reviewer, out := newTestReviewer(s, scheduling.IntervalEase{}, "s\n4\n", reviewStart)
	summary, err := reviewer.ReviewDue(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, ReviewSummary{Due: 2, Reviewed: 1, Skipped: 1}, summary)
	assert.Contains(t, out.String(), "skipped")

	after, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, before, after)
	reviews, err := s.Reviews(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, reviews)

	second, err := s.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, 1, second.Repetitions)
}

func TestReviewer_ReviewDue_QuitStopsTheRun(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantReviewed int
	}{
		{name: "quit at the first entity", input: "q\n", wantReviewed: 0},
		{name: "quit after two reviews", input: "5\n3\nq\n", wantReviewed: 2},
		{name: "quit after invalid input", input: "4\nabc\nq\n", wantReviewed: 1},
		{name: "end of input", input: "5\n", wantReviewed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemoryStore(store.KindItem)
			ids := seedItems(t, s, "one", "two", "three", "four")

			reviewer, _ := newTestReviewer(s, scheduling.IntervalEase{}, tt.input, reviewStart)
			summary, err := reviewer.ReviewDue(ctx, "")
			assert.ErrorIs(t, err, ErrAborted)
			assert.Equal(t, tt.wantReviewed, summary.Reviewed)

			for i, id := range ids {
				entity, err := s.Get(ctx, id)
				require.NoError(t, err)
				reviews, err := s.Reviews(ctx, id)
				require.NoError(t, err)
				if i < tt.wantReviewed {
					assert.Equal(t, 1, entity.Repetitions, "entity %d", id)
					assert.Len(t, reviews, 1, "entity %d", id)
					continue
				}
				assert.Equal(t, 0, entity.Repetitions, "entity %d", id)
				assert.True(t, entity.IsDue(reviewStart), "entity %d", id)
				assert.Empty(t, reviews, "entity %d", id)
			}
		})
	}
}

func TestReviewer_ReviewDue_OnlyDueEntitiesInGroup(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.KindItem)

	create := func(description, group string, nextDue time.Time) int64 {
		id, err := s.Create(ctx, store.NewEntity{
			Description: description,
			Group:       group,
			CreatedAt:   reviewStart.AddDate(0, 0, -10),
			Schedule:    store.Schedule{EaseFactor: 2.5, NextDue: nextDue},
		})
		require.NoError(t, err)
		return id
	}
	dueInGroup := create("due in group", "go", reviewStart)
	create("not due in group", "go", reviewStart.Add(time.Minute))
	create("due elsewhere", "sql", reviewStart.Add(-time.Hour))

	reviewer, out := newTestReviewer(s, scheduling.IntervalEase{}, "4\n", reviewStart)
	summary, err := reviewer.ReviewDue(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, ReviewSummary{Due: 1, Reviewed: 1}, summary)
	assert.Contains(t, out.String(), "due in group")
	assert.NotContains(t, out.String(), "due elsewhere")

	reviewed, err := s.Get(ctx, dueInGroup)
	require.NoError(t, err)
	assert.Equal(t, 1, reviewed.Repetitions)
}

func TestReviewer_ReviewDue_NothingDue(t *testing.T) {
	s := store.NewMemoryStore(store.KindCard)
	reviewer, out := newTestReviewer(s, newCardAlgorithm(t), "", reviewStart)

	summary, err := reviewer.ReviewDue(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, ReviewSummary{}, summary)
	assert.Contains(t, out.String(), "no cards to review")
}

func TestReviewer_CreatedEntityIsDueUntilReviewed(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.KindItem)

	var managerOut bytes.Buffer
	manager := NewManager(s, scheduling.IntervalEase{}, &managerOut)
	manager.now = fixedClock(reviewStart)
	id, err := manager.Create(ctx, "fresh item", "")
	require.NoError(t, err)

	created, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, created.IsDue(reviewStart))

	reviewer, _ := newTestReviewer(s, scheduling.IntervalEase{}, "5\n", reviewStart)
	summary, err := reviewer.ReviewDue(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reviewed)

	reviewed, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, reviewed.IsDue(reviewStart))
	assert.False(t, reviewed.IsDue(reviewStart.Add(23*time.Hour)))
	assert.True(t, reviewed.IsDue(reviewStart.AddDate(0, 0, reviewed.IntervalDays)))

	again, out := newTestReviewer(s, scheduling.IntervalEase{}, "", reviewStart.Add(time.Hour))
	summary, err = again.ReviewDue(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, summary.Due)
	assert.Contains(t, out.String(), "no items to review")
}

func TestReviewer_ReviewByID_Card(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.KindCard)
	algorithm := newCardAlgorithm(t)
	id, err := s.Create(ctx, store.NewEntity{
		Description: "card",
		CreatedAt:   reviewStart,
		Schedule:    algorithm.Initial(reviewStart),
	})
	require.NoError(t, err)

	first, out := newTestReviewer(s, algorithm, "2\n", reviewStart)
	state, err := first.ReviewByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	assert.Contains(t, out.String(), "never reviewed")

	last, err := s.LastReview(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 2, last.Rating)
	assert.Positive(t, last.Stability)
	assert.GreaterOrEqual(t, last.Difficulty, 1.0)
	assert.LessOrEqual(t, last.Difficulty, 10.0)
	assert.Zero(t, last.LastIntervalDays)

	entity, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, last.IntervalDays, entity.IntervalDays)
	assert.True(t, reviewStart.AddDate(0, 0, entity.IntervalDays).Equal(entity.NextDue))

	// Reviewing before the card is due still works by id and measures elapsed time from the last review.
	secondAt := reviewStart.AddDate(0, 0, 1)
	second, out := newTestReviewer(s, algorithm, "0\n", secondAt)
	state, err = second.ReviewByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	assert.Contains(t, out.String(), "last review:")

	latest, err := s.LastReview(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Rating)
	assert.Equal(t, 1, latest.LastIntervalDays)

	entity, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, entity.Repetitions)
}

func TestReviewer_ReviewByID_Errors(t *testing.T) {
	entity := store.Entity{
		ID:          3,
		Kind:        store.KindItem,
		Description: "item",
		CreatedAt:   reviewStart,
		Schedule:    store.Schedule{EaseFactor: 2.5, NextDue: reviewStart},
	}
	errDB := errors.New("connection lost")

	tests := []struct {
		name      string
		input     string
		setupMock func(m *mock_store.MockStore)
		wantOp    string
		wantErrIs error
	}{
		{
			name: "entity not found",
			setupMock: func(m *mock_store.MockStore) {
				m.EXPECT().Get(gomock.Any(), int64(3)).Return(nil, store.ErrNotFound)
			},
			wantOp:    "get",
			wantErrIs: store.ErrNotFound,
		},
		{
			name:  "schedule update fails",
			input: "4\n",
			setupMock: func(m *mock_store.MockStore) {
				m.EXPECT().Get(gomock.Any(), int64(3)).Return(&entity, nil)
				m.EXPECT().UpdateSchedule(gomock.Any(), int64(3), gomock.Any()).Return(errDB)
			},
			wantOp:    "update schedule",
			wantErrIs: errDB,
		},
		{
			name:  "review append fails",
			input: "4\n",
			setupMock: func(m *mock_store.MockStore) {
				m.EXPECT().Get(gomock.Any(), int64(3)).Return(&entity, nil)
				m.EXPECT().UpdateSchedule(gomock.Any(), int64(3), gomock.Any()).Return(nil)
				m.EXPECT().AppendReview(gomock.Any(), gomock.Any()).Return(errDB)
			},
			wantOp:    "append review",
			wantErrIs: errDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := mock_store.NewMockStore(ctrl)
			m.EXPECT().Kind().Return(store.KindItem).AnyTimes()
			tt.setupMock(m)

			reviewer, _ := newTestReviewer(m, scheduling.IntervalEase{}, tt.input, reviewStart)
			_, err := reviewer.ReviewByID(context.Background(), 3)

			var reviewErr *ReviewError
			require.ErrorAs(t, err, &reviewErr)
			assert.Equal(t, int64(3), reviewErr.EntityID)
			assert.Equal(t, tt.wantOp, reviewErr.Op)
			assert.ErrorIs(t, err, tt.wantErrIs)
		})
	}
}

func TestReviewer_ReviewDue_StopsAtFailedEntity(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mock_store.NewMockStore(ctrl)
	m.EXPECT().Kind().Return(store.KindCard).AnyTimes()

	entities := []store.Entity{
		{ID: 1, Kind: store.KindCard, Description: "a", CreatedAt: reviewStart, Schedule: store.Schedule{NextDue: reviewStart}},
		{ID: 2, Kind: store.KindCard, Description: "b", CreatedAt: reviewStart, Schedule: store.Schedule{NextDue: reviewStart}},
	}
	m.EXPECT().List(gomock.Any(), store.Filter{}).Return(entities, nil)
	m.EXPECT().LastReview(gomock.Any(), int64(1)).Return(nil, errors.New("disk I/O error"))

	reviewer, _ := newTestReviewer(m, newCardAlgorithm(t), "2\n2\n", reviewStart)
	summary, err := reviewer.ReviewDue(context.Background(), "")

	var reviewErr *ReviewError
	require.ErrorAs(t, err, &reviewErr)
	assert.Equal(t, "last review", reviewErr.Op)
	assert.Equal(t, 0, summary.Reviewed)
}
