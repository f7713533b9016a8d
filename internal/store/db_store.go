package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const mysqlDuplicateEntry = 1062

const entityColumns = "id, kind, description, group_name, created_at, repetitions, interval_days, ease_factor, next_due"

const reviewColumns = "id, entity_id, reviewed_at, rating, difficulty, stability, interval_days, last_interval_days"

// DBStore implements Store on top of an SQL database.
type DBStore struct {
	db   *sqlx.DB
	kind Kind
}

// NewDBStore creates a DBStore for the entities of the given kind.
func NewDBStore(db *sqlx.DB, kind Kind) *DBStore {
	return &DBStore{db: db, kind: kind}
}

func (s *DBStore) Kind() Kind {
	return s.kind
}

// Create inserts a new entity and returns its id.
func (s *DBStore) Create(ctx context.Context, entity NewEntity) (int64, error) {
	return s.insertEntity(ctx, s.db, entity)
}

// CreateWithReviews inserts the entity and its reviews in a transaction.
func (s *DBStore) CreateWithReviews(ctx context.Context, entity NewEntity, reviews []Review) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("db.BeginTxx() > %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := s.insertEntity(ctx, tx, entity)
	if err != nil {
		return 0, err
	}
	for i := range reviews {
		review := reviews[i]
		review.EntityID = id
		if err := insertReview(ctx, tx, &review); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("tx.Commit() > %w", err)
	}
	return id, nil
}

func (s *DBStore) insertEntity(ctx context.Context, execer sqlx.ExecerContext, entity NewEntity) (int64, error) {
	result, err := execer.ExecContext(ctx,
		`INSERT INTO entities (kind, description, group_name, created_at, repetitions, interval_days, ease_factor, next_due)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.kind, entity.Description, entity.Group, entity.CreatedAt.UTC(),
		entity.Schedule.Repetitions, entity.Schedule.IntervalDays, entity.Schedule.EaseFactor, entity.Schedule.NextDue.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%q: %w", entity.Description, ErrDuplicateDescription)
		}
		return 0, fmt.Errorf("ExecContext(insert entity) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result.LastInsertId() > %w", err)
	}
	return id, nil
}

// UpdateDescription replaces the description and keeps the schedule untouched.
func (s *DBStore) UpdateDescription(ctx context.Context, id int64, description string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE entities SET description = ? WHERE id = ? AND kind = ?",
		description, id, s.kind)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%q: %w", description, ErrDuplicateDescription)
		}
		return fmt.Errorf("db.ExecContext(update description) > %w", err)
	}
	return requireAffected(result, id)
}

func (s *DBStore) Get(ctx context.Context, id int64) (*Entity, error) {
	var entity Entity
	err := s.db.GetContext(ctx, &entity,
		"SELECT "+entityColumns+" FROM entities WHERE id = ? AND kind = ?",
		id, s.kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", s.kind, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(entity) > %w", err)
	}
	normalizeEntity(&entity)
	return &entity, nil
}

// List returns the entities matching the filter ordered by id.
func (s *DBStore) List(ctx context.Context, filter Filter) ([]Entity, error) {
	var (
		conditions = []string{"kind = ?"}
		args       = []any{s.kind}
	)
	if filter.Group != "" {
		conditions = append(conditions, "group_name = ?")
		args = append(args, filter.Group)
	}
	if filter.Query != "" {
		conditions = append(conditions, "instr(description, ?) > 0")
		args = append(args, filter.Query)
	}

	var entities []Entity
	query := "SELECT " + entityColumns + " FROM entities WHERE " + strings.Join(conditions, " AND ") + " ORDER BY id"
	if err := s.db.SelectContext(ctx, &entities, query, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(entities) > %w", err)
	}
	for i := range entities {
		normalizeEntity(&entities[i])
	}
	return entities, nil
}

// Delete removes the entity. Its reviews are left in place.
func (s *DBStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM entities WHERE id = ? AND kind = ?", id, s.kind)
	if err != nil {
		return fmt.Errorf("db.ExecContext(delete entity) > %w", err)
	}
	return requireAffected(result, id)
}

func (s *DBStore) UpdateSchedule(ctx context.Context, id int64, schedule Schedule) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE entities SET repetitions = ?, interval_days = ?, ease_factor = ?, next_due = ?
		WHERE id = ? AND kind = ?`,
		schedule.Repetitions, schedule.IntervalDays, schedule.EaseFactor, schedule.NextDue.UTC(), id, s.kind)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update schedule) > %w", err)
	}
	return requireAffected(result, id)
}

// AppendReview inserts the review and sets its ID.
func (s *DBStore) AppendReview(ctx context.Context, review *Review) error {
	return insertReview(ctx, s.db, review)
}

func insertReview(ctx context.Context, execer sqlx.ExecerContext, review *Review) error {
	result, err := execer.ExecContext(ctx,
		`INSERT INTO reviews (entity_id, reviewed_at, rating, difficulty, stability, interval_days, last_interval_days)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.EntityID, review.ReviewedAt.UTC(), review.Rating, review.Difficulty, review.Stability,
		review.IntervalDays, review.LastIntervalDays)
	if err != nil {
		return fmt.Errorf("ExecContext(insert review) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("result.LastInsertId() > %w", err)
	}
	review.ID = id
	return nil
}

// LastReview ignores reviews older than the entity. They belong to a deleted
// entity whose id was handed out again, which MySQL before 8.0 does after a restart.
func (s *DBStore) LastReview(ctx context.Context, id int64) (*Review, error) {
	var review Review
	err := s.db.GetContext(ctx, &review,
		"SELECT "+reviewColumns+` FROM reviews
		WHERE entity_id = ? AND reviewed_at >= (SELECT created_at FROM entities WHERE id = ?)
		ORDER BY reviewed_at DESC, id DESC LIMIT 1`,
		id, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(last review) > %w", err)
	}
	review.ReviewedAt = review.ReviewedAt.UTC()
	return &review, nil
}

func (s *DBStore) Reviews(ctx context.Context, id int64) ([]Review, error) {
	var reviews []Review
	if err := s.db.SelectContext(ctx, &reviews,
		"SELECT "+reviewColumns+" FROM reviews WHERE entity_id = ? ORDER BY reviewed_at, id",
		id); err != nil {
		return nil, fmt.Errorf("db.SelectContext(reviews) > %w", err)
	}
	for i := range reviews {
		reviews[i].ReviewedAt = reviews[i].ReviewedAt.UTC()
	}
	return reviews, nil
}

func normalizeEntity(entity *Entity) {
	entity.CreatedAt = entity.CreatedAt.UTC()
	entity.NextDue = entity.NextDue.UTC()
}

func requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// The primary code is reported unless extended result codes are enabled.
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
