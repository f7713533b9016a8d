package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-playground/validator/v10"

	"github.com/at-ishikawa/revise/internal/scheduling"
	"github.com/at-ishikawa/revise/internal/statistics"
	"github.com/at-ishikawa/revise/internal/store"
)

const descriptionRule = "required,max=512"

// ListOptions narrows the entities shown by List.
type ListOptions struct {
	Query string
	Group string
	// All includes entities that are not due yet.
	All bool
}

// Manager creates, edits, shows and removes entities.
type Manager struct {
	store     store.Store
	algorithm scheduling.Algorithm
	validate  *validator.Validate
	printer   *printer
	now       func() time.Time
}

func NewManager(s store.Store, algorithm scheduling.Algorithm, out io.Writer) *Manager {
	return &Manager{
		store:     s,
		algorithm: algorithm,
		validate:  validator.New(),
		printer:   newPrinter(out),
		now:       time.Now,
	}
}

// Create adds an entity that is due immediately.
func (m *Manager) Create(ctx context.Context, description, group string) (int64, error) {
	description, err := m.validDescription(description)
	if err != nil {
		return 0, err
	}

	now := m.now()
	id, err := m.store.Create(ctx, store.NewEntity{
		Description: description,
		Group:       strings.TrimSpace(group),
		CreatedAt:   now,
		Schedule:    m.algorithm.Initial(now),
	})
	if err != nil {
		return 0, fmt.Errorf("store.Create() > %w", err)
	}
	m.printer.line("created %s %d", m.store.Kind(), id)
	return id, nil
}

// Edit replaces the description without touching the schedule.
func (m *Manager) Edit(ctx context.Context, id int64, description string) error {
	description, err := m.validDescription(description)
	if err != nil {
		return err
	}
	if err := m.store.UpdateDescription(ctx, id, description); err != nil {
		return fmt.Errorf("store.UpdateDescription(%d) > %w", id, err)
	}
	m.printer.line("updated %s %d", m.store.Kind(), id)
	return nil
}

func (m *Manager) View(ctx context.Context, id int64) error {
	entity, err := m.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("store.Get(%d) > %w", id, err)
	}
	m.printer.entity(*entity)
	if m.algorithm.NeedsHistory() {
		last, err := m.store.LastReview(ctx, id)
		if err != nil {
			return fmt.Errorf("store.LastReview(%d) > %w", id, err)
		}
		m.printer.lastReview(last)
	}
	return nil
}

func (m *Manager) Remove(ctx context.Context, id int64) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("store.Delete(%d) > %w", id, err)
	}
	m.printer.line("removed %s %d", m.store.Kind(), id)
	return nil
}

// List prints matching entities as a table.
func (m *Manager) List(ctx context.Context, options ListOptions) ([]store.Entity, error) {
	entities, err := m.store.List(ctx, store.Filter{
		Group: options.Group,
		Query: options.Query,
	})
	if err != nil {
		return nil, fmt.Errorf("store.List() > %w", err)
	}

	if !options.All {
		now := m.now()
		due := entities[:0]
		for _, entity := range entities {
			if entity.IsDue(now) {
				due = append(due, entity)
			}
		}
		entities = due
	}
	if len(entities) == 0 {
		m.printer.line("no %ss found", m.store.Kind())
		return entities, nil
	}

	m.printer.line("%s", m.entityTable(entities))
	return entities, nil
}

// Stats prints monthly review statistics. Year and month are optional filters; 0 means all.
func (m *Manager) Stats(ctx context.Context, year, month int) (statistics.StatisticsResult, error) {
	entities, err := m.store.List(ctx, store.Filter{})
	if err != nil {
		return statistics.StatisticsResult{}, fmt.Errorf("store.List() > %w", err)
	}
	histories := make(map[int64][]store.Review, len(entities))
	for _, entity := range entities {
		reviews, err := m.store.Reviews(ctx, entity.ID)
		if err != nil {
			return statistics.StatisticsResult{}, fmt.Errorf("store.Reviews(%d) > %w", entity.ID, err)
		}
		histories[entity.ID] = reviews
	}

	isLapse := func(rating int) bool {
		return rating < scheduling.PassingQuality
	}
	if m.store.Kind() == store.KindCard {
		isLapse = func(rating int) bool {
			return scheduling.Rating(rating) == scheduling.Again
		}
	}
	result := statistics.CalculateStatistics(histories, isLapse, year, month)
	if len(result.Periods) == 0 {
		m.printer.line("no reviews found")
		return result, nil
	}

	rows := make([][]string, 0, len(result.Periods))
	for _, period := range result.Periods {
		rows = append(rows, []string{
			period.Period,
			strconv.Itoa(period.ReviewsCount),
			strconv.Itoa(period.EntitiesUnique),
			strconv.Itoa(period.FirstReviews),
			strconv.Itoa(period.Lapses),
		})
	}
	m.printer.line("%s", renderTable([]string{"Period", "Reviews", "Unique", "First", "Lapses"}, rows))
	m.printer.line("total: %d reviews of %d %ss, retention %.1f%%",
		result.Aggregate.ReviewsCount, result.Aggregate.EntitiesUnique, m.store.Kind(), result.Aggregate.Retention()*100)
	return result, nil
}

func (m *Manager) entityTable(entities []store.Entity) string {
	headers := []string{"ID", "Description", "Group", "Reps", "Interval", "Next review"}
	withEase := m.store.Kind() == store.KindItem
	if withEase {
		headers = append(headers, "Ease")
	}

	rows := make([][]string, 0, len(entities))
	for _, entity := range entities {
		row := []string{
			strconv.FormatInt(entity.ID, 10),
			entity.Description,
			entity.Group,
			strconv.Itoa(entity.Repetitions),
			fmt.Sprintf("%dd", entity.IntervalDays),
			entity.NextDue.Local().Format(dateTimeLayout),
		}
		if withEase {
			row = append(row, strconv.FormatFloat(entity.EaseFactor, 'f', 2, 64))
		}
		rows = append(rows, row)
	}

	return renderTable(headers, rows)
}

func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func (m *Manager) validDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if err := m.validate.Var(description, descriptionRule); err != nil {
		return "", fmt.Errorf("invalid description %q: %w", description, err)
	}
	return description, nil
}
