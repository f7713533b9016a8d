// Package statistics summarizes review history per month.
package statistics

import (
	"fmt"
	"sort"

	"github.com/at-ishikawa/revise/internal/store"
)

// PeriodStatistics holds statistics for one month, keyed "2025-01".
type PeriodStatistics struct {
	Period         string
	ReviewsCount   int // Reviews recorded in the period
	EntitiesUnique int // Entities reviewed at least once in the period
	FirstReviews   int // Reviews that were the entity's first ever
	Lapses         int // Reviews rated as failed recall
}

// AggregateStatistics holds totals across the selected periods.
type AggregateStatistics struct {
	ReviewsCount   int
	EntitiesUnique int
	FirstReviews   int
	Lapses         int
}

// Retention is the share of reviews that were not lapses.
func (a AggregateStatistics) Retention() float64 {
	if a.ReviewsCount == 0 {
		return 0
	}
	return float64(a.ReviewsCount-a.Lapses) / float64(a.ReviewsCount)
}

type StatisticsResult struct {
	Periods   []PeriodStatistics
	Aggregate AggregateStatistics
}

type periodData struct {
	reviews      int
	entities     map[int64]struct{}
	firstReviews int
	lapses       int
}

// CalculateStatistics summarizes reviews grouped by entity id.
// isLapse decides which ratings count as failed recall.
// Year and month filter the periods; 0 means no filter.
func CalculateStatistics(histories map[int64][]store.Review, isLapse func(rating int) bool, year, month int) StatisticsResult {
	stats := make(map[string]*periodData)
	globalEntities := make(map[int64]struct{})

	for entityID, reviews := range histories {
		ordered := make([]store.Review, len(reviews))
		copy(ordered, reviews)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].ReviewedAt.Before(ordered[j].ReviewedAt)
		})

		first := true
		for _, review := range ordered {
			if review.ReviewedAt.IsZero() {
				continue
			}
			isFirst := first
			first = false
			reviewedAt := review.ReviewedAt.Local()
			if !matchesFilter(reviewedAt.Year(), int(reviewedAt.Month()), year, month) {
				continue
			}

			period := fmt.Sprintf("%d-%02d", reviewedAt.Year(), int(reviewedAt.Month()))
			data := ensurePeriodExists(stats, period)
			data.reviews++
			data.entities[entityID] = struct{}{}
			globalEntities[entityID] = struct{}{}
			if isFirst {
				data.firstReviews++
			}
			if isLapse(review.Rating) {
				data.lapses++
			}
		}
	}

	return buildResult(stats, globalEntities)
}

func ensurePeriodExists(stats map[string]*periodData, period string) *periodData {
	if stats[period] == nil {
		stats[period] = &periodData{
			entities: make(map[int64]struct{}),
		}
	}
	return stats[period]
}

func matchesFilter(reviewYear, reviewMonth, filterYear, filterMonth int) bool {
	if filterYear == 0 {
		return true
	}
	if reviewYear != filterYear {
		return false
	}
	if filterMonth == 0 {
		return true
	}
	return reviewMonth == filterMonth
}

func buildResult(stats map[string]*periodData, globalEntities map[int64]struct{}) StatisticsResult {
	periods := make([]PeriodStatistics, 0, len(stats))

	var aggregate AggregateStatistics
	for period, data := range stats {
		periods = append(periods, PeriodStatistics{
			Period:         period,
			ReviewsCount:   data.reviews,
			EntitiesUnique: len(data.entities),
			FirstReviews:   data.firstReviews,
			Lapses:         data.lapses,
		})
		aggregate.ReviewsCount += data.reviews
		aggregate.FirstReviews += data.firstReviews
		aggregate.Lapses += data.lapses
	}
	aggregate.EntitiesUnique = len(globalEntities)

	// Newest first
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Period > periods[j].Period
	})

	return StatisticsResult{
		Periods:   periods,
		Aggregate: aggregate,
	}
}
