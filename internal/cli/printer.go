package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/at-ishikawa/revise/internal/store"
)

const dateLayout = "2006-01-02"

const dateTimeLayout = "2006-01-02 15:04"

type printer struct {
	w      io.Writer
	bold   *color.Color
	faint  *color.Color
	red    *color.Color
	green  *color.Color
	yellow *color.Color
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:      w,
		bold:   color.New(color.Bold),
		faint:  color.New(color.Faint),
		red:    color.New(color.FgRed),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
	}
}

func (p *printer) entity(entity store.Entity) {
	_, _ = p.bold.Fprintf(p.w, "[%d] %s\n", entity.ID, entity.Description)
	if entity.Group != "" {
		_, _ = p.faint.Fprintf(p.w, "  group: %s\n", entity.Group)
	}
	if entity.Kind == store.KindItem {
		_, _ = fmt.Fprintf(p.w, "  repetitions: %d, interval: %d days, ease factor: %.2f\n",
			entity.Repetitions, entity.IntervalDays, entity.EaseFactor)
	} else {
		_, _ = fmt.Fprintf(p.w, "  repetitions: %d, interval: %d days\n", entity.Repetitions, entity.IntervalDays)
	}
	_, _ = fmt.Fprintf(p.w, "  created: %s, next review: %s\n",
		entity.CreatedAt.Local().Format(dateTimeLayout), entity.NextDue.Local().Format(dateTimeLayout))
}

func (p *printer) lastReview(review *store.Review) {
	if review == nil {
		_, _ = p.faint.Fprintln(p.w, "  never reviewed")
		return
	}
	_, _ = p.faint.Fprintf(p.w, "  last review: %s, rating %d, difficulty %.2f, stability %.2f\n",
		review.ReviewedAt.Local().Format(dateTimeLayout), review.Rating, review.Difficulty, review.Stability)
}

func (p *printer) ratingGuide(kind store.Kind, maxRating int) {
	if kind == store.KindCard {
		_, _ = p.faint.Fprintln(p.w, "  0: again, 1: hard, 2: good, 3: easy, s: skip, q: quit")
		return
	}
	_, _ = p.faint.Fprintf(p.w, "  0-%d: quality (fail below 3), s: skip, q: quit\n", maxRating)
}

func (p *printer) prompt() {
	_, _ = p.bold.Fprint(p.w, "input value: ")
}

func (p *printer) invalidInput() {
	_, _ = p.red.Fprintln(p.w, "invalid input")
}

func (p *printer) nextReview(due time.Time) {
	_, _ = p.green.Fprintf(p.w, "next review date: %s\n", due.Local().Format(dateLayout))
}

func (p *printer) skipped() {
	_, _ = p.yellow.Fprintln(p.w, "skipped")
}

func (p *printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}
