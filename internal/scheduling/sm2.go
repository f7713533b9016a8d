package scheduling

import "math"

const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
	// PassingQuality is the lowest quality counted as a successful recall.
	PassingQuality = 3
	MaxQuality     = 5
)

// IntervalEaseState is the per-item state of the SM-2 scheduler.
type IntervalEaseState struct {
	Repetitions  int
	IntervalDays int
	EaseFactor   float64
}

// InitialIntervalEaseState is the state of an item that was never reviewed.
func InitialIntervalEaseState() IntervalEaseState {
	return IntervalEaseState{
		Repetitions:  0,
		IntervalDays: 0,
		EaseFactor:   DefaultEasinessFactor,
	}
}

// AdvanceIntervalEase returns the state after a review graded with quality (0-5).
// A quality below PassingQuality resets the repetition count and schedules the item for the next day.
// From the third successful repetition on, the interval is the previous repetition count
// multiplied by the ease factor, truncated.
func AdvanceIntervalEase(quality int, prior IntervalEaseState) IntervalEaseState {
	next := IntervalEaseState{
		Repetitions:  0,
		IntervalDays: 1,
		EaseFactor:   prior.EaseFactor,
	}

	if quality >= PassingQuality {
		switch prior.Repetitions {
		case 0:
			next.IntervalDays = 1
		case 1:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(float64(prior.Repetitions) * prior.EaseFactor)
		}
		next.Repetitions = prior.Repetitions + 1

		q := float64(MaxQuality - quality)
		next.EaseFactor = prior.EaseFactor + (0.1 - q*(0.08+q*0.02))
	}

	next.EaseFactor = math.Max(next.EaseFactor, MinEasinessFactor)
	return next
}
