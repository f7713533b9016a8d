package cli

import (
	"strings"
	"unicode/utf8"
)

// State is a step of reviewing one entity.
type State int

const (
	StateAwaitingInput State = iota
	StateApplying
	StateDone
	StateSkipped
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting-input"
	case StateApplying:
		return "applying"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the review of the entity is over.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateSkipped || s == StateAborted
}

const (
	tokenQuit = 'q'
	tokenSkip = 's'
)

// reviewSession holds the state of one entity's review between inputs.
type reviewSession struct {
	state     State
	maxRating int
	rating    int
}

func newReviewSession(maxRating int) *reviewSession {
	return &reviewSession{
		state:     StateAwaitingInput,
		maxRating: maxRating,
	}
}

// Feed consumes one line of input.
// A rating in range is validated and moves the session to StateApplying.
// Anything unrecognized keeps it awaiting input.
func (s *reviewSession) Feed(line string) State {
	if s.state != StateAwaitingInput {
		return s.state
	}

	token := strings.TrimSpace(line)
	if utf8.RuneCountInString(token) != 1 {
		return s.state
	}
	switch r, _ := utf8.DecodeRuneInString(token); {
	case r == tokenQuit:
		s.state = StateAborted
	case r == tokenSkip:
		s.state = StateSkipped
	case r >= '0' && r <= '9':
		if rating := int(r - '0'); rating <= s.maxRating {
			s.rating = rating
			s.state = StateApplying
		}
	}
	return s.state
}

// Rating is the accepted rating once the session reached StateApplying.
func (s *reviewSession) Rating() int {
	return s.rating
}

func (s *reviewSession) Complete() {
	if s.state == StateApplying {
		s.state = StateDone
	}
}

func (s *reviewSession) Abort() {
	s.state = StateAborted
}

func (s *reviewSession) State() State {
	return s.state
}
