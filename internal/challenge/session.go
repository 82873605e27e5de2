// Package challenge implements the per-login emoji challenge state machine:
// two grid rounds, a small per-round try budget, and a per-round random
// offset added to the key emoji's position.
package challenge

import (
	"errors"
	"strconv"
	"strings"

	"keymoji/internal/emoji"
)

// TryBudget is the number of wrong numeric answers allowed per round.
const TryBudget = 2

var (
	// ErrInvalidInput marks a submission that is not a number. It does not
	// consume a try.
	ErrInvalidInput = errors.New("input is not a number")

	// ErrNoGrid is returned when an answer is submitted before the active
	// round's grid was materialized.
	ErrNoGrid = errors.New("no grid materialized for the active round")
)

// Outcome is the result of one answer submission.
type Outcome int

const (
	// OutcomeRetry: wrong answer, tries remain in the current round.
	OutcomeRetry Outcome = iota
	// OutcomeAdvanced: round 1 passed, round 2 begins with a fresh offset,
	// a fresh try budget, and no grid yet.
	OutcomeAdvanced
	// OutcomeSuccess: round 2 passed, the login is verified.
	OutcomeSuccess
	// OutcomeLockedOut: the try budget is exhausted, the attempt is over.
	OutcomeLockedOut
)

// RoundState is the materialized puzzle for the active round. Answer is
// locked together with the grid at build time: it is always CorrectPos plus
// the offset that was current when the grid was built.
type RoundState struct {
	Grid   *emoji.Grid `json:"grid"`
	Key    string      `json:"key"`
	Answer int         `json:"answer"`
}

// Session is the state of one login attempt, from the password check until
// success or lockout. It is serialized as JSON into the challenge store
// between requests.
type Session struct {
	Username  string      `json:"username"`
	GridSize  int         `json:"grid_size"`
	Round1Key string      `json:"round1_key"`
	Round2Key string      `json:"round2_key"`
	Round     int         `json:"round"`
	Offset    int         `json:"offset"`
	TriesLeft int         `json:"tries_left"`
	Current   *RoundState `json:"current,omitempty"`
}

// New starts a round-1 session with a full try budget and a freshly rolled
// offset. It is only entered after a successful credential check.
func New(username, round1Key, round2Key string, gridSize int) *Session {
	return &Session{
		Username:  username,
		GridSize:  gridSize,
		Round1Key: round1Key,
		Round2Key: round2Key,
		Round:     emoji.Round1,
		Offset:    emoji.RollOffset(),
		TriesLeft: TryBudget,
	}
}

// roundKeys returns the active round's key emoji and the other round's key,
// which must be kept out of the grid.
func (s *Session) roundKeys() (key, other string) {
	if s.Round == emoji.Round1 {
		return s.Round1Key, s.Round2Key
	}
	return s.Round2Key, s.Round1Key
}

// EnsureGrid materializes the active round's grid on first use and returns
// the stored snapshot on later calls, so page reloads never regenerate the
// puzzle or change the expected answer.
func (s *Session) EnsureGrid(pools *emoji.Pools) (*RoundState, error) {
	if s.Current != nil {
		return s.Current, nil
	}

	key, other := s.roundKeys()
	grid, err := pools.BuildGrid(s.Round, key, other, s.GridSize)
	if err != nil {
		return nil, err
	}

	s.Current = &RoundState{
		Grid:   grid,
		Key:    key,
		Answer: emoji.Derive(grid.CorrectPos, s.Offset),
	}
	return s.Current, nil
}

// Submit checks a typed answer against the active round's expected value and
// advances the state machine. Non-numeric input is rejected with
// ErrInvalidInput and does not consume a try; a wrong number consumes exactly
// one.
func (s *Session) Submit(input string) (Outcome, error) {
	if s.Current == nil {
		return OutcomeRetry, ErrNoGrid
	}

	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return OutcomeRetry, ErrInvalidInput
	}

	if n == s.Current.Answer {
		if s.Round == emoji.Round1 {
			s.Round = emoji.Round2
			s.Offset = emoji.RollOffset()
			s.TriesLeft = TryBudget
			s.Current = nil
			return OutcomeAdvanced, nil
		}
		return OutcomeSuccess, nil
	}

	s.TriesLeft--
	if s.TriesLeft > 0 {
		return OutcomeRetry, nil
	}
	return OutcomeLockedOut, nil
}
