package challenge

import (
	"strconv"
	"testing"

	"keymoji/internal/emoji"
)

func newTestSession() *Session {
	return New("alice", "😺", "🍒", 4)
}

func TestNewSessionStartsAtRoundOne(t *testing.T) {
	s := newTestSession()

	if s.Round != emoji.Round1 {
		t.Errorf("Round = %d, want 1", s.Round)
	}
	if s.TriesLeft != TryBudget {
		t.Errorf("TriesLeft = %d, want %d", s.TriesLeft, TryBudget)
	}
	if s.Current != nil {
		t.Error("new session should have no materialized grid")
	}

	validOffset := false
	for _, r := range emoji.AddRules() {
		if s.Offset == r {
			validOffset = true
		}
	}
	if !validOffset {
		t.Errorf("Offset = %d, not in %v", s.Offset, emoji.AddRules())
	}
}

func TestEnsureGridIsIdempotent(t *testing.T) {
	pools := emoji.DefaultPools()
	s := newTestSession()

	first, err := s.EnsureGrid(pools)
	if err != nil {
		t.Fatalf("EnsureGrid() error = %v", err)
	}
	second, err := s.EnsureGrid(pools)
	if err != nil {
		t.Fatalf("EnsureGrid() second call error = %v", err)
	}

	if first != second {
		t.Error("EnsureGrid() regenerated the grid within a round")
	}
	if first.Answer != second.Answer {
		t.Errorf("expected answer changed on reload: %d then %d", first.Answer, second.Answer)
	}
	if first.Answer != emoji.Derive(first.Grid.CorrectPos, s.Offset) {
		t.Errorf("Answer = %d, want position %d + offset %d", first.Answer, first.Grid.CorrectPos, s.Offset)
	}
	if first.Key != "😺" {
		t.Errorf("round 1 key = %q, want the round-1 secret", first.Key)
	}
}

func TestSubmitBeforeGridFails(t *testing.T) {
	s := newTestSession()
	if _, err := s.Submit("5"); err != ErrNoGrid {
		t.Errorf("Submit() error = %v, want ErrNoGrid", err)
	}
}

func TestSubmitInvalidInputKeepsTries(t *testing.T) {
	pools := emoji.DefaultPools()
	s := newTestSession()
	if _, err := s.EnsureGrid(pools); err != nil {
		t.Fatalf("EnsureGrid() error = %v", err)
	}

	for _, input := range []string{"", "abc", "3.5", "ten"} {
		if _, err := s.Submit(input); err != ErrInvalidInput {
			t.Errorf("Submit(%q) error = %v, want ErrInvalidInput", input, err)
		}
	}

	if s.TriesLeft != TryBudget {
		t.Errorf("TriesLeft = %d after invalid input, want %d", s.TriesLeft, TryBudget)
	}
}

func TestCorrectAnswerAdvancesRound(t *testing.T) {
	pools := emoji.DefaultPools()
	s := newTestSession()

	state, err := s.EnsureGrid(pools)
	if err != nil {
		t.Fatalf("EnsureGrid() error = %v", err)
	}

	// Burn one try so the reset at round transition is observable.
	if outcome, err := s.Submit(strconv.Itoa(state.Answer + 1)); err != nil || outcome != OutcomeRetry {
		t.Fatalf("wrong answer: outcome = %v, err = %v", outcome, err)
	}
	if s.TriesLeft != 1 {
		t.Fatalf("TriesLeft = %d after one wrong answer, want 1", s.TriesLeft)
	}

	outcome, err := s.Submit(strconv.Itoa(state.Answer))
	if err != nil {
		t.Fatalf("Submit(correct) error = %v", err)
	}
	if outcome != OutcomeAdvanced {
		t.Fatalf("outcome = %v, want OutcomeAdvanced", outcome)
	}

	if s.Round != emoji.Round2 {
		t.Errorf("Round = %d after advance, want 2", s.Round)
	}
	if s.TriesLeft != TryBudget {
		t.Errorf("TriesLeft = %d after advance, want %d", s.TriesLeft, TryBudget)
	}
	if s.Current != nil {
		t.Error("round-1 grid should be discarded at round transition")
	}

	// Round 2 builds from the round-2 pool with the round-2 key.
	state2, err := s.EnsureGrid(pools)
	if err != nil {
		t.Fatalf("EnsureGrid() round 2 error = %v", err)
	}
	if state2.Key != "🍒" {
		t.Errorf("round 2 key = %q, want the round-2 secret", state2.Key)
	}

	outcome, err = s.Submit(strconv.Itoa(state2.Answer))
	if err != nil {
		t.Fatalf("Submit(correct, round 2) error = %v", err)
	}
	if outcome != OutcomeSuccess {
		t.Errorf("outcome = %v, want OutcomeSuccess", outcome)
	}
}

func TestWrongAnswersLockOut(t *testing.T) {
	pools := emoji.DefaultPools()
	s := newTestSession()

	state, err := s.EnsureGrid(pools)
	if err != nil {
		t.Fatalf("EnsureGrid() error = %v", err)
	}
	wrong := strconv.Itoa(state.Answer + 1)

	outcome, err := s.Submit(wrong)
	if err != nil || outcome != OutcomeRetry {
		t.Fatalf("first wrong answer: outcome = %v, err = %v, want OutcomeRetry", outcome, err)
	}
	if s.TriesLeft != 1 {
		t.Errorf("TriesLeft = %d, want 1", s.TriesLeft)
	}

	outcome, err = s.Submit(wrong)
	if err != nil {
		t.Fatalf("second wrong answer error = %v", err)
	}
	if outcome != OutcomeLockedOut {
		t.Errorf("outcome = %v, want OutcomeLockedOut", outcome)
	}
	if s.TriesLeft != 0 {
		t.Errorf("TriesLeft = %d after lockout, want 0", s.TriesLeft)
	}
}

func TestFixedScenario(t *testing.T) {
	// Grid size 4, key at position 7, offset 3: the expected answer is 10.
	// "10" advances to round 2; in round 2, "9" twice locks the session out.
	s := newTestSession()
	s.Offset = 3
	s.Current = &RoundState{
		Key:    "😺",
		Answer: emoji.Derive(7, 3),
		Grid:   &emoji.Grid{Size: 4, CorrectPos: 7},
	}

	if s.Current.Answer != 10 {
		t.Fatalf("expected answer = %d, want 10", s.Current.Answer)
	}

	outcome, err := s.Submit("10")
	if err != nil || outcome != OutcomeAdvanced {
		t.Fatalf("Submit(10): outcome = %v, err = %v, want OutcomeAdvanced", outcome, err)
	}

	s.Current = &RoundState{
		Key:    "🍒",
		Answer: emoji.Derive(3, s.Offset),
		Grid:   &emoji.Grid{Size: 4, CorrectPos: 3},
	}
	wrong := strconv.Itoa(s.Current.Answer + 1)

	outcome, _ = s.Submit(wrong)
	if outcome != OutcomeRetry {
		t.Fatalf("first wrong: outcome = %v, want OutcomeRetry", outcome)
	}
	outcome, _ = s.Submit(wrong)
	if outcome != OutcomeLockedOut {
		t.Fatalf("second wrong: outcome = %v, want OutcomeLockedOut", outcome)
	}
}
