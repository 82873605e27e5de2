package service

import (
	"errors"
	"fmt"
	"keymoji/internal/challenge"
	"keymoji/internal/emoji"
	"keymoji/internal/models"
	"keymoji/internal/repository"
	"keymoji/internal/security"
	"time"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExpired  = errors.New("challenge expired")
)

// ChallengeService runs the emoji rounds between the credential check and a
// full session. Each pending login is a server-side challenge row keyed by a
// signed ticket the browser carries; the ticket itself holds no round state.
type ChallengeService struct {
	challengeRepo     *repository.ChallengeRepository
	pools             *emoji.Pools
	tickets           *security.TicketIssuer
	challengeDuration time.Duration
}

// NewChallengeService creates a new challenge service
func NewChallengeService(challengeRepo *repository.ChallengeRepository, pools *emoji.Pools, tickets *security.TicketIssuer, challengeDuration time.Duration) *ChallengeService {
	return &ChallengeService{
		challengeRepo:     challengeRepo,
		pools:             pools,
		tickets:           tickets,
		challengeDuration: challengeDuration,
	}
}

// Begin opens a challenge for an account that just passed the credential
// check and returns the signed ticket for the browser. Any earlier pending
// challenge for the same user is discarded.
func (s *ChallengeService) Begin(account *models.Account) (*models.Challenge, string, error) {
	if err := s.challengeRepo.DeleteChallengesForUsername(account.Username); err != nil {
		return nil, "", err
	}

	state := challenge.New(account.Username, account.Round1Emoji, account.Round2Emoji, account.GridSize)
	id := security.NewID()
	expiresAt := time.Now().Add(s.challengeDuration)

	ch, err := s.challengeRepo.CreateChallenge(id, account.Username, state, expiresAt)
	if err != nil {
		return nil, "", err
	}

	ticket, err := s.tickets.Issue(id, account.Username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue challenge ticket: %w", err)
	}

	return ch, ticket, nil
}

// Load verifies a ticket and fetches the challenge it points at
func (s *ChallengeService) Load(ticket string) (*models.Challenge, error) {
	id, username, err := s.tickets.Verify(ticket)
	if err != nil {
		return nil, ErrChallengeNotFound
	}

	ch, err := s.challengeRepo.GetChallenge(id)
	if err != nil {
		return nil, err
	}
	if ch == nil || ch.Username != username {
		return nil, ErrChallengeNotFound
	}
	if ch.IsExpired() {
		_ = s.challengeRepo.DeleteChallenge(id)
		return nil, ErrChallengeExpired
	}

	return ch, nil
}

// EnsureGrid materializes the grid for the current round and persists it, so
// a page reload shows the same layout instead of granting a fresh draw.
func (s *ChallengeService) EnsureGrid(ch *models.Challenge) (*challenge.RoundState, error) {
	hadGrid := ch.State.Current != nil

	round, err := ch.State.EnsureGrid(s.pools)
	if err != nil {
		return nil, fmt.Errorf("failed to build grid: %w", err)
	}

	if !hadGrid {
		if err := s.challengeRepo.SaveChallengeState(ch.ID, ch.State); err != nil {
			return nil, err
		}
	}

	return round, nil
}

// Submit feeds an answer into the state machine and persists the result.
// Terminal outcomes retire the challenge row.
func (s *ChallengeService) Submit(ch *models.Challenge, input string) (challenge.Outcome, error) {
	outcome, err := ch.State.Submit(input)
	if err != nil {
		return outcome, err
	}

	switch outcome {
	case challenge.OutcomeSuccess, challenge.OutcomeLockedOut:
		if err := s.challengeRepo.DeleteChallenge(ch.ID); err != nil {
			return outcome, err
		}
	default:
		if err := s.challengeRepo.SaveChallengeState(ch.ID, ch.State); err != nil {
			return outcome, err
		}
	}

	return outcome, nil
}

// Abandon discards a pending challenge, for example on explicit logout
func (s *ChallengeService) Abandon(ch *models.Challenge) error {
	return s.challengeRepo.DeleteChallenge(ch.ID)
}

// TicketTTL returns how long an issued ticket stays valid
func (s *ChallengeService) TicketTTL() time.Duration {
	return s.tickets.TTL()
}

// CleanupExpiredChallenges removes expired challenge rows
func (s *ChallengeService) CleanupExpiredChallenges() error {
	if err := s.challengeRepo.DeleteExpiredChallenges(); err != nil {
		return fmt.Errorf("failed to cleanup challenges: %w", err)
	}
	return nil
}
