package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"keymoji/internal/challenge"
	"keymoji/internal/security"
	"keymoji/internal/service"
)

// ChallengeHandler runs the two emoji rounds of a pending login
type ChallengeHandler struct {
	challengeService *service.ChallengeService
	authService      *service.AuthService
	emailService     *service.EmailService
	mw               *Middleware
	templates        *template.Template
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(challengeService *service.ChallengeService, authService *service.AuthService, emailService *service.EmailService, mw *Middleware, templates *template.Template) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		authService:      authService,
		emailService:     emailService,
		mw:               mw,
		templates:        templates,
	}
}

// ShowGrid renders the emoji grid for the current round. The grid is drawn
// once per round; reloading the page shows the same layout.
func (h *ChallengeHandler) ShowGrid(w http.ResponseWriter, r *http.Request) {
	ch := GetChallengeFromContext(r.Context())
	if ch == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	round, err := h.challengeService.EnsureGrid(ch)
	if err != nil {
		// A grid that cannot be built retires the whole attempt
		log.Printf("Error building challenge grid: %v", err)
		_ = h.challengeService.Abandon(ch)
		http.SetCookie(w, security.DeleteCookie(r, ChallengeCookieName))
		redirectWithCode(w, r, "/login", "error", "internal")
		return
	}

	data := GridViewData{
		Title:    fmt.Sprintf("Round %d - Keymoji", ch.State.Round),
		Round:    ch.State.Round,
		Offset:   ch.State.Offset,
		GridSize: ch.State.GridSize,
		Rows:     round.Grid.Rows,
	}
	if err := h.templates.ExecuteTemplate(w, "grid.tmpl", data); err != nil {
		log.Printf("Error rendering grid template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ShowAnswer renders the answer form with this round's offset
func (h *ChallengeHandler) ShowAnswer(w http.ResponseWriter, r *http.Request) {
	ch := GetChallengeFromContext(r.Context())
	if ch == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	// The grid must have been materialized first
	if ch.State.Current == nil {
		http.Redirect(w, r, "/challenge/grid", http.StatusSeeOther)
		return
	}

	h.renderAnswer(w, r, ch.State.Round, ch.State.Offset, "")
}

// SubmitAnswer feeds the entered number into the challenge state machine
func (h *ChallengeHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	ch := GetChallengeFromContext(r.Context())
	if ch == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	input := r.FormValue("answer")
	round := ch.State.Round
	offset := ch.State.Offset

	if strings.TrimSpace(input) == "" {
		h.renderAnswer(w, r, round, offset, MsgNoNumberEntered)
		return
	}

	outcome, err := h.challengeService.Submit(ch, input)
	if err != nil {
		switch err {
		case challenge.ErrInvalidInput:
			h.renderAnswer(w, r, round, offset, MsgInvalidNumber)
		case challenge.ErrNoGrid:
			http.Redirect(w, r, "/challenge/grid", http.StatusSeeOther)
		default:
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error submitting challenge answer", err)
		}
		return
	}

	switch outcome {
	case challenge.OutcomeRetry:
		h.renderAnswer(w, r, round, offset, fmt.Sprintf(MsgWrongNumber, ch.State.TriesLeft))

	case challenge.OutcomeAdvanced:
		http.Redirect(w, r, "/challenge/grid", http.StatusSeeOther)

	case challenge.OutcomeLockedOut:
		http.SetCookie(w, security.DeleteCookie(r, ChallengeCookieName))
		h.notifyLockout(r.Context(), ch.Username)
		redirectWithCode(w, r, "/login", "error", "locked")

	case challenge.OutcomeSuccess:
		h.completeLogin(w, r, ch.Username)
	}
}

func (h *ChallengeHandler) renderAnswer(w http.ResponseWriter, r *http.Request, round, offset int, errorMsg string) {
	data := AnswerViewData{
		Title:     fmt.Sprintf("Round %d - Keymoji", round),
		Round:     round,
		Offset:    offset,
		Error:     errorMsg,
		CSRFToken: h.mw.CSRFToken(r),
	}
	if err := h.templates.ExecuteTemplate(w, "answer.tmpl", data); err != nil {
		log.Printf("Error rendering answer template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// completeLogin mints the full session once both rounds are passed
func (h *ChallengeHandler) completeLogin(w http.ResponseWriter, r *http.Request, username string) {
	account, err := h.authService.GetAccountByUsername(username)
	if err != nil || account == nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading account after challenge", err)
		return
	}

	session, err := h.authService.CreateSession(account.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error creating session", err)
		return
	}

	http.SetCookie(w, security.DeleteCookie(r, ChallengeCookieName))
	http.SetCookie(w, security.NewCookie(r, SessionCookieName, session.ID, session.ExpiresAt))

	http.Redirect(w, r, "/welcome", http.StatusSeeOther)
}

// notifyLockout emails the account owner that a login attempt ran out of
// tries. Best effort: the lockout itself already happened.
func (h *ChallengeHandler) notifyLockout(ctx context.Context, username string) {
	if h.emailService == nil || !h.emailService.IsEnabled() {
		return
	}

	account, err := h.authService.GetAccountByUsername(username)
	if err != nil || account == nil || account.Email == "" {
		return
	}

	if err := h.emailService.SendLockoutEmail(ctx, account.Email, account.Username); err != nil {
		log.Printf("Error sending lockout email: %v", err)
	}
}
