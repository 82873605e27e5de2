package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"keymoji/internal/models"
	"keymoji/internal/security"
	"keymoji/internal/service"
	"keymoji/internal/validation"
)

// SignupHandler drives the two-step registration flow: form, then the
// one-time emoji assignment the user must confirm before the account exists.
type SignupHandler struct {
	signupService *service.SignupService
	emailService  *service.EmailService
	mw            *Middleware
	templates     *template.Template
	draftDuration time.Duration
	defaultGrid   int
}

// NewSignupHandler creates a new signup handler
func NewSignupHandler(signupService *service.SignupService, emailService *service.EmailService, mw *Middleware, templates *template.Template, draftDuration time.Duration, defaultGrid int) *SignupHandler {
	return &SignupHandler{
		signupService: signupService,
		emailService:  emailService,
		mw:            mw,
		templates:     templates,
		draftDuration: draftDuration,
		defaultGrid:   defaultGrid,
	}
}

func gridSizeChoices() []int {
	var sizes []int
	for n := validation.MinGridSize; n <= validation.MaxGridSize; n++ {
		sizes = append(sizes, n)
	}
	return sizes
}

func (h *SignupHandler) renderSignup(w http.ResponseWriter, data SignupViewData) {
	data.Title = "Sign Up - Keymoji"
	data.GridSizes = gridSizeChoices()
	if err := h.templates.ExecuteTemplate(w, "signup.tmpl", data); err != nil {
		log.Printf("Error rendering signup template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ShowSignup renders the signup form
func (h *SignupHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	h.renderSignup(w, SignupViewData{GridSize: h.defaultGridSize()})
}

func (h *SignupHandler) defaultGridSize() int {
	if err := validation.ValidateGridSize(h.defaultGrid); err != nil {
		return 4
	}
	return h.defaultGrid
}

// Signup validates the form and opens a draft. The account row is not
// written yet; the user still has to see and confirm their emojis.
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	email := r.FormValue("email")
	gridSize, err := strconv.Atoi(r.FormValue("grid_size"))
	if err != nil {
		gridSize = h.defaultGridSize()
	}

	draft, err := h.signupService.Start(username, password, email, gridSize)
	if err != nil {
		msg := userFacingMessage(err)
		if msg == "" {
			log.Printf("Error starting signup: %v", err)
			msg = MsgTryAgain
		}
		h.renderSignup(w, SignupViewData{
			Error:    msg,
			Username: username,
			Email:    email,
			GridSize: gridSize,
		})
		return
	}

	expires := time.Now().Add(h.draftDuration)
	http.SetCookie(w, security.NewCookie(r, DraftCookieName, draft.ID, expires))

	http.Redirect(w, r, "/signup/emojis", http.StatusSeeOther)
}

// ShowAssignment draws the emoji secrets for the draft and shows them once.
// Reloading the page repeats the same assignment, never a fresh draw.
func (h *SignupHandler) ShowAssignment(w http.ResponseWriter, r *http.Request) {
	draft := h.loadDraft(w, r)
	if draft == nil {
		return
	}

	draft, err := h.signupService.Assignment(draft)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error assigning emojis", err)
		return
	}

	data := AssignmentViewData{
		Title:          "Your Secret Emojis - Keymoji",
		Username:       draft.Username,
		Round1Emoji:    draft.Round1Emoji,
		Round2Emoji:    draft.Round2Emoji,
		TrustEmoji:     draft.TrustEmoji,
		PracticeOffset: draft.PracticeOffset,
		CSRFToken:      h.mw.CSRFToken(r),
	}
	if err := h.templates.ExecuteTemplate(w, "assignment.tmpl", data); err != nil {
		log.Printf("Error rendering assignment template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ConfirmAssignment promotes the draft into an account
func (h *SignupHandler) ConfirmAssignment(w http.ResponseWriter, r *http.Request) {
	draft := h.loadDraft(w, r)
	if draft == nil {
		return
	}

	account, err := h.signupService.Confirm(draft)
	if err != nil {
		if err == service.ErrUsernameTaken {
			http.SetCookie(w, security.DeleteCookie(r, DraftCookieName))
			h.renderSignup(w, SignupViewData{Error: err.Error(), GridSize: h.defaultGridSize()})
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error confirming signup", err)
		return
	}

	http.SetCookie(w, security.DeleteCookie(r, DraftCookieName))

	h.sendWelcome(r.Context(), account.Email, account.Username)

	redirectWithCode(w, r, "/login", "info", "registered")
}

// loadDraft resolves the draft cookie, redirecting to the signup form when
// the draft is gone or expired. A nil return means the response was written.
func (h *SignupHandler) loadDraft(w http.ResponseWriter, r *http.Request) *models.SignupDraft {
	cookie, err := r.Cookie(DraftCookieName)
	if err != nil {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return nil
	}

	draft, err := h.signupService.GetDraft(cookie.Value)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading signup draft", err)
		return nil
	}
	if draft == nil {
		http.SetCookie(w, security.DeleteCookie(r, DraftCookieName))
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return nil
	}

	return draft
}

func (h *SignupHandler) sendWelcome(ctx context.Context, email, username string) {
	if email == "" || h.emailService == nil || !h.emailService.IsEnabled() {
		return
	}
	if err := h.emailService.SendWelcomeEmail(ctx, email, username); err != nil {
		log.Printf("Error sending welcome email: %v", err)
	}
}
