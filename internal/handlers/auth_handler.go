package handlers

import (
	"html/template"
	"log"
	"net/http"
	"time"

	"keymoji/internal/models"
	"keymoji/internal/security"
	"keymoji/internal/service"
)

// AuthHandler handles the credential side of login: the password form, the
// OAuth flows, logout and password resets. Passing any of these only opens
// an emoji challenge; the challenge handler mints the session.
type AuthHandler struct {
	authService          *service.AuthService
	challengeService     *service.ChallengeService
	signupService        *service.SignupService
	emailService         *service.EmailService
	templates            *template.Template
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	defaultGridSize      int
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, challengeService *service.ChallengeService, signupService *service.SignupService, emailService *service.EmailService, templates *template.Template, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string, defaultGridSize int) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		challengeService:     challengeService,
		signupService:        signupService,
		emailService:         emailService,
		templates:            templates,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		defaultGridSize:      defaultGridSize,
	}
}

// loginMessageForCode maps a query string code to user-facing text
func loginMessageForCode(code string) (errorMsg, infoMsg string) {
	switch code {
	case "locked":
		return MsgOutOfTries, ""
	case "expired":
		return MsgChallengeExpired, ""
	case "internal":
		return MsgLoginAgain, ""
	case "registered":
		return "", MsgAccountCreated
	case "reset":
		return "", MsgPasswordUpdated
	}
	return "", ""
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, data LoginViewData) {
	data.Title = "Login - Keymoji"
	data.OAuthProviders = h.oauthProviderViews()
	if err := h.templates.ExecuteTemplate(w, "login.tmpl", data); err != nil {
		log.Printf("Error rendering login template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	// Already logged in?
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if _, err := h.authService.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
	}

	errorMsg, infoMsg := loginMessageForCode(r.URL.Query().Get("error"))
	if errorMsg == "" && infoMsg == "" {
		errorMsg, infoMsg = loginMessageForCode(r.URL.Query().Get("info"))
	}

	h.renderLogin(w, r, LoginViewData{Error: errorMsg, Info: infoMsg})
}

// Login checks the password and opens the emoji challenge. No session exists
// until both grid rounds are passed.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderLogin(w, r, LoginViewData{Error: MsgCredentialsRequired, Username: username})
		return
	}

	account, err := h.authService.VerifyCredentials(username, password)
	if err != nil {
		if err != service.ErrInvalidCredentials {
			log.Printf("Error verifying credentials: %v", err)
		}
		h.renderLogin(w, r, LoginViewData{Error: MsgInvalidCredentials, Username: username})
		return
	}

	h.beginChallenge(w, r, account)
}

// Logout drops the session and any pending challenge
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		_ = h.authService.Logout(cookie.Value)
	}
	if cookie, err := r.Cookie(ChallengeCookieName); err == nil {
		if ch, err := h.challengeService.Load(cookie.Value); err == nil {
			_ = h.challengeService.Abandon(ch)
		}
	}

	http.SetCookie(w, security.DeleteCookie(r, SessionCookieName))
	http.SetCookie(w, security.DeleteCookie(r, ChallengeCookieName))

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Home renders the home page
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if _, err := h.authService.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Welcome renders the landing page for a fully authenticated account
func (h *AuthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
		return
	}

	data := WelcomeViewData{
		Title:      "Welcome - Keymoji",
		Account:    account,
		TrustEmoji: account.TrustEmoji,
	}
	if err := h.templates.ExecuteTemplate(w, "welcome.tmpl", data); err != nil {
		log.Printf("Error rendering welcome template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ShowForgotPassword renders the forgot password page
func (h *AuthHandler) ShowForgotPassword(w http.ResponseWriter, r *http.Request) {
	data := ForgotPasswordViewData{Title: "Forgot Password - Keymoji"}
	if err := h.templates.ExecuteTemplate(w, "forgot_password.tmpl", data); err != nil {
		log.Printf("Error rendering forgot password template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ForgotPassword handles the forgot password form submission
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	data := ForgotPasswordViewData{Title: "Forgot Password - Keymoji"}

	if err := h.authService.RequestPasswordReset(r.Context(), h.emailService, email); err != nil {
		log.Printf("Error requesting password reset: %v", err)
		data.Error = MsgTryAgain
	} else {
		// Same response whether or not the address exists
		data.Success = "If that email is registered, a reset link is on its way."
	}

	if err := h.templates.ExecuteTemplate(w, "forgot_password.tmpl", data); err != nil {
		log.Printf("Error rendering forgot password template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ShowResetPassword renders the reset password page for a token link
func (h *AuthHandler) ShowResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	valid, err := h.authService.ValidatePasswordResetToken(token)
	if err != nil {
		log.Printf("Error validating reset token: %v", err)
	}

	data := ResetPasswordViewData{Title: "Reset Password - Keymoji", Token: token}
	if !valid {
		data.Error = "This reset link is invalid or has expired."
	}

	if err := h.templates.ExecuteTemplate(w, "reset_password.tmpl", data); err != nil {
		log.Printf("Error rendering reset password template: %v", err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ResetPassword handles the reset password form submission. A successful
// reset changes only the password; the emoji secrets stay as assigned.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	token := r.FormValue("token")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	data := ResetPasswordViewData{Title: "Reset Password - Keymoji", Token: token}

	if password != confirm {
		data.Error = "Passwords do not match."
		if err := h.templates.ExecuteTemplate(w, "reset_password.tmpl", data); err != nil {
			log.Printf("Error rendering reset password template: %v", err)
			http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
		}
		return
	}

	if err := h.authService.ResetPassword(token, password); err != nil {
		msg := userFacingMessage(err)
		if msg == "" {
			log.Printf("Error resetting password: %v", err)
			msg = MsgTryAgain
		}
		data.Error = msg
		if err := h.templates.ExecuteTemplate(w, "reset_password.tmpl", data); err != nil {
			log.Printf("Error rendering reset password template: %v", err)
			http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
		}
		return
	}

	redirectWithCode(w, r, "/login", "info", "reset")
}

// beginChallenge opens a challenge for an account that passed the credential
// check and hands the browser its ticket
func (h *AuthHandler) beginChallenge(w http.ResponseWriter, r *http.Request, account *models.Account) {
	_, ticket, err := h.challengeService.Begin(account)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error opening challenge", err)
		return
	}

	expires := time.Now().Add(h.challengeService.TicketTTL())
	http.SetCookie(w, security.NewCookie(r, ChallengeCookieName, ticket, expires))
	http.SetCookie(w, security.DeleteCookie(r, SessionCookieName))

	http.Redirect(w, r, "/challenge/grid", http.StatusSeeOther)
}
