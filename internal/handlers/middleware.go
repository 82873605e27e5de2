package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"keymoji/internal/models"
	"keymoji/internal/security"
	"keymoji/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	AccountContextKey   ContextKey = "account"
	ChallengeContextKey ContextKey = "challenge"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService      *service.AuthService
	challengeService *service.ChallengeService
	limiter          *security.RateLimiter
	csrf             *security.CSRFGenerator
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, challengeService *service.ChallengeService, limiter *security.RateLimiter, csrf *security.CSRFGenerator) *Middleware {
	return &Middleware{
		authService:      authService,
		challengeService: challengeService,
		limiter:          limiter,
		csrf:             csrf,
	}
}

// RequireAuth is middleware that requires a valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		account, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.DeleteCookie(r, SessionCookieName))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), AccountContextKey, account)
		next(w, r.WithContext(ctx))
	}
}

// RequireChallenge is middleware that requires a pending login challenge.
// A missing or stale ticket sends the visitor back to the login form.
func (m *Middleware) RequireChallenge(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(ChallengeCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ch, err := m.challengeService.Load(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.DeleteCookie(r, ChallengeCookieName))
			if err == service.ErrChallengeExpired {
				redirectWithCode(w, r, "/login", "error", "expired")
			} else {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			}
			return
		}

		ctx := context.WithValue(r.Context(), ChallengeContextKey, ch)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect validates the csrf_token form field against the flow cookie
// the request rode in on
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
			return
		}

		flowID := csrfFlowID(r)
		token := r.FormValue("csrf_token")
		if flowID == "" || !m.csrf.ValidateToken(flowID, token) {
			respondWithError(w, http.StatusForbidden, "Invalid request token", "CSRF validation failed", nil)
			return
		}

		next(w, r)
	}
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			log.Printf("Rate limit exceeded for %s on %s", ip, r.URL.Path)
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// csrfFlowID picks the cookie that anchors the current flow: a full session,
// a pending challenge, or a signup draft, in that order.
func csrfFlowID(r *http.Request) string {
	for _, name := range []string{SessionCookieName, ChallengeCookieName, DraftCookieName} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// CSRFToken generates a token bound to the request's flow cookie for
// embedding in forms
func (m *Middleware) CSRFToken(r *http.Request) string {
	flowID := csrfFlowID(r)
	if flowID == "" {
		return ""
	}
	token, err := m.csrf.GenerateToken(flowID)
	if err != nil {
		log.Printf("Error generating CSRF token: %v", err)
		return ""
	}
	return token
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetAccountFromContext retrieves the account from the request context
func GetAccountFromContext(ctx context.Context) *models.Account {
	account, ok := ctx.Value(AccountContextKey).(*models.Account)
	if !ok {
		return nil
	}
	return account
}

// GetChallengeFromContext retrieves the pending challenge from the request context
func GetChallengeFromContext(ctx context.Context) *models.Challenge {
	ch, ok := ctx.Value(ChallengeContextKey).(*models.Challenge)
	if !ok {
		return nil
	}
	return ch
}
