package main

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"keymoji/internal/config"
	"keymoji/internal/database"
	"keymoji/internal/emoji"
	"keymoji/internal/handlers"
	"keymoji/internal/repository"
	"keymoji/internal/security"
	"keymoji/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Load templates
	templates, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	log.Println("Templates loaded successfully")

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	draftRepo := repository.NewDraftRepository(db)

	// The emoji pools all grids and assignments draw from
	pools := emoji.DefaultPools()

	// Initialize services
	tickets := security.NewTicketIssuer(cfg.SecretKey, cfg.ChallengeDuration)
	authService := service.NewAuthService(accountRepo, cfg.SessionDuration)
	challengeService := service.NewChallengeService(challengeRepo, pools, tickets, cfg.ChallengeDuration)
	signupService := service.NewSignupService(accountRepo, draftRepo, pools, cfg.SignupDuration)

	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,email",
		},
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	csrf := security.NewCSRFGenerator(cfg.SecretKey)
	middleware := handlers.NewMiddleware(authService, challengeService, limiter, csrf)
	authHandler := handlers.NewAuthHandler(authService, challengeService, signupService, emailService, templates, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.DefaultGridSize)
	signupHandler := handlers.NewSignupHandler(signupService, emailService, middleware, templates, cfg.SignupDuration, cfg.DefaultGridSize)
	challengeHandler := handlers.NewChallengeHandler(challengeService, authService, emailService, middleware, templates)

	// Setup routes
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Public routes
	mux.HandleFunc("GET /", authHandler.Home)
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Signup flow
	mux.HandleFunc("GET /signup", signupHandler.ShowSignup)
	mux.HandleFunc("POST /signup", middleware.RateLimit(signupHandler.Signup))
	mux.HandleFunc("GET /signup/emojis", signupHandler.ShowAssignment)
	mux.HandleFunc("POST /signup/confirm", middleware.CSRFProtect(signupHandler.ConfirmAssignment))

	// Challenge rounds
	mux.HandleFunc("GET /challenge/grid", middleware.RequireChallenge(challengeHandler.ShowGrid))
	mux.HandleFunc("GET /challenge/answer", middleware.RequireChallenge(challengeHandler.ShowAnswer))
	mux.HandleFunc("POST /challenge/answer", middleware.RequireChallenge(middleware.CSRFProtect(challengeHandler.SubmitAnswer)))

	// Password reset
	mux.HandleFunc("GET /forgot-password", authHandler.ShowForgotPassword)
	mux.HandleFunc("POST /forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("GET /reset-password", authHandler.ShowResetPassword)
	mux.HandleFunc("POST /reset-password", middleware.RateLimit(authHandler.ResetPassword))

	// Authenticated routes
	mux.HandleFunc("GET /welcome", middleware.RequireAuth(authHandler.Welcome))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup of expired rows
	go cleanupExpired(authService, challengeService, signupService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// loadTemplates loads all template files
func loadTemplates(templatesPath string) (*template.Template, error) {
	baseTemplate := filepath.Join(templatesPath, "base.tmpl")

	patterns := []string{
		filepath.Join(templatesPath, "auth/*.tmpl"),
		filepath.Join(templatesPath, "challenge/*.tmpl"),
	}

	var files []string
	files = append(files, baseTemplate)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}

// cleanupExpired periodically removes expired sessions, challenges, drafts
// and reset tokens
func cleanupExpired(authService *service.AuthService, challengeService *service.ChallengeService, signupService *service.SignupService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		}
		if err := challengeService.CleanupExpiredChallenges(); err != nil {
			log.Printf("Error cleaning up expired challenges: %v", err)
		}
		if err := signupService.CleanupExpiredDrafts(); err != nil {
			log.Printf("Error cleaning up expired signup drafts: %v", err)
		}
		if err := authService.CleanupExpiredPasswordResetTokens(); err != nil {
			log.Printf("Error cleaning up expired reset tokens: %v", err)
		}
		log.Println("Expired rows cleaned up")
	}
}
