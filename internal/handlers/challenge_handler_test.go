package handlers

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keymoji/internal/database"
	"keymoji/internal/emoji"
	"keymoji/internal/models"
	"keymoji/internal/repository"
	"keymoji/internal/security"
	"keymoji/internal/service"
)

func loadGridTemplates(t *testing.T) *template.Template {
	t.Helper()

	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"formatDate": func(ts time.Time) string {
			return ts.Format("Jan 2, 2006")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(
		"../../templates/base.tmpl",
		"../../templates/challenge/grid.tmpl",
	)
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}
	return tmpl
}

func TestGridPageShowsRoundOffset(t *testing.T) {
	tmpl := loadGridTemplates(t)

	data := GridViewData{
		Title:    "Round 1 - Keymoji",
		Round:    1,
		Offset:   7,
		GridSize: 2,
		Rows: [][]emoji.Cell{
			{{Pos: 1, Emoji: "😺"}, {Pos: 2, Emoji: "🍒"}},
			{{Pos: 3, Emoji: "🚀"}, {Pos: 4, Emoji: "🌵"}},
		},
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "grid.tmpl", data); err != nil {
		t.Fatalf("Failed to render grid template: %v", err)
	}

	body := buf.String()
	if !strings.Contains(body, "<strong>7</strong>") {
		t.Errorf("Grid page should show the round's number, got:\n%s", body)
	}
	if !strings.Contains(body, "😺") {
		t.Error("Grid page should render the emoji cells")
	}
}

func newHandlerTestDB(t *testing.T) *database.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "handler_test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestGridBuildFailureAbortsToLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	db := newHandlerTestDB(t)
	challengeService := service.NewChallengeService(
		repository.NewChallengeRepository(db),
		emoji.DefaultPools(),
		security.NewTicketIssuer("handler-test-secret", 10*time.Minute),
		10*time.Minute,
	)

	// A 6x6 grid needs more fillers than a 26-symbol pool can supply
	account := &models.Account{
		Username:    "alice",
		Round1Emoji: "😺",
		Round2Emoji: "🍒",
		GridSize:    6,
	}
	_, ticket, err := challengeService.Begin(account)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	ch, err := challengeService.Load(ticket)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	handler := NewChallengeHandler(challengeService, nil, nil, nil, template.New(""))

	r := httptest.NewRequest(http.MethodGet, "/challenge/grid", nil)
	r = r.WithContext(context.WithValue(r.Context(), ChallengeContextKey, ch))
	recorder := httptest.NewRecorder()

	handler.ShowGrid(recorder, r)

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/login?error=internal" {
		t.Errorf("expected redirect to /login?error=internal, got %q", location)
	}
	if _, err := challengeService.Load(ticket); err != service.ErrChallengeNotFound {
		t.Errorf("challenge should be retired after a grid failure, got err %v", err)
	}
}
