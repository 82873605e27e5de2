package handlers

import (
	"keymoji/internal/emoji"
	"keymoji/internal/models"
)

type LoginViewData struct {
	Title          string
	Error          string
	Info           string
	Username       string
	OAuthProviders []OAuthProviderView
}

type SignupViewData struct {
	Title          string
	Error          string
	Username       string
	Email          string
	GridSize       int
	GridSizes      []int
	OAuthProviders []OAuthProviderView
}

type AssignmentViewData struct {
	Title          string
	Username       string
	Round1Emoji    string
	Round2Emoji    string
	TrustEmoji     string
	PracticeOffset int
	CSRFToken      string
}

type GridViewData struct {
	Title    string
	Round    int
	Offset   int
	GridSize int
	Rows     [][]emoji.Cell
}

type AnswerViewData struct {
	Title     string
	Round     int
	Offset    int
	Error     string
	CSRFToken string
}

type WelcomeViewData struct {
	Title      string
	Account    *models.Account
	TrustEmoji string
}

type ForgotPasswordViewData struct {
	Title   string
	Success string
	Error   string
}

type ResetPasswordViewData struct {
	Title string
	Token string
	Error string
}
