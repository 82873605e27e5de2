package handlers

const (
	SessionCookieName   = "session_id"
	ChallengeCookieName = "challenge_ticket"
	DraftCookieName     = "signup_draft"

	ErrInvalidFormData     = "Invalid form data"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"

	MsgCredentialsRequired = "Username and password are required!"
	MsgInvalidCredentials  = "Invalid username or password!"
	MsgNoNumberEntered     = "No number entered!"
	MsgInvalidNumber       = "Please enter a valid number!"
	MsgWrongNumber         = "Wrong number! %d tries left."
	MsgOutOfTries          = "Out of tries! Please log in again."
	MsgChallengeExpired    = "Your login attempt expired. Please log in again."
	MsgAccountCreated      = "Account created! Please log in."
	MsgPasswordUpdated     = "Password updated! Please log in."
	MsgTryAgain            = "Something went wrong. Please try again."
	MsgLoginAgain          = "Something went wrong. Please log in again."
)
