package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"keymoji/internal/service"
	"keymoji/internal/validation"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	http.Error(w, userMsg, status)
}

// userFacingMessage returns the text to show for errors the user can act on:
// validation failures and the service sentinels. Anything else is an internal
// fault; the caller logs it and shows a generic retry message instead.
func userFacingMessage(err error) string {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	for _, known := range []error{
		service.ErrUsernameTaken,
		service.ErrResetTokenInvalid,
		service.ErrResetTokenUsed,
		service.ErrResetTokenExpired,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return ""
}

// redirectWithCode sends the browser to a page with a short message code in
// the query string. The target handler maps the code back to user-facing
// text, so the message itself never travels through the URL.
func redirectWithCode(w http.ResponseWriter, r *http.Request, path, param, code string) {
	target := path + "?" + url.Values{param: []string{code}}.Encode()
	http.Redirect(w, r, target, http.StatusSeeOther)
}
