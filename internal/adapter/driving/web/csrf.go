package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

// Double-submit CSRF protection: the token lives in a script-readable cookie
// and must be echoed in the X-CSRF-Token header (panel.js) or the csrf_token
// form field (plain form posts).
const (
	csrfCookieName = "pointspanel_csrf"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
)

// csrfToken returns the caller's token, setting a fresh cookie first when the
// request carries none.
func csrfToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(csrfCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("csrf: " + err.Error())
	}
	token := base64.RawURLEncoding.EncodeToString(b[:])

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/app/",
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

func validateCSRF(r *http.Request) bool {
	c, err := r.Cookie(csrfCookieName)
	if err != nil || c.Value == "" {
		return false
	}

	sent := r.Header.Get(csrfHeader)
	if sent == "" {
		sent = r.PostFormValue(csrfFormField)
	}
	return sent != "" && subtle.ConstantTimeCompare([]byte(sent), []byte(c.Value)) == 1
}
