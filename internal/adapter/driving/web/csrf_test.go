package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFToken_IssuesOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	token := csrfToken(rec, httptest.NewRequest(http.MethodGet, "/app/documents/Task/T", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, token, cookies[0].Value)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/app/documents/Task/T", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	assert.Equal(t, token, csrfToken(rec, req))
	assert.Empty(t, rec.Result().Cookies())
}

func TestValidateCSRF(t *testing.T) {
	cookie := &http.Cookie{Name: csrfCookieName, Value: "tok"}

	tests := []struct {
		name   string
		cookie *http.Cookie
		header string
		form   string
		want   bool
	}{
		{name: "header matches", cookie: cookie, header: "tok", want: true},
		{name: "form matches", cookie: cookie, form: "tok", want: true},
		{name: "header mismatch", cookie: cookie, header: "other"},
		{name: "no token sent", cookie: cookie},
		{name: "no cookie", header: "tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := url.Values{}
			if tt.form != "" {
				body.Set(csrfFormField, tt.form)
			}
			req := httptest.NewRequest(http.MethodPost, "/app/sessions/s/reviews", strings.NewReader(body.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.header != "" {
				req.Header.Set(csrfHeader, tt.header)
			}
			assert.Equal(t, tt.want, validateCSRF(req))
		})
	}
}
