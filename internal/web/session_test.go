package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDIssuesCookie(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	id := sessionID(w, r)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Zero(t, cookies[0].MaxAge, "browser-session cookie")
}

func TestSessionIDReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: existing})

	assert.Equal(t, existing, sessionID(w, r))
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionIDReplacesForgedCookie(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc/passwd"})

	id := sessionID(w, r)
	assert.NotEqual(t, "../../etc/passwd", id)
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestMarkdownRenderBasic(t *testing.T) {
	md := NewMarkdown()

	assert.Contains(t, string(md.Render("*hi*")), "<p><em>hi</em></p>")
	assert.NotContains(t, string(md.Render("<img src=x onerror=alert(1)>")), "onerror")
}
