package web

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie names the browser-session cookie that keys conversation state.
const SessionCookie = "ragassist_session"

// sessionID returns the caller's session ID, issuing a new cookie when the
// request has none or carries one that is not a UUID.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, parseErr := uuid.Parse(c.Value); parseErr == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
