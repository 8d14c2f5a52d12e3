package storefront

import (
	"net/http"

	"github.com/gersemi/storefront/internal/service"
)

const sessionCookieName = "storefront_session"

// GetSessionTokenFromCookie retrieves the session token from the session
// cookie. Returns empty string if the cookie is not present.
func GetSessionTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSessionCookie sets the session cookie with appropriate security settings.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(service.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
