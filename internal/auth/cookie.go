package auth

import (
	"net/http"
	"time"
)

// CookieName carries the session token.
const CookieName = "x-app-auth"

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	// Development relaxes Secure and uses SameSite=Lax so plain-http localhost works.
	Development bool
	MaxAge      time.Duration
}

func (o CookieOptions) base() *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   !o.Development,
		SameSite: http.SameSiteNoneMode,
	}
	if o.Development {
		c.SameSite = http.SameSiteLaxMode
	}
	return c
}

// SetSessionCookie writes the token cookie.
func (o CookieOptions) SetSessionCookie(w http.ResponseWriter, token string, now time.Time) {
	maxAge := o.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultTokenTTL
	}
	c := o.base()
	c.Value = token
	c.MaxAge = int(maxAge.Seconds())
	c.Expires = now.Add(maxAge)
	http.SetCookie(w, c)
}

// ClearSessionCookie expires the token cookie.
func (o CookieOptions) ClearSessionCookie(w http.ResponseWriter) {
	c := o.base()
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}
