package httpx

import (
	"net/http"
	"time"
)

// CookieConfig describes how the session cookie is issued.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// SetSessionCookie issues value as an HttpOnly, SameSite=Lax cookie.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     cookiePath(cfg),
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie instructs the browser to drop the cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cookiePath(cfg),
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadCookie returns the named cookie's value or "".
func ReadCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func cookiePath(cfg CookieConfig) string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}
