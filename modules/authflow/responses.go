package authflow

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/authbridge/pkg/idp"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

const (
	accessCookie  = "sb-access-token"
	refreshCookie = "sb-refresh-token"

	// refreshCookieMaxAge outlives the access token so the fallback session
	// lookup keeps working between visits.
	refreshCookieMaxAge = 30 * 24 * 60 * 60
)

func (s *Service) setSessionCookies(w http.ResponseWriter, sess *idp.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		MaxAge:   int(sess.ExpiresIn),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	if sess.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     refreshCookie,
			Value:    sess.RefreshToken,
			Path:     "/",
			MaxAge:   refreshCookieMaxAge,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (s *Service) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
