package authflow

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handle returns the module router, ready to be mounted:
//
//	r.Mount("/auth", svc.Handle())
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/signin", s.signIn)
	r.Post("/signup", s.signUp)
	r.Post("/signout", s.signOut)
	r.Post("/reset-password", s.resetPassword)

	r.Get("/oauth/{provider}", s.oauthStart)
	r.Get("/callback", s.callbackLanding)

	r.Group(func(r chi.Router) {
		r.Use(s.resolver.RequireAuth)

		r.Get("/profile", s.getProfile)
		r.Patch("/profile", s.patchProfile)

		if s.auditLog != nil {
			r.Get("/audit", s.listAuditEvents)
		}
	})

	return r
}
