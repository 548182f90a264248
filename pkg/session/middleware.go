package session

import "net/http"

// Middleware resolves the session for every request and, when verification
// succeeds, attaches it to the request context. Anonymous requests pass
// through untouched.
func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := rs.Resolve(r); sess != nil {
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects anonymous requests with 401 before they reach the
// wrapped handler. It performs its own resolution so it can be used without
// Middleware in front.
func (rs *Resolver) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		if !ok {
			if sess = rs.Resolve(r); sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}
