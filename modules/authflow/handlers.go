package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authbridge/pkg/audit"
	"github.com/dmitrymomot/authbridge/pkg/authz"
	"github.com/dmitrymomot/authbridge/pkg/callback"
	"github.com/dmitrymomot/authbridge/pkg/idp"
	"github.com/dmitrymomot/authbridge/pkg/logger"
	"github.com/dmitrymomot/authbridge/pkg/profile"
	"github.com/dmitrymomot/authbridge/pkg/session"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type authResponse struct {
	Subject string           `json:"subject"`
	Email   string           `json:"email"`
	Profile *profile.Profile `json:"profile,omitempty"`
}

type callbackResponse struct {
	Status          string           `json:"status"`
	Message         string           `json:"message,omitempty"`
	CleanURL        string           `json:"clean_url"`
	RedirectTo      string           `json:"redirect_to,omitempty"`
	RedirectDelayMS int64            `json:"redirect_delay_ms,omitempty"`
	Profile         *profile.Profile `json:"profile,omitempty"`
}

func (s *Service) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	sess, err := s.provider.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		status, message := providerStatus(err, "sign-in failed")
		respondError(w, status, message)
		return
	}

	s.setSessionCookies(w, sess)
	respondJSON(w, http.StatusOK, s.established(r.Context(), sess))
}

func (s *Service) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	sess, err := s.provider.SignUp(r.Context(), req.Email, req.Password, s.cfg.EmailRedirectURL)
	if err != nil {
		status, message := providerStatus(err, "sign-up failed")
		respondError(w, status, message)
		return
	}

	// Providers with auto-confirm return a usable session immediately;
	// otherwise the account stays pending until the emailed link is used.
	if sess != nil && sess.AccessToken != "" {
		s.setSessionCookies(w, sess)
		respondJSON(w, http.StatusCreated, s.established(r.Context(), sess))
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "confirmation_required"})
}

func (s *Service) signOut(w http.ResponseWriter, r *http.Request) {
	transport := session.CompositeTransport{session.HeaderTransport{}, session.NewCookieTransport()}
	if token := transport.AccessToken(r); token != "" {
		if err := s.provider.SignOut(r.Context(), token); err != nil {
			// The provider-side revocation failing does not keep the local
			// session alive; cookies are cleared regardless.
			s.log.WarnContext(r.Context(), "sign-out revocation failed",
				logger.Error(err), logger.Component("authflow"))
		}
	}
	s.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := s.provider.ResetPassword(r.Context(), req.Email, s.cfg.EmailRedirectURL); err != nil {
		if errors.Is(err, idp.ErrProviderUnavailable) {
			respondError(w, http.StatusBadGateway, "identity provider unavailable")
			return
		}
		// Whether the address exists is not disclosed.
		s.log.DebugContext(r.Context(), "password reset request rejected",
			logger.Error(err), logger.Component("authflow"))
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recovery_email_sent"})
}

func (s *Service) oauthStart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")

	startURL, err := s.provider.OAuthStartURL(r.Context(), name, s.cfg.OAuthRedirectURL)
	if err != nil {
		status, message := providerStatus(err, "could not start sign-in flow")
		respondError(w, status, message)
		return
	}
	http.Redirect(w, r, startURL, http.StatusFound)
}

func (s *Service) callbackLanding(w http.ResponseWriter, r *http.Request) {
	landing := callback.Landing{
		URL:          r.URL.String(),
		RefreshToken: session.NewCookieTransport().RefreshToken(r),
	}

	out := s.reconciler.Reconcile(r.Context(), landing)

	resp := callbackResponse{
		Status:          out.State.String(),
		Message:         out.Message,
		CleanURL:        out.CleanURL,
		RedirectTo:      out.RedirectTo,
		RedirectDelayMS: out.RedirectDelay.Milliseconds(),
	}
	if out.State == callback.StateSucceeded {
		s.setSessionCookies(w, out.Session)
		resp.Profile = s.established(r.Context(), out.Session).Profile
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Service) getProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = sess.Subject
	}

	if !s.allow(r.Context(), sess, subject, authz.PermissionProfileRead) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	result, err := s.profiles.GetOrCreate(r.Context(), subject)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	if result.Status == profile.StatusNotFound {
		respondError(w, http.StatusNotFound, "identity record not found")
		return
	}
	respondJSON(w, http.StatusOK, result.Profile)
}

func (s *Service) patchProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = sess.Subject
	}

	var partial profile.Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if partial.IsEmpty() {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if !s.allow(r.Context(), sess, subject, authz.PermissionProfileWrite) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	result, err := s.profiles.Update(r.Context(), subject, partial)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	if result.Status == profile.StatusNotFound {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}
	respondJSON(w, http.StatusOK, result.Profile)
}

func (s *Service) listAuditEvents(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	actor := r.URL.Query().Get("actor")
	if actor == "" {
		actor = sess.Subject
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	caller := &authz.Subject{ID: sess.Subject, Role: sess.Role}
	events, err := s.auditLog.ListByActor(r.Context(), caller, actor, limit)
	if err != nil {
		if errors.Is(err, audit.ErrAccessDenied) {
			s.recorder.Record(r.Context(), sess.Subject, "authz.denied",
				audit.WithResource("audit_events", actor))
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		respondError(w, http.StatusInternalServerError, "audit lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// established provisions the profile for a freshly authenticated session.
// Provisioning problems are logged, not surfaced: the sign-in itself already
// succeeded.
func (s *Service) established(ctx context.Context, sess *idp.Session) authResponse {
	resp := authResponse{}
	if sess == nil || sess.Claims == nil {
		return resp
	}
	resp.Subject = sess.Claims.Subject
	resp.Email = sess.Claims.Email

	result, err := s.profiles.GetOrCreate(ctx, sess.Claims.Subject)
	if err != nil {
		s.log.ErrorContext(ctx, "profile provisioning failed",
			logger.Error(err), logger.Subject(sess.Claims.Subject), logger.Component("authflow"))
		return resp
	}
	if result.Status == profile.StatusNotFound {
		s.log.WarnContext(ctx, "authenticated subject has no identity record",
			logger.Subject(sess.Claims.Subject), logger.Component("authflow"))
		return resp
	}
	resp.Profile = result.Profile
	return resp
}

// allow runs the in-process authorization check and records denials.
func (s *Service) allow(ctx context.Context, sess *session.Session, owner string, perm authz.Permission) bool {
	caller := &authz.Subject{ID: sess.Subject, Role: sess.Role}
	if s.evaluator.Check(caller, owner, perm) == authz.Allow {
		return true
	}
	s.recorder.Record(ctx, sess.Subject, "authz.denied",
		audit.WithResource("profile", owner))
	return false
}

func providerStatus(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, idp.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, idp.ErrProviderUnavailable):
		return http.StatusBadGateway, "identity provider unavailable"
	default:
		return http.StatusBadRequest, fallback
	}
}
