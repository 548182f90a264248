// Package authflow mounts the HTTP surface of the authentication flow:
// credential sign-in/sign-up, OAuth start and callback landing, sign-out,
// password recovery, and the profile endpoints gated by the authorization
// evaluator. It wires the session resolver, callback reconciler, profile
// synchronizer and audit recorder together behind one chi router.
package authflow

import (
	"log/slog"

	"github.com/dmitrymomot/authbridge/pkg/audit"
	"github.com/dmitrymomot/authbridge/pkg/authz"
	"github.com/dmitrymomot/authbridge/pkg/callback"
	"github.com/dmitrymomot/authbridge/pkg/idp"
	"github.com/dmitrymomot/authbridge/pkg/logger"
	"github.com/dmitrymomot/authbridge/pkg/profile"
	"github.com/dmitrymomot/authbridge/pkg/session"
)

// Service handles the authentication flow endpoints.
type Service struct {
	cfg        Config
	provider   idp.Provider
	resolver   *session.Resolver
	reconciler *callback.Reconciler
	profiles   *profile.Synchronizer
	evaluator  *authz.Evaluator
	recorder   audit.Recorder
	auditLog   *audit.Reader
	log        *slog.Logger
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithLogger configures the logger for the service.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAuditReader enables the audit listing endpoint.
func WithAuditReader(r *audit.Reader) ServiceOption {
	return func(s *Service) {
		s.auditLog = r
	}
}

// NewService assembles the authflow module from its collaborators.
func NewService(
	cfg Config,
	provider idp.Provider,
	resolver *session.Resolver,
	reconciler *callback.Reconciler,
	profiles *profile.Synchronizer,
	evaluator *authz.Evaluator,
	recorder audit.Recorder,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		cfg:        cfg,
		provider:   provider,
		resolver:   resolver,
		reconciler: reconciler,
		profiles:   profiles,
		evaluator:  evaluator,
		recorder:   recorder,
		log:        logger.NewDiscard(),
	}
	if s.recorder == nil {
		s.recorder = audit.NoopRecorder{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
