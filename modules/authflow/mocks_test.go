package authflow_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/authbridge/pkg/idp"
)

// MockProvider is a testify mock of idp.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) VerifyToken(ctx context.Context, accessToken string) (*idp.Claims, error) {
	args := m.Called(ctx, accessToken)
	if claims := args.Get(0); claims != nil {
		return claims.(*idp.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code, verifier string) (*idp.Session, error) {
	args := m.Called(ctx, code, verifier)
	if sess := args.Get(0); sess != nil {
		return sess.(*idp.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) GetSession(ctx context.Context, refreshToken string) (*idp.Session, error) {
	args := m.Called(ctx, refreshToken)
	if sess := args.Get(0); sess != nil {
		return sess.(*idp.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) GetIdentity(ctx context.Context, subject string) (*idp.Identity, error) {
	args := m.Called(ctx, subject)
	if identity := args.Get(0); identity != nil {
		return identity.(*idp.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) SignInWithPassword(ctx context.Context, email, password string) (*idp.Session, error) {
	args := m.Called(ctx, email, password)
	if sess := args.Get(0); sess != nil {
		return sess.(*idp.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) SignUp(ctx context.Context, email, password, redirectURL string) (*idp.Session, error) {
	args := m.Called(ctx, email, password, redirectURL)
	if sess := args.Get(0); sess != nil {
		return sess.(*idp.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) OAuthStartURL(ctx context.Context, provider, redirectURL string) (string, error) {
	args := m.Called(ctx, provider, redirectURL)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockProvider) ResetPassword(ctx context.Context, email, redirectURL string) error {
	args := m.Called(ctx, email, redirectURL)
	return args.Error(0)
}

var _ idp.Provider = (*MockProvider)(nil)
