package callback_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authbridge/pkg/callback"
	"github.com/dmitrymomot/authbridge/pkg/flowstate"
	"github.com/dmitrymomot/authbridge/pkg/idp"
)

func testConfig() callback.Config {
	return callback.Config{
		SuccessURL:   "/dashboard",
		FailureURL:   "/signin",
		SuccessDelay: time.Second,
		FailureDelay: 3 * time.Second,
	}
}

func savedFlow(t *testing.T, state, verifier string) flowstate.Store {
	t.Helper()
	store := flowstate.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), state, verifier, time.Minute))
	return store
}

func TestReconcileProviderError(t *testing.T) {
	t.Parallel()

	provider := new(MockProvider)
	r := callback.NewReconciler(provider, flowstate.NewMemoryStore(), testConfig())

	out := r.Reconcile(context.Background(), callback.Landing{
		URL: "https://app.example.com/callback?error=access_denied&error_description=User%20denied",
	})

	assert.Equal(t, callback.StateFailed, out.State)
	assert.Equal(t, "User denied", out.Message)
	assert.Nil(t, out.Session)
	assert.Equal(t, "/signin", out.RedirectTo)
	assert.Equal(t, 3*time.Second, out.RedirectDelay)
	provider.AssertNotCalled(t, "ExchangeCode")
}

func TestReconcileProviderErrorWithoutDescription(t *testing.T) {
	t.Parallel()

	r := callback.NewReconciler(new(MockProvider), flowstate.NewMemoryStore(), testConfig())

	out := r.Reconcile(context.Background(), callback.Landing{
		URL: "https://app.example.com/callback?error=server_error",
	})

	assert.Equal(t, callback.StateFailed, out.State)
	assert.Equal(t, "server_error", out.Message)
}

func TestReconcileCodeExchange(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		sess := &idp.Session{AccessToken: "at", RefreshToken: "rt"}
		provider := new(MockProvider)
		provider.On("ExchangeCode", mock.Anything, "abc123", "verifier-1").Return(sess, nil)

		r := callback.NewReconciler(provider, savedFlow(t, "state-1", "verifier-1"), testConfig())

		out := r.Reconcile(context.Background(), callback.Landing{
			URL: "https://app.example.com/callback?code=abc123&state=state-1",
		})

		assert.Equal(t, callback.StateSucceeded, out.State)
		assert.Empty(t, out.Message)
		assert.Same(t, sess, out.Session)
		assert.Equal(t, "/dashboard", out.RedirectTo)
		assert.Equal(t, time.Second, out.RedirectDelay)
	})

	t.Run("exchange fails but fallback session exists", func(t *testing.T) {
		t.Parallel()

		sess := &idp.Session{AccessToken: "at"}
		provider := new(MockProvider)
		provider.On("ExchangeCode", mock.Anything, "abc123", "verifier-1").Return(nil, idp.ErrExchangeFailed)
		provider.On("GetSession", mock.Anything, "rt-1").Return(sess, nil)

		r := callback.NewReconciler(provider, savedFlow(t, "state-1", "verifier-1"), testConfig())

		out := r.Reconcile(context.Background(), callback.Landing{
			URL:          "https://app.example.com/callback?code=abc123&state=state-1",
			RefreshToken: "rt-1",
		})

		assert.Equal(t, callback.StateSucceeded, out.State)
		assert.Same(t, sess, out.Session)
	})

	t.Run("exchange and fallback both fail", func(t *testing.T) {
		t.Parallel()

		provider := new(MockProvider)
		provider.On("ExchangeCode", mock.Anything, "abc123", "verifier-1").Return(nil, idp.ErrExchangeFailed)
		provider.On("GetSession", mock.Anything, "rt-1").Return(nil, idp.ErrSessionNotFound)

		r := callback.NewReconciler(provider, savedFlow(t, "state-1", "verifier-1"), testConfig())

		out := r.Reconcile(context.Background(), callback.Landing{
			URL:          "https://app.example.com/callback?code=abc123&state=state-1",
			RefreshToken: "rt-1",
		})

		assert.Equal(t, callback.StateFailed, out.State)
		assert.Equal(t, "no session obtained", out.Message)
		assert.Nil(t, out.Session)
	})
}

func TestReconcileReplay(t *testing.T) {
	t.Parallel()

	t.Run("second landing recovers via fallback", func(t *testing.T) {
		t.Parallel()

		sess := &idp.Session{AccessToken: "at", RefreshToken: "rt-1"}
		provider := new(MockProvider)
		provider.On("ExchangeCode", mock.Anything, "abc123", "verifier-1").Return(sess, nil).Once()
		provider.On("GetSession", mock.Anything, "rt-1").Return(sess, nil)

		r := callback.NewReconciler(provider, savedFlow(t, "state-1", "verifier-1"), testConfig())
		landing := callback.Landing{
			URL:          "https://app.example.com/callback?code=abc123&state=state-1",
			RefreshToken: "rt-1",
		}

		first := r.Reconcile(context.Background(), landing)
		require.Equal(t, callback.StateSucceeded, first.State)

		// The verifier was consumed by the first landing, so the replay
		// never reaches the exchange and lands in fallback.
		second := r.Reconcile(context.Background(), landing)
		assert.Equal(t, callback.StateSucceeded, second.State)
		provider.AssertNumberOfCalls(t, "ExchangeCode", 1)
	})

	t.Run("replay without a session fails cleanly", func(t *testing.T) {
		t.Parallel()

		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything, "rt-1").Return(nil, idp.ErrSessionNotFound)

		// Empty flow store: the state value was already consumed.
		r := callback.NewReconciler(provider, flowstate.NewMemoryStore(), testConfig())

		out := r.Reconcile(context.Background(), callback.Landing{
			URL:          "https://app.example.com/callback?code=abc123&state=state-1",
			RefreshToken: "rt-1",
		})

		assert.Equal(t, callback.StateFailed, out.State)
		assert.Equal(t, "no session obtained", out.Message)
		provider.AssertNotCalled(t, "ExchangeCode")
	})
}

func TestReconcileNoCodeNoError(t *testing.T) {
	t.Parallel()

	t.Run("existing session", func(t *testing.T) {
		t.Parallel()

		sess := &idp.Session{AccessToken: "at"}
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything, "rt-1").Return(sess, nil)

		r := callback.NewReconciler(provider, flowstate.NewMemoryStore(), testConfig())

		out := r.Reconcile(context.Background(), callback.Landing{
			URL:          "https://app.example.com/callback",
			RefreshToken: "rt-1",
		})

		assert.Equal(t, callback.StateSucceeded, out.State)
		assert.Same(t, sess, out.Session)
	})

	t.Run("nothing to fall back on", func(t *testing.T) {
		t.Parallel()

		r := callback.NewReconciler(new(MockProvider), flowstate.NewMemoryStore(), testConfig())

		out := r.Reconcile(context.Background(), callback.Landing{
			URL: "https://app.example.com/callback",
		})

		assert.Equal(t, callback.StateFailed, out.State)
		assert.Equal(t, "no session obtained", out.Message)
	})
}

func TestReconcileCleanURL(t *testing.T) {
	t.Parallel()

	provider := new(MockProvider)
	provider.On("ExchangeCode", mock.Anything, "abc123", "verifier-1").Return(&idp.Session{AccessToken: "at"}, nil)

	r := callback.NewReconciler(provider, savedFlow(t, "state-1", "verifier-1"), testConfig())

	out := r.Reconcile(context.Background(), callback.Landing{
		URL: "https://app.example.com/callback?code=abc123&state=state-1&tab=settings",
	})

	require.Equal(t, callback.StateSucceeded, out.State)
	assert.Equal(t, "https://app.example.com/callback?tab=settings", out.CleanURL)
}

func TestReconcileAbandonedContext(t *testing.T) {
	t.Parallel()

	provider := new(MockProvider)
	ctx, cancel := context.WithCancel(context.Background())
	provider.On("ExchangeCode", mock.Anything, "abc123", "verifier-1").Run(func(mock.Arguments) {
		cancel()
	}).Return(nil, context.Canceled)

	r := callback.NewReconciler(provider, savedFlow(t, "state-1", "verifier-1"), testConfig())

	out := r.Reconcile(ctx, callback.Landing{
		URL: "https://app.example.com/callback?code=abc123&state=state-1",
	})

	assert.Equal(t, callback.StateExchangingCode, out.State)
	assert.Empty(t, out.RedirectTo)
	provider.AssertNotCalled(t, "GetSession")
}
