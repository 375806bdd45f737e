package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/adapters/memstore"
	"github.com/target/storefront-go/internal/apiclient"
	"github.com/target/storefront-go/internal/domain/auth"
	authmocks "github.com/target/storefront-go/internal/mocks/auth"
	"github.com/target/storefront-go/internal/ports"
	"github.com/target/storefront-go/internal/testutil"
)

const (
	testEmail    = "shopper@example.com"
	testPassword = "correct-horse"
)

type testEnv struct {
	api     *testutil.FakeAPI
	store   *memstore.Store
	sink    *authmocks.RecordingSink
	client  *apiclient.Client
	session *SessionService
}

type envOption func(*envConfig)

type envConfig struct {
	policy config.HydratePolicy
	store  ports.Store
}

func withPolicy(p config.HydratePolicy) envOption {
	return func(c *envConfig) { c.policy = p }
}

func withStore(s ports.Store) envOption {
	return func(c *envConfig) { c.store = s }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	api := testutil.NewFakeAPI(t)
	client, err := apiclient.New(
		apiclient.Config{BaseURL: api.URL(), Timeout: 5 * time.Second, UserAgent: "storefront-test"},
		apiclient.Options{},
	)
	require.NoError(t, err)

	mem := memstore.New()
	cfg := envConfig{policy: config.HydrateTrust, store: mem}
	for _, o := range opts {
		o(&cfg)
	}
	sink := &authmocks.RecordingSink{}
	sess := NewSessionService(SessionServiceOptions{
		Client: client,
		Store:  cfg.store,
		Config: SessionServiceConfig{HydratePolicy: cfg.policy, Metrics: sink},
	})
	return &testEnv{api: api, store: mem, sink: sink, client: client, session: sess}
}

// loggedIn registers the default user, hydrates an empty session and logs in.
func (e *testEnv) loggedIn(t *testing.T, user auth.User) auth.User {
	t.Helper()
	ctx := context.Background()
	e.api.AddUser(user, testPassword)
	require.NoError(t, e.session.Hydrate(ctx))
	u, err := e.session.Login(ctx, user.Email, testPassword)
	require.NoError(t, err)
	return u
}

func (e *testEnv) stored(t *testing.T, key string) string {
	t.Helper()
	v, err := e.store.Get(context.Background(), key)
	require.NoError(t, err)
	return string(v)
}

// waitFor reads snapshots until pred holds or the deadline passes.
func waitFor(t *testing.T, ch <-chan auth.Session, pred func(auth.Session) bool) auth.Session {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			require.True(t, ok, "subscription closed early")
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for session snapshot")
			return auth.Session{}
		}
	}
}
