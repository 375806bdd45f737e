package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/apiclient"
	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/observability/metrics"
	"github.com/target/storefront-go/internal/observability/statsd"
	"github.com/target/storefront-go/internal/ports"
	"github.com/target/storefront-go/internal/validation"
)

const (
	pathTokenCreate  = "auth/token/create/"
	pathTokenRefresh = "auth/token/refresh/"
	pathTokenDestroy = "auth/token/destroy/"
	pathTokenVerify  = "auth/token/verify/"
	pathRegister     = "auth/register/"
	pathMe           = "auth/me/"
	pathStaffCheck   = "auth/staff-check/"
)

// SessionExpiredMessage is reported when a refresh is attempted without a refresh credential.
const SessionExpiredMessage = "Your session has expired. Please log in again."

// ErrAlreadyHydrated is returned by every Hydrate call after the first.
var ErrAlreadyHydrated = errors.New("session already hydrated")

// SessionServiceConfig holds tunables and optional dependencies for SessionService.
type SessionServiceConfig struct {
	HydratePolicy config.HydratePolicy
	Logger        *slog.Logger
	Metrics       statsd.Sink
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Client *apiclient.Client // Required: client without a bound session
	Store  ports.Store       // Required: persisted tokens and cached user
	Config SessionServiceConfig
}

// SessionService is the single owner of the client session. Callers issue commands
// (Hydrate, Login, Logout, RefreshToken) and observe snapshots through State or Subscribe.
type SessionService struct {
	api     *apiclient.Client
	authed  *apiclient.Client
	store   ports.Store
	policy  config.HydratePolicy
	logger  *slog.Logger
	metrics statsd.Sink

	mu             sync.RWMutex
	state          auth.Session
	hydrateStarted bool

	refreshGroup singleflight.Group
	staffGroup   singleflight.Group

	subsMu sync.Mutex
	subs   map[int]chan auth.Session
	nextID int
}

// NewSessionService constructs a SessionService in PhaseUnknown.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Client == nil {
		panic("SessionService requires a non-nil Client")
	}
	if opts.Store == nil {
		panic("SessionService requires a non-nil Store")
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Config.HydratePolicy
	if policy == "" {
		policy = config.HydrateTrust
	}

	s := &SessionService{
		api:     opts.Client,
		store:   opts.Store,
		policy:  policy,
		logger:  logger.With("component", "session"),
		metrics: opts.Config.Metrics,
		state:   auth.Session{Phase: auth.PhaseUnknown},
		subs:    make(map[int]chan auth.Session),
	}
	s.authed = opts.Client.WithSession(s)
	return s
}

// Client returns an API client bound to this session.
func (s *SessionService) Client() *apiclient.Client { return s.authed }

// State returns the current snapshot.
func (s *SessionService) State() auth.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// AccessToken returns the current bearer credential, or "" when anonymous.
func (s *SessionService) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// Token returns the current credential, or nil when anonymous.
func (s *SessionService) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.AccessToken == "" {
		return nil, nil
	}
	return &oauth2.Token{
		AccessToken:  s.state.AccessToken,
		RefreshToken: s.state.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// TokenSource adapts the session to oauth2.TokenSource. Unlike Token, it fails while
// anonymous.
func (s *SessionService) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s: s}
}

type sessionTokenSource struct{ s *SessionService }

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.s.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, apperrors.Unauthorized("You must be logged in.")
	}
	return tok, nil
}

// Subscribe streams snapshots until ctx is done. The current snapshot is delivered first;
// a slow reader only ever sees the latest one.
func (s *SessionService) Subscribe(ctx context.Context) <-chan auth.Session {
	ch := make(chan auth.Session, 1)

	// Registered and seeded under subsMu so a concurrent publish either lands after the
	// seed or is already reflected in it.
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.State()
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subsMu.Unlock()
	}()
	return ch
}

func (s *SessionService) publish(snap auth.Session) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.Clone():
		default:
		}
	}
}

// update applies fn under the write lock and publishes the result.
func (s *SessionService) update(fn func(st *auth.Session)) auth.Session {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.Clone()
	s.mu.Unlock()
	s.publish(snap)
	return snap
}

func (s *SessionService) record(transition string, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{
		Transition: transition,
		Result:     result,
		Duration:   time.Since(start),
		Err:        err,
	})
}

// Hydrate replays persisted credentials. It runs once; later calls return
// ErrAlreadyHydrated and leave the state untouched. Hydrated is true afterwards even when
// reading storage failed.
func (s *SessionService) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrateStarted {
		s.mu.Unlock()
		return ErrAlreadyHydrated
	}
	s.hydrateStarted = true
	s.state.Phase = auth.PhaseHydrating
	snap := s.state.Clone()
	s.mu.Unlock()
	s.publish(snap)

	start := time.Now()
	access, refresh, user, err := s.readPersisted(ctx)
	if err == nil && access != "" && s.policy == config.HydrateVerify {
		access, refresh, err = s.verifyPersisted(ctx, access, refresh)
	}

	s.update(func(st *auth.Session) {
		st.Hydrated = true
		if err != nil || access == "" {
			st.AccessToken, st.RefreshToken, st.User = "", "", nil
			st.Phase = auth.PhaseAnonymous
			return
		}
		st.AccessToken, st.RefreshToken, st.User = access, refresh, user
		st.Phase = auth.PhaseAuthenticated
	})
	s.record("hydrate", start, err)
	if err != nil {
		s.logger.WarnContext(ctx, "session hydrate failed", "error", err)
		return fmt.Errorf("hydrate session: %w", err)
	}
	s.logger.DebugContext(ctx, "session hydrated", "authenticated", access != "", "policy", string(s.policy))
	return nil
}

func (s *SessionService) readPersisted(ctx context.Context) (string, string, *auth.User, error) {
	access, err := s.store.Get(ctx, ports.KeyAccessToken)
	if err != nil {
		return "", "", nil, fmt.Errorf("read access token: %w", err)
	}
	refresh, err := s.store.Get(ctx, ports.KeyRefreshToken)
	if err != nil {
		return "", "", nil, fmt.Errorf("read refresh token: %w", err)
	}
	raw, err := s.store.Get(ctx, ports.KeyUser)
	if err != nil {
		return "", "", nil, fmt.Errorf("read user: %w", err)
	}

	var user *auth.User
	if len(raw) > 0 {
		var u auth.User
		if jsonErr := json.Unmarshal(raw, &u); jsonErr != nil {
			s.logger.WarnContext(ctx, "discarding unreadable cached user", "error", jsonErr)
		} else {
			user = &u
		}
	}
	return string(access), string(refresh), user, nil
}

// verifyPersisted checks access with the server, falls back to a refresh, and clears
// storage when both fail. It returns the credentials to adopt ("" when cleared).
func (s *SessionService) verifyPersisted(ctx context.Context, access, refresh string) (string, string, error) {
	verifyErr := s.api.Call(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        pathTokenVerify,
		Body:        map[string]string{"token": access},
		Anonymous:   true,
		SkipRefresh: true,
	}, nil)
	if verifyErr == nil {
		return access, refresh, nil
	}
	s.logger.InfoContext(ctx, "persisted token rejected, refreshing", "error", verifyErr)

	if refresh != "" {
		pair, err := s.exchangeRefresh(ctx, refresh)
		if err == nil {
			if persistErr := s.persistTokens(ctx, pair.Access, pair.Refresh); persistErr != nil {
				return "", "", persistErr
			}
			return pair.Access, pair.Refresh, nil
		}
		s.logger.InfoContext(ctx, "refresh during hydrate failed, clearing session", "error", err)
	}

	if err := ports.DeleteKeys(ctx, s.store, ports.SessionKeys); err != nil {
		return "", "", fmt.Errorf("clear session: %w", err)
	}
	return "", "", nil
}

// Login exchanges credentials for a token pair and loads the profile. An inactive
// profile is logged out again and reported as an inactive_account error.
func (s *SessionService) Login(ctx context.Context, email, password string) (auth.User, error) {
	start := time.Now()
	user, err := s.login(ctx, email, password)
	s.record("login", start, err)
	if err != nil {
		msg := apperrors.Message(err)
		s.update(func(st *auth.Session) { st.Error = msg })
		return auth.User{}, err
	}
	return user, nil
}

func (s *SessionService) login(ctx context.Context, email, password string) (auth.User, error) {
	if err := validation.Struct(model.LoginInput{Email: email, Password: password}); err != nil {
		return auth.User{}, err
	}

	var pair auth.TokenPair
	err := s.api.Call(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        pathTokenCreate,
		Body:        model.LoginInput{Email: email, Password: password},
		Anonymous:   true,
		SkipRefresh: true,
	}, &pair)
	if err != nil {
		return auth.User{}, err
	}
	if pair.Access == "" {
		return auth.User{}, apperrors.Internal("The server did not return a token.")
	}

	var user auth.User
	meErr := s.api.Call(ctx, apiclient.Request{
		Method:      http.MethodGet,
		Path:        pathMe,
		Token:       pair.Access,
		SkipRefresh: true,
	}, &user)
	if meErr != nil || user.Email == "" {
		s.logger.WarnContext(ctx, "profile fetch after login failed, using synthesized profile", "error", meErr)
		user = auth.SynthesizeUser(email)
	}

	if !user.IsActive {
		s.destroyRemote(ctx, pair.Access, pair.Refresh)
		if err := s.clear(ctx); err != nil {
			s.logger.WarnContext(ctx, "clear after inactive login", "error", err)
		}
		return auth.User{}, apperrors.InactiveAccount()
	}

	if err := s.persistTokens(ctx, pair.Access, pair.Refresh); err != nil {
		return auth.User{}, err
	}
	if err := s.persistUser(ctx, user); err != nil {
		return auth.User{}, err
	}

	u := user
	s.update(func(st *auth.Session) {
		st.AccessToken, st.RefreshToken = pair.Access, pair.Refresh
		st.User = &u
		st.Phase = auth.PhaseAuthenticated
		st.Staff = auth.StaffUnknown
		st.Error = ""
	})
	s.logger.InfoContext(ctx, "logged in", "user_id", user.ID)
	return user, nil
}

// Register creates an account. It never authenticates; the caller logs in afterwards.
func (s *SessionService) Register(ctx context.Context, in model.RegisterInput) (auth.User, error) {
	start := time.Now()
	var user auth.User
	err := validation.Struct(in)
	if err == nil {
		err = s.api.Call(ctx, apiclient.Request{
			Method:      http.MethodPost,
			Path:        pathRegister,
			Body:        in,
			Anonymous:   true,
			SkipRefresh: true,
		}, &user)
	}
	s.record("register", start, err)
	if err != nil {
		msg := apperrors.Message(err)
		s.update(func(st *auth.Session) { st.Error = msg })
		return auth.User{}, err
	}
	s.update(func(st *auth.Session) { st.Error = "" })
	return user, nil
}

// Logout invalidates the tokens server-side on a best-effort basis and always clears
// the in-memory session and the persisted credentials.
func (s *SessionService) Logout(ctx context.Context) error {
	start := time.Now()
	s.mu.RLock()
	access, refresh := s.state.AccessToken, s.state.RefreshToken
	s.mu.RUnlock()

	s.destroyRemote(ctx, access, refresh)
	err := s.clear(ctx)
	s.record("logout", start, err)
	return err
}

func (s *SessionService) destroyRemote(ctx context.Context, access, refresh string) {
	if access == "" && refresh == "" {
		return
	}
	req := apiclient.Request{
		Method:      http.MethodPost,
		Path:        pathTokenDestroy,
		Body:        map[string]string{"refresh": refresh},
		Token:       access,
		Anonymous:   access == "",
		SkipRefresh: true,
	}
	if err := s.api.Call(ctx, req, nil); err != nil {
		s.logger.WarnContext(ctx, "token destroy failed", "error", err)
	}
}

// clear resets the session to anonymous and removes persisted credentials. Memory is
// cleared even when storage fails.
func (s *SessionService) clear(ctx context.Context) error {
	s.update(func(st *auth.Session) {
		st.AccessToken, st.RefreshToken, st.User = "", "", nil
		st.Staff = auth.StaffUnknown
		st.Phase = auth.PhaseAnonymous
	})
	if err := ports.DeleteKeys(ctx, s.store, ports.SessionKeys); err != nil {
		return fmt.Errorf("clear session storage: %w", err)
	}
	return nil
}

// RefreshToken exchanges the refresh credential for a new pair and persists it.
// Failure is reported, never acted on. Concurrent callers share one exchange.
func (s *SessionService) RefreshToken(ctx context.Context) (*oauth2.Token, error) {
	v, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		start := time.Now()
		tok, err := s.refresh(ctx)
		s.record("refresh", start, err)
		return tok, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

func (s *SessionService) refresh(ctx context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	current := s.state.RefreshToken
	s.mu.RUnlock()
	if current == "" {
		return nil, apperrors.Unauthorized(SessionExpiredMessage)
	}

	pair, err := s.exchangeRefresh(ctx, current)
	if err != nil {
		s.logger.InfoContext(ctx, "token refresh rejected", "error", err)
		return nil, err
	}
	if err := s.persistTokens(ctx, pair.Access, pair.Refresh); err != nil {
		return nil, err
	}
	s.update(func(st *auth.Session) {
		st.AccessToken, st.RefreshToken = pair.Access, pair.Refresh
		st.Phase = auth.PhaseAuthenticated
	})
	return &oauth2.Token{AccessToken: pair.Access, RefreshToken: pair.Refresh, TokenType: "Bearer"}, nil
}

// exchangeRefresh calls the refresh endpoint. A response without a new refresh token
// keeps the current one.
func (s *SessionService) exchangeRefresh(ctx context.Context, refresh string) (auth.TokenPair, error) {
	var pair auth.TokenPair
	err := s.api.Call(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        pathTokenRefresh,
		Body:        map[string]string{"refresh": refresh},
		Anonymous:   true,
		SkipRefresh: true,
	}, &pair)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if pair.Access == "" {
		return auth.TokenPair{}, apperrors.Unauthorized(SessionExpiredMessage)
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return pair, nil
}

func (s *SessionService) persistTokens(ctx context.Context, access, refresh string) error {
	if err := s.store.Set(ctx, ports.KeyAccessToken, []byte(access)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the session.")
	}
	if err := s.store.Set(ctx, ports.KeyRefreshToken, []byte(refresh)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the session.")
	}
	return nil
}

func (s *SessionService) persistUser(ctx context.Context, u auth.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the profile.")
	}
	if err := s.store.Set(ctx, ports.KeyUser, raw); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the profile.")
	}
	return nil
}

// UpdateUser replaces the cached profile after a profile write.
func (s *SessionService) UpdateUser(ctx context.Context, u auth.User) error {
	if s.AccessToken() == "" {
		return apperrors.Unauthorized("You must be logged in.")
	}
	if err := s.persistUser(ctx, u); err != nil {
		return err
	}
	s.update(func(st *auth.Session) { st.User = &u })
	return nil
}

// FetchStaffStatus resolves the staff flag once per authenticated session. Before
// hydration it returns StaffUnknown without a call; errors resolve to StaffNo.
func (s *SessionService) FetchStaffStatus(ctx context.Context) auth.StaffStatus {
	s.mu.RLock()
	hydrated, staff, access := s.state.Hydrated, s.state.Staff, s.state.AccessToken
	s.mu.RUnlock()
	switch {
	case !hydrated:
		return auth.StaffUnknown
	case staff.Known():
		return staff
	case access == "":
		return auth.StaffNo
	}

	v, _, _ := s.staffGroup.Do("staff", func() (any, error) {
		start := time.Now()
		var body struct {
			IsStaff bool `json:"is_staff"`
		}
		err := s.authed.Get(ctx, pathStaffCheck, nil, &body)
		s.record("staff_check", start, err)

		status := auth.StaffStatusFromBool(body.IsStaff)
		if err != nil {
			s.logger.InfoContext(ctx, "staff check failed, treating as non-staff", "error", err)
			status = auth.StaffNo
		}
		s.update(func(st *auth.Session) {
			if st.AccessToken != "" {
				st.Staff = status
			}
		})
		return status, nil
	})
	return v.(auth.StaffStatus)
}

// ResetStaffStatus forgets the cached staff flag so the next fetch hits the API.
func (s *SessionService) ResetStaffStatus() {
	s.update(func(st *auth.Session) { st.Staff = auth.StaffUnknown })
}
