package auth

// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/target/storefront-go/internal/observability/statsd"
	"github.com/target/storefront-go/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionHooks = (*StaticSession)(nil)
	_ ports.Store        = (*FailingStore)(nil)
	_ statsd.Sink        = (*RecordingSink)(nil)
)

// StaticSession is a SessionHooks double with a fixed token and scripted refresh.
type StaticSession struct {
	RefreshFunc func(ctx context.Context) (*oauth2.Token, error)

	mu           sync.Mutex
	token        *oauth2.Token
	refreshCalls int
	logoutCalls  int
}

// NewStaticSession creates a session holding access as its bearer token.
func NewStaticSession(access string) *StaticSession {
	s := &StaticSession{}
	if access != "" {
		s.token = &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	}
	return s
}

func (s *StaticSession) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *StaticSession) RefreshToken(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	s.refreshCalls++
	fn := s.RefreshFunc
	s.mu.Unlock()

	if fn == nil {
		return nil, ErrRefreshUnavailable
	}
	tok, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return tok, nil
}

func (s *StaticSession) Logout(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutCalls++
	s.token = nil
	return nil
}

// RefreshCalls returns how many times RefreshToken ran.
func (s *StaticSession) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// LogoutCalls returns how many times Logout ran.
func (s *StaticSession) LogoutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutCalls
}

// ErrRefreshUnavailable is returned when no RefreshFunc is configured.
var ErrRefreshUnavailable = errors.New("refresh not configured")

// FailingStore decorates a Store and fails the operations whose hook is set.
type FailingStore struct {
	ports.Store

	GetErr    error
	SetErr    error
	DeleteErr error
}

func (f *FailingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	return f.Store.Get(ctx, key)
}

func (f *FailingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	return f.Store.Set(ctx, key, value)
}

func (f *FailingStore) Delete(ctx context.Context, key string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	return f.Store.Delete(ctx, key)
}

// Sample is one recorded metric.
type Sample struct {
	Kind  string
	Name  string
	Value float64
	Tags  map[string]string
}

// RecordingSink captures metric samples for assertions.
type RecordingSink struct {
	mu      sync.Mutex
	samples []Sample
}

func (r *RecordingSink) Count(name string, value int64, tags map[string]string) {
	r.add(Sample{Kind: "count", Name: name, Value: float64(value), Tags: tags})
}

func (r *RecordingSink) Gauge(name string, value float64, tags map[string]string) {
	r.add(Sample{Kind: "gauge", Name: name, Value: value, Tags: tags})
}

func (r *RecordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Sample{Kind: "timing", Name: name, Value: float64(value) / float64(time.Millisecond), Tags: tags})
}

func (r *RecordingSink) add(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Samples returns a copy of the recorded samples.
func (r *RecordingSink) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Named returns recorded samples with the given name and kind.
func (r *RecordingSink) Named(kind, name string) []Sample {
	var out []Sample
	for _, s := range r.Samples() {
		if s.Kind == kind && s.Name == name {
			out = append(out, s)
		}
	}
	return out
}
