package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/s0up4200/qbitctl/server"
)

const loginEndpoint = "auth/login"

// Manager owns one Session per server profile id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     managerOptions
	logger   zerolog.Logger
}

// NewManager creates an empty session manager
func NewManager(logger zerolog.Logger, opts ...Option) *Manager {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Manager{
		sessions: make(map[string]*Session),
		opts:     options,
		logger:   logger,
	}
}

// Session returns the cached session for the profile, creating it on first use.
func (m *Manager) Session(profile server.Profile) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[profile.ID]; ok {
		return s, nil
	}

	s, err := m.newSession(profile)
	if err != nil {
		return nil, err
	}
	m.sessions[profile.ID] = s

	m.logger.Debug().
		Str("server", profile.ID).
		Str("base_url", s.BaseURL()).
		Msg("Created session")

	return s, nil
}

// RemoveSession drops the cached session so the next request rebuilds it
// from the current profile settings.
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.logger.Debug().Str("server", id).Msg("Removed session")
	}
}

// Len returns the number of cached sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

func (m *Manager) newSession(profile server.Profile) (*Session, error) {
	baseURL, err := profile.ParseBaseURL()
	if err != nil {
		return nil, &AddressError{Host: profile.Host, Err: err}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := m.opts.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if m.opts.insecureSkipVerify {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in per config
		}
		transport = t
	}

	return &Session{
		id:      profile.ID,
		baseURL: baseURL,
		client: &http.Client{
			Jar:       jar,
			Timeout:   m.opts.timeout,
			Transport: transport,
		},
		userAgent: m.opts.userAgent,
		createdAt: time.Now(),
	}, nil
}

// Execute runs op against the profile's session. A 403 answer triggers one
// login with the profile credentials followed by one more run of op.
// Failures come back classified; Execute never returns a raw transport error.
func Execute[T any](ctx context.Context, m *Manager, profile server.Profile, op Operation[T]) Result[T] {
	s, err := m.Session(profile)
	if err != nil {
		return failure[T](m, profile, err)
	}

	resp, err := op(ctx, s)
	if err != nil {
		return failure[T](m, profile, err)
	}

	if resp != nil && resp.Forbidden() {
		m.logger.Debug().Str("server", profile.ID).Msg("Session rejected, logging in")

		if loginErr := m.login(ctx, profile, s); loginErr != nil {
			m.logger.Debug().
				Str("server", profile.ID).
				Stringer("kind", loginErr.Kind).
				Msg("Login failed")
			return Failure[T](loginErr)
		}

		resp, err = op(ctx, s)
		if err != nil {
			return failure[T](m, profile, err)
		}
	}

	return classifyResponse(resp)
}

func failure[T any](m *Manager, profile server.Profile, err error) Result[T] {
	classified := ClassifyError(err)
	m.logger.Debug().
		Err(err).
		Str("server", profile.ID).
		Stringer("kind", classified.Kind).
		Msg("Request failed")
	return Failure[T](classified)
}

// login authenticates s. Concurrent callers on the same session share one
// attempt, which outlives the cancellation of whichever caller started it.
// A caller whose own context ends stops waiting without failing the others.
func (m *Manager) login(ctx context.Context, profile server.Profile, s *Session) *Error {
	ch := s.logins.DoChan(loginEndpoint, func() (any, error) {
		loginCtx := context.WithoutCancel(ctx)
		if m.opts.timeout > 0 {
			var cancel context.CancelFunc
			loginCtx, cancel = context.WithTimeout(loginCtx, m.opts.timeout)
			defer cancel()
		}
		return m.doLogin(loginCtx, profile, s), nil
	})

	select {
	case <-ctx.Done():
		return ClassifyError(ctx.Err())
	case res := <-ch:
		if res.Shared {
			m.logger.Debug().Str("server", profile.ID).Msg("Shared login with concurrent requests")
		}
		loginErr, _ := res.Val.(*Error)
		return loginErr
	}
}

func (m *Manager) doLogin(ctx context.Context, profile server.Profile, s *Session) *Error {
	form := url.Values{
		"username": {profile.Username},
		"password": {profile.Password},
	}

	resp, err := PostText(loginEndpoint, form)(ctx, s)
	if err != nil {
		return ClassifyError(err)
	}
	if loginErr := classifyLogin(resp); loginErr != nil {
		return loginErr
	}

	m.logger.Debug().
		Str("server", profile.ID).
		Dur("session_age", time.Since(s.createdAt)).
		Msg("Logged in")

	return nil
}
