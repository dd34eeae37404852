package session

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/qbitctl/server"
)

// fakeDaemon mimics the qBittorrent login flow: auth/login hands out an SID
// cookie and app/version answers 403 without a known SID.
type fakeDaemon struct {
	mu          sync.Mutex
	issued      map[string]bool
	logins      atomic.Int32
	loginStatus int
	loginBody   string
	server      *httptest.Server

	// optional hooks run before the daemon answers
	onLogin     func(n int32)
	onForbidden func()
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()

	d := &fakeDaemon{
		issued:      make(map[string]bool),
		loginStatus: http.StatusOK,
		loginBody:   LoginOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		n := d.logins.Add(1)
		assert.NoError(t, r.ParseForm())

		d.mu.Lock()
		status, body, hook := d.loginStatus, d.loginBody, d.onLogin
		d.mu.Unlock()

		if hook != nil {
			hook(n)
		}

		if status == http.StatusOK && body == LoginOK {
			if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "secret" {
				body = LoginFailed
			} else {
				sid := fmt.Sprintf("sid-%d", n)
				d.mu.Lock()
				d.issued[sid] = true
				d.mu.Unlock()
				http.SetCookie(w, &http.Cookie{Name: "SID", Value: sid, Path: "/"})
			}
		}

		w.WriteHeader(status)
		if status != http.StatusForbidden {
			fmt.Fprint(w, body)
		}
	})
	mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("SID")
		d.mu.Lock()
		ok := err == nil && d.issued[cookie.Value]
		hook := d.onForbidden
		d.mu.Unlock()

		if !ok {
			if hook != nil {
				hook()
			}
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "Forbidden")
			return
		}
		fmt.Fprint(w, "v4.6.2")
	})
	mux.HandleFunc("/api/v2/app/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	d.server = httptest.NewServer(mux)
	t.Cleanup(d.server.Close)

	return d
}

func (d *fakeDaemon) setLogin(status int, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loginStatus = status
	d.loginBody = body
}

func (d *fakeDaemon) setHooks(onLogin func(n int32), onForbidden func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onLogin = onLogin
	d.onForbidden = onForbidden
}

func (d *fakeDaemon) expireAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.issued = make(map[string]bool)
}

func (d *fakeDaemon) profile() server.Profile {
	return server.Profile{
		ID:       "srv-1",
		Host:     d.server.URL,
		Username: "admin",
		Password: "secret",
	}
}

func ptr[T any](v T) *T {
	return &v
}

// scripted returns an operation that replays responses in order.
func scripted[T any](calls *int, responses ...*Response[T]) Operation[T] {
	return func(ctx context.Context, s *Session) (*Response[T], error) {
		i := *calls
		*calls++
		if i >= len(responses) {
			return nil, fmt.Errorf("unexpected call %d", i)
		}
		return responses[i], nil
	}
}

func TestExecuteReusesSession(t *testing.T) {
	d := newFakeDaemon(t)
	m := NewManager(zerolog.Nop())
	profile := d.profile()

	first, err := m.Session(profile)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result := Execute(context.Background(), m, profile, GetText("app/version", nil))
		require.True(t, result.OK(), "unexpected error: %v", result.Err())
		assert.Equal(t, "v4.6.2", result.Value())
	}

	second, err := m.Session(profile)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, int32(1), d.logins.Load(), "cookie should be reused after the first login")
}

func TestExecuteReturnsRetriedBody(t *testing.T) {
	d := newFakeDaemon(t)
	m := NewManager(zerolog.Nop())

	var calls int
	op := scripted(&calls,
		&Response[string]{StatusCode: http.StatusForbidden, Status: "403 Forbidden", Body: ptr("first")},
		&Response[string]{StatusCode: http.StatusOK, Status: "200 OK", Body: ptr("second")},
	)

	result := Execute(context.Background(), m, d.profile(), op)
	require.True(t, result.OK())
	assert.Equal(t, "second", result.Value())
	assert.Equal(t, 2, calls)
	assert.Equal(t, int32(1), d.logins.Load())
}

func TestExecuteLoginOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		loginStatus int
		loginBody   string
		password    string
		want        ErrorKind
	}{
		{
			name:        "banned",
			loginStatus: http.StatusForbidden,
			password:    "secret",
			want:        KindBanned,
		},
		{
			name:        "invalid credentials",
			loginStatus: http.StatusOK,
			loginBody:   LoginOK,
			password:    "wrong",
			want:        KindInvalidCredentials,
		},
		{
			name:        "unexpected body",
			loginStatus: http.StatusOK,
			loginBody:   "Maybe.",
			password:    "secret",
			want:        KindUnknown,
		},
		{
			name:        "server error",
			loginStatus: http.StatusInternalServerError,
			loginBody:   "oops",
			password:    "secret",
			want:        KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDaemon(t)
			d.setLogin(tt.loginStatus, tt.loginBody)
			m := NewManager(zerolog.Nop())

			profile := d.profile()
			profile.Password = tt.password

			var calls int
			op := scripted(&calls,
				&Response[string]{StatusCode: http.StatusForbidden, Body: ptr("original body")},
			)

			result := Execute(context.Background(), m, profile, op)
			require.False(t, result.OK())
			assert.Equal(t, tt.want, result.Err().Kind)
			assert.Equal(t, 1, calls, "operation must not be retried after a failed login")
			assert.Equal(t, 1, m.Len(), "failed login keeps the session cached")
		})
	}
}

func TestExecuteRetriedResponseWithoutBody(t *testing.T) {
	tests := []struct {
		name     string
		retry    *Response[string]
		wantCode int
	}{
		{"absent body", &Response[string]{StatusCode: http.StatusOK}, 0},
		{"forbidden again", &Response[string]{StatusCode: http.StatusForbidden, Body: ptr("Forbidden")}, http.StatusForbidden},
		{"server error", &Response[string]{StatusCode: http.StatusInternalServerError}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDaemon(t)
			m := NewManager(zerolog.Nop())

			var calls int
			op := scripted(&calls,
				&Response[string]{StatusCode: http.StatusForbidden},
				tt.retry,
			)

			result := Execute(context.Background(), m, d.profile(), op)
			require.False(t, result.OK())
			assert.Equal(t, KindUnknown, result.Err().Kind)
			assert.Equal(t, tt.wantCode, result.Err().Code)
			assert.Equal(t, 2, calls, "operation runs at most twice")
			assert.Equal(t, int32(1), d.logins.Load())
		})
	}
}

func TestExecuteWithoutLogin(t *testing.T) {
	d := newFakeDaemon(t)
	m := NewManager(zerolog.Nop())

	t.Run("unsuccessful status", func(t *testing.T) {
		result := Execute(context.Background(), m, d.profile(), GetText("app/missing", nil))
		require.False(t, result.OK())
		assert.Equal(t, KindUnknown, result.Err().Kind)
		assert.Equal(t, http.StatusNotFound, result.Err().Code)
		assert.ErrorIs(t, result.Err(), ErrUnknown)
	})

	t.Run("absent body", func(t *testing.T) {
		var calls int
		op := scripted(&calls, &Response[string]{StatusCode: http.StatusOK})
		result := Execute(context.Background(), m, d.profile(), op)
		require.False(t, result.OK())
		assert.Equal(t, KindUnknown, result.Err().Kind)
	})

	assert.Equal(t, int32(0), d.logins.Load())
}

func TestExecuteConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := NewManager(zerolog.Nop())
	profile := server.Profile{ID: "down", Host: addr, Username: "admin", Password: "secret"}

	var calls int
	op := func(ctx context.Context, s *Session) (*Response[string], error) {
		calls++
		return GetText("app/version", nil)(ctx, s)
	}

	result := Execute(context.Background(), m, profile, op)
	require.False(t, result.OK())
	assert.Equal(t, KindCannotConnect, result.Err().Kind)
	assert.Equal(t, 1, calls)
}

func TestExecuteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "late")
	}))
	defer srv.Close()

	m := NewManager(zerolog.Nop(), WithTimeout(20*time.Millisecond))
	profile := server.Profile{ID: "slow", Host: srv.URL}

	result := Execute(context.Background(), m, profile, GetText("app/version", nil))
	require.False(t, result.OK())
	assert.Equal(t, KindTimeout, result.Err().Kind)
}

func TestExecuteMalformedAddress(t *testing.T) {
	m := NewManager(zerolog.Nop())
	profile := server.Profile{ID: "bad", Host: "http://bad host:80"}

	result := Execute(context.Background(), m, profile, GetText("app/version", nil))
	require.False(t, result.OK())
	assert.Equal(t, KindUnknownHost, result.Err().Kind)
	assert.Equal(t, 0, m.Len(), "unusable address must not be cached")
}

func TestRemoveSessionBuildsFreshSession(t *testing.T) {
	d := newFakeDaemon(t)
	m := NewManager(zerolog.Nop())
	profile := d.profile()

	result := Execute(context.Background(), m, profile, GetText("app/version", nil))
	require.True(t, result.OK())

	old, err := m.Session(profile)
	require.NoError(t, err)
	require.NotEmpty(t, old.Cookies())

	m.RemoveSession(profile.ID)
	assert.Equal(t, 0, m.Len())

	fresh, err := m.Session(profile)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Empty(t, fresh.Cookies(), "new session must not inherit the evicted cookie jar")

	result = Execute(context.Background(), m, profile, GetText("app/version", nil))
	require.True(t, result.OK())
	assert.Equal(t, int32(2), d.logins.Load())
}

func TestRemoveSessionPicksUpEditedAddress(t *testing.T) {
	first := newFakeDaemon(t)
	second := newFakeDaemon(t)
	m := NewManager(zerolog.Nop())

	profile := first.profile()
	require.True(t, Execute(context.Background(), m, profile, GetText("app/version", nil)).OK())

	profile.Host = second.server.URL
	m.RemoveSession(profile.ID)
	require.True(t, Execute(context.Background(), m, profile, GetText("app/version", nil)).OK())

	assert.Equal(t, int32(1), first.logins.Load())
	assert.Equal(t, int32(1), second.logins.Load())
}

// lockedBuffer collects log output written from several goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestExecuteConcurrentRelogin(t *testing.T) {
	d := newFakeDaemon(t)
	var logs lockedBuffer
	m := NewManager(zerolog.New(&logs).Level(zerolog.DebugLevel))
	profile := d.profile()

	require.True(t, Execute(context.Background(), m, profile, GetText("app/version", nil)).OK())
	d.expireAll()

	results := make([]Result[string], 8)

	// every caller sees its 403 before the shared login is allowed to finish
	var rejected sync.WaitGroup
	rejected.Add(len(results))
	d.setHooks(func(n int32) {
		rejected.Wait()
		time.Sleep(50 * time.Millisecond)
	}, rejected.Done)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Execute(context.Background(), m, profile, GetText("app/version", nil))
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		assert.True(t, r.OK(), "call %d failed: %v", i, r.Err())
	}
	assert.Equal(t, int32(2), d.logins.Load(), "initial login plus one shared re-login")
	assert.Equal(t, 1, m.Len())
	assert.Contains(t, logs.String(), "Shared login with concurrent requests")
}

func TestLoginNotSharedAcrossEvictedSession(t *testing.T) {
	d := newFakeDaemon(t)
	m := NewManager(zerolog.Nop())
	profile := d.profile()

	started := make(chan struct{})
	release := make(chan struct{})
	releaseOnce := sync.OnceFunc(func() { close(release) })
	t.Cleanup(releaseOnce)

	d.setHooks(func(n int32) {
		if n == 1 {
			close(started)
			<-release
		}
	}, nil)

	first := make(chan Result[string], 1)
	go func() {
		first <- Execute(context.Background(), m, profile, GetText("app/version", nil))
	}()
	<-started

	m.RemoveSession(profile.ID)

	second := Execute(context.Background(), m, profile, GetText("app/version", nil))
	require.True(t, second.OK(), "request on the new session failed: %v", second.Err())
	assert.Equal(t, "v4.6.2", second.Value())

	releaseOnce()
	result := <-first
	assert.True(t, result.OK(), "request on the evicted session failed: %v", result.Err())
	assert.Equal(t, int32(2), d.logins.Load())
}

func TestLoginSurvivesCancelledCaller(t *testing.T) {
	d := newFakeDaemon(t)
	m := NewManager(zerolog.Nop())
	profile := d.profile()

	started := make(chan struct{})
	release := make(chan struct{})
	releaseOnce := sync.OnceFunc(func() { close(release) })
	t.Cleanup(releaseOnce)

	d.setHooks(func(n int32) {
		if n == 1 {
			close(started)
			<-release
		}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan Result[string], 1)
	go func() {
		first <- Execute(ctx, m, profile, GetText("app/version", nil))
	}()
	<-started

	second := make(chan Result[string], 1)
	go func() {
		second <- Execute(context.Background(), m, profile, GetText("app/version", nil))
	}()

	cancel()
	cancelled := <-first
	require.False(t, cancelled.OK())
	assert.Equal(t, KindUnknown, cancelled.Err().Kind)

	releaseOnce()
	result := <-second
	assert.True(t, result.OK(), "waiting caller failed: %v", result.Err())
	assert.Equal(t, 1, m.Len())
}
