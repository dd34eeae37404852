package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/qbitctl/config"
	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

func setupTestState(t *testing.T, profiles ...server.Profile) {
	t.Helper()

	cfg = config.Default(t.TempDir() + "/config.yaml")
	cfg.Servers = profiles
	logger = zerolog.Nop()
	sessions = session.NewManager(logger)
	registry = server.NewRegistry(profiles, sessions, logger)

	t.Cleanup(func() {
		serverFlag, filterExpr, preset = "", "", ""
	})
}

func TestCurrentProfile(t *testing.T) {
	home := server.Profile{ID: "1", Name: "home", Host: "localhost", Username: "admin"}
	box := server.Profile{ID: "2", Name: "box", Host: "seedbox", Username: "admin"}

	setupTestState(t)
	_, err := currentProfile()
	assert.ErrorContains(t, err, "no servers configured")

	setupTestState(t, home)
	p, err := currentProfile()
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)

	setupTestState(t, home, box)
	_, err = currentProfile()
	assert.ErrorContains(t, err, "several servers")

	cfg.DefaultServer = "2"
	p, err = currentProfile()
	require.NoError(t, err)
	assert.Equal(t, "box", p.Name)

	serverFlag = "home"
	p, err = currentProfile()
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)

	serverFlag = "missing"
	_, err = currentProfile()
	assert.ErrorIs(t, err, server.ErrProfileNotFound)
}

func TestPersistConfig(t *testing.T) {
	setupTestState(t)

	added, err := registry.Add(server.Profile{Host: "localhost", Username: "admin"})
	require.NoError(t, err)
	cfg.DefaultServer = added.ID
	require.NoError(t, persistConfig())

	loaded, err := config.Load(cfg.Path())
	require.NoError(t, err)
	require.Len(t, loaded.Servers, 1)
	assert.Equal(t, added.ID, loaded.Servers[0].ID)
	assert.Equal(t, added.ID, loaded.DefaultServer)
}

func TestGetFilterExpression(t *testing.T) {
	setupTestState(t)
	cfg.Filter = config.FilterConfig{"old": "daysSince(AddedOn) > 90"}

	expr, err := getFilterExpression()
	require.NoError(t, err)
	assert.Empty(t, expr)

	preset = "old"
	expr, err = getFilterExpression()
	require.NoError(t, err)
	assert.Equal(t, "daysSince(AddedOn) > 90", expr)

	filterExpr = "Ratio > 1"
	expr, err = getFilterExpression()
	require.NoError(t, err)
	assert.Equal(t, "Ratio > 1", expr)

	filterExpr, preset = "", "missing"
	_, err = getFilterExpression()
	assert.ErrorContains(t, err, "preset 'missing' not found")
}

func TestParsePriority(t *testing.T) {
	for _, ok := range []string{"0", "1", "6", "7"} {
		_, err := parsePriority(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"2", "-1", "high"} {
		_, err := parsePriority(bad)
		assert.Error(t, err, bad)
	}

	p, err := parsePriority("7")
	require.NoError(t, err)
	assert.Equal(t, qbittorrent.PriorityMaximum, p)
}

func TestErrorMessage(t *testing.T) {
	logger = zerolog.Nop()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), "boom"},
		{"classified", &session.Error{Kind: session.KindBanned}, "Your IP is banned by the server"},
		{"api status", session.APIError(409), "server returned HTTP 409"},
		{"unknown with status", &session.Error{Kind: session.KindUnknown, Code: 500}, "An unknown error occurred (HTTP 500)"},
		{"api cause", &session.Error{Kind: session.KindAPIError, Code: 404, Err: qbittorrent.ErrTorrentNotFound}, "torrent not found"},
		{"wrapped", fmt.Errorf("failed to pause: %w", &session.Error{Kind: session.KindTimeout}), "failed to pause: timeout (Connection timed out)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.err))
		})
	}
}

func TestCurrentVersion(t *testing.T) {
	t.Cleanup(func() { version = "dev" })

	version = "v1.2.3"
	v, err := currentVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.String())

	version = "dev"
	_, err = currentVersion()
	assert.Error(t, err)
}
