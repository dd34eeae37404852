package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/session"
)

type call struct {
	kind, title, message string
}

type recordingBackend struct {
	calls []call
}

func (b *recordingBackend) Notify(title, message, _ string) error {
	b.calls = append(b.calls, call{"notify", title, message})
	return nil
}

func (b *recordingBackend) Alert(title, message, _ string) error {
	b.calls = append(b.calls, call{"alert", title, message})
	return nil
}

func TestTorrentCompleted(t *testing.T) {
	backend := &recordingBackend{}
	n := New(true, WithBackend(backend))

	err := n.TorrentCompleted("seedbox", &qbittorrent.TorrentInfo{Name: "debian.iso", Size: 1024 * 1024})
	require.NoError(t, err)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, "notify", backend.calls[0].kind)
	assert.Contains(t, backend.calls[0].message, "debian.iso")
	assert.Contains(t, backend.calls[0].message, "1.0 MiB")
	assert.Contains(t, backend.calls[0].message, "seedbox")
}

func TestServerFailed(t *testing.T) {
	backend := &recordingBackend{}

	require.NoError(t, New(true, WithBackend(backend)).ServerFailed("seedbox", session.APIError(500)))
	assert.Empty(t, backend.calls, "failure alerts are opt-in")

	require.NoError(t, New(true, WithBackend(backend), OnError(true)).ServerFailed("seedbox", &session.Error{Kind: session.KindBanned}))
	require.Len(t, backend.calls, 1)
	assert.Equal(t, "alert", backend.calls[0].kind)
	assert.Contains(t, backend.calls[0].message, "seedbox")
}

func TestDisabled(t *testing.T) {
	backend := &recordingBackend{}
	n := New(false, WithBackend(backend), OnError(true))

	require.NoError(t, n.TorrentCompleted("a", &qbittorrent.TorrentInfo{}))
	require.NoError(t, n.ServerFailed("a", session.APIError(500)))
	assert.Empty(t, backend.calls)
}
