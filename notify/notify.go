// Package notify sends desktop notifications for torrent events seen by watch.
package notify

import (
	"fmt"

	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/session"
)

// Notifier reports torrent events to the user.
type Notifier interface {
	// TorrentCompleted announces a torrent that finished downloading.
	TorrentCompleted(server string, torrent *qbittorrent.TorrentInfo) error
	// ServerFailed announces a server that could not be polled.
	ServerFailed(server string, err *session.Error) error
}

// Option configures a Notifier.
type Option func(*notifier)

// WithBackend sets a custom notification backend.
func WithBackend(backend Backend) Option {
	return func(n *notifier) {
		n.backend = backend
	}
}

// OnError enables failure alerts.
func OnError(enabled bool) Option {
	return func(n *notifier) {
		n.onError = enabled
	}
}

type notifier struct {
	enabled bool
	onError bool
	backend Backend
}

// New creates a Notifier. A disabled notifier drops every event.
func New(enabled bool, opts ...Option) Notifier {
	n := &notifier{
		enabled: enabled,
		backend: desktopBackend{},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

func (n *notifier) TorrentCompleted(server string, t *qbittorrent.TorrentInfo) error {
	if !n.enabled {
		return nil
	}

	title := "qbitctl: Download complete"
	message := fmt.Sprintf("%s\n%s on %s", t.Name, qbittorrent.FormatBytes(t.Size), server)

	return n.backend.Notify(title, message, "")
}

func (n *notifier) ServerFailed(server string, err *session.Error) error {
	if !n.enabled || !n.onError {
		return nil
	}

	title := "qbitctl: Server unavailable"
	message := fmt.Sprintf("%s: %s", server, err.Message())

	return n.backend.Alert(title, message, "")
}
