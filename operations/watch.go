package operations

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/qbitctl/notify"
	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/server"
)

// WatchUpdate is one polling round of the watcher
type WatchUpdate struct {
	At        time.Time
	Servers   []qbittorrent.ServerTorrents
	Completed []Completion
}

// Completion is a torrent that finished since the previous round
type Completion struct {
	Server  server.Profile
	Torrent *qbittorrent.TorrentInfo
}

// Watcher polls servers and reports torrents that finish downloading
type Watcher struct {
	client   TorrentAPI
	notifier notify.Notifier
	logger   zerolog.Logger

	// completion state by server id then hash, absent until a server has been polled
	seen map[string]map[string]bool
	// servers whose last poll failed, so failures notify once
	failing map[string]bool
}

// NewWatcher creates a watcher. notifier may be nil.
func NewWatcher(client TorrentAPI, notifier notify.Notifier, logger zerolog.Logger) *Watcher {
	return &Watcher{
		client:   client,
		notifier: notifier,
		logger:   logger,
		seen:     make(map[string]map[string]bool),
		failing:  make(map[string]bool),
	}
}

// Poll fetches every server once and detects completions.
// Torrents already complete on the first poll of a server are not reported.
func (w *Watcher) Poll(ctx context.Context, profiles []server.Profile) WatchUpdate {
	update := WatchUpdate{
		At:      time.Now(),
		Servers: w.client.TorrentsAcross(ctx, profiles, qbittorrent.ListOptions{}),
	}

	for _, st := range update.Servers {
		id := st.Profile.ID

		torrents, err := st.Torrents.Get()
		if err != nil {
			if !w.failing[id] {
				w.failing[id] = true
				w.logger.Warn().Err(err).Str("server", st.Profile.DisplayName()).Msg("Failed to poll server")
				if w.notifier != nil {
					if nerr := w.notifier.ServerFailed(st.Profile.DisplayName(), st.Torrents.Err()); nerr != nil {
						w.logger.Debug().Err(nerr).Msg("Failed to send notification")
					}
				}
			}
			continue
		}
		delete(w.failing, id)

		previous, known := w.seen[id]
		current := make(map[string]bool, len(torrents))
		for _, t := range torrents {
			complete := t.IsComplete()
			current[t.Hash] = complete

			if known && complete {
				if wasComplete, existed := previous[t.Hash]; existed && !wasComplete {
					update.Completed = append(update.Completed, Completion{Server: st.Profile, Torrent: t})
				}
			}
		}
		w.seen[id] = current
	}

	for _, c := range update.Completed {
		w.logger.Info().
			Str("server", c.Server.DisplayName()).
			Str("torrent", c.Torrent.Name).
			Msg("Torrent completed")

		if w.notifier != nil {
			if err := w.notifier.TorrentCompleted(c.Server.DisplayName(), c.Torrent); err != nil {
				w.logger.Debug().Err(err).Msg("Failed to send notification")
			}
		}
	}

	return update
}

// Run polls every interval until ctx is done, passing each round to fn
func (w *Watcher) Run(ctx context.Context, profiles []server.Profile, interval time.Duration, fn func(WatchUpdate)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(w.Poll(ctx, profiles))
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
