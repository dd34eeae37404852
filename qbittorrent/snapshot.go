package qbittorrent

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

// Snapshot holds every detail tab of one torrent. Each part fails independently.
type Snapshot struct {
	Torrent    session.Result[*TorrentInfo]
	Properties session.Result[Properties]
	Files      session.Result[[]FileInfo]
	Trackers   session.Result[[]Tracker]
	Peers      session.Result[[]Peer]
	Pieces     session.Result[[]PieceState]
}

// Snapshot fetches all torrent details concurrently
func (c *Client) Snapshot(ctx context.Context, profile server.Profile, hash string) *Snapshot {
	snap := &Snapshot{}

	// Each goroutine writes its own field, so no locking is needed.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Torrent = c.Torrent(ctx, profile, hash)
		return nil
	})
	g.Go(func() error {
		snap.Properties = c.Properties(ctx, profile, hash)
		return nil
	})
	g.Go(func() error {
		snap.Files = c.Files(ctx, profile, hash)
		return nil
	})
	g.Go(func() error {
		snap.Trackers = c.Trackers(ctx, profile, hash)
		return nil
	})
	g.Go(func() error {
		snap.Peers = c.Peers(ctx, profile, hash)
		return nil
	})
	g.Go(func() error {
		snap.Pieces = c.Pieces(ctx, profile, hash)
		return nil
	})
	_ = g.Wait()

	return snap
}

// ServerTorrents is the torrent list of one server.
type ServerTorrents struct {
	Profile  server.Profile
	Torrents session.Result[[]*TorrentInfo]
}

// TorrentsAcross lists torrents on several servers at once, preserving profile order
func (c *Client) TorrentsAcross(ctx context.Context, profiles []server.Profile, opts ListOptions) []ServerTorrents {
	results := make([]ServerTorrents, len(profiles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, profile := range profiles {
		g.Go(func() error {
			results[i] = ServerTorrents{
				Profile:  profile,
				Torrents: c.Torrents(ctx, profile, opts),
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
