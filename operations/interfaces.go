package operations

import (
	"context"

	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

// TorrentAPI is the part of the qBittorrent client the operations need
type TorrentAPI interface {
	Torrents(ctx context.Context, profile server.Profile, opts qbittorrent.ListOptions) session.Result[[]*qbittorrent.TorrentInfo]
	TorrentsAcross(ctx context.Context, profiles []server.Profile, opts qbittorrent.ListOptions) []qbittorrent.ServerTorrents
	Pause(ctx context.Context, profile server.Profile, hashes []string) session.Result[string]
	Resume(ctx context.Context, profile server.Profile, hashes []string) session.Result[string]
	Delete(ctx context.Context, profile server.Profile, hashes []string, deleteFiles bool) session.Result[string]
}

// TorrentFormatter defines the interface for formatting torrent output
type TorrentFormatter interface {
	FormatTorrentList(torrents []*qbittorrent.TorrentInfo, options FormatOptions) string
	FormatTorrentsToDelete(torrents []*qbittorrent.TorrentInfo) string
	FormatSnapshot(snap *qbittorrent.Snapshot) string
	FormatFeedTree(root *qbittorrent.FeedNode) string
	FormatArticles(articles []qbittorrent.Article) string
}

// FormatOptions contains options for formatting output
type FormatOptions struct {
	ShowDetails bool
}
