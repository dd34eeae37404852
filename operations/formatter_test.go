package operations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/session"
)

func TestFormatTorrentList(t *testing.T) {
	f := NewConsoleFormatter()

	assert.Equal(t, "No torrents found\n", f.FormatTorrentList(nil, FormatOptions{}))

	out := f.FormatTorrentList([]*qbittorrent.TorrentInfo{
		{Name: "one", State: "downloading", Size: 2048, Progress: 0.5, DownloadSpeed: 1024, ETA: 90},
		{Name: "two", State: "uploading", Progress: 1, Category: "linux", Tags: []string{"iso"}, SavePath: "/data"},
	}, FormatOptions{ShowDetails: true})

	assert.Contains(t, out, "Torrents (2)")
	assert.Contains(t, out, "├── one [Downloading]")
	assert.Contains(t, out, "╰── two [Seeding]")
	assert.Contains(t, out, "2.0 KiB  50.0%")
	assert.Contains(t, out, "ETA 1m")
	assert.Contains(t, out, "Category: linux")
	assert.Contains(t, out, "Path: /data/two")
}

func TestFormatSnapshotPartialFailure(t *testing.T) {
	snap := &qbittorrent.Snapshot{
		Torrent:    session.Success(&qbittorrent.TorrentInfo{Name: "debian.iso", State: "pausedDL"}),
		Properties: session.Success(qbittorrent.Properties{SavePath: "/data", PiecesNum: 4, PiecesHave: 2}),
		Files:      session.Success([]qbittorrent.FileInfo{{Index: 0, Name: "debian.iso", Priority: qbittorrent.PriorityNormal}}),
		Trackers:   session.Failure[[]qbittorrent.Tracker](session.APIError(500)),
		Peers:      session.Success([]qbittorrent.Peer{}),
		Pieces: session.Success([]qbittorrent.PieceState{
			qbittorrent.PieceDownloaded, qbittorrent.PieceDownloading, qbittorrent.PieceNotDownloaded,
		}),
	}

	out := NewConsoleFormatter().FormatSnapshot(snap)
	assert.Contains(t, out, "debian.iso")
	assert.Contains(t, out, "Save path: /data")
	assert.Contains(t, out, "Pieces: 2/4")
	assert.Contains(t, out, "Trackers:\n  unavailable:")
	assert.Contains(t, out, "No peers connected")
	assert.Contains(t, out, "#+.\n")
}

func TestFormatPieces(t *testing.T) {
	pieces := make([]qbittorrent.PieceState, 5)
	for i := range pieces {
		pieces[i] = qbittorrent.PieceDownloaded
	}
	assert.Equal(t, "##\n##\n#\n", FormatPieces(pieces, 2))
	assert.Empty(t, FormatPieces(nil, 2))
}

func TestFormatFeedTree(t *testing.T) {
	root := &qbittorrent.FeedNode{Children: []*qbittorrent.FeedNode{
		{Name: "Linux", Path: "Linux", Children: []*qbittorrent.FeedNode{
			{Name: "Debian", Path: `Linux\Debian`, Feed: &qbittorrent.Feed{Articles: []qbittorrent.Article{{IsRead: true}, {}}}},
		}},
		{Name: "News", Path: "News", Feed: &qbittorrent.Feed{HasError: true}},
	}}

	out := NewConsoleFormatter().FormatFeedTree(root)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"RSS feeds:",
		"",
		"├── Linux",
		"│   ╰── Debian (1 unread)",
		"╰── News (0 unread) [ERROR]",
	}, lines)

	assert.Equal(t, "No RSS feeds\n", NewConsoleFormatter().FormatFeedTree(&qbittorrent.FeedNode{}))
}

func TestFormatArticles(t *testing.T) {
	out := NewConsoleFormatter().FormatArticles([]qbittorrent.Article{
		{ID: "1", Title: "Unread", Date: "Mon, 02 Jan 2006 15:04:05 -0700",
			TorrentURL: qbittorrent.NullString{String: "magnet:?xt=1", Valid: true}, FeedPath: "News"},
		{ID: "2", Title: "Read", IsRead: true, Link: qbittorrent.NullString{String: "https://example.com", Valid: true}},
	})

	assert.Contains(t, out, "* Unread")
	assert.Contains(t, out, "2006-01-02 15:04 | id 1 | News")
	assert.Contains(t, out, "Torrent: magnet:?xt=1")
	assert.Contains(t, out, "── Read")
	assert.Contains(t, out, "Link: https://example.com")
}
