package qbittorrent

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"

	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

// Client issues qBittorrent Web API calls through a session manager
type Client struct {
	sessions *session.Manager
	logger   zerolog.Logger
}

// NewClient creates a new qBittorrent client
func NewClient(sessions *session.Manager, logger zerolog.Logger) *Client {
	return &Client{
		sessions: sessions,
		logger:   logger,
	}
}

// ListOptions narrows down a torrent listing
type ListOptions struct {
	Hashes   []string
	Filter   string
	Category *string
	Tag      *string
	Sort     string
	Reverse  bool
}

func (o ListOptions) values() url.Values {
	params := url.Values{}
	if len(o.Hashes) > 0 {
		params.Set("hashes", strings.Join(o.Hashes, "|"))
	}
	if o.Filter != "" {
		params.Set("filter", o.Filter)
	}
	if o.Category != nil {
		params.Set("category", *o.Category)
	}
	if o.Tag != nil {
		params.Set("tag", *o.Tag)
	}
	if o.Sort != "" {
		params.Set("sort", o.Sort)
		if o.Reverse {
			params.Set("reverse", "true")
		}
	}
	return params
}

// Version returns the daemon's application version
func (c *Client) Version(ctx context.Context, profile server.Profile) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile, session.GetText("app/version", nil))
}

// Torrents retrieves torrents matching opts
func (c *Client) Torrents(ctx context.Context, profile server.Profile, opts ListOptions) session.Result[[]*TorrentInfo] {
	result := session.Execute(ctx, c.sessions, profile,
		session.GetJSON[[]qbittorrent.Torrent]("torrents/info", opts.values()))

	torrents := session.Map(result, func(raw []qbittorrent.Torrent) []*TorrentInfo {
		infos := make([]*TorrentInfo, 0, len(raw))
		for _, t := range raw {
			infos = append(infos, newTorrentInfo(t))
		}
		return infos
	})

	if torrents.OK() {
		c.logger.Debug().
			Str("server", profile.ID).
			Msgf("Retrieved %d torrents from qBittorrent", len(torrents.Value()))
	}

	return torrents
}

// Torrent retrieves a single torrent by hash
func (c *Client) Torrent(ctx context.Context, profile server.Profile, hash string) session.Result[*TorrentInfo] {
	if !validHash(hash) {
		return session.Failure[*TorrentInfo](invalidArgument(ErrInvalidHash))
	}

	result := c.Torrents(ctx, profile, ListOptions{Hashes: []string{hash}})
	if !result.OK() {
		return session.Failure[*TorrentInfo](result.Err())
	}

	torrents := result.Value()
	if len(torrents) == 0 {
		return session.Failure[*TorrentInfo](notFound(ErrTorrentNotFound))
	}

	return session.Success(torrents[0])
}

// Files lists the files of a torrent
func (c *Client) Files(ctx context.Context, profile server.Profile, hash string) session.Result[[]FileInfo] {
	result := session.Execute(ctx, c.sessions, profile,
		session.GetJSON[qbittorrent.TorrentFiles]("torrents/files", url.Values{"hash": {hash}}))

	return session.Map(result, newFileInfos)
}

// SetFilePriority changes the priority of files by index
func (c *Client) SetFilePriority(ctx context.Context, profile server.Profile, hash string, indexes []int, priority FilePriority) session.Result[string] {
	ids := make([]string, 0, len(indexes))
	for _, i := range indexes {
		ids = append(ids, strconv.Itoa(i))
	}

	return session.Execute(ctx, c.sessions, profile, session.PostText("torrents/filePrio", url.Values{
		"hash":     {hash},
		"id":       {strings.Join(ids, "|")},
		"priority": {strconv.Itoa(int(priority))},
	}))
}

// Pieces returns the state of every piece of a torrent
func (c *Client) Pieces(ctx context.Context, profile server.Profile, hash string) session.Result[[]PieceState] {
	return session.Execute(ctx, c.sessions, profile,
		session.GetJSON[[]PieceState]("torrents/pieceStates", url.Values{"hash": {hash}}))
}

// Properties returns the general properties of a torrent
func (c *Client) Properties(ctx context.Context, profile server.Profile, hash string) session.Result[Properties] {
	return session.Execute(ctx, c.sessions, profile,
		session.GetJSON[Properties]("torrents/properties", url.Values{"hash": {hash}}))
}

// Delete removes torrents, optionally with their downloaded data
func (c *Client) Delete(ctx context.Context, profile server.Profile, hashes []string, deleteFiles bool) session.Result[string] {
	result := session.Execute(ctx, c.sessions, profile, session.PostText("torrents/delete", url.Values{
		"hashes":      {strings.Join(hashes, "|")},
		"deleteFiles": {strconv.FormatBool(deleteFiles)},
	}))

	if result.OK() {
		c.logger.Info().
			Str("server", profile.ID).
			Strs("hashes", hashes).
			Bool("delete_files", deleteFiles).
			Msg("Deleted torrents")
	}

	return result
}

// Pause pauses torrents
func (c *Client) Pause(ctx context.Context, profile server.Profile, hashes []string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("torrents/pause", url.Values{"hashes": {strings.Join(hashes, "|")}}))
}

// Resume resumes torrents
func (c *Client) Resume(ctx context.Context, profile server.Profile, hashes []string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("torrents/resume", url.Values{"hashes": {strings.Join(hashes, "|")}}))
}

// Trackers lists the trackers of a torrent
func (c *Client) Trackers(ctx context.Context, profile server.Profile, hash string) session.Result[[]Tracker] {
	return session.Execute(ctx, c.sessions, profile,
		session.GetJSON[[]Tracker]("torrents/trackers", url.Values{"hash": {hash}}))
}

// AddTrackers adds tracker URLs to a torrent
func (c *Client) AddTrackers(ctx context.Context, profile server.Profile, hash string, urls []string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile, session.PostText("torrents/addTrackers", url.Values{
		"hash": {hash},
		"urls": {strings.Join(urls, "\n")},
	}))
}

// RemoveTrackers removes tracker URLs from a torrent
func (c *Client) RemoveTrackers(ctx context.Context, profile server.Profile, hash string, urls []string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile, session.PostText("torrents/removeTrackers", url.Values{
		"hash": {hash},
		"urls": {strings.Join(urls, "|")},
	}))
}

// Peers lists the connected peers of a torrent, sorted by address
func (c *Client) Peers(ctx context.Context, profile server.Profile, hash string) session.Result[[]Peer] {
	result := session.Execute(ctx, c.sessions, profile,
		session.GetJSON[peersResponse]("sync/torrentPeers", url.Values{"hash": {hash}, "rid": {"0"}}))

	return session.Map(result, func(resp peersResponse) []Peer {
		peers := make([]Peer, 0, len(resp.Peers))
		for addr, p := range resp.Peers {
			p.Address = addr
			peers = append(peers, p)
		}
		sort.Slice(peers, func(i, j int) bool {
			return peers[i].Address < peers[j].Address
		})
		return peers
	})
}

// AddPeers adds "host:port" peers to torrents. A 400 answer means none were valid.
func (c *Client) AddPeers(ctx context.Context, profile server.Profile, hashes, peers []string) session.Result[string] {
	result := session.Execute(ctx, c.sessions, profile, session.PostText("torrents/addPeers", url.Values{
		"hashes": {strings.Join(hashes, "|")},
		"peers":  {strings.Join(peers, "|")},
	}))

	if err := result.Err(); err != nil && err.Code == http.StatusBadRequest {
		return session.Failure[string](invalidArgument(ErrInvalidPeers))
	}

	return result
}

// BanPeers bans "host:port" peers permanently
func (c *Client) BanPeers(ctx context.Context, profile server.Profile, peers []string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("transfer/banPeers", url.Values{"peers": {strings.Join(peers, "|")}}))
}

func validHash(hash string) bool {
	if len(hash) != 40 && len(hash) != 64 {
		return false
	}
	for _, r := range hash {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
