package qbittorrent

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"
)

// TorrentInfo contains information about a torrent
type TorrentInfo struct {
	Hash           string
	Name           string
	SavePath       string
	ContentPath    string
	State          string
	Size           int64
	Progress       float64
	DownloadedSize int64
	UploadedSize   int64
	Ratio          float64
	DownloadSpeed  int64
	UploadSpeed    int64
	ETA            int64
	Seeds          int64
	Leechers       int64
	AddedOn        time.Time
	CompletionOn   time.Time
	Category       string
	Tags           []string
	Tracker        string
	IsSeeding      bool
}

// IsActivelySeeding checks if the torrent is actively seeding
func (t *TorrentInfo) IsActivelySeeding() bool {
	return t.State == "uploading" || t.State == "stalledUP" || t.State == "queuedUP" || t.State == "forcedUP"
}

// IsComplete reports whether all wanted pieces are downloaded
func (t *TorrentInfo) IsComplete() bool {
	return t.Progress >= 1
}

// GetFullPath returns the full path to the torrent content
func (t *TorrentInfo) GetFullPath() string {
	if t.ContentPath != "" {
		return t.ContentPath
	}
	return t.SavePath + "/" + t.Name
}

// HasTag checks a tag case-insensitively
func (t *TorrentInfo) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

func newTorrentInfo(t qbittorrent.Torrent) *TorrentInfo {
	info := &TorrentInfo{
		Hash:           t.Hash,
		Name:           t.Name,
		SavePath:       t.SavePath,
		ContentPath:    t.ContentPath,
		State:          string(t.State),
		Size:           t.Size,
		Progress:       t.Progress,
		DownloadedSize: t.Downloaded,
		UploadedSize:   t.Uploaded,
		Ratio:          t.Ratio,
		DownloadSpeed:  t.DlSpeed,
		UploadSpeed:    t.UpSpeed,
		ETA:            t.ETA,
		Seeds:          t.NumSeeds,
		Leechers:       t.NumLeechs,
		AddedOn:        unixTime(t.AddedOn),
		CompletionOn:   unixTime(t.CompletionOn),
		Category:       t.Category,
		Tags:           splitTags(t.Tags),
		Tracker:        t.Tracker,
	}
	info.IsSeeding = info.IsActivelySeeding()

	return info
}

// unixTime maps the daemon's "never" markers (0 and negative) to the zero time.
func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func splitTags(tags string) []string {
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// FilePriority is the download priority of a file inside a torrent.
type FilePriority int

const (
	PriorityDoNotDownload FilePriority = 0
	PriorityNormal        FilePriority = 1
	PriorityHigh          FilePriority = 6
	PriorityMaximum       FilePriority = 7
)

// String returns the priority label
func (p FilePriority) String() string {
	switch p {
	case PriorityDoNotDownload:
		return "Do not download"
	case PriorityHigh:
		return "High"
	case PriorityMaximum:
		return "Maximum"
	default:
		return "Normal"
	}
}

// Wanted reports whether the file is selected for download.
func (p FilePriority) Wanted() bool {
	return p != PriorityDoNotDownload
}

// FileInfo is one file inside a torrent.
type FileInfo struct {
	Index    int
	Name     string
	Size     int64
	Progress float64
	Priority FilePriority
}

func newFileInfos(files qbittorrent.TorrentFiles) []FileInfo {
	out := make([]FileInfo, 0, len(files))
	for i, f := range files {
		out = append(out, FileInfo{
			Index:    i,
			Name:     f.Name,
			Size:     int64(f.Size),
			Progress: float64(f.Progress),
			Priority: FilePriority(f.Priority),
		})
	}
	return out
}

// PieceState is the download state of a single piece.
type PieceState int

const (
	PieceNotDownloaded PieceState = 0
	PieceDownloading   PieceState = 1
	PieceDownloaded    PieceState = 2
)

// NullString is a string the daemon sends as "" when unset.
type NullString struct {
	String string
	Valid  bool
}

// UnmarshalJSON treats empty strings and null as unset
func (s *NullString) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.String, s.Valid = "", false
	if v != nil && *v != "" {
		s.String, s.Valid = *v, true
	}
	return nil
}

// Properties holds the general tab of a torrent.
type Properties struct {
	SavePath             string     `json:"save_path"`
	CreationDate         int64      `json:"creation_date"`
	PieceSize            int64      `json:"piece_size"`
	Comment              NullString `json:"comment"`
	TotalWasted          int64      `json:"total_wasted"`
	TotalUploaded        int64      `json:"total_uploaded"`
	TotalDownloaded      int64      `json:"total_downloaded"`
	UploadLimit          int64      `json:"up_limit"`
	DownloadLimit        int64      `json:"dl_limit"`
	TimeElapsed          int64      `json:"time_elapsed"`
	SeedingTime          int64      `json:"seeding_time"`
	Connections          int64      `json:"nb_connections"`
	ConnectionsLimit     int64      `json:"nb_connections_limit"`
	ShareRatio           float64    `json:"share_ratio"`
	AdditionDate         int64      `json:"addition_date"`
	CompletionDate       int64      `json:"completion_date"`
	CreatedBy            NullString `json:"created_by"`
	DownloadSpeedAverage int64      `json:"dl_speed_avg"`
	DownloadSpeed        int64      `json:"dl_speed"`
	ETA                  int64      `json:"eta"`
	LastSeen             int64      `json:"last_seen"`
	Peers                int64      `json:"peers"`
	PeersTotal           int64      `json:"peers_total"`
	PiecesHave           int64      `json:"pieces_have"`
	PiecesNum            int64      `json:"pieces_num"`
	Reannounce           int64      `json:"reannounce"`
	Seeds                int64      `json:"seeds"`
	SeedsTotal           int64      `json:"seeds_total"`
	TotalSize            int64      `json:"total_size"`
	UploadSpeedAverage   int64      `json:"up_speed_avg"`
	UploadSpeed          int64      `json:"up_speed"`
}

// TrackerStatus is the announce state of a tracker.
type TrackerStatus int

const (
	TrackerDisabled TrackerStatus = iota
	TrackerNotContacted
	TrackerWorking
	TrackerUpdating
	TrackerNotWorking
)

// String returns the status label
func (s TrackerStatus) String() string {
	switch s {
	case TrackerDisabled:
		return "Disabled"
	case TrackerNotContacted:
		return "Not contacted"
	case TrackerWorking:
		return "Working"
	case TrackerUpdating:
		return "Updating"
	case TrackerNotWorking:
		return "Not working"
	default:
		return "Unknown"
	}
}

// Tier is a tracker tier. DHT, PeX and LSD rows have none and the daemon sends "".
type Tier struct {
	Value int
	Valid bool
}

// UnmarshalJSON accepts a number or an empty string
func (t *Tier) UnmarshalJSON(data []byte) error {
	t.Value, t.Valid = 0, false

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		t.Value, t.Valid = n, true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return nil
}

// Tracker is one row of a torrent's tracker list.
type Tracker struct {
	URL        string        `json:"url"`
	Status     TrackerStatus `json:"status"`
	Tier       Tier          `json:"tier"`
	Peers      int64         `json:"num_peers"`
	Seeds      int64         `json:"num_seeds"`
	Leeches    int64         `json:"num_leeches"`
	Downloaded int64         `json:"num_downloaded"`
	Message    NullString    `json:"msg"`
}

// IsPseudo reports whether the row is the DHT, PeX or LSD entry.
func (t Tracker) IsPseudo() bool {
	return strings.HasPrefix(t.URL, "** [")
}

// PeerFiles is the newline-separated list of files a peer is transferring.
type PeerFiles []string

// UnmarshalJSON splits the daemon's newline-separated string
func (f *PeerFiles) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = PeerFiles{}
	if s != "" {
		*f = strings.Split(s, "\n")
	}
	return nil
}

// Peer is a connected peer of a torrent.
type Peer struct {
	Address     string    `json:"-"`
	IP          string    `json:"ip"`
	Port        int       `json:"port"`
	Client      string    `json:"client"`
	Connection  string    `json:"connection"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code"`
	Flags       string    `json:"flags"`
	FlagsDesc   string    `json:"flags_desc"`
	Progress    float64   `json:"progress"`
	Relevance   float64   `json:"relevance"`
	DlSpeed     int64     `json:"dl_speed"`
	UpSpeed     int64     `json:"up_speed"`
	Downloaded  int64     `json:"downloaded"`
	Uploaded    int64     `json:"uploaded"`
	Files       PeerFiles `json:"files"`
}

// peersResponse is the sync/torrentPeers payload keyed by "ip:port".
type peersResponse struct {
	Peers map[string]Peer `json:"peers"`
}
