package operations

import (
	"fmt"
	"strings"
	"time"

	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/session"
)

// ConsoleFormatter provides console output formatting for torrents
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// branch returns the tree prefix and child indent for an entry
func branch(isLast bool) (prefix, indent string) {
	if isLast {
		return "\u2570", "    "
	}
	return "\u251c", "\u2502   "
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// FormatTorrentList formats a list of torrents for console display
func (f *ConsoleFormatter) FormatTorrentList(torrents []*qbittorrent.TorrentInfo, options FormatOptions) string {
	if len(torrents) == 0 {
		return "No torrents found\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", plural(len(torrents), "Torrent"), len(torrents))

	for i, t := range torrents {
		isLast := i == len(torrents)-1
		prefix, indent := branch(isLast)

		fmt.Fprintf(&sb, "%s\u2500\u2500 %s [%s]\n", prefix, t.Name, qbittorrent.StateLabel(t.State))

		line := fmt.Sprintf("%s  %.1f%%  ratio %.2f", qbittorrent.FormatBytes(t.Size), t.Progress*100, t.Ratio)
		if t.DownloadSpeed > 0 || t.UploadSpeed > 0 {
			line += fmt.Sprintf("  \u2193 %s  \u2191 %s", qbittorrent.FormatSpeed(t.DownloadSpeed), qbittorrent.FormatSpeed(t.UploadSpeed))
		}
		if eta, ok := qbittorrent.FormatETA(t.ETA); ok && !t.IsComplete() {
			line += "  ETA " + eta
		}
		fmt.Fprintf(&sb, "%s%s\n", indent, line)

		if options.ShowDetails {
			fmt.Fprintf(&sb, "%sHash: %s\n", indent, t.Hash)
			if t.Category != "" {
				fmt.Fprintf(&sb, "%sCategory: %s\n", indent, t.Category)
			}
			if len(t.Tags) > 0 {
				fmt.Fprintf(&sb, "%sTags: %s\n", indent, strings.Join(t.Tags, ", "))
			}
			fmt.Fprintf(&sb, "%sPath: %s\n", indent, t.GetFullPath())
			if !t.AddedOn.IsZero() {
				fmt.Fprintf(&sb, "%sAdded: %s\n", indent, t.AddedOn.Format("2006-01-02"))
			}
		}

		if !isLast {
			sb.WriteString("\u2502\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatTorrentsToDelete formats torrents for deletion confirmation
func (f *ConsoleFormatter) FormatTorrentsToDelete(torrents []*qbittorrent.TorrentInfo) string {
	if len(torrents) == 0 {
		return ""
	}

	var sb strings.Builder
	var seedingCount int

	fmt.Fprintf(&sb, "\n%s to be deleted (%d):\n\n", plural(len(torrents), "Torrent"), len(torrents))

	for i, t := range torrents {
		prefix, _ := branch(i == len(torrents)-1)
		fmt.Fprintf(&sb, "%s\u2500\u2500 %s (%s)", prefix, t.Name, qbittorrent.FormatBytes(t.Size))
		if t.IsSeeding {
			sb.WriteString(" [SEEDING]")
			seedingCount++
		}
		sb.WriteString("\n")
	}

	if seedingCount > 0 {
		fmt.Fprintf(&sb, "\n%d of %d torrents are still seeding\n", seedingCount, len(torrents))
	}

	return sb.String()
}

// FormatSnapshot renders every detail section of a torrent. Failed sections show their error.
func (f *ConsoleFormatter) FormatSnapshot(snap *qbittorrent.Snapshot) string {
	var sb strings.Builder

	if t, err := snap.Torrent.Get(); err == nil {
		fmt.Fprintf(&sb, "\n%s\n%s\n", t.Name, strings.Repeat("\u2501", min(len(t.Name), 80)))
		fmt.Fprintf(&sb, "State: %s  Progress: %.1f%%  Size: %s\n", qbittorrent.StateLabel(t.State), t.Progress*100, qbittorrent.FormatBytes(t.Size))
	}

	section(&sb, "General", snap.Properties.Err(), func() {
		p := snap.Properties.Value()
		fmt.Fprintf(&sb, "Save path: %s\n", p.SavePath)
		fmt.Fprintf(&sb, "Pieces: %d/%d (%s each)\n", p.PiecesHave, p.PiecesNum, qbittorrent.FormatBytes(p.PieceSize))
		fmt.Fprintf(&sb, "Downloaded: %s  Uploaded: %s  Ratio: %.2f\n",
			qbittorrent.FormatBytes(p.TotalDownloaded), qbittorrent.FormatBytes(p.TotalUploaded), p.ShareRatio)
		fmt.Fprintf(&sb, "Seeds: %d (%d)  Peers: %d (%d)  Connections: %d\n", p.Seeds, p.SeedsTotal, p.Peers, p.PeersTotal, p.Connections)
		if p.CreationDate > 0 {
			fmt.Fprintf(&sb, "Created: %s", time.Unix(p.CreationDate, 0).Format("2006-01-02"))
			if p.CreatedBy.Valid {
				fmt.Fprintf(&sb, " by %s", p.CreatedBy.String)
			}
			sb.WriteString("\n")
		}
		if p.Comment.Valid {
			fmt.Fprintf(&sb, "Comment: %s\n", p.Comment.String)
		}
	})

	section(&sb, "Files", snap.Files.Err(), func() {
		for _, file := range snap.Files.Value() {
			fmt.Fprintf(&sb, "%3d  %-8s %6.1f%%  %10s  %s\n",
				file.Index, file.Priority, file.Progress*100, qbittorrent.FormatBytes(file.Size), file.Name)
		}
	})

	section(&sb, "Trackers", snap.Trackers.Err(), func() {
		for _, tr := range snap.Trackers.Value() {
			tier := "-"
			if tr.Tier.Valid {
				tier = fmt.Sprint(tr.Tier.Value)
			}
			fmt.Fprintf(&sb, "%-3s %-14s %s", tier, tr.Status, tr.URL)
			if tr.Message.Valid {
				fmt.Fprintf(&sb, " (%s)", tr.Message.String)
			}
			sb.WriteString("\n")
		}
	})

	section(&sb, "Peers", snap.Peers.Err(), func() {
		peers := snap.Peers.Value()
		if len(peers) == 0 {
			sb.WriteString("No peers connected\n")
		}
		for _, p := range peers {
			fmt.Fprintf(&sb, "%-22s %-20s %6.1f%%  \u2193 %s  \u2191 %s\n",
				p.Address, p.Client, p.Progress*100, qbittorrent.FormatSpeed(p.DlSpeed), qbittorrent.FormatSpeed(p.UpSpeed))
		}
	})

	section(&sb, "Pieces", snap.Pieces.Err(), func() {
		sb.WriteString(FormatPieces(snap.Pieces.Value(), 64))
	})

	return sb.String()
}

func section(sb *strings.Builder, title string, err *session.Error, body func()) {
	fmt.Fprintf(sb, "\n%s:\n", title)
	if err != nil {
		fmt.Fprintf(sb, "  unavailable: %s\n", err.Message())
		return
	}
	body()
}

// FormatPieces draws the piece map as rows of width characters.
// '#' is downloaded, '+' downloading and '.' missing.
func FormatPieces(pieces []qbittorrent.PieceState, width int) string {
	var sb strings.Builder
	for i, p := range pieces {
		switch p {
		case qbittorrent.PieceDownloaded:
			sb.WriteByte('#')
		case qbittorrent.PieceDownloading:
			sb.WriteByte('+')
		default:
			sb.WriteByte('.')
		}
		if (i+1)%width == 0 || i == len(pieces)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// FormatFeedTree renders the RSS folders and feeds
func (f *ConsoleFormatter) FormatFeedTree(root *qbittorrent.FeedNode) string {
	if root == nil || len(root.Children) == 0 {
		return "No RSS feeds\n"
	}

	var sb strings.Builder
	sb.WriteString("\nRSS feeds:\n\n")
	formatFeedChildren(&sb, root, "")
	return sb.String()
}

func formatFeedChildren(sb *strings.Builder, node *qbittorrent.FeedNode, indent string) {
	for i, child := range node.Children {
		isLast := i == len(node.Children)-1
		prefix, childIndent := branch(isLast)

		fmt.Fprintf(sb, "%s%s\u2500\u2500 %s", indent, prefix, child.Name)
		if child.IsFeed() {
			var unread int
			for _, a := range child.Feed.Articles {
				if !a.IsRead {
					unread++
				}
			}
			fmt.Fprintf(sb, " (%d unread)", unread)
			if child.Feed.HasError {
				sb.WriteString(" [ERROR]")
			}
		}
		sb.WriteString("\n")

		formatFeedChildren(sb, child, indent+childIndent)
	}
}

// FormatArticles renders articles newest first as given
func (f *ConsoleFormatter) FormatArticles(articles []qbittorrent.Article) string {
	if len(articles) == 0 {
		return "No articles\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", plural(len(articles), "Article"), len(articles))

	for i, a := range articles {
		isLast := i == len(articles)-1
		prefix, indent := branch(isLast)

		marker := ""
		if !a.IsRead {
			marker = "* "
		}
		fmt.Fprintf(&sb, "%s\u2500\u2500 %s%s\n", prefix, marker, a.Title)

		var parts []string
		if published := a.PublishedAt(); !published.IsZero() {
			parts = append(parts, published.Format("2006-01-02 15:04"))
		}
		parts = append(parts, "id "+a.ID)
		if a.FeedPath != "" {
			parts = append(parts, a.FeedPath)
		}
		fmt.Fprintf(&sb, "%s%s\n", indent, strings.Join(parts, " | "))

		if a.TorrentURL.Valid {
			fmt.Fprintf(&sb, "%sTorrent: %s\n", indent, a.TorrentURL.String)
		} else if a.Link.Valid {
			fmt.Fprintf(&sb, "%sLink: %s\n", indent, a.Link.String)
		}

		if !isLast {
			sb.WriteString("\u2502\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}
