// Package qbittorrent provides typed access to the qBittorrent Web API v2.
//
// Every call goes through a session.Manager, so requests share one cookie
// session per server profile and transparently log in again when the daemon
// answers 403. Results are session.Result values: callers switch on OK() and
// render Err().Message() on failure instead of inspecting transport errors.
//
// # Features
//
//   - Torrent listing with filter, category, tag and sort options
//   - Torrent details: properties, files, pieces, trackers and peers
//   - Torrent actions: pause, resume, delete, file priorities
//   - Tracker and peer management
//   - RSS feed tree, article browsing and feed management
//   - Concurrent detail snapshots for a single torrent
//
// # Usage
//
//	client := qbittorrent.NewClient(sessions, logger)
//
//	result := client.Torrents(ctx, profile, qbittorrent.ListOptions{Filter: "seeding"})
//	if !result.OK() {
//	    return errors.New(result.Err().Message())
//	}
//	for _, t := range result.Value() {
//	    fmt.Println(t.Name, qbittorrent.StateLabel(t.State))
//	}
package qbittorrent
