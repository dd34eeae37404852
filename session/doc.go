// Package session runs requests against qBittorrent daemons on behalf of
// configured server profiles.
//
// A Manager keeps one cookie-backed HTTP session per profile id. Requests are
// expressed as an Operation, a function from a live Session to a raw response.
// Execute runs the operation and, when the daemon answers 403 Forbidden, logs in
// with the profile credentials and runs the operation a second time.
//
// Every outcome is reduced to a Result: either a value, or an *Error whose Kind
// is one of a closed set (invalid credentials, banned, cannot connect, unknown
// host, timeout, API error with status code, unknown).
//
// # Usage
//
//	manager := session.NewManager(logger, session.WithTimeout(10*time.Second))
//
//	result := session.Execute(ctx, manager, profile,
//	    session.GetJSON[[]qbittorrent.Torrent]("torrents/info", nil))
//	if !result.OK() {
//	    fmt.Println(result.Err().Message())
//	}
//
//	// After a profile is edited or removed
//	manager.RemoveSession(profile.ID)
package session
