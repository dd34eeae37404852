package qbittorrent

import (
	"errors"
	"net/http"

	"github.com/s0up4200/qbitctl/session"
)

// Common errors carried as the cause of a classified session.Error.
var (
	// ErrTorrentNotFound is returned when a torrent is not found.
	ErrTorrentNotFound = errors.New("torrent not found")

	// ErrInvalidHash is returned when a torrent hash is invalid.
	ErrInvalidHash = errors.New("invalid torrent hash")

	// ErrFeedNotFound is returned when an RSS item path does not exist.
	ErrFeedNotFound = errors.New("rss item not found")

	// ErrInvalidPeers is returned when the daemon rejects every peer in an add request.
	ErrInvalidPeers = errors.New("invalid peers")
)

func notFound(cause error) *session.Error {
	return &session.Error{Kind: session.KindAPIError, Code: http.StatusNotFound, Err: cause}
}

func invalidArgument(cause error) *session.Error {
	return &session.Error{Kind: session.KindAPIError, Code: http.StatusBadRequest, Err: cause}
}

// IsInvalidPeers reports whether an AddPeers failure means the peer list was rejected.
func IsInvalidPeers(err *session.Error) bool {
	return err != nil && errors.Is(err, ErrInvalidPeers)
}
