// Package filter selects torrents with expr-lang expressions such as
//
//	State == "stalledUP" and Ratio >= 2 and hasTag("linux")
//	daysSince(AddedOn) > 30 and not isComplete()
package filter

import (
	"context"

	"github.com/s0up4200/qbitctl/qbittorrent"
)

// Filter defines the basic interface for torrent filters
type Filter interface {
	// Evaluate checks if a torrent matches the filter criteria
	Evaluate(torrent *qbittorrent.TorrentInfo) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator applies a filter to a torrent list
type Evaluator interface {
	Evaluate(ctx context.Context, filter CompiledFilter, torrents []*qbittorrent.TorrentInfo) ([]*qbittorrent.TorrentInfo, error)
}
