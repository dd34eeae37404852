package operations

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/session"
)

const (
	// DefaultBatchSize is the number of hashes sent in one request
	DefaultBatchSize = 50
	// MaxConcurrency bounds the requests in flight against one server
	MaxConcurrency = 3
)

// BatchResult contains the results of a batch operation
type BatchResult struct {
	Requested  int
	Successful []string
	Failed     []BatchError
}

// BatchError contains information about a failed batch
type BatchError struct {
	Hashes []string
	Err    *session.Error
}

// Error implements the error interface
func (e BatchError) Error() string {
	return fmt.Sprintf("failed to update %d torrent(s): %v", len(e.Hashes), e.Err)
}

type batchFunc func(ctx context.Context, hashes []string) session.Result[string]

// runBatched splits torrents into hash batches and runs fn on each concurrently.
// A failing batch does not stop the others.
func runBatched(ctx context.Context, torrents []*qbittorrent.TorrentInfo, batchSize int, fn batchFunc) BatchResult {
	result := BatchResult{Requested: len(torrents)}
	if len(torrents) == 0 {
		return result
	}

	hashes := make([]string, len(torrents))
	for i, t := range torrents {
		hashes[i] = t.Hash
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrency)

	var mu sync.Mutex
	for start := 0; start < len(hashes); start += batchSize {
		batch := hashes[start:min(start+batchSize, len(hashes))]

		g.Go(func() error {
			res := fn(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if res.OK() {
				result.Successful = append(result.Successful, batch...)
			} else {
				result.Failed = append(result.Failed, BatchError{Hashes: batch, Err: res.Err()})
			}
			return nil
		})
	}
	_ = g.Wait()

	return result
}
