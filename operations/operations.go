// Package operations implements the filtered bulk actions behind the CLI.
package operations

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/qbitctl/filter"
	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

// SearchOptions contains options for searching torrents
type SearchOptions struct {
	FilterExpression string
	List             qbittorrent.ListOptions
}

// DeleteOptions contains options for deleting torrents
type DeleteOptions struct {
	DryRun        bool
	DeleteFiles   bool
	ConfirmDelete bool
}

// Operations handles torrent search and bulk actions
type Operations struct {
	client    TorrentAPI
	compiler  filter.Compiler
	evaluator filter.Evaluator
	formatter TorrentFormatter
	logger    zerolog.Logger
	batchSize int

	in  io.Reader
	out io.Writer
}

// NewOperations creates a new Operations instance
func NewOperations(client TorrentAPI, logger zerolog.Logger) *Operations {
	return &Operations{
		client:    client,
		compiler:  filter.NewExprCompiler(filter.WithCache(64)),
		evaluator: filter.NewEvaluator(),
		formatter: NewConsoleFormatter(),
		logger:    logger,
		batchSize: DefaultBatchSize,
		in:        os.Stdin,
		out:       os.Stdout,
	}
}

// SetIO replaces the prompt input and report output
func (o *Operations) SetIO(in io.Reader, out io.Writer) {
	o.in = in
	o.out = out
}

// Formatter returns the formatter used for reports
func (o *Operations) Formatter() TorrentFormatter {
	return o.formatter
}

// SearchTorrents lists torrents on profile and keeps those matching the filter
func (o *Operations) SearchTorrents(ctx context.Context, profile server.Profile, opts SearchOptions) ([]*qbittorrent.TorrentInfo, error) {
	var compiled filter.CompiledFilter
	if opts.FilterExpression != "" {
		var err error
		compiled, err = o.compiler.Compile(opts.FilterExpression)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	torrents, err := o.client.Torrents(ctx, profile, opts.List).Get()
	if err != nil {
		return nil, err
	}

	results := slices.Clone(torrents)
	if compiled != nil {
		results, err = o.evaluator.Evaluate(ctx, compiled, torrents)
		if err != nil {
			return nil, err
		}
	}

	// Daemon-side sort wins when requested.
	if opts.List.Sort == "" {
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
		})
	}

	o.logger.Debug().
		Str("server", profile.DisplayName()).
		Int("total", len(torrents)).
		Int("matched", len(results)).
		Msg("Searched torrents")

	return results, nil
}

// PauseTorrents pauses torrents in batches
func (o *Operations) PauseTorrents(ctx context.Context, profile server.Profile, torrents []*qbittorrent.TorrentInfo) error {
	result := runBatched(ctx, torrents, o.batchSize, func(ctx context.Context, hashes []string) session.Result[string] {
		return o.client.Pause(ctx, profile, hashes)
	})
	return o.report("pause", result)
}

// ResumeTorrents resumes torrents in batches
func (o *Operations) ResumeTorrents(ctx context.Context, profile server.Profile, torrents []*qbittorrent.TorrentInfo) error {
	result := runBatched(ctx, torrents, o.batchSize, func(ctx context.Context, hashes []string) session.Result[string] {
		return o.client.Resume(ctx, profile, hashes)
	})
	return o.report("resume", result)
}

// DeleteTorrents deletes torrents after an optional confirmation
func (o *Operations) DeleteTorrents(ctx context.Context, profile server.Profile, torrents []*qbittorrent.TorrentInfo, opts DeleteOptions) error {
	if len(torrents) == 0 {
		o.logger.Info().Msg("No torrents to delete")
		return nil
	}

	if opts.DryRun {
		o.logger.Info().Msg("DRY RUN MODE - No torrents will be deleted")
		fmt.Fprint(o.out, o.formatter.FormatTorrentsToDelete(torrents))
		return nil
	}

	if opts.ConfirmDelete {
		fmt.Fprint(o.out, o.formatter.FormatTorrentsToDelete(torrents))
		if !o.confirm(fmt.Sprintf("Are you sure you want to delete %d torrent(s)?", len(torrents))) {
			o.logger.Info().Msg("Deletion cancelled by user")
			return nil
		}
	}

	result := runBatched(ctx, torrents, o.batchSize, func(ctx context.Context, hashes []string) session.Result[string] {
		return o.client.Delete(ctx, profile, hashes, opts.DeleteFiles)
	})
	return o.report("delete", result)
}

func (o *Operations) report(action string, result BatchResult) error {
	o.logger.Info().
		Str("action", action).
		Int("succeeded", len(result.Successful)).
		Int("failed", result.Requested-len(result.Successful)).
		Msg("Batch complete")

	for _, failure := range result.Failed {
		o.logger.Error().
			Err(failure.Err).
			Strs("hashes", failure.Hashes).
			Msgf("Failed to %s torrents", action)
	}

	if len(result.Failed) > 0 {
		return fmt.Errorf("failed to %s %d torrent(s): %w", action, result.Requested-len(result.Successful), result.Failed[0].Err)
	}
	return nil
}

// confirm prompts the user for confirmation
func (o *Operations) confirm(question string) bool {
	fmt.Fprintf(o.out, "\n%s [y/N]: ", question)

	scanner := bufio.NewScanner(o.in)
	if !scanner.Scan() {
		return false
	}

	return strings.ToLower(strings.TrimSpace(scanner.Text())) == "y"
}
