package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitctl/operations"
	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/server"
)

var (
	// Command flags
	filterExpr  string
	preset      string
	stateFilter string
	category    string
	tag         string
	sortField   string
	reverse     bool
	showDetails bool
	dryRun      bool
	noConfirm   bool
	deleteFiles bool
)

var torrentsCmd = &cobra.Command{
	Use:     "torrents",
	Aliases: []string{"t"},
	Short:   "List, inspect and manage torrents",
}

var torrentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List torrents matching the filter criteria",
	Long: `List torrents on the selected server.

Daemon-side narrowing uses --state, --category and --tag. Anything else can be
expressed with --filter, for example:

  qbitctl torrents list -f 'isSeeding() and Ratio >= 2'
  qbitctl torrents list -f 'daysSince(AddedOn) > 30 and hasTag("linux")'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		opts, err := searchOptions(cmd, nil)
		if err != nil {
			return err
		}

		torrents, err := ops.SearchTorrents(cmd.Context(), profile, opts)
		if err != nil {
			return err
		}

		fmt.Print(ops.Formatter().FormatTorrentList(torrents, operations.FormatOptions{ShowDetails: showDetails}))
		return nil
	},
}

var torrentsFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Find torrents by approximate name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		matches, err := client.FindByName(cmd.Context(), profile, strings.Join(args, " ")).Get()
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No matching torrents.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tHASH\tNAME")
		for _, m := range matches {
			fmt.Fprintf(w, "%.2f\t%s\t%s\n", m.Score, m.Torrent.Hash, m.Torrent.Name)
		}
		return w.Flush()
	},
}

var torrentsShowCmd = &cobra.Command{
	Use:   "show <hash>",
	Short: "Show every detail of a torrent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		snap := client.Snapshot(cmd.Context(), profile, args[0])
		if _, err := snap.Torrent.Get(); err != nil {
			return err
		}

		fmt.Print(ops.Formatter().FormatSnapshot(snap))
		return nil
	},
}

var torrentsFilesCmd = &cobra.Command{
	Use:   "files <hash>",
	Short: "List the files of a torrent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		files, err := client.Files(cmd.Context(), profile, args[0]).Get()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tPRIORITY\tPROGRESS\tSIZE\tNAME")
		for _, f := range files {
			fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%s\t%s\n", f.Index, f.Priority, f.Progress*100, qbittorrent.FormatBytes(f.Size), f.Name)
		}
		return w.Flush()
	},
}

var torrentsPriorityCmd = &cobra.Command{
	Use:   "priority <hash> <0|1|6|7> <file index>...",
	Short: "Set the download priority of files (0 skips them)",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		priority, err := parsePriority(args[1])
		if err != nil {
			return err
		}

		indexes := make([]int, 0, len(args)-2)
		for _, arg := range args[2:] {
			idx, err := strconv.Atoi(arg)
			if err != nil || idx < 0 {
				return fmt.Errorf("invalid file index '%s': must be a non-negative integer", arg)
			}
			indexes = append(indexes, idx)
		}

		if _, err := client.SetFilePriority(cmd.Context(), profile, args[0], indexes, priority).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Set %d file(s) to %s\n", len(indexes), priority)
		return nil
	},
}

var torrentsPiecesCmd = &cobra.Command{
	Use:   "pieces <hash>",
	Short: "Draw the piece map of a torrent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		pieces, err := client.Pieces(cmd.Context(), profile, args[0]).Get()
		if err != nil {
			return err
		}

		var have int
		for _, p := range pieces {
			if p == qbittorrent.PieceDownloaded {
				have++
			}
		}
		fmt.Printf("%d/%d pieces downloaded\n\n", have, len(pieces))
		fmt.Print(operations.FormatPieces(pieces, 64))
		return nil
	},
}

var torrentsPauseCmd = &cobra.Command{
	Use:   "pause [hash...]",
	Short: "Pause torrents by hash or filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd, args, func(ctx context.Context, profile server.Profile, torrents []*qbittorrent.TorrentInfo) error {
			return ops.PauseTorrents(ctx, profile, torrents)
		})
	},
}

var torrentsResumeCmd = &cobra.Command{
	Use:   "resume [hash...]",
	Short: "Resume torrents by hash or filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd, args, func(ctx context.Context, profile server.Profile, torrents []*qbittorrent.TorrentInfo) error {
			return ops.ResumeTorrents(ctx, profile, torrents)
		})
	},
}

var torrentsDeleteCmd = &cobra.Command{
	Use:   "delete [hash...]",
	Short: "Delete torrents by hash or filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd, args, func(ctx context.Context, profile server.Profile, torrents []*qbittorrent.TorrentInfo) error {
			return ops.DeleteTorrents(ctx, profile, torrents, operations.DeleteOptions{
				DryRun:        dryRun,
				DeleteFiles:   deleteFiles,
				ConfirmDelete: !noConfirm,
			})
		})
	},
}

type bulkAction func(ctx context.Context, profile server.Profile, torrents []*qbittorrent.TorrentInfo) error

// runBulk selects torrents by the hashes in args and/or the filter flags, then applies action
func runBulk(cmd *cobra.Command, args []string, action bulkAction) error {
	if len(args) == 0 && filterExpr == "" && preset == "" && stateFilter == "" && category == "" && tag == "" {
		return errors.New("no torrents selected, pass hashes or a filter")
	}

	profile, err := currentProfile()
	if err != nil {
		return err
	}

	opts, err := searchOptions(cmd, args)
	if err != nil {
		return err
	}

	torrents, err := ops.SearchTorrents(cmd.Context(), profile, opts)
	if err != nil {
		return err
	}
	if len(torrents) == 0 {
		fmt.Println("No torrents found matching the selection.")
		return nil
	}

	return action(cmd.Context(), profile, torrents)
}

// searchOptions builds the search from the list flags
func searchOptions(cmd *cobra.Command, hashes []string) (operations.SearchOptions, error) {
	expr, err := getFilterExpression()
	if err != nil {
		return operations.SearchOptions{}, err
	}

	opts := operations.SearchOptions{
		FilterExpression: expr,
		List: qbittorrent.ListOptions{
			Hashes:  hashes,
			Filter:  stateFilter,
			Sort:    sortField,
			Reverse: reverse,
		},
	}
	if cmd.Flags().Changed("category") {
		opts.List.Category = &category
	}
	if cmd.Flags().Changed("tag") {
		opts.List.Tag = &tag
	}
	return opts, nil
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expr, ok := cfg.Filter[preset]; ok {
			return expr, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}

func parsePriority(s string) (qbittorrent.FilePriority, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid priority '%s'", s)
	}
	switch p := qbittorrent.FilePriority(n); p {
	case qbittorrent.PriorityDoNotDownload, qbittorrent.PriorityNormal, qbittorrent.PriorityHigh, qbittorrent.PriorityMaximum:
		return p, nil
	}
	return 0, fmt.Errorf("invalid priority %d: must be 0, 1, 6 or 7", n)
}

func addSelectionFlags(c *cobra.Command) {
	c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	c.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	c.Flags().StringVar(&stateFilter, "state", "", "daemon state filter (all, downloading, seeding, completed, paused, active, inactive, stalled, errored)")
	c.Flags().StringVar(&category, "category", "", "only torrents in this category (empty for uncategorized)")
	c.Flags().StringVar(&tag, "tag", "", "only torrents with this tag (empty for untagged)")
}

func init() {
	for _, c := range []*cobra.Command{torrentsListCmd, torrentsPauseCmd, torrentsResumeCmd, torrentsDeleteCmd} {
		addSelectionFlags(c)
	}
	torrentsListCmd.Flags().StringVar(&sortField, "sort", "", "sort by a daemon field (name, size, ratio, added_on, ...)")
	torrentsListCmd.Flags().BoolVar(&reverse, "reverse", false, "reverse the sort order")
	torrentsListCmd.Flags().BoolVarP(&showDetails, "details", "l", false, "show hash, category, tags and path")

	torrentsDeleteCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "show what would be deleted")
	torrentsDeleteCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")
	torrentsDeleteCmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "also delete downloaded data")

	torrentsCmd.AddCommand(
		torrentsListCmd,
		torrentsFindCmd,
		torrentsShowCmd,
		torrentsFilesCmd,
		torrentsPriorityCmd,
		torrentsPiecesCmd,
		torrentsPauseCmd,
		torrentsResumeCmd,
		torrentsDeleteCmd,
	)
	rootCmd.AddCommand(torrentsCmd)
}
