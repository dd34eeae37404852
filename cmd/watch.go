package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitctl/notify"
	"github.com/s0up4200/qbitctl/operations"
	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/server"
)

var (
	watchInterval time.Duration
	watchAll      bool
	noNotify      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll servers and notify when downloads complete",
	Long: `Poll the selected server (or every server with --all) at a fixed interval,
print a transfer summary, and send a desktop notification when a torrent
finishes downloading. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "poll interval (default is watch.interval from config)")
	watchCmd.Flags().BoolVarP(&watchAll, "all", "a", false, "watch every configured server")
	watchCmd.Flags().BoolVar(&noNotify, "no-notify", false, "disable desktop notifications")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var profiles []server.Profile
	if watchAll {
		profiles = registry.List()
		if len(profiles) == 0 {
			return errors.New("no servers configured, add one with 'qbitctl servers add'")
		}
	} else {
		profile, err := currentProfile()
		if err != nil {
			return err
		}
		profiles = []server.Profile{profile}
	}

	interval := cfg.Watch.Interval
	if watchInterval > 0 {
		interval = watchInterval
	}

	notifier := notify.New(cfg.Watch.Notify && !noNotify, notify.OnError(cfg.Watch.OnError))
	watcher := operations.NewWatcher(client, notifier, logger)

	logger.Info().Int("servers", len(profiles)).Dur("interval", interval).Msg("Watching")

	err := watcher.Run(cmd.Context(), profiles, interval, printWatchUpdate)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printWatchUpdate(update operations.WatchUpdate) {
	fmt.Printf("\n[%s]\n", update.At.Format("15:04:05"))

	for _, st := range update.Servers {
		torrents, err := st.Torrents.Get()
		if err != nil {
			fmt.Printf("%-20s %s\n", st.Profile.DisplayName(), errorMessage(err))
			continue
		}

		var downloading, seeding int
		var down, up int64
		for _, t := range torrents {
			switch {
			case !t.IsComplete():
				downloading++
			case t.IsSeeding:
				seeding++
			}
			down += t.DownloadSpeed
			up += t.UploadSpeed
		}

		fmt.Printf("%-20s %d torrents, %d downloading, %d seeding  ↓ %s  ↑ %s\n",
			st.Profile.DisplayName(), len(torrents), downloading, seeding,
			qbittorrent.FormatSpeed(down), qbittorrent.FormatSpeed(up))
	}

	for _, c := range update.Completed {
		fmt.Printf("✓ Completed on %s: %s\n", c.Server.DisplayName(), c.Torrent.Name)
	}
}
