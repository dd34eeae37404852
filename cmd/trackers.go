package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var trackersCmd = &cobra.Command{
	Use:   "trackers",
	Short: "List and edit the trackers of a torrent",
}

var trackersListCmd = &cobra.Command{
	Use:   "list <hash>",
	Short: "List trackers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		trackers, err := client.Trackers(cmd.Context(), profile, args[0]).Get()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIER\tSTATUS\tSEEDS\tPEERS\tURL\tMESSAGE")
		for _, t := range trackers {
			tier := ""
			if t.Tier.Valid {
				tier = fmt.Sprint(t.Tier.Value)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", tier, t.Status, t.Seeds, t.Peers, t.URL, t.Message.String)
		}
		return w.Flush()
	},
}

var trackersAddCmd = &cobra.Command{
	Use:   "add <hash> <url>...",
	Short: "Add tracker URLs",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		if _, err := client.AddTrackers(cmd.Context(), profile, args[0], args[1:]).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Added %d tracker(s)\n", len(args)-1)
		return nil
	},
}

var trackersRemoveCmd = &cobra.Command{
	Use:     "remove <hash> <url>...",
	Aliases: []string{"rm"},
	Short:   "Remove tracker URLs",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		if _, err := client.RemoveTrackers(cmd.Context(), profile, args[0], args[1:]).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Removed %d tracker(s)\n", len(args)-1)
		return nil
	},
}

func init() {
	trackersCmd.AddCommand(trackersListCmd, trackersAddCmd, trackersRemoveCmd)
	rootCmd.AddCommand(trackersCmd)
}
