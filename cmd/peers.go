package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitctl/qbittorrent"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List, add and ban peers",
}

var peersListCmd = &cobra.Command{
	Use:   "list <hash>",
	Short: "List connected peers of a torrent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		peers, err := client.Peers(cmd.Context(), profile, args[0]).Get()
		if err != nil {
			return err
		}
		if len(peers) == 0 {
			fmt.Println("No peers connected.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ADDRESS\tCLIENT\tPROGRESS\tDOWN\tUP\tFLAGS\tCOUNTRY")
		for _, p := range peers {
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%s\t%s\t%s\t%s\n",
				p.Address, p.Client, p.Progress*100,
				qbittorrent.FormatSpeed(p.DlSpeed), qbittorrent.FormatSpeed(p.UpSpeed),
				strings.TrimSpace(p.Flags), p.Country)
		}
		return w.Flush()
	},
}

var peersAddCmd = &cobra.Command{
	Use:   "add <hash> <host:port>...",
	Short: "Connect a torrent to peers",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		result := client.AddPeers(cmd.Context(), profile, args[:1], args[1:])
		if qbittorrent.IsInvalidPeers(result.Err()) {
			return fmt.Errorf("none of the peers are valid, use host:port")
		}
		if _, err := result.Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Added %d peer(s)\n", len(args)-1)
		return nil
	},
}

var peersBanCmd = &cobra.Command{
	Use:   "ban <host:port>...",
	Short: "Ban peers permanently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		if _, err := client.BanPeers(cmd.Context(), profile, args).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Banned %d peer(s)\n", len(args))
		return nil
	},
}

func init() {
	peersCmd.AddCommand(peersListCmd, peersAddCmd, peersBanCmd)
	rootCmd.AddCommand(peersCmd)
}
