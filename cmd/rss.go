package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unreadOnly bool

var rssCmd = &cobra.Command{
	Use:   "rss",
	Short: "Browse and manage RSS feeds",
	Long: `Browse and manage the RSS feeds of the server.

Items are addressed by path. Folder and feed names are joined with a backslash,
for example 'Linux\Debian'. An empty path is the root folder.`,
}

var rssFeedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Show the feed tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		root, err := client.RSSItems(cmd.Context(), profile).Get()
		if err != nil {
			return err
		}

		fmt.Print(ops.Formatter().FormatFeedTree(root))
		return nil
	},
}

var rssArticlesCmd = &cobra.Command{
	Use:   "articles [path]",
	Short: "List articles of a feed or folder, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		articles, err := client.RSSArticles(cmd.Context(), profile, path).Get()
		if err != nil {
			return err
		}

		if unreadOnly {
			n := 0
			for _, a := range articles {
				if !a.IsRead {
					articles[n] = a
					n++
				}
			}
			articles = articles[:n]
		}

		fmt.Print(ops.Formatter().FormatArticles(articles))
		return nil
	},
}

var rssAddFeedCmd = &cobra.Command{
	Use:   "add-feed <url> [path]",
	Short: "Subscribe to a feed",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		path := ""
		if len(args) == 2 {
			path = args[1]
		}

		if _, err := client.AddFeed(cmd.Context(), profile, args[0], path).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Subscribed to %s\n", args[0])
		return nil
	},
}

var rssAddFolderCmd = &cobra.Command{
	Use:   "add-folder <path>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		if _, err := client.AddFolder(cmd.Context(), profile, args[0]).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Created folder %s\n", args[0])
		return nil
	},
}

var rssRemoveCmd = &cobra.Command{
	Use:     "remove <path>",
	Aliases: []string{"rm"},
	Short:   "Remove a feed or folder",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		if _, err := client.RemoveItem(cmd.Context(), profile, args[0]).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Removed %s\n", args[0])
		return nil
	},
}

var rssMoveCmd = &cobra.Command{
	Use:     "move <path> <new path>",
	Aliases: []string{"mv", "rename"},
	Short:   "Move or rename a feed or folder",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		if _, err := client.MoveItem(cmd.Context(), profile, args[0], args[1]).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Moved %s to %s\n", args[0], args[1])
		return nil
	},
}

var rssRefreshCmd = &cobra.Command{
	Use:   "refresh <path>",
	Short: "Reload a feed, or every feed in a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		if _, err := client.RefreshItem(cmd.Context(), profile, args[0]).Get(); err != nil {
			return err
		}

		fmt.Printf("✓ Refresh requested for %s\n", args[0])
		return nil
	},
}

var rssReadCmd = &cobra.Command{
	Use:   "read <path> [article id]",
	Short: "Mark an article, or a whole feed or folder, as read",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		articleID := ""
		if len(args) == 2 {
			articleID = args[1]
		}

		if _, err := client.MarkAsRead(cmd.Context(), profile, args[0], articleID).Get(); err != nil {
			return err
		}

		fmt.Println("✓ Marked as read")
		return nil
	},
}

func init() {
	rssArticlesCmd.Flags().BoolVar(&unreadOnly, "unread", false, "only show unread articles")

	rssCmd.AddCommand(
		rssFeedsCmd,
		rssArticlesCmd,
		rssAddFeedCmd,
		rssAddFolderCmd,
		rssRemoveCmd,
		rssMoveCmd,
		rssRefreshCmd,
		rssReadCmd,
	)
	rootCmd.AddCommand(rssCmd)
}
