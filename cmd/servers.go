package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitctl/config"
	"github.com/s0up4200/qbitctl/server"
)

var serverOpts struct {
	name       string
	host       string
	port       int
	path       string
	username   string
	password   string
	useKeyring bool
	makeDef    bool
}

var serversCmd = &cobra.Command{
	Use:     "servers",
	Aliases: []string{"server"},
	Short:   "Manage configured qBittorrent servers",
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles := registry.List()
		if len(profiles) == 0 {
			fmt.Println("No servers configured.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNAME\tURL\tUSER")
		for _, p := range profiles {
			marker := ""
			if p.ID == cfg.DefaultServer {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, p.ID, p.Name, p.BaseURL(), p.Username)
		}
		return w.Flush()
	},
}

var serversAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := server.Profile{
			Name:     serverOpts.name,
			Host:     serverOpts.host,
			Port:     serverOpts.port,
			Path:     serverOpts.path,
			Username: serverOpts.username,
			Password: serverOpts.password,
		}
		if _, err := profile.ParseBaseURL(); err != nil {
			return fmt.Errorf("invalid host: %w", err)
		}

		profile, err := registry.Add(profile)
		if err != nil {
			return err
		}

		if err := storePassword(profile); err != nil {
			return err
		}
		if serverOpts.makeDef || cfg.DefaultServer == "" {
			cfg.DefaultServer = profile.ID
		}

		if err := persistConfig(); err != nil {
			return err
		}

		fmt.Printf("Added server %s (%s)\n", profile.DisplayName(), profile.ID)
		return nil
	},
}

var serversEditCmd = &cobra.Command{
	Use:   "edit <id|name>",
	Short: "Change a server's address or credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := registry.Get(args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("name") {
			profile.Name = serverOpts.name
		}
		if flags.Changed("host") {
			profile.Host = serverOpts.host
		}
		if flags.Changed("port") {
			profile.Port = serverOpts.port
		}
		if flags.Changed("path") {
			profile.Path = serverOpts.path
		}
		if flags.Changed("username") {
			profile.Username = serverOpts.username
		}
		if flags.Changed("password") {
			profile.Password = serverOpts.password
		}
		if _, err := profile.ParseBaseURL(); err != nil {
			return fmt.Errorf("invalid host: %w", err)
		}

		if err := registry.Edit(profile); err != nil {
			return err
		}
		if flags.Changed("password") || flags.Changed("keyring") {
			if err := storePassword(profile); err != nil {
				return err
			}
		}
		if serverOpts.makeDef {
			cfg.DefaultServer = profile.ID
		}

		if err := persistConfig(); err != nil {
			return err
		}

		fmt.Printf("Updated server %s\n", profile.DisplayName())
		return nil
	},
}

var serversRemoveCmd = &cobra.Command{
	Use:     "remove <id|name>",
	Aliases: []string{"rm"},
	Short:   "Remove a server",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := registry.Get(args[0])
		if err != nil {
			return err
		}

		if err := registry.Remove(profile.ID); err != nil {
			return err
		}
		if err := (config.Keyring{}).Delete(profile.ID); err != nil {
			logger.Warn().Err(err).Str("server", profile.ID).Msg("Failed to remove password from keyring")
		}
		if cfg.DefaultServer == profile.ID {
			cfg.DefaultServer = ""
		}

		if err := persistConfig(); err != nil {
			return err
		}

		fmt.Printf("Removed server %s\n", profile.DisplayName())
		return nil
	},
}

var serversTestCmd = &cobra.Command{
	Use:   "test [id|name]",
	Short: "Log in to servers and report their version",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles := registry.List()
		if len(args) == 1 {
			profile, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			profiles = []server.Profile{profile}
		}
		if len(profiles) == 0 {
			fmt.Println("No servers configured.")
			return nil
		}

		var failed int
		for _, p := range profiles {
			if testServer(cmd.Context(), p) {
				continue
			}
			failed++
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d server(s) unreachable", failed, len(profiles))
		}
		return nil
	},
}

func testServer(ctx context.Context, p server.Profile) bool {
	fmt.Printf("Testing %s at %s... ", p.DisplayName(), p.BaseURL())

	version, err := client.Version(ctx, p).Get()
	if err != nil {
		fmt.Printf("✗ %s\n", errorMessage(err))
		return false
	}

	fmt.Printf("✓ qBittorrent %s\n", strings.TrimSpace(version))
	return true
}

// storePassword records the profile password in the keyring or the config file
func storePassword(profile server.Profile) error {
	return cfg.UpdatePassword(profile.ID, profile.Password, serverOpts.useKeyring, config.Keyring{})
}

func init() {
	for _, c := range []*cobra.Command{serversAddCmd, serversEditCmd} {
		c.Flags().StringVar(&serverOpts.name, "name", "", "display name")
		c.Flags().StringVar(&serverOpts.host, "host", "", "host, optionally with scheme and port")
		c.Flags().IntVar(&serverOpts.port, "port", 0, "port, when host carries none")
		c.Flags().StringVar(&serverOpts.path, "path", "", "path prefix of the Web UI")
		c.Flags().StringVarP(&serverOpts.username, "username", "u", "", "Web UI username")
		c.Flags().StringVarP(&serverOpts.password, "password", "P", "", "Web UI password")
		c.Flags().BoolVar(&serverOpts.useKeyring, "keyring", false, "store the password in the OS keyring instead of the config file")
		c.Flags().BoolVar(&serverOpts.makeDef, "default", false, "make this the default server")
	}
	_ = serversAddCmd.MarkFlagRequired("host")
	_ = serversAddCmd.MarkFlagRequired("username")

	serversCmd.AddCommand(serversListCmd, serversAddCmd, serversEditCmd, serversRemoveCmd, serversTestCmd)
	rootCmd.AddCommand(serversCmd)
}
