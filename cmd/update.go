package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const repositorySlug = "s0up4200/qbitctl"

var (
	version   = "dev"
	buildTime = "unknown"

	checkOnly   bool
	forceUpdate bool
)

// SetVersion records the build metadata injected by the linker
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, built)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("qbitctl %s (built %s)\n", version, buildTime)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update qbitctl to the latest release",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only report whether an update is available")
	updateCmd.Flags().BoolVar(&forceUpdate, "force", false, "update development builds too")

	rootCmd.AddCommand(versionCmd, updateCmd)
}

// currentVersion parses the build version, accepting a leading "v"
func currentVersion() (semver.Version, error) {
	v, err := semver.ParseTolerant(strings.TrimSpace(version))
	if err != nil {
		return semver.Version{}, fmt.Errorf("current version %q is not a release: %w", version, err)
	}
	return v, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	current, err := currentVersion()
	if err != nil {
		if !forceUpdate {
			return fmt.Errorf("%w (use --force to replace it with the latest release)", err)
		}
		current = semver.Version{}
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repositorySlug))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return errors.New("no release found for this platform")
	}

	logger.Debug().Str("current", current.String()).Str("latest", latest.Version()).Msg("Checked for updates")

	if latest.LessOrEqual(current.String()) {
		fmt.Printf("✓ qbitctl %s is up to date\n", current)
		return nil
	}

	if checkOnly {
		fmt.Printf("Update available: %s → %s\n", current, latest.Version())
		if latest.ReleaseNotes != "" {
			fmt.Printf("\n%s\n", latest.ReleaseNotes)
		}
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Printf("Updating %s → %s...\n", current, latest.Version())
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("permission denied replacing %s, try again with elevated privileges: %w", exe, err)
		}
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Printf("✓ Updated to %s\n", latest.Version())
	return nil
}
