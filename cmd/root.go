package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitctl/config"
	"github.com/s0up4200/qbitctl/operations"
	"github.com/s0up4200/qbitctl/qbittorrent"
	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

var (
	cfgFile    string
	serverFlag string
	cfg        *config.Config
	logger     zerolog.Logger
	sessions   *session.Manager
	registry   *server.Registry
	client     *qbittorrent.Client
	ops        *operations.Operations
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qbitctl",
	Short: "Remote control for qBittorrent servers",
	Long: `qbitctl talks to one or more qBittorrent Web UI servers. It keeps a login
session per server, logs in again when a session expires, and lets you list,
inspect and manage torrents, trackers, peers and RSS feeds.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.qbitctl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "server id or name (default is default_server)")
}

// initializeApp loads the configuration and wires the session layer
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg = config.Default(cfgFile)
	} else if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)
	if err != nil {
		logger.Debug().Str("path", cfg.Path()).Msg("No config file found, using defaults")
	}

	if err := config.ResolvePasswords(cfg, config.Keyring{}); err != nil {
		logger.Warn().Err(err).Msg("Failed to read passwords from keyring")
	}

	sessions = session.NewManager(logger,
		session.WithTimeout(cfg.Request.Timeout),
		session.WithUserAgent(cfg.Request.UserAgent),
		session.WithInsecureSkipVerify(cfg.Request.InsecureSkipVerify),
	)
	registry = server.NewRegistry(cfg.Servers, sessions, logger)
	client = qbittorrent.NewClient(sessions, logger)
	ops = operations.NewOperations(client, logger)

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// currentProfile resolves --server, then default_server, then the only configured server
func currentProfile() (server.Profile, error) {
	id := serverFlag
	if id == "" {
		id = cfg.DefaultServer
	}
	if id != "" {
		return registry.Get(id)
	}

	profiles := registry.List()
	switch len(profiles) {
	case 0:
		return server.Profile{}, errors.New("no servers configured, add one with 'qbitctl servers add'")
	case 1:
		return profiles[0], nil
	default:
		return server.Profile{}, errors.New("several servers configured, pick one with --server or set default_server")
	}
}

// persistConfig writes the registry back to the config file
func persistConfig() error {
	cfg.Servers = registry.List()
	if err := config.Save(cfg); err != nil {
		return err
	}
	logger.Debug().Str("path", cfg.Path()).Msg("Saved configuration")
	return nil
}

// errorMessage prefers the user-facing text of classified request failures
func errorMessage(err error) string {
	var sessErr *session.Error
	if !errors.As(err, &sessErr) {
		return err.Error()
	}

	if sessErr.Err != nil {
		logger.Debug().Err(sessErr.Err).Str("kind", sessErr.Kind.String()).Msg("Request failed")
	}

	msg := sessErr.Message()
	switch {
	case sessErr.Kind == session.KindAPIError:
		msg = fmt.Sprintf("server returned HTTP %d", sessErr.Code)
		if sessErr.Err != nil {
			msg = sessErr.Err.Error()
		}
	case sessErr.Code != 0:
		msg = fmt.Sprintf("%s (HTTP %d)", msg, sessErr.Code)
	}

	if err == error(sessErr) {
		return msg
	}
	return fmt.Sprintf("%v (%s)", err, msg)
}
