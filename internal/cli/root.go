// Package cli implements the movierank command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"movierank/internal/auth"
	"movierank/internal/config"
	"movierank/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	// Config is resolved before any subcommand runs.
	Config config.Config
}

// NewRootCommand creates the root command for the movierank CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "movierank",
		Short: "Ranked movie lists",
		Long:  "Backend and tooling for ranked movie lists, profiles and podiums.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)

			cfg, err := config.Load(opts.ConfigPath, ".env")
			if err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewProxyCommand(opts))
	cmd.AddCommand(NewImportCacheCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))

	return cmd
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// openStore connects to the configured database, creating the directory of
// a sqlite file when needed.
func openStore(cfg config.Config) (*store.SQLStore, error) {
	if strings.EqualFold(cfg.DatabaseType, "sqlite") && cfg.DatabaseURL != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabaseURL), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return store.Open(cfg.DatabaseType, cfg.DatabaseURL)
}

func newAuthService(st store.Store, cfg config.Config) *auth.Service {
	return auth.NewService(st, auth.WithSessionTTL(cfg.SessionTTL))
}

// credentials are the account flags shared by commands that act as a user.
type credentials struct {
	email    string
	password string
}

func (c *credentials) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "account email")
	cmd.Flags().StringVar(&c.password, "password", "", "account password (or MOVIERANK_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
}

func (c *credentials) resolve() (string, string, error) {
	password := c.password
	if password == "" {
		password = os.Getenv("MOVIERANK_PASSWORD")
	}
	if password == "" {
		return "", "", fmt.Errorf("password required for %s", c.email)
	}
	return c.email, password, nil
}

// signIn opens a session for the credential flags.
func (c *credentials) signIn(ctx context.Context, svc *auth.Service) (string, error) {
	email, password, err := c.resolve()
	if err != nil {
		return "", err
	}
	session, err := svc.SignInWithPassword(ctx, email, password)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}
