package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"movierank/internal/catalog"
	"movierank/internal/config"
	"movierank/internal/handlers"
	"movierank/internal/proxy"
)

type serverFlags struct {
	port         int
	databaseType string
	databaseURL  string
}

// apply overrides cfg with the flags the user actually set.
func (f *serverFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("database-type") {
		cfg.DatabaseType = f.databaseType
	}
	if cmd.Flags().Changed("database-url") {
		cfg.DatabaseURL = f.databaseURL
	}
}

func (f *serverFlags) register(cmd *cobra.Command, withDatabase bool) {
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "listen port (overrides PORT)")
	if withDatabase {
		cmd.Flags().StringVar(&f.databaseType, "database-type", "", "sqlite or postgres (overrides DATABASE_TYPE)")
		cmd.Flags().StringVar(&f.databaseURL, "database-url", "", "database path or DSN (overrides DATABASE_URL)")
	}
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the application API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			flags.apply(cmd, &cfg)
			return runServe(cmd.Context(), cfg)
		},
	}
	flags.register(cmd, true)

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	h := handlers.New(s, newAuthService(s, cfg), catalog.NewImages(cfg.TMDBImageBaseURL), cfg.AnonKey)

	slog.Info("starting api server", "addr", cfg.Addr(), "database", cfg.DatabaseType)
	return listen(ctx, cfg.Addr(), h.Routes())
}

// NewProxyCommand creates the proxy command.
func NewProxyCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the catalog proxy server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			flags.apply(cmd, &cfg)
			return runProxy(cmd.Context(), cfg)
		},
	}
	flags.register(cmd, false)

	return cmd
}

func runProxy(ctx context.Context, cfg config.Config) error {
	if err := cfg.RequireCatalog(); err != nil {
		return err
	}

	c := catalog.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey, nil)
	srv := proxy.New(c, catalog.NewImages(cfg.TMDBImageBaseURL))

	slog.Info("starting catalog proxy", "addr", cfg.Addr())
	return listen(ctx, cfg.Addr(), srv.Routes())
}

// listen serves handler until ctx is done or an interrupt arrives.
func listen(ctx context.Context, addr string, handler http.Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down", "addr", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
