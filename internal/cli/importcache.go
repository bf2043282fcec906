package cli

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"movierank/internal/kvcache"
)

// NewImportCacheCommand creates the import-cache command.
func NewImportCacheCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		creds     credentials
		cachePath string
	)

	cmd := &cobra.Command{
		Use:   "import-cache",
		Short: "Move lists from a local cache file into the store",
		Long: `Reads the key-value cache kept by older clients (@movie_lists,
@ranking_items and @ranking_items_<list>) and creates the lists and ranked
movies it holds for the given account. Imported keys are removed from the
cache so running it twice does not duplicate lists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if cmd.Flags().Changed("cache") {
				cfg.CachePath = cachePath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			userID, err := creds.signIn(ctx, newAuthService(s, cfg))
			if err != nil {
				return err
			}

			cache, err := kvcache.Open(cfg.CachePath)
			if err != nil {
				return err
			}

			res, err := kvcache.Import(ctx, cache, s, userID)
			if err != nil {
				return err
			}
			slog.Debug("cache import finished", "path", cfg.CachePath, "lists", res.Lists, "movies", res.Movies, "skipped", res.Skipped)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d lists, %d movies\n", color.New(color.FgHiGreen).Sprint("imported"), res.Lists, res.Movies)
			if res.Skipped > 0 {
				fmt.Fprintln(out, color.New(color.FgYellow).Sprintf("skipped %d invalid entries", res.Skipped))
			}
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVar(&cachePath, "cache", "", "cache file (overrides CACHE_PATH)")

	return cmd
}
