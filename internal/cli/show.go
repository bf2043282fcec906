package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"movierank/internal/app"
	"movierank/internal/auth"
	"movierank/internal/models"
	"movierank/internal/store"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		creds    credentials
		from, to int
	)

	cmd := &cobra.Command{
		Use:   "show [list]",
		Short: "Print lists or one list's ranking",
		Long: `Without arguments, prints the account's lists. With a list name or id,
prints its ranking. --from and --to move the movie at one rank to another
before printing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if err := cfg.Validate(); err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			email, password, err := creds.resolve()
			if err != nil {
				return err
			}

			client := app.New(app.Options{
				Auth:  auth.NewLocalProvider(newAuthService(s, cfg)),
				Store: s,
			})
			defer client.Close()

			if err := client.SignIn(ctx, email, password); err != nil {
				return err
			}

			lists, err := client.LoadLists(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				printLists(out, lists)
				return nil
			}

			list := findList(lists, args[0])
			if list == nil {
				return fmt.Errorf("list %q: %w", args[0], store.ErrNotFound)
			}

			if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
				if err := client.ApplyReorder(ctx, list.ID, from-1, to-1); err != nil {
					return err
				}
			}

			movies, err := loadRanking(ctx, client, list.ID)
			if err != nil {
				return err
			}
			printRanking(out, *list, movies)
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().IntVar(&from, "from", 0, "rank of the movie to move")
	cmd.Flags().IntVar(&to, "to", 0, "rank to move it to")
	cmd.MarkFlagsRequiredTogether("from", "to")

	return cmd
}

func loadRanking(ctx context.Context, client *app.Client, listID string) ([]models.Movie, error) {
	if _, err := client.LoadItems(ctx, listID); err != nil {
		return nil, err
	}
	return client.State().Snapshot().ItemsFor(listID), nil
}

// findList matches a list by id, then by case-insensitive name.
func findList(lists []models.List, ref string) *models.List {
	for i := range lists {
		if lists[i].ID == ref {
			return &lists[i]
		}
	}
	for i := range lists {
		if strings.EqualFold(lists[i].Name, ref) {
			return &lists[i]
		}
	}
	return nil
}

func printLists(w io.Writer, lists []models.List) {
	if len(lists) == 0 {
		fmt.Fprintln(w, color.New(color.FgHiBlack).Sprint("no lists"))
		return
	}
	for _, l := range lists {
		marker := ""
		if l.IsPinned {
			marker = color.New(color.FgHiMagenta).Sprint(" [pinned]")
		}
		fmt.Fprintf(w, "%s%s %s\n", color.New(color.Bold).Sprint(l.Name), marker, color.New(color.FgHiBlack).Sprint(l.ID))
	}
}

func printRanking(w io.Writer, list models.List, movies []models.Movie) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint(list.Name))
	if len(movies) == 0 {
		fmt.Fprintln(w, color.New(color.FgHiBlack).Sprint("  (empty)"))
		return
	}
	for _, m := range movies {
		line := fmt.Sprintf("%s %s", rankColor(m.Rank).Sprintf("%3d.", m.Rank), m.Title)
		if year := m.Year(); year != "" {
			line += color.New(color.FgHiBlack).Sprintf(" (%s)", year)
		}
		if m.VoteAverage > 0 {
			line += color.New(color.FgCyan).Sprintf(" %.1f", m.VoteAverage)
		}
		if m.Notes != "" {
			line += color.New(color.FgYellow).Sprintf(" - %s", m.Notes)
		}
		fmt.Fprintln(w, line)
	}
}

func rankColor(rank int) *color.Color {
	switch rank {
	case 1:
		return color.New(color.FgHiYellow, color.Bold)
	case 2:
		return color.New(color.FgWhite, color.Bold)
	case 3:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgHiBlack)
	}
}
