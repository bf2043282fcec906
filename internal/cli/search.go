package cli

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"movierank/internal/app"
	"movierank/internal/auth"
	"movierank/internal/catalog"
	"movierank/internal/debounce"
	"movierank/internal/state"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		window time.Duration
		wait   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog interactively",
		Long: `Reads query edits from stdin, one per line, and prints catalog results
once typing has paused. Queries shorter than two characters show trending
movies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if err := cfg.RequireCatalog(); err != nil {
				return err
			}

			c := catalog.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey, nil)
			return runSearch(cmd.InOrStdin(), cmd.OutOrStdout(), c, catalog.NewImages(cfg.TMDBImageBaseURL), window, wait)
		},
	}
	cmd.Flags().DurationVar(&window, "window", debounce.DefaultWindow, "pause before a query is sent")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for the last result at end of input")

	return cmd
}

func runSearch(in io.Reader, out io.Writer, c app.Catalog, images catalog.Images, window, wait time.Duration) error {
	// Searching needs no account, so the provider never signs in.
	client := app.New(app.Options{
		Auth:         auth.NewLocalProvider(nil),
		Catalog:      c,
		SearchWindow: window,
	})
	defer client.Close()

	p := &resultPrinter{out: out, images: images, settled: make(chan string, 16)}
	unsubscribe := client.State().Subscribe(p.print)
	defer unsubscribe()

	var last string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		last = debounce.NormalizeQuery(scanner.Text())
		client.ClearError()
		client.Search(last)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read queries: %w", err)
	}

	timeout := time.After(window + wait)
	for {
		select {
		case q := <-p.settled:
			if q == last {
				return nil
			}
		case <-timeout:
			return fmt.Errorf("no result for %q", last)
		}
	}
}

// resultPrinter writes each new search result as it lands in state.
type resultPrinter struct {
	out     io.Writer
	images  catalog.Images
	settled chan string

	mu        sync.Mutex
	lastQuery string
	lastShown []catalog.Movie
	lastError string
}

func (p *resultPrinter) print(s state.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.LastError != "" && s.LastError != p.lastError {
		fmt.Fprintln(p.out, color.New(color.FgRed).Sprint(s.LastError))
	}
	p.lastError = s.LastError

	if s.Results != nil && (s.Query != p.lastQuery || !sameResults(s.Results, p.lastShown)) {
		p.lastQuery = s.Query
		p.lastShown = s.Results
		header := fmt.Sprintf("results for %q", s.Query)
		if utf8.RuneCountInString(s.Query) < debounce.DefaultMinLength {
			header = "trending"
		}
		fmt.Fprintln(p.out, color.New(color.Bold).Sprint(header))
		for _, m := range s.Results {
			line := fmt.Sprintf("  %s %s", color.New(color.FgHiBlack).Sprintf("%8d", m.ID), m.Title)
			if len(m.ReleaseDate) >= 4 {
				line += color.New(color.FgHiBlack).Sprintf(" (%s)", m.ReleaseDate[:4])
			}
			if poster := p.images.Poster(m.PosterPath); poster != "" {
				line += " " + color.New(color.FgCyan).Sprint(poster)
			}
			fmt.Fprintln(p.out, line)
		}
	}

	if s.Results == nil && s.LastError == "" {
		return
	}
	select {
	case p.settled <- s.Query:
	default:
	}
}

func sameResults(a, b []catalog.Movie) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
