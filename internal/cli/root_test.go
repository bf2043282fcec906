package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/auth"
	"movierank/internal/catalog"
	"movierank/internal/config"
	"movierank/internal/models"
	"movierank/internal/store"
)

func init() {
	color.NoColor = true
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "movierank", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "proxy", "import-cache", "show", "search"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	for _, name := range []string{"port", "database-type", "database-url"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "serve should have --%s", name)
	}

	proxyCmd, _, err := cmd.Find([]string{"proxy"})
	require.NoError(t, err)
	assert.NotNil(t, proxyCmd.Flags().Lookup("port"))
	assert.Nil(t, proxyCmd.Flags().Lookup("database-url"))
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serveCmd.Flags().Parse([]string{"--port", "9090"}))

	flags := &serverFlags{port: 9090}
	cfg := config.Config{Port: 3000, DatabaseURL: "keep.db"}
	flags.apply(serveCmd, &cfg)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "keep.db", cfg.DatabaseURL, "unset flags must not override config")
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"serve", "--database-type", "mysql"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestShowRequiresEmail(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"show"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

// seedRanking writes an account with one three-movie list to a sqlite file
// and points the command config at it.
func seedRanking(t *testing.T, email string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movierank.db")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", path)

	ctx := context.Background()
	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	session, err := auth.NewService(s, auth.WithIterations(1000)).SignUp(ctx, email, "secret1")
	require.NoError(t, err)
	require.NoError(t, s.CreateList(ctx, &models.List{ID: "fav", UserID: session.UserID, Name: "Favorites"}))
	for i, title := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddMovie(ctx, &models.Movie{
			ID:     "m-" + title,
			ListID: "fav",
			Title:  title,
			TMDBID: int64(i + 1),
		}))
	}
}

func runShow(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"show"}, args...))
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestShowRanking(t *testing.T) {
	seedRanking(t, "viewer@example.com")

	out := runShow(t, "Favorites", "--email", "viewer@example.com", "--password", "secret1")
	assert.Contains(t, out, "Favorites\n  1. a\n  2. b\n  3. c\n")
}

func TestShowReorder(t *testing.T) {
	seedRanking(t, "mover@example.com")

	out := runShow(t, "Favorites", "--from", "1", "--to", "3", "--email", "mover@example.com", "--password", "secret1")
	assert.Contains(t, out, "  1. b\n  2. c\n  3. a\n")

	// The move is stored, not only printed.
	out = runShow(t, "fav", "--email", "mover@example.com", "--password", "secret1")
	assert.Contains(t, out, "  1. b\n  2. c\n  3. a\n")
}

func TestFindList(t *testing.T) {
	lists := []models.List{
		{ID: "l1", Name: "Horror"},
		{ID: "l2", Name: "Comedy"},
	}

	require.NotNil(t, findList(lists, "l2"))
	assert.Equal(t, "l2", findList(lists, "l2").ID)
	assert.Equal(t, "l1", findList(lists, "horror").ID)
	assert.Nil(t, findList(lists, "drama"))
}

func TestPrintRanking(t *testing.T) {
	var out bytes.Buffer
	printRanking(&out, models.List{Name: "Favorites"}, []models.Movie{
		{Title: "Heat", Rank: 1, ReleaseDate: "1995-12-15", VoteAverage: 7.9},
		{Title: "Alien", Rank: 2, Notes: "rewatch"},
	})

	want := "Favorites\n  1. Heat (1995) 7.9\n  2. Alien - rewatch\n"
	assert.Equal(t, want, out.String())

	out.Reset()
	printRanking(&out, models.List{Name: "Empty"}, nil)
	assert.Equal(t, "Empty\n  (empty)\n", out.String())
}

func TestPrintLists(t *testing.T) {
	var out bytes.Buffer
	printLists(&out, []models.List{{ID: "l1", Name: "Horror", IsPinned: true}, {ID: "l2", Name: "Comedy"}})
	assert.Equal(t, "Horror [pinned] l1\nComedy l2\n", out.String())
}

type fakeCatalog struct {
	results map[string][]catalog.Movie
	err     error
}

func (f *fakeCatalog) SearchMovies(_ context.Context, query string, _ catalog.Filters) ([]catalog.Movie, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeCatalog) GetMovieDetails(context.Context, int64) (*catalog.MovieDetails, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCatalog) GetTrendingMovies(context.Context) ([]catalog.Movie, error) {
	return []catalog.Movie{{ID: 1, Title: "Trending"}}, nil
}

func (f *fakeCatalog) GetGenres(context.Context) ([]catalog.Genre, error) {
	return nil, nil
}

func TestRunSearch(t *testing.T) {
	fc := &fakeCatalog{results: map[string][]catalog.Movie{
		"heat": {{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", PosterPath: "/heat.jpg"}},
	}}

	var out bytes.Buffer
	err := runSearch(strings.NewReader("he\nheat\n"), &out, fc, catalog.NewImages(""), time.Millisecond, 2*time.Second)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `results for "heat"`)
	assert.Contains(t, out.String(), "949 Heat (1995) https://image.tmdb.org/t/p/w500/heat.jpg")
}

func TestRunSearch_ShortQueryShowsTrending(t *testing.T) {
	var out bytes.Buffer
	err := runSearch(strings.NewReader("h\n"), &out, &fakeCatalog{}, catalog.NewImages(""), time.Millisecond, 2*time.Second)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "trending")
	assert.Contains(t, out.String(), "Trending")
}

func TestRunSearch_UpstreamFailure(t *testing.T) {
	var out bytes.Buffer
	err := runSearch(strings.NewReader("heat\n"), &out, &fakeCatalog{err: catalog.ErrUpstream}, catalog.NewImages(""), time.Millisecond, 2*time.Second)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Something went wrong")
}
