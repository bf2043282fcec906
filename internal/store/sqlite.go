package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"movierank/internal/models"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore implements the Store interface on SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database of the given type and runs migrations.
func Open(dbType, dsn string) (*SQLStore, error) {
	switch Dialect(strings.ToLower(dbType)) {
	case DialectSQLite, "sqlite3", "":
		return NewSQLiteStore(dsn)
	case DialectPostgres, "postgresql":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)
	return newSQLStore(db, DialectSQLite)
}

// NewPostgresStore creates a new PostgreSQL store from a connection string.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return newSQLStore(db, DialectPostgres)
}

func newSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	store := &SQLStore{db: db, dialect: dialect}
	if err := runMigrations(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Dialect reports the backend in use.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// q rewrites ? placeholders for the active dialect.
func (s *SQLStore) q(query string) string {
	return rebind(s.dialect, query)
}

func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func now() time.Time {
	return time.Now().UTC()
}

// CreateList creates a new list.
func (s *SQLStore) CreateList(ctx context.Context, list *models.List) error {
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO lists (id, name, user_id, color, filters, is_pinned, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), list.ID, list.Name, list.UserID, list.Color, list.Filters, list.IsPinned, list.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("list %s: %w", list.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

const listColumns = `id, name, user_id, color, filters, is_pinned, created_at`

func scanList(row interface{ Scan(...any) error }, list *models.List) error {
	return row.Scan(
		&list.ID,
		&list.Name,
		&list.UserID,
		&list.Color,
		&list.Filters,
		&list.IsPinned,
		&list.CreatedAt,
	)
}

// GetList retrieves a list owned by userID.
func (s *SQLStore) GetList(ctx context.Context, userID, id string) (*models.List, error) {
	list := &models.List{}
	err := scanList(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+listColumns+`
		FROM lists WHERE id = ? AND user_id = ?
	`), id, userID), list)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

// ListLists retrieves a user's lists, pinned first, then newest first.
func (s *SQLStore) ListLists(ctx context.Context, userID string) ([]models.List, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+listColumns+`
		FROM lists WHERE user_id = ?
		ORDER BY is_pinned DESC, created_at DESC, id ASC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists := []models.List{}
	for rows.Next() {
		var list models.List
		if err := scanList(rows, &list); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// UpdateList updates the mutable fields of a list.
func (s *SQLStore) UpdateList(ctx context.Context, list *models.List) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE lists
		SET name = ?, color = ?, filters = ?, is_pinned = ?
		WHERE id = ? AND user_id = ?
	`), list.Name, list.Color, list.Filters, list.IsPinned, list.ID, list.UserID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	return expectOne(res, "list", list.ID)
}

// DeleteList deletes a list and its movies.
func (s *SQLStore) DeleteList(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM lists WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return expectOne(res, "list", id)
}

// AddMovie appends a movie at the end of its list. The rank is assigned
// inside the transaction.
func (s *SQLStore) AddMovie(ctx context.Context, movie *models.Movie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM movies WHERE list_id = ?`), movie.ListID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count movies: %w", err)
	}
	movie.Rank = count + 1

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO movies (id, list_id, title, rank, image_url, notes, tmdb_id, release_date, vote_average, backdrop_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), movie.ID, movie.ListID, movie.Title, movie.Rank, movie.ImagePath, movie.Notes,
		movie.TMDBID, movie.ReleaseDate, movie.VoteAverage, movie.BackdropPath)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movie %s: %w", movie.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}

	return tx.Commit()
}

const movieColumns = `id, list_id, title, rank, image_url, notes, tmdb_id, release_date, vote_average, backdrop_url`

func scanMovie(row interface{ Scan(...any) error }, m *models.Movie) error {
	return row.Scan(
		&m.ID,
		&m.ListID,
		&m.Title,
		&m.Rank,
		&m.ImagePath,
		&m.Notes,
		&m.TMDBID,
		&m.ReleaseDate,
		&m.VoteAverage,
		&m.BackdropPath,
	)
}

// GetMovie retrieves a movie by id within a list.
func (s *SQLStore) GetMovie(ctx context.Context, listID, id string) (*models.Movie, error) {
	m := &models.Movie{}
	err := scanMovie(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+movieColumns+` FROM movies WHERE id = ? AND list_id = ?
	`), id, listID), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return m, nil
}

// ListMovies retrieves a list's movies ordered by rank.
func (s *SQLStore) ListMovies(ctx context.Context, listID string) ([]models.Movie, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+movieColumns+`
		FROM movies WHERE list_id = ? ORDER BY rank ASC, id ASC
	`), listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		var m models.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// UpdateMovieNotes replaces the notes on a movie.
func (s *SQLStore) UpdateMovieNotes(ctx context.Context, listID, id, notes string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE movies SET notes = ? WHERE id = ? AND list_id = ?`), notes, id, listID)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}
	return expectOne(res, "movie", id)
}

// DeleteMovie removes a movie and renumbers the survivors so ranks stay
// contiguous.
func (s *SQLStore) DeleteMovie(ctx context.Context, listID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM movies WHERE id = ? AND list_id = ?`), id, listID)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	if err := expectOne(res, "movie", id); err != nil {
		return err
	}

	ids, err := s.movieIDsTx(ctx, tx, listID)
	if err != nil {
		return err
	}
	if err := s.writeRanksTx(ctx, tx, listID, ids); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceRanks rewrites rank = position + 1 for the given ids. The ids must
// be exactly the movies of the list.
func (s *SQLStore) ReplaceRanks(ctx context.Context, listID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.movieIDsTx(ctx, tx, listID)
	if err != nil {
		return err
	}
	if !sameSet(current, ids) {
		return fmt.Errorf("list %s: %w", listID, ErrRankMismatch)
	}
	if err := s.writeRanksTx(ctx, tx, listID, ids); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLStore) movieIDsTx(ctx context.Context, tx *sql.Tx, listID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, s.q(`SELECT id FROM movies WHERE list_id = ? ORDER BY rank ASC, id ASC`), listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movie ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan movie id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) writeRanksTx(ctx context.Context, tx *sql.Tx, listID string, ids []string) error {
	stmt, err := tx.PrepareContext(ctx, s.q(`UPDATE movies SET rank = ? WHERE id = ? AND list_id = ?`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i+1, id, listID); err != nil {
			return fmt.Errorf("failed to update rank: %w", err)
		}
	}
	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
