package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PodiumSize is the number of places on a user's podium.
const PodiumSize = 3

// PodiumEntry is one of a user's top-3 highlighted movies. It is keyed by
// (UserID, Rank) and is independent of any list's internal ranking.
type PodiumEntry struct {
	UserID string      `json:"user_id"`
	Rank   int         `json:"rank"`
	TMDBID int64       `json:"tmdb_id"`
	Movie  PodiumMovie `json:"movie_data"`
}

// PodiumMovie is the denormalized catalog snapshot kept in podium.movie_data.
type PodiumMovie struct {
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
}

// Value implements driver.Valuer.
func (m PodiumMovie) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *PodiumMovie) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = PodiumMovie{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), m)
	case []byte:
		return json.Unmarshal(v, m)
	default:
		return fmt.Errorf("unsupported movie_data type %T", src)
	}
}

// Validate checks the podium place and movie reference.
func (p *PodiumEntry) Validate() error {
	if p.Rank < 1 || p.Rank > PodiumSize {
		return invalid("rank", "podium rank must be between 1 and 3")
	}
	if p.TMDBID <= 0 {
		return invalid("tmdb_id", "tmdb_id is required")
	}
	if strings.TrimSpace(p.Movie.Title) == "" {
		return invalid("movie_data", "movie title is required")
	}
	return nil
}
