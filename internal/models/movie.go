package models

import (
	"strings"
	"unicode/utf8"
)

// MaxNotesLength bounds the free-form notes a user keeps on a ranked movie.
const MaxNotesLength = 500

// Movie is a single ranked entry within a list.
//
// ImagePath and BackdropPath hold catalog-relative paths ("/abc.jpg"); they
// are resolved to absolute CDN URLs only when rendered.
type Movie struct {
	ID           string  `json:"id"`
	ListID       string  `json:"list_id"`
	Title        string  `json:"title"`
	Rank         int     `json:"rank"`
	ImagePath    string  `json:"image_path,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	TMDBID       int64   `json:"tmdb_id"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
}

// Validate checks that the movie has valid field values.
func (m *Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return invalid("title", "title is required")
	}

	if m.ListID == "" {
		return invalid("list_id", "list_id is required")
	}

	if m.Rank < 0 {
		return invalid("rank", "rank must be positive")
	}

	return ValidateNotes(m.Notes)
}

// ValidateNotes checks the length of the notes kept on a ranked movie.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return invalid("notes", "notes must be 500 characters or fewer")
	}
	return nil
}

// GetRank returns the 1-based position of the movie in its list.
func (m *Movie) GetRank() int { return m.Rank }

// SetRank overwrites the 1-based position of the movie in its list.
func (m *Movie) SetRank(rank int) { m.Rank = rank }

// Year returns the release year, or "" if the release date is unknown.
func (m *Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}
