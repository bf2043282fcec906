package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxListNameLength bounds the display name of a list.
const MaxListNameLength = 60

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// List is a user-owned, ranked collection of movies.
//
// The lists.name column holds the list title.
type List struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Color     string      `json:"color,omitempty"`
	Filters   ListFilters `json:"filters"`
	IsPinned  bool        `json:"is_pinned"`
	CreatedAt time.Time   `json:"created_at"`

	// Items holds the ranked movies for this list (populated by queries)
	Items []Movie `json:"items,omitempty"`
}

// ListFilters are the catalog filters a list was created with. They are
// persisted as a JSON document in lists.filters.
type ListFilters struct {
	GenreIDs  []int   `json:"genre_ids,omitempty"`
	Year      int     `json:"year,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
}

// Value implements driver.Valuer.
func (f ListFilters) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (f *ListFilters) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*f = ListFilters{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported filters type %T", src)
	}
	if len(b) == 0 {
		*f = ListFilters{}
		return nil
	}
	return json.Unmarshal(b, f)
}

// Validate checks that the list has valid field values.
func (l *List) Validate() error {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return invalid("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxListNameLength {
		return invalid("name", fmt.Sprintf("name must be %d characters or fewer", MaxListNameLength))
	}
	if l.Color != "" && !colorPattern.MatchString(l.Color) {
		return invalid("color", "color must be a hex value like #ff8800")
	}
	if l.Filters.MinRating < 0 || l.Filters.MinRating > 10 {
		return invalid("filters", "min_rating must be between 0 and 10")
	}
	return nil
}

// Len returns the number of ranked items loaded on the list.
func (l *List) Len() int {
	return len(l.Items)
}
