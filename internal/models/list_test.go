package models

import (
	"strings"
	"testing"
)

func TestListValidation_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		list    List
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty name should fail",
			list:    List{Name: ""},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name:    "whitespace name should fail",
			list:    List{Name: "   "},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name:    "too long name should fail",
			list:    List{Name: strings.Repeat("a", MaxListNameLength+1)},
			wantErr: true,
			errMsg:  "name must be 60 characters or fewer",
		},
		{
			name:    "valid name should pass",
			list:    List{Name: "Best of 2024"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.list.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				} else if err.Error() != tt.errMsg {
					t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestListValidation_ColorAndFilters(t *testing.T) {
	tests := []struct {
		name    string
		list    List
		wantErr bool
	}{
		{"empty color is allowed", List{Name: "A"}, false},
		{"hex color is allowed", List{Name: "A", Color: "#FF8800"}, false},
		{"named color is rejected", List{Name: "A", Color: "orange"}, true},
		{"short hex is rejected", List{Name: "A", Color: "#f80"}, true},
		{"rating above ten is rejected", List{Name: "A", Filters: ListFilters{MinRating: 11}}, true},
		{"rating within range is allowed", List{Name: "A", Filters: ListFilters{MinRating: 7.5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.list.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("expected a ValidationError, got %T", err)
			}
		})
	}
}

func TestListFilters_ValueScanRoundTrip(t *testing.T) {
	in := ListFilters{GenreIDs: []int{18, 35}, Year: 1999, MinRating: 6.5}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}

	var out ListFilters
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if out.Year != 1999 || out.MinRating != 6.5 || len(out.GenreIDs) != 2 {
		t.Errorf("unexpected filters after scan: %+v", out)
	}
}

func TestListFilters_ScanEmpty(t *testing.T) {
	f := ListFilters{Year: 2000}
	if err := f.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if f.Year != 0 {
		t.Errorf("expected zero filters, got %+v", f)
	}
	if err := f.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}
