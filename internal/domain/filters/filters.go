package filters

import (
	"errors"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"

	DefaultLimit = 20
	MaxLimit     = 100
)

// Filters describes limit/offset pagination plus an optional sort column
// restricted to SortSafelist.
type Filters struct {
	Limit        int      `schema:"limit" validate:"omitempty,min=1,max=100"`
	Offset       int      `schema:"offset" validate:"omitempty,min=0"`
	Sort         string   `schema:"sort"`
	SortSafelist []string `schema:"-"`
}

// SortValid reports whether Sort is empty or names a safelisted column.
func (f *Filters) SortValid() bool {
	if f.Sort == "" {
		return true
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return true
		}
	}
	return false
}

func (f *Filters) SortColumn() string {
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return safeValue
		}
	}
	panic(errors.New("Unknown sort column: " + f.Sort))
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}

func (f *Filters) GetLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	if f.Limit > MaxLimit {
		return MaxLimit
	}
	return f.Limit
}

func (f *Filters) GetOffset() int {
	if f.Offset < 0 {
		return 0
	}
	return f.Offset
}

// Window applies the pagination to an already materialised slice length and
// returns the [lo, hi) bounds of the page.
func (f *Filters) Window(total int) (lo, hi int) {
	lo = min(f.GetOffset(), total)
	hi = min(lo+f.GetLimit(), total)
	return lo, hi
}

type Metadata struct {
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func NewMetadata(f Filters, count int) Metadata {
	return Metadata{Count: count, Limit: f.GetLimit(), Offset: f.GetOffset()}
}

// TitleFilter holds the optional, combinable filters of the title listing.
type TitleFilter struct {
	Name     string `schema:"name"`     // case-insensitive prefix of the title name
	Category string `schema:"category"` // case-insensitive exact category slug
	Genre    string `schema:"genre"`    // substring of a genre slug
	Year     *int   `schema:"year"`     // exact release year
}

// Search is the name based search of the category, genre and user listings.
type Search struct {
	Query string `schema:"search"`
}
