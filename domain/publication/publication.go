// Package publication provides the publication value type and pure functions.
package publication

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalid marks a publication that fails validation.
var ErrInvalid = errors.New("invalid publication")

// Publication is a named periodical (value type).
type Publication struct {
	ID       int64  `rest:"Id,id"`
	Name     string `rest:"Name"`
	Language string `rest:"Language"` // ISO 639-1, lowercase
	Issues   int64  `rest:"Issues"`
	Archived bool   `rest:"Archived"`
}

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Name     string
	Language string
}

// ValidationError reports the first invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate checks a publication before it is stored.
// This is a PURE function.
func Validate(p Publication) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "Name", Message: "is required"}
	}
	if p.Language != "" && !isLanguageCode(p.Language) {
		return &ValidationError{Field: "Language", Message: "must be a two letter lowercase code"}
	}
	if p.Issues < 0 {
		return &ValidationError{Field: "Issues", Message: "must not be negative"}
	}
	return nil
}

func isLanguageCode(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' && s[1] >= 'a' && s[1] <= 'z'
}

// Matches reports whether p passes the filter. Names match case
// insensitively.
// This is a PURE function.
func Matches(p Publication, f Filter) bool {
	if f.Name != "" && !strings.EqualFold(p.Name, f.Name) {
		return false
	}
	if f.Language != "" && p.Language != f.Language {
		return false
	}
	return true
}

// SortByID orders publications by ascending id in place.
func SortByID(items []Publication) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
