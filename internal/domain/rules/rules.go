// Package rules holds the pure validation rules shared by request validation,
// the services and the bulk importer.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	ReservedUsername = "me"

	UsernameMaxLength = 150
	EmailMaxLength    = 254
	CodeMaxLength     = 254
	NameMaxLength     = 256
	SlugMaxLength     = 50

	MinScore = 1
	MaxScore = 10
)

var slugRx = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Now is the clock ValidateYear compares against.
var Now = time.Now

type OutOfRangeError struct {
	Field string
	Value int
	Min   *int
	Max   *int
}

func (e *OutOfRangeError) Error() string {
	switch {
	case e.Min != nil && e.Max != nil:
		return fmt.Sprintf("%s %d is out of range [%d, %d]", e.Field, e.Value, *e.Min, *e.Max)
	case e.Max != nil:
		return fmt.Sprintf("%s %d cannot be greater than %d", e.Field, e.Value, *e.Max)
	case e.Min != nil:
		return fmt.Sprintf("%s %d cannot be less than %d", e.Field, e.Value, *e.Min)
	}
	return fmt.Sprintf("%s %d is out of range", e.Field, e.Value)
}

type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("username %q is reserved and cannot be registered", e.Name)
}

type InvalidCharsError struct {
	Chars []rune
}

func (e *InvalidCharsError) Error() string {
	return fmt.Sprintf("username contains forbidden characters: %s", string(e.Chars))
}

// ValidateYear fails when value is later than the current calendar year.
func ValidateYear(value int) (int, error) {
	current := Now().Year()
	if value > current {
		return 0, &OutOfRangeError{Field: "year", Value: value, Max: &current}
	}
	return value, nil
}

// ValidateScore fails when value is outside [MinScore, MaxScore].
func ValidateScore(value int) (int, error) {
	if value < MinScore || value > MaxScore {
		lo, hi := MinScore, MaxScore
		return 0, &OutOfRangeError{Field: "score", Value: value, Min: &lo, Max: &hi}
	}
	return value, nil
}

// ValidateUsername rejects the reserved name and any character outside [A-Za-z0-9_.@+-].
// Offending characters are reported once each, in order of first appearance.
func ValidateUsername(name string) (string, error) {
	if name == ReservedUsername {
		return "", &ReservedNameError{Name: name}
	}
	var bad []rune
	seen := make(map[rune]bool)
	for _, r := range name {
		if isUsernameRune(r) || seen[r] {
			continue
		}
		seen[r] = true
		bad = append(bad, r)
	}
	if len(bad) > 0 {
		return "", &InvalidCharsError{Chars: bad}
	}
	return name, nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("_.@+-", r)
}

func ValidateSlug(slug string) (string, error) {
	if !slugRx.MatchString(slug) {
		return "", fmt.Errorf("slug %q may contain only latin letters, digits, hyphens and underscores", slug)
	}
	return slug, nil
}
