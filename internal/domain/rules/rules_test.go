package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateYear(t *testing.T) {
	current := time.Now().Year()
	for _, y := range []int{-500, 0, 1895, current - 1, current} {
		got, err := ValidateYear(y)
		require.NoError(t, err, "year %d", y)
		assert.Equal(t, y, got)
	}
	for _, y := range []int{current + 1, current + 100} {
		_, err := ValidateYear(y)
		var rangeErr *OutOfRangeError
		require.ErrorAs(t, err, &rangeErr, "year %d", y)
		assert.Equal(t, "year", rangeErr.Field)
		assert.Equal(t, current, *rangeErr.Max)
	}
}

func TestValidateYear_UsesClock(t *testing.T) {
	defer func(orig func() time.Time) { Now = orig }(Now)
	Now = func() time.Time { return time.Date(2001, time.June, 1, 0, 0, 0, 0, time.UTC) }

	_, err := ValidateYear(2001)
	assert.NoError(t, err)
	_, err = ValidateYear(2002)
	assert.Error(t, err)
}

func TestValidateScore(t *testing.T) {
	for s := MinScore; s <= MaxScore; s++ {
		got, err := ValidateScore(s)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, s := range []int{-1, 0, 11, 100} {
		_, err := ValidateScore(s)
		var rangeErr *OutOfRangeError
		assert.ErrorAs(t, err, &rangeErr, "score %d", s)
	}
}

func TestValidateUsername(t *testing.T) {
	t.Run("reserved", func(t *testing.T) {
		_, err := ValidateUsername("me")
		var reserved *ReservedNameError
		assert.ErrorAs(t, err, &reserved)
	})
	t.Run("reserved is case sensitive", func(t *testing.T) {
		got, err := ValidateUsername("Me")
		assert.NoError(t, err)
		assert.Equal(t, "Me", got)
	})
	t.Run("allowed characters", func(t *testing.T) {
		for _, name := range []string{"john", "john.doe", "j_d@mail+1", "a-b", "ABC123"} {
			got, err := ValidateUsername(name)
			assert.NoError(t, err, name)
			assert.Equal(t, name, got)
		}
	})
	t.Run("forbidden characters are listed once", func(t *testing.T) {
		_, err := ValidateUsername("bad name!!#é")
		var charsErr *InvalidCharsError
		require.ErrorAs(t, err, &charsErr)
		assert.Equal(t, []rune{' ', '!', '#', 'é'}, charsErr.Chars)
		assert.Contains(t, err.Error(), "!")
	})
}

func TestValidateSlug(t *testing.T) {
	_, err := ValidateSlug("sci-fi_2")
	assert.NoError(t, err)
	_, err = ValidateSlug("sci fi")
	assert.Error(t, err)
	_, err = ValidateSlug("")
	assert.Error(t, err)
}
