package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type signupForm struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

type titleForm struct {
	Year   *int     `json:"year" validate:"omitempty,notfutureyear"`
	Genres []string `json:"genre" validate:"omitempty,min=1,dive,slug"`
	Limit  int      `schema:"limit" validate:"omitempty,max=100"`
}

func TestValidateStruct_Valid(t *testing.T) {
	v := New()
	year := 1999
	assert.Empty(t, ValidateStruct(v, signupForm{Username: "kris.k@+-_", Email: "kris@example.com"}))
	assert.Empty(t, ValidateStruct(v, &titleForm{Year: &year, Genres: []string{"drama", "sci-fi"}}))
}

func TestValidateStruct_Username(t *testing.T) {
	v := New()
	errs := ValidateStruct(v, signupForm{Username: "me", Email: "me@example.com"})
	assert.Contains(t, errs["username"], "reserved")

	errs = ValidateStruct(v, signupForm{Username: "bad name!", Email: "x@example.com"})
	assert.Contains(t, errs["username"], " !")
}

func TestValidateStruct_Fields(t *testing.T) {
	v := New()
	future := time.Now().Year() + 1
	errs := ValidateStruct(v, titleForm{Year: &future, Genres: []string{"no spaces"}, Limit: 500})
	assert.Contains(t, errs, "year")
	assert.Contains(t, errs, "genre")
	assert.Equal(t, "The maximum value is 100", errs["limit"])

	errs = ValidateStruct(v, signupForm{})
	assert.Equal(t, "This field is required", errs["username"])
	assert.Equal(t, "This field is required", errs["email"])
}

func TestCamelToSnake(t *testing.T) {
	assert.Equal(t, "confirmation_code", camelToSnake("ConfirmationCode"))
	assert.Equal(t, "id", camelToSnake("id"))
}
