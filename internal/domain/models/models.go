package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID               int64     `json:"-"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Bio              *string   `json:"bio"`
	Role             Role      `json:"role"`
	IsStaff          bool      `json:"-"` // elevated system flag, grants admin rights
	IsActive         bool      `json:"-"` // set once a token was issued for the confirmation code
	ConfirmationCode *string   `json:"-"` // bcrypt hash of the last issued code
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// AnonymousUser is the actor of every request made without credentials.
var AnonymousUser = &User{}

func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser || u.ID == 0
}

func (u *User) IsAdmin() bool {
	return !u.IsAnonymous() && (u.Role == RoleAdmin || u.IsStaff)
}

func (u *User) IsModerator() bool {
	return !u.IsAnonymous() && u.Role == RoleModerator
}

func (u *User) IsUser() bool {
	return !u.IsAnonymous() && u.Role == RoleUser
}

type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Genre shares the name/slug layout of Category.
type Genre = Category

// Title is the read shape of a title: category and genres are nested objects
// and Rating is computed from the reviews at query time.
type Title struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Rating      *float64  `json:"rating"` // nil when the title has no reviews
	Description string    `json:"description"`
	Genres      []Genre   `json:"genre"`
	Category    *Category `json:"category"`
}

type Review struct {
	ID       int64     `json:"id"`
	TitleID  int64     `json:"-"`
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Score    int       `json:"score"`
	PubDate  time.Time `json:"pub_date"`
}

type Comment struct {
	ID       int64     `json:"id"`
	ReviewID int64     `json:"-"`
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`
}

// AverageScore returns the arithmetic mean of scores or nil for an empty set.
func AverageScore(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	var sum int
	for _, s := range scores {
		sum += s
	}
	avg := float64(sum) / float64(len(scores))
	return &avg
}
