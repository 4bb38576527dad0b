package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account that can authenticate and author posts. UID is the
// store key; ID is the public sequential number.
type User struct {
	UID          string
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Post struct {
	UID       string
	ID        int64
	Title     string
	Content   string
	AuthorUID string
	Tags      []string
	Comments  []Comment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is embedded in its post and kept in insertion order.
type Comment struct {
	Text      string    `json:"text"`
	AuthorUID string    `json:"author"`
	Date      time.Time `json:"date"`
}

type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

type PostUpdate struct {
	Title   *string
	Content *string
	Tags    []string
}
