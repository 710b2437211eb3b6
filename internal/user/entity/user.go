package entity

import "time"

// User is a row in the `users` table. PasswordHash never leaves the service.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// Author is the public projection embedded in posts and comments.
// Email is only populated for post authors.
type Author struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email,omitempty"`
}

// AsAuthor projects u for embedding in a resource.
func (u *User) AsAuthor() Author {
	return Author{ID: u.ID, Name: u.Name, Email: u.Email}
}
