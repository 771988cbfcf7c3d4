package models

import "time"

// User is a row in the user table. Password holds the bcrypt hash,
// never the plaintext.
type User struct {
	ID       int64
	Username string
	Password string
}

// Post is a row in the post table, with the author's username joined
// in for display.
type Post struct {
	ID       int64
	AuthorID int64
	Title    string
	Body     string
	Created  time.Time
	Username string
}
