package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"willr/internal/models"
)

// Validation errors, shown inline on the originating form.
var (
	ErrUsernameRequired = errors.New("Username is required")
	ErrPasswordRequired = errors.New("Password is required")
	ErrTitleRequired    = errors.New("Title is required")
)

// Terminal request faults.
var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidPassword = errors.New("Incorrect password")
)

// UsernameTakenError reports a registration attempt with a username
// that already exists.
type UsernameTakenError struct {
	Username string
}

func (e *UsernameTakenError) Error() string {
	return fmt.Sprintf("Username '%s' is already registered", e.Username)
}

// UserNotFoundError reports a login attempt for an unknown username.
type UserNotFoundError struct {
	Username string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("User '%s' not found", e.Username)
}

// PostNotFoundError reports a lookup of a post id that does not exist.
type PostNotFoundError struct {
	ID int64
}

func (e *PostNotFoundError) Error() string {
	return fmt.Sprintf("Post with ID %d does not exist.", e.ID)
}

// Store owns all SQL against the blog database.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateUser inserts a new user with an already-hashed password. A
// UNIQUE violation on username comes back as *UsernameTakenError.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user(username, password) VALUES(?, ?)`, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &UsernameTakenError{Username: username}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &models.User{ID: id, Username: username, Password: passwordHash}, nil
}

func (s *Store) UserByName(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM user WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &UserNotFoundError{Username: username}
	} else if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM user WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Password)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListPosts returns every post, newest first, with the author's
// username joined in.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.title, p.body, p.created, p.author_id, u.username
		 FROM post p JOIN user u ON p.author_id = u.id
		 ORDER BY p.created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var created string
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &created, &p.AuthorID, &p.Username); err != nil {
			return nil, err
		}
		p.Created = parseCreated(created)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// PostByID loads a post with its author's username. When
// enforceOwnership is set, a viewer who is not the author gets
// ErrForbidden. This is the shared gate for update and delete.
func (s *Store) PostByID(ctx context.Context, id, viewerID int64, enforceOwnership bool) (*models.Post, error) {
	var p models.Post
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT p.id, p.title, p.body, p.created, p.author_id, u.username
		 FROM post p JOIN user u ON p.author_id = u.id
		 WHERE p.id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Body, &created, &p.AuthorID, &p.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &PostNotFoundError{ID: id}
	} else if err != nil {
		return nil, err
	}
	p.Created = parseCreated(created)
	if enforceOwnership && p.AuthorID != viewerID {
		return nil, ErrForbidden
	}
	return &p, nil
}

// CreatePost inserts a post for the given author and returns its id.
func (s *Store) CreatePost(ctx context.Context, title, body string, authorID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO post(title, body, author_id, created) VALUES(?, ?, ?, ?)`,
		title, body, authorID, now())
	if err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}
	return res.LastInsertId()
}

// UpdatePost overwrites title and body. id, author_id and created are
// never touched.
func (s *Store) UpdatePost(ctx context.Context, id int64, title, body string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE post SET title = ?, body = ? WHERE id = ?`, title, body, id)
	return err
}

// DeletePost removes the row permanently.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM post WHERE id = ?`, id)
	return err
}

// now returns the creation timestamp as a fixed-width RFC 3339 UTC
// string so that ORDER BY created compares chronologically.
func now() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseCreated(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// CURRENT_TIMESTAMP default ("2006-01-02 15:04:05").
		t, _ = time.Parse("2006-01-02 15:04:05", s)
	}
	return t
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
