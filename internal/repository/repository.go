package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mdhub/note-service/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO notes.users (email, username, displayname, password_hash, delete_token, delete_token_set_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, user.Email, user.Username, user.DisplayName, user.PasswordHash, user.DeleteToken, user.DeleteTokenSetAt).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByID retrieves a user by primary key
func (r *Repository) FindUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, username, displayname, password_hash, delete_token, delete_token_set_at, created_at, updated_at
		FROM notes.users
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&user.ID, &user.Email, &user.Username, &user.DisplayName, &user.PasswordHash,
			&user.DeleteToken, &user.DeleteTokenSetAt, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, username, displayname, password_hash, delete_token, delete_token_set_at, created_at, updated_at
		FROM notes.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Email, &user.Username, &user.DisplayName, &user.PasswordHash,
			&user.DeleteToken, &user.DeleteTokenSetAt, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUser persists the mutable account fields of a user
func (r *Repository) UpdateUser(user *models.User) error {
	query := `
		UPDATE notes.users
		SET email = $2, username = $3, displayname = $4, password_hash = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRow(query, user.ID, user.Email, user.Username, user.DisplayName, user.PasswordHash).
		Scan(&user.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// SetDeleteToken replaces a user's one-time delete token
func (r *Repository) SetDeleteToken(userID int64, token string, setAt time.Time) error {
	query := `
		UPDATE notes.users
		SET delete_token = $2, delete_token_set_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	result, err := r.db.Exec(query, userID, token, setAt)
	if err != nil {
		return fmt.Errorf("failed to set delete token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set delete token: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser destroys a user record and the notes it owns
func (r *Repository) DeleteUser(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM notes.notes WHERE owner_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user notes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes.users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// FindNotesByOwner retrieves all notes owned by a user
func (r *Repository) FindNotesByOwner(ownerID int64) ([]*models.Note, error) {
	query := `
		SELECT id, owner_id, title, content, lastchange_at
		FROM notes.notes
		WHERE owner_id = $1`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note := &models.Note{}
		if err := rows.Scan(&note.ID, &note.OwnerID, &note.Title, &note.Content, &note.LastchangeAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}
	return notes, nil
}

// StaleDeleteTokenUsers lists users whose delete token was issued before the cutoff
func (r *Repository) StaleDeleteTokenUsers(cutoff time.Time) ([]int64, error) {
	query := `
		SELECT id
		FROM notes.users
		WHERE delete_token_set_at < $1`
	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale delete tokens: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user ids: %w", err)
	}
	return ids, nil
}
