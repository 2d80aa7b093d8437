package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
)

// UserRepository implements [models.Repository] for [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, sequence, apple_music_user_id, display_name, storefront, user_token, last_login, created_at, updated_at, deleted_at`

// scanUser reads one user row into a model.
func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		id        string
		sequence  int
		musicID   string
		name      string
		store     string
		token     sql.NullString
		lastLogin sql.NullTime
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &musicID, &name, &store, &token, &lastLogin, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	user := models.NewUser(sequence, musicID, name, store)
	user.SetID(id)
	user.SetUpdatedAt(updatedAt)
	if token.Valid {
		user.SetUserToken(token.String)
	}
	if lastLogin.Valid {
		user.SetLastLogin(&lastLogin.Time)
	}
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	user.SetID(id)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (id, sequence, apple_music_user_id, display_name, storefront, user_token, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, user.AppleMusicUserID(), user.DisplayName(), user.Storefront(),
		nullString(user.UserToken()), nullTime(user.LastLogin()), user.CreatedAt(), user.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ? AND deleted_at IS NULL`, userColumns)

	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// GetByMusicID retrieves a user by their Apple Music user id.
func (r *UserRepository) GetByMusicID(musicID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE apple_music_user_id = ? AND deleted_at IS NULL`, userColumns)

	user, err := scanUser(r.db.QueryRow(query, musicID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, musicID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// Update modifies an existing user in the database
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `
		UPDATE users
		SET display_name = ?, storefront = ?, user_token = ?, last_login = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, user.DisplayName(), user.Storefront(),
		nullString(user.UserToken()), nullTime(user.LastLogin()), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrUserNotFound, user.ID())
	}

	return nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrUserNotFound, id)
	}

	return nil
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE deleted_at IS NULL`, userColumns)

	args := []any{}

	if storefront, ok := criteria["storefront"].(string); ok && storefront != "" {
		query += " AND storefront = ?"
		args = append(args, storefront)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
