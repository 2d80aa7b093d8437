package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/amts/internal/models"
	"github.com/desertthunder/amts/internal/shared"
)

// ProfileRepository persists taste profiles, one row per user.
//
// Writes are atomic full replaces: a single upsert statement, so readers never
// observe a partially written record. Concurrent syncs for the same user
// serialize on the row and the last write wins.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Put creates or fully replaces the profile for profile.UserID.
func (r *ProfileRepository) Put(profile *models.TasteProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	embedding, err := json.Marshal(profile.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	summary, err := json.Marshal(profile.TopSummary)
	if err != nil {
		return fmt.Errorf("failed to encode top summary: %w", err)
	}

	if profile.LastSyncedAt.IsZero() {
		profile.LastSyncedAt = time.Now()
	}

	query := `
		INSERT INTO taste_profiles (user_id, storefront, embedding, top_summary, songs_processed, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			storefront = excluded.storefront,
			embedding = excluded.embedding,
			top_summary = excluded.top_summary,
			songs_processed = excluded.songs_processed,
			last_synced_at = excluded.last_synced_at
	`

	_, err = r.db.Exec(query, profile.UserID, profile.Storefront,
		string(embedding), string(summary), profile.SongsProcessed, profile.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	return nil
}

// Get retrieves the profile for a user id.
func (r *ProfileRepository) Get(userID string) (*models.TasteProfile, error) {
	query := `
		SELECT user_id, storefront, embedding, top_summary, songs_processed, last_synced_at
		FROM taste_profiles
		WHERE user_id = ?
	`

	profile, err := scanProfile(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	return profile, nil
}

// ScanAll returns every stored profile except excludeUserID, ordered by user
// id for determinism. Each call re-reads current state; there is no cursor
// carried between calls.
func (r *ProfileRepository) ScanAll(excludeUserID string) ([]*models.TasteProfile, error) {
	query := `
		SELECT user_id, storefront, embedding, top_summary, songs_processed, last_synced_at
		FROM taste_profiles
		WHERE user_id != ?
		ORDER BY user_id ASC
	`

	rows, err := r.db.Query(query, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.TasteProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return profiles, nil
}

// Delete removes a profile. Deletion is an explicit external operation; syncs
// only ever replace.
func (r *ProfileRepository) Delete(userID string) error {
	result, err := r.db.Exec("DELETE FROM taste_profiles WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrProfileNotFound, userID)
	}

	return nil
}

// scanProfile reads one taste_profiles row, decoding the JSON columns.
func scanProfile(row interface{ Scan(...any) error }) (*models.TasteProfile, error) {
	var (
		userID     string
		storefront string
		embedding  string
		summary    string
		songs      int
		syncedAt   time.Time
	)

	if err := row.Scan(&userID, &storefront, &embedding, &summary, &songs, &syncedAt); err != nil {
		return nil, err
	}

	profile := &models.TasteProfile{
		UserID:         userID,
		Storefront:     storefront,
		SongsProcessed: songs,
		LastSyncedAt:   syncedAt,
	}

	if err := json.Unmarshal([]byte(embedding), &profile.Embedding); err != nil {
		return nil, fmt.Errorf("failed to decode embedding for %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(summary), &profile.TopSummary); err != nil {
		return nil, fmt.Errorf("failed to decode top summary for %s: %w", userID, err)
	}

	return profile, nil
}
