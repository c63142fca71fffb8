package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// StudySettings holds a user's scheduler preferences
type StudySettings struct {
	UserID          int64        `db:"user_id"`
	CardsPerSession int          `db:"cards_per_session"`
	DigestHour      int          `db:"digest_hour"`
	DigestEnabled   bool         `db:"digest_enabled"`
	CreatedAt       sql.NullTime `db:"created_at"`
	UpdatedAt       sql.NullTime `db:"updated_at"`
}

// DefaultStudySettings returns the settings used when a user has no row
func DefaultStudySettings(userID int64) *StudySettings {
	return &StudySettings{
		UserID:          userID,
		CardsPerSession: 20,
		DigestHour:      9,
		DigestEnabled:   true,
	}
}

// SettingsRepository handles database operations for study settings
type SettingsRepository struct{}

// NewSettingsRepository creates a new repository instance
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

// Get returns the user's settings, falling back to defaults when the user
// has never saved any.
func (r *SettingsRepository) Get(ctx context.Context, userID int64) (*StudySettings, error) {
	var settings StudySettings
	query := DB.Rebind("SELECT * FROM study_settings WHERE user_id = ?")
	err := DB.GetContext(ctx, &settings, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultStudySettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study settings: %w", err)
	}
	return &settings, nil
}

// Save inserts or replaces the user's settings
func (r *SettingsRepository) Save(ctx context.Context, settings *StudySettings) error {
	query := `
		INSERT INTO study_settings (user_id, cards_per_session, digest_hour, digest_enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			cards_per_session = EXCLUDED.cards_per_session,
			digest_hour = EXCLUDED.digest_hour,
			digest_enabled = EXCLUDED.digest_enabled,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := DB.ExecContext(ctx, DB.Rebind(query),
		settings.UserID,
		settings.CardsPerSession,
		settings.DigestHour,
		settings.DigestEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to save study settings: %w", err)
	}
	return nil
}

// DigestRecipients filters the given users down to those whose digest is
// enabled and scheduled for the given hour. Users without a settings row get
// the defaults.
func (r *SettingsRepository) DigestRecipients(ctx context.Context, userIDs []int64, hour int) ([]*StudySettings, error) {
	var out []*StudySettings
	for _, id := range userIDs {
		settings, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if settings.DigestEnabled && settings.DigestHour == hour {
			out = append(out, settings)
		}
	}
	return out, nil
}
