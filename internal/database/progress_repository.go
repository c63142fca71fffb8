package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/recall/pkg/models"
)

// ProgressRepository handles database operations for review progress records
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// GetByUserAndCard returns the progress record for a specific user and
// flashcard, or ErrNotFound.
func (r *ProgressRepository) GetByUserAndCard(ctx context.Context, userID, flashcardID int64) (*models.ReviewProgress, error) {
	var progress models.ReviewProgress
	query := DB.Rebind("SELECT * FROM review_progress WHERE user_id = ? AND flashcard_id = ?")
	err := DB.GetContext(ctx, &progress, query, userID, flashcardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review progress: %w", err)
	}
	return &progress, nil
}

// InsertIfAbsent creates the record unless one already exists for the pair.
// This is a single conditional write, not check-then-insert: two concurrent
// creations resolve at the primary key, and the loser gets ErrDuplicateKey.
func (r *ProgressRepository) InsertIfAbsent(ctx context.Context, progress *models.ReviewProgress) error {
	query := `
		INSERT INTO review_progress (
			user_id, flashcard_id, status, correct_count, incorrect_count,
			ease_factor, interval, last_reviewed_at, next_review_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (user_id, flashcard_id) DO NOTHING
	`
	result, err := DB.ExecContext(ctx, DB.Rebind(query),
		progress.UserID,
		progress.FlashcardID,
		progress.Status,
		progress.CorrectCount,
		progress.IncorrectCount,
		progress.EaseFactor,
		progress.Interval,
		progress.LastReviewedAt,
		progress.NextReviewAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDuplicateKey
	}

	progress.Version = 1

	// Pick up the timestamps the database assigned
	query = DB.Rebind("SELECT created_at, updated_at FROM review_progress WHERE user_id = ? AND flashcard_id = ?")
	if err := DB.QueryRowContext(ctx, query, progress.UserID, progress.FlashcardID).
		Scan(&progress.CreatedAt, &progress.UpdatedAt); err != nil {
		return fmt.Errorf("failed to read inserted timestamps: %w", err)
	}
	return nil
}

// UpdateVersioned persists a new scheduling state for an existing record,
// but only if nobody else has written since the record was loaded. The
// version in the WHERE clause is the optimistic lock; zero affected rows
// means a concurrent writer won and the caller must reload and reapply.
func (r *ProgressRepository) UpdateVersioned(ctx context.Context, progress *models.ReviewProgress) error {
	query := `
		UPDATE review_progress SET
			status = ?,
			correct_count = ?,
			incorrect_count = ?,
			ease_factor = ?,
			interval = ?,
			last_reviewed_at = ?,
			next_review_at = ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND flashcard_id = ? AND version = ?
	`
	result, err := DB.ExecContext(ctx, DB.Rebind(query),
		progress.Status,
		progress.CorrectCount,
		progress.IncorrectCount,
		progress.EaseFactor,
		progress.Interval,
		progress.LastReviewedAt,
		progress.NextReviewAt,
		progress.UserID,
		progress.FlashcardID,
		progress.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update review progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrVersionConflict
	}

	progress.Version++

	query = DB.Rebind("SELECT updated_at FROM review_progress WHERE user_id = ? AND flashcard_id = ?")
	if err := DB.QueryRowContext(ctx, query, progress.UserID, progress.FlashcardID).
		Scan(&progress.UpdatedAt); err != nil {
		return fmt.Errorf("failed to read updated timestamp: %w", err)
	}
	return nil
}

// Due returns the user's progress records that are due at asOf, most overdue
// first, ties broken by flashcard id. Records with no next_review_at sort to
// the front (a never-reviewed card is always due). An empty scope means no
// flashcard filter.
func (r *ProgressRepository) Due(ctx context.Context, userID int64, scope []int64, asOf time.Time, limit int) ([]models.ReviewProgress, error) {
	query := `
		SELECT * FROM review_progress
		WHERE user_id = ? AND (next_review_at IS NULL OR next_review_at <= ?)
	`
	args := []interface{}{userID, asOf}
	if len(scope) > 0 {
		var err error
		query, args, err = sqlx.In(query+" AND flashcard_id IN (?)", userID, asOf, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to build due query: %w", err)
		}
	}
	// "IS NOT NULL" sorts false before true on both drivers, putting NULL
	// next_review_at rows first.
	query += `
		ORDER BY next_review_at IS NOT NULL, next_review_at ASC, flashcard_id ASC
		LIMIT ?
	`
	args = append(args, limit)

	var progress []models.ReviewProgress
	if err := DB.SelectContext(ctx, &progress, DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get due records: %w", err)
	}
	return progress, nil
}

// RecordedIDs returns which of the given flashcard ids already have a
// progress record for the user, due or not. Used to find never-studied cards
// in a study scope.
func (r *ProgressRepository) RecordedIDs(ctx context.Context, userID int64, scope []int64) ([]int64, error) {
	if len(scope) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		"SELECT flashcard_id FROM review_progress WHERE user_id = ? AND flashcard_id IN (?)",
		userID, scope,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build recorded-ids query: %w", err)
	}
	var ids []int64
	if err := DB.SelectContext(ctx, &ids, DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get recorded ids: %w", err)
	}
	return ids, nil
}

// GetAllByUser returns every progress record for a user, ordered by
// flashcard id. Used by reporting and export.
func (r *ProgressRepository) GetAllByUser(ctx context.Context, userID int64) ([]models.ReviewProgress, error) {
	var progress []models.ReviewProgress
	query := DB.Rebind("SELECT * FROM review_progress WHERE user_id = ? ORDER BY flashcard_id ASC")
	if err := DB.SelectContext(ctx, &progress, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return progress, nil
}

// ProgressStatistics is a per-user aggregate over review progress
type ProgressStatistics struct {
	TotalTracked  int
	DueNow        int
	ByStatus      map[models.Status]int
	AvgEaseFactor float64
}

// Statistics computes the per-user aggregate as of the given instant.
func (r *ProgressRepository) Statistics(ctx context.Context, userID int64, asOf time.Time) (*ProgressStatistics, error) {
	stats := &ProgressStatistics{ByStatus: make(map[models.Status]int)}

	query := DB.Rebind("SELECT COUNT(*) FROM review_progress WHERE user_id = ?")
	if err := DB.GetContext(ctx, &stats.TotalTracked, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	query = DB.Rebind(`
		SELECT COUNT(*) FROM review_progress
		WHERE user_id = ? AND (next_review_at IS NULL OR next_review_at <= ?)
	`)
	if err := DB.GetContext(ctx, &stats.DueNow, query, userID, asOf); err != nil {
		return nil, fmt.Errorf("failed to count due records: %w", err)
	}

	rows, err := DB.QueryContext(ctx,
		DB.Rebind("SELECT status, COUNT(*) FROM review_progress WHERE user_id = ? GROUP BY status"),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status models.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}

	query = DB.Rebind("SELECT COALESCE(AVG(ease_factor), 2.5) FROM review_progress WHERE user_id = ?")
	if err := DB.GetContext(ctx, &stats.AvgEaseFactor, query, userID); err != nil {
		return nil, fmt.Errorf("failed to average ease factor: %w", err)
	}

	return stats, nil
}

// UserDueCount pairs a user with how many of their cards are due
type UserDueCount struct {
	UserID int64 `db:"user_id"`
	Due    int   `db:"due"`
}

// UsersWithDue returns every user that has at least one due card at asOf,
// with their due count. Feeds the digest scheduler.
func (r *ProgressRepository) UsersWithDue(ctx context.Context, asOf time.Time) ([]UserDueCount, error) {
	query := DB.Rebind(`
		SELECT user_id, COUNT(*) AS due
		FROM review_progress
		WHERE next_review_at IS NULL OR next_review_at <= ?
		GROUP BY user_id
		ORDER BY user_id ASC
	`)
	var counts []UserDueCount
	if err := DB.SelectContext(ctx, &counts, query, asOf); err != nil {
		return nil, fmt.Errorf("failed to get users with due cards: %w", err)
	}
	return counts, nil
}
