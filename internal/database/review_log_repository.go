package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/recall/pkg/models"
)

// ReviewLogRepository handles database operations for the review log
type ReviewLogRepository struct{}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository() *ReviewLogRepository {
	return &ReviewLogRepository{}
}

// Create appends a log entry for one applied outcome
func (r *ReviewLogRepository) Create(ctx context.Context, entry *models.ReviewLog) error {
	query := `
		INSERT INTO review_log (
			user_id, flashcard_id, outcome, lapse,
			interval, ease_factor, status, reviewed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := DB.ExecContext(ctx, DB.Rebind(query),
		entry.UserID,
		entry.FlashcardID,
		entry.Outcome,
		entry.Lapse,
		entry.Interval,
		entry.EaseFactor,
		entry.Status,
		entry.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review log entry: %w", err)
	}

	// Postgres' lib/pq does not report LastInsertId; the id only matters for
	// local inspection, so a failure here is not an error.
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// RecentByUser returns the user's most recent log entries, newest first
func (r *ReviewLogRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]models.ReviewLog, error) {
	query := `
		SELECT * FROM review_log
		WHERE user_id = ?
		ORDER BY reviewed_at DESC, id DESC
		LIMIT ?
	`
	var entries []models.ReviewLog
	if err := DB.SelectContext(ctx, &entries, DB.Rebind(query), userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get review log: %w", err)
	}
	return entries, nil
}

// AccuracyByPeriod returns total reviews and the success share for a user
// inside [start, end].
func (r *ReviewLogRepository) AccuracyByPeriod(ctx context.Context, userID int64, start, end time.Time) (total int, accuracy float64, err error) {
	query := DB.Rebind(`
		SELECT COUNT(*) FROM review_log
		WHERE user_id = ? AND reviewed_at BETWEEN ? AND ?
	`)
	if err = DB.GetContext(ctx, &total, query, userID, start, end); err != nil {
		return 0, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	if total == 0 {
		return 0, 0, nil
	}

	var lapses int
	query = DB.Rebind(`
		SELECT COUNT(*) FROM review_log
		WHERE user_id = ? AND reviewed_at BETWEEN ? AND ? AND lapse
	`)
	if err = DB.GetContext(ctx, &lapses, query, userID, start, end); err != nil {
		return 0, 0, fmt.Errorf("failed to count lapses: %w", err)
	}

	accuracy = float64(total-lapses) / float64(total)
	return total, accuracy, nil
}
