package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recall/pkg/models"
)

func logEntry(userID, flashcardID int64, outcome int, lapse bool, reviewedAt time.Time) *models.ReviewLog {
	return &models.ReviewLog{
		UserID:      userID,
		FlashcardID: flashcardID,
		Outcome:     outcome,
		Lapse:       lapse,
		Interval:    1,
		EaseFactor:  2.5,
		Status:      models.StatusLearning,
		ReviewedAt:  reviewedAt,
	}
}

func TestReviewLogRecentByUser(t *testing.T) {
	setupTestDB(t)
	repo := NewReviewLogRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, logEntry(1, 10, 5, false, testNow.Add(-2*time.Hour))))
	require.NoError(t, repo.Create(ctx, logEntry(1, 11, 1, true, testNow.Add(-1*time.Hour))))
	require.NoError(t, repo.Create(ctx, logEntry(2, 10, 4, false, testNow)))

	entries, err := repo.RecentByUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(11), entries[0].FlashcardID, "newest first")
	assert.True(t, entries[0].Lapse)
	assert.Equal(t, int64(10), entries[1].FlashcardID)

	entries, err = repo.RecentByUser(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(11), entries[0].FlashcardID)
}

func TestReviewLogAccuracyByPeriod(t *testing.T) {
	setupTestDB(t)
	repo := NewReviewLogRepository()
	ctx := context.Background()

	start := testNow.Add(-24 * time.Hour)
	require.NoError(t, repo.Create(ctx, logEntry(1, 10, 5, false, testNow.Add(-3*time.Hour))))
	require.NoError(t, repo.Create(ctx, logEntry(1, 11, 4, false, testNow.Add(-2*time.Hour))))
	require.NoError(t, repo.Create(ctx, logEntry(1, 12, 0, true, testNow.Add(-1*time.Hour))))
	// Outside the period
	require.NoError(t, repo.Create(ctx, logEntry(1, 13, 0, true, testNow.Add(-48*time.Hour))))

	total, accuracy, err := repo.AccuracyByPeriod(ctx, 1, start, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.InDelta(t, 2.0/3.0, accuracy, 1e-9)

	total, accuracy, err = repo.AccuracyByPeriod(ctx, 2, start, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0.0, accuracy)
}
