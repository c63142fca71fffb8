package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/pkg/models"
)

// ProgressStore is the persistence contract the coordinator runs against.
// Implemented by database.ProgressRepository; tests substitute an in-memory
// fake.
type ProgressStore interface {
	GetByUserAndCard(ctx context.Context, userID, flashcardID int64) (*models.ReviewProgress, error)
	InsertIfAbsent(ctx context.Context, progress *models.ReviewProgress) error
	UpdateVersioned(ctx context.Context, progress *models.ReviewProgress) error
	Due(ctx context.Context, userID int64, scope []int64, asOf time.Time, limit int) ([]models.ReviewProgress, error)
	RecordedIDs(ctx context.Context, userID int64, scope []int64) ([]int64, error)
	Statistics(ctx context.Context, userID int64, asOf time.Time) (*database.ProgressStatistics, error)
}

// LogStore records applied outcomes for reporting
type LogStore interface {
	Create(ctx context.Context, entry *models.ReviewLog) error
	RecentByUser(ctx context.Context, userID int64, limit int) ([]models.ReviewLog, error)
}

// How many times a submission reloads and replays the policy after losing a
// write race before giving up with ErrContention.
const defaultMaxAttempts = 3

// Service coordinates outcome submissions and due-queue reads. All mutation
// of scheduling state goes through SubmitOutcome; the policy itself stays
// pure and the store writes are the only suspension points.
type Service struct {
	store       ProgressStore
	logs        LogStore
	policy      *spaced_repetition.SM2
	maxAttempts int
	logger      *zap.Logger
}

// NewService creates a coordinator over the given stores
func NewService(store ProgressStore, logs LogStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		logs:        logs,
		policy:      spaced_repetition.New(),
		maxAttempts: defaultMaxAttempts,
		logger:      logger,
	}
}

// NewDefaultService wires the coordinator to the package-level database
func NewDefaultService(logger *zap.Logger) *Service {
	return NewService(database.NewProgressRepository(), database.NewReviewLogRepository(), logger)
}

// SubmitOutcome records one review outcome for (userID, flashcardID) at the
// given instant and returns the persisted record. The record is created
// lazily on first submission. Racing submissions for the same pair are
// serialized: the loser reloads the winner's result and reapplies the policy
// on top of it, never overwriting it.
func (s *Service) SubmitOutcome(ctx context.Context, userID, flashcardID int64, outcome spaced_repetition.Outcome, now time.Time) (*models.ReviewProgress, error) {
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOutcome, outcome)
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		current, err := s.store.GetByUserAndCard(ctx, userID, flashcardID)
		creating := false
		if errors.Is(err, database.ErrNotFound) {
			fresh := models.NewReviewProgress(userID, flashcardID)
			current = &fresh
			creating = true
		} else if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		next := s.policy.Apply(*current, outcome, now)

		if creating {
			err = s.store.InsertIfAbsent(ctx, &next)
			if errors.Is(err, database.ErrDuplicateKey) {
				// Lost the creation race; the next attempt loads the
				// winner's record as its base.
				s.logger.Debug("creation race lost, retrying",
					zap.Int64("user_id", userID),
					zap.Int64("flashcard_id", flashcardID))
				continue
			}
		} else {
			err = s.store.UpdateVersioned(ctx, &next)
			if errors.Is(err, database.ErrVersionConflict) {
				s.logger.Debug("version conflict, retrying",
					zap.Int64("user_id", userID),
					zap.Int64("flashcard_id", flashcardID),
					zap.Int64("version", current.Version))
				continue
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		s.appendLog(ctx, &next, outcome, now)
		return &next, nil
	}

	s.logger.Warn("submission retries exhausted",
		zap.Int64("user_id", userID),
		zap.Int64("flashcard_id", flashcardID),
		zap.Int("attempts", s.maxAttempts))
	return nil, ErrContention
}

// appendLog writes the review log entry for a committed submission. The
// progress row is the source of truth; a failed log write is reported but
// does not fail the submission.
func (s *Service) appendLog(ctx context.Context, progress *models.ReviewProgress, outcome spaced_repetition.Outcome, now time.Time) {
	if s.logs == nil {
		return
	}
	entry := &models.ReviewLog{
		UserID:      progress.UserID,
		FlashcardID: progress.FlashcardID,
		Outcome:     int(outcome),
		Lapse:       s.policy.IsLapse(outcome),
		Interval:    progress.Interval,
		EaseFactor:  progress.EaseFactor,
		Status:      progress.Status,
		ReviewedAt:  now,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Warn("review log write failed",
			zap.Int64("user_id", progress.UserID),
			zap.Int64("flashcard_id", progress.FlashcardID),
			zap.Error(err))
	}
}

// GetProgress returns the record for one pair, or ErrNotFound
func (s *Service) GetProgress(ctx context.Context, userID, flashcardID int64) (*models.ReviewProgress, error) {
	progress, err := s.store.GetByUserAndCard(ctx, userID, flashcardID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return progress, nil
}

// DueCards returns up to limit flashcard ids due for the user at asOf, most
// overdue first. Ids in scope with no progress record yet are treated as
// maximally overdue and surface before everything else, ascending by id. An
// empty scope means "only cards with records", since without a scope the
// content collaborator has not told us which unseen cards exist.
func (s *Service) DueCards(ctx context.Context, userID int64, scope []int64, asOf time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, nil
	}

	var ids []int64

	if len(scope) > 0 {
		recorded, err := s.store.RecordedIDs(ctx, userID, scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		seen := make(map[int64]bool, len(recorded))
		for _, id := range recorded {
			seen[id] = true
		}
		unseen := make([]int64, 0, len(scope))
		dedup := make(map[int64]bool, len(scope))
		for _, id := range scope {
			if !seen[id] && !dedup[id] {
				unseen = append(unseen, id)
				dedup[id] = true
			}
		}
		sort.Slice(unseen, func(i, j int) bool { return unseen[i] < unseen[j] })
		ids = append(ids, unseen...)
	}

	if len(ids) < limit {
		due, err := s.store.Due(ctx, userID, scope, asOf, limit-len(ids))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		for _, p := range due {
			ids = append(ids, p.FlashcardID)
		}
	}

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// History returns the user's most recent applied outcomes, newest first
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]models.ReviewLog, error) {
	if s.logs == nil {
		return nil, nil
	}
	entries, err := s.logs.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return entries, nil
}

// Statistics returns the user's aggregate progress as of the given instant
func (s *Service) Statistics(ctx context.Context, userID int64, asOf time.Time) (*database.ProgressStatistics, error) {
	stats, err := s.store.Statistics(ctx, userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return stats, nil
}
