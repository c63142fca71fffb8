package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/recall/internal/database"
)

// Default window outside which no digests are sent
const (
	DefaultDigestStartHour = 8
	DefaultDigestEndHour   = 22
)

// Scheduler periodically finds users with due cards and hands the counts to
// a Notifier. Delivery (bot, email, push) lives outside this module.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	logger    *zap.Logger

	// Digest window, hours in [0,23]
	StartHour int
	EndHour   int
}

// Notifier receives due-card digests
type Notifier interface {
	SendDigest(userID int64, dueCount int) error
}

// New creates a scheduler instance with the default digest window
func New(notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		logger:    logger,
		StartHour: DefaultDigestStartHour,
		EndHour:   DefaultDigestEndHour,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendDigests)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendDigests finds users with due cards whose digest hour matches
// the current hour and notifies them.
func (s *Scheduler) checkAndSendDigests() {
	now := time.Now().UTC()
	hour := now.Hour()

	if hour < s.StartHour || hour > s.EndHour {
		s.logger.Debug("outside digest window, skipping",
			zap.Int("hour", hour),
			zap.Int("start", s.StartHour),
			zap.Int("end", s.EndHour))
		return
	}

	ctx := context.Background()
	progressRepo := database.NewProgressRepository()
	settingsRepo := database.NewSettingsRepository()

	counts, err := progressRepo.UsersWithDue(ctx, now)
	if err != nil {
		s.logger.Error("failed to get users with due cards", zap.Error(err))
		return
	}
	if len(counts) == 0 {
		return
	}

	byUser := make(map[int64]int, len(counts))
	userIDs := make([]int64, 0, len(counts))
	for _, c := range counts {
		byUser[c.UserID] = c.Due
		userIDs = append(userIDs, c.UserID)
	}

	recipients, err := settingsRepo.DigestRecipients(ctx, userIDs, hour)
	if err != nil {
		s.logger.Error("failed to resolve digest recipients", zap.Error(err))
		return
	}

	for _, settings := range recipients {
		count := byUser[settings.UserID]
		// Don't report more than the user would study in one session
		if count > settings.CardsPerSession {
			count = settings.CardsPerSession
		}
		if err := s.notifier.SendDigest(settings.UserID, count); err != nil {
			s.logger.Error("failed to send digest",
				zap.Int64("user_id", settings.UserID),
				zap.Error(err))
		}
	}
}

// RunManualCheck forces a digest for a specific user regardless of the
// window or their digest hour.
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	progressRepo := database.NewProgressRepository()
	settingsRepo := database.NewSettingsRepository()

	counts, err := progressRepo.UsersWithDue(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	for _, c := range counts {
		if c.UserID != userID {
			continue
		}
		settings, err := settingsRepo.Get(ctx, userID)
		if err != nil {
			return err
		}
		count := c.Due
		if count > settings.CardsPerSession {
			count = settings.CardsPerSession
		}
		return s.notifier.SendDigest(userID, count)
	}
	return nil
}
