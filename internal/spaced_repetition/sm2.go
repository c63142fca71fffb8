package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/recall/pkg/models"
)

// SM2 implements the SuperMemo-2 derived scheduling policy. Apply is a pure
// function: it performs no I/O and reads no global clock, which is what makes
// replaying it under write contention free.
type SM2 struct {
	// Outcomes at or above this value count as a success
	PassThreshold Outcome
	// Interval (days) assigned by the first success and by every lapse
	FirstInterval int
	// Interval (days) assigned by the second consecutive success
	SecondInterval int
	// Maximum review interval in days
	MaxInterval int
	// Successful intervals at or below this stay in the learning status
	LearningMaxInterval int
	// Successful intervals at or above this reach the mastered status
	MasteredMinInterval int
}

// New creates an SM2 policy with the default thresholds: grades 3+ pass,
// intervals progress 1 -> 6 -> round(interval * EF) capped at one year, and
// the learning/reviewing/mastered tiers split at 6 and 21 days.
func New() *SM2 {
	return &SM2{
		PassThreshold:       OutcomeCorrectDifficult,
		FirstInterval:       1,
		SecondInterval:      6,
		MaxInterval:         365,
		LearningMaxInterval: 6,
		MasteredMinInterval: 21,
	}
}

// Outcome is the 0-5 quality grade of a single recall attempt.
type Outcome int

const (
	// Complete blackout, unable to recall
	OutcomeBlackout Outcome = 0
	// Incorrect response but remembered upon seeing the correct answer
	OutcomeIncorrect Outcome = 1
	// Incorrect response but the correct answer felt familiar
	OutcomeIncorrectFamiliar Outcome = 2
	// Correct response but required significant effort
	OutcomeCorrectDifficult Outcome = 3
	// Correct response after some hesitation
	OutcomeCorrectHesitation Outcome = 4
	// Perfect response with no hesitation
	OutcomePerfect Outcome = 5
)

// Valid reports whether o is inside the 0-5 grade scale.
func (o Outcome) Valid() bool {
	return o >= OutcomeBlackout && o <= OutcomePerfect
}

// IsLapse reports whether o counts as a failed recall under this policy.
// Grade 3 is the boundary and counts as a success, matching canonical SM-2.
func (sm *SM2) IsLapse(o Outcome) bool {
	return o < sm.PassThreshold
}

// Apply computes the next scheduling state for a record given one review
// outcome at the given instant. The input record is not modified. Callers
// must validate the outcome first; Apply is total over valid inputs.
func (sm *SM2) Apply(progress models.ReviewProgress, outcome Outcome, now time.Time) models.ReviewProgress {
	next := progress

	// Easiness factor update. High-quality recall nudges EF up, poor recall
	// drags it down, bounded below at 1.3 so a card can always recover.
	q := float64(outcome)
	ef := progress.EaseFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if ef < models.MinEaseFactor {
		ef = models.MinEaseFactor
	}
	next.EaseFactor = ef

	if sm.IsLapse(outcome) {
		// The card restarts the short cycle. EF keeps its accumulated penalty
		// rather than resetting, so repeated lapses compound instead of
		// oscillating.
		next.Interval = sm.FirstInterval
		next.IncorrectCount++
	} else {
		switch {
		case progress.Status == models.StatusNew:
			// First ever review
			next.Interval = sm.FirstInterval
		case progress.Interval <= sm.FirstInterval:
			// Second consecutive success
			next.Interval = sm.SecondInterval
		default:
			next.Interval = int(math.Round(float64(progress.Interval) * ef))
		}
		if next.Interval < 1 {
			next.Interval = 1
		}
		if next.Interval > sm.MaxInterval {
			next.Interval = sm.MaxInterval
		}
		next.CorrectCount++
	}

	next.Status = sm.statusFor(sm.IsLapse(outcome), next.Interval)

	reviewed := now
	due := now.AddDate(0, 0, next.Interval)
	next.LastReviewedAt = &reviewed
	next.NextReviewAt = &due

	return next
}

// statusFor encodes the status transition table. A lapse always demotes to
// learning, even from mastered; successes are tiered by the new interval.
func (sm *SM2) statusFor(lapse bool, interval int) models.Status {
	switch {
	case lapse:
		return models.StatusLearning
	case interval <= sm.LearningMaxInterval:
		return models.StatusLearning
	case interval < sm.MasteredMinInterval:
		return models.StatusReviewing
	default:
		return models.StatusMastered
	}
}
