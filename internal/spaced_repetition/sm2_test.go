package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recall/pkg/models"
)

var day0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestOutcomeValid(t *testing.T) {
	for o := OutcomeBlackout; o <= OutcomePerfect; o++ {
		assert.True(t, o.Valid(), "outcome %d", o)
	}
	assert.False(t, Outcome(-1).Valid())
	assert.False(t, Outcome(6).Valid())
}

func TestPassBoundaryIsThree(t *testing.T) {
	sm := New()
	assert.True(t, sm.IsLapse(OutcomeIncorrectFamiliar))
	// Grade 3 counts as a success, per canonical SM-2
	assert.False(t, sm.IsLapse(OutcomeCorrectDifficult))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	sm := New()
	progress := models.NewReviewProgress(1, 2)
	before := progress

	sm.Apply(progress, OutcomePerfect, day0)

	assert.Equal(t, before, progress)
}

func TestFirstReviewSuccess(t *testing.T) {
	sm := New()
	progress := models.NewReviewProgress(1, 2)

	next := sm.Apply(progress, OutcomeCorrectHesitation, day0)

	assert.Equal(t, 1, next.Interval)
	assert.Equal(t, models.StatusLearning, next.Status)
	assert.Equal(t, 1, next.CorrectCount)
	assert.Equal(t, 0, next.IncorrectCount)
	// Grade 4 leaves EF unchanged: 0.1 - 1*(0.08 + 1*0.02) = 0
	assert.InDelta(t, 2.5, next.EaseFactor, 1e-9)
	require.NotNil(t, next.LastReviewedAt)
	require.NotNil(t, next.NextReviewAt)
	assert.Equal(t, day0, *next.LastReviewedAt)
	assert.Equal(t, day0.AddDate(0, 0, 1), *next.NextReviewAt)
}

func TestSecondConsecutiveSuccessGivesSix(t *testing.T) {
	sm := New()
	progress := models.NewReviewProgress(1, 2)

	first := sm.Apply(progress, OutcomePerfect, day0)
	second := sm.Apply(first, OutcomePerfect, day0.AddDate(0, 0, 1))

	assert.Equal(t, 1, first.Interval)
	assert.Equal(t, 6, second.Interval)
	assert.Equal(t, models.StatusLearning, second.Status)
}

// New record, outcomes 4, 5, 5 on days 0, 1, 7: intervals 1, 6, round(6*EF)
// and statuses learning, learning, reviewing.
func TestThreeSuccessProgression(t *testing.T) {
	sm := New()
	progress := models.NewReviewProgress(7, 42)

	r1 := sm.Apply(progress, OutcomeCorrectHesitation, day0)
	assert.Equal(t, 1, r1.Interval)
	assert.Equal(t, models.StatusLearning, r1.Status)

	r2 := sm.Apply(r1, OutcomePerfect, day0.AddDate(0, 0, 1))
	assert.Equal(t, 6, r2.Interval)
	assert.Equal(t, models.StatusLearning, r2.Status)
	assert.InDelta(t, 2.6, r2.EaseFactor, 1e-9)

	day7 := day0.AddDate(0, 0, 7)
	r3 := sm.Apply(r2, OutcomePerfect, day7)
	// round(6 * 2.7) = 16
	assert.Equal(t, 16, r3.Interval)
	assert.Equal(t, models.StatusReviewing, r3.Status)
	assert.Equal(t, 3, r3.CorrectCount)
	assert.Equal(t, day7.AddDate(0, 0, 16), *r3.NextReviewAt)
}

func TestLapseDemotesMastered(t *testing.T) {
	sm := New()
	last := day0
	due := day0.AddDate(0, 0, 30)
	progress := models.ReviewProgress{
		UserID:         1,
		FlashcardID:    2,
		Status:         models.StatusMastered,
		CorrectCount:   12,
		IncorrectCount: 1,
		EaseFactor:     2.0,
		Interval:       30,
		LastReviewedAt: &last,
		NextReviewAt:   &due,
	}

	next := sm.Apply(progress, OutcomeIncorrect, due)

	assert.Equal(t, 1, next.Interval)
	assert.Equal(t, models.StatusLearning, next.Status)
	// EF drops by 0.54 but keeps history: 2.0 - 0.54 = 1.46
	assert.InDelta(t, 1.46, next.EaseFactor, 1e-9)
	assert.GreaterOrEqual(t, next.EaseFactor, models.MinEaseFactor)
	assert.Equal(t, 12, next.CorrectCount)
	assert.Equal(t, 2, next.IncorrectCount)
}

func TestEaseFactorNeverBelowFloor(t *testing.T) {
	sm := New()
	progress := models.NewReviewProgress(1, 2)
	progress.EaseFactor = models.MinEaseFactor

	for i := 0; i < 10; i++ {
		progress = sm.Apply(progress, OutcomeBlackout, day0.AddDate(0, 0, i))
		assert.InDelta(t, models.MinEaseFactor, progress.EaseFactor, 1e-9)
		assert.Equal(t, 1, progress.Interval)
		assert.Equal(t, models.StatusLearning, progress.Status)
	}
	assert.Equal(t, 10, progress.IncorrectCount)
}

func TestMasteredPromotion(t *testing.T) {
	sm := New()
	last := day0
	due := day0.AddDate(0, 0, 10)
	progress := models.ReviewProgress{
		UserID:         1,
		FlashcardID:    2,
		Status:         models.StatusReviewing,
		EaseFactor:     2.5,
		Interval:       10,
		LastReviewedAt: &last,
		NextReviewAt:   &due,
	}

	next := sm.Apply(progress, OutcomeCorrectHesitation, due)

	// round(10 * 2.5) = 25, past the 21-day tier
	assert.Equal(t, 25, next.Interval)
	assert.Equal(t, models.StatusMastered, next.Status)
}

func TestMaxIntervalCap(t *testing.T) {
	sm := New()
	last := day0
	due := day0.AddDate(0, 0, 300)
	progress := models.ReviewProgress{
		UserID:         1,
		FlashcardID:    2,
		Status:         models.StatusMastered,
		EaseFactor:     2.5,
		Interval:       300,
		LastReviewedAt: &last,
		NextReviewAt:   &due,
	}

	next := sm.Apply(progress, OutcomePerfect, due)

	assert.Equal(t, sm.MaxInterval, next.Interval)
	assert.Equal(t, models.StatusMastered, next.Status)
}

// Invariants hold for every (state, outcome) combination: EF floor, interval
// at least one day, next due derived from the review instant, and counters
// only ever growing.
func TestInvariantsAcrossOutcomes(t *testing.T) {
	sm := New()
	seeds := []models.ReviewProgress{
		models.NewReviewProgress(1, 1),
		{UserID: 1, FlashcardID: 2, Status: models.StatusLearning, EaseFactor: 1.3, Interval: 1},
		{UserID: 1, FlashcardID: 3, Status: models.StatusReviewing, EaseFactor: 2.1, Interval: 15},
		{UserID: 1, FlashcardID: 4, Status: models.StatusMastered, EaseFactor: 2.8, Interval: 120},
	}
	for _, seed := range seeds {
		for o := OutcomeBlackout; o <= OutcomePerfect; o++ {
			next := sm.Apply(seed, o, day0)

			assert.GreaterOrEqual(t, next.EaseFactor, models.MinEaseFactor)
			assert.GreaterOrEqual(t, next.Interval, 1)
			assert.LessOrEqual(t, next.Interval, sm.MaxInterval)
			assert.True(t, next.Status.Valid())
			assert.NotEqual(t, models.StatusNew, next.Status)
			require.NotNil(t, next.NextReviewAt)
			require.NotNil(t, next.LastReviewedAt)
			assert.Equal(t, next.LastReviewedAt.AddDate(0, 0, next.Interval), *next.NextReviewAt)
			assert.Equal(t, seed.CorrectCount+seed.IncorrectCount+1, next.CorrectCount+next.IncorrectCount)
			assert.GreaterOrEqual(t, next.CorrectCount, seed.CorrectCount)
			assert.GreaterOrEqual(t, next.IncorrectCount, seed.IncorrectCount)
		}
	}
}
