package models

import "time"

// Status describes how far along a user is with a specific flashcard.
type Status string

const (
	// StatusNew means the card has never been reviewed
	StatusNew Status = "new"
	// StatusLearning means the card is in the short-interval phase (or was lapsed back into it)
	StatusLearning Status = "learning"
	// StatusReviewing means the card has graduated past the one-week interval
	StatusReviewing Status = "reviewing"
	// StatusMastered means the card survived a three-week-plus interval without lapsing
	StatusMastered Status = "mastered"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusReviewing, StatusMastered:
		return true
	}
	return false
}

// Default scheduling parameters for a record that has never been reviewed.
const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3
	InitialInterval   = 1
)

// ReviewProgress tracks a user's scheduling state for a specific flashcard.
// There is at most one record per (user_id, flashcard_id) pair; the storage
// layer enforces that with a composite primary key.
type ReviewProgress struct {
	UserID         int64      `json:"user_id" db:"user_id"`
	FlashcardID    int64      `json:"flashcard_id" db:"flashcard_id"`
	Status         Status     `json:"status" db:"status"`
	CorrectCount   int        `json:"correct_count" db:"correct_count"`     // Lifetime tally, never reset
	IncorrectCount int        `json:"incorrect_count" db:"incorrect_count"` // Lifetime tally, never reset
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`         // SM-2 EF parameter, floor 1.3
	Interval       int        `json:"interval" db:"interval"`               // Days until next review
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextReviewAt   *time.Time `json:"next_review_at" db:"next_review_at"`
	Version        int64      `json:"-" db:"version"` // Optimistic concurrency token
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewReviewProgress returns the zero-value record for a pair that has never
// been reviewed. A record in this state is always considered due.
func NewReviewProgress(userID, flashcardID int64) ReviewProgress {
	return ReviewProgress{
		UserID:      userID,
		FlashcardID: flashcardID,
		Status:      StatusNew,
		EaseFactor:  InitialEaseFactor,
		Interval:    InitialInterval,
	}
}

// Reviewed reports whether the record has had at least one outcome applied.
func (p *ReviewProgress) Reviewed() bool {
	return p.LastReviewedAt != nil
}
