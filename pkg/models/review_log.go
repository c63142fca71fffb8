package models

import "time"

// ReviewLog is one append-only entry per applied outcome. It records what the
// scheduler decided at the time of the review, so per-period accuracy and
// history reports never need to re-derive scheduling math.
type ReviewLog struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	FlashcardID int64     `json:"flashcard_id" db:"flashcard_id"`
	Outcome     int       `json:"outcome" db:"outcome"` // 0-5 quality grade as submitted
	Lapse       bool      `json:"lapse" db:"lapse"`
	Interval    int       `json:"interval" db:"interval"`       // Interval assigned by this review
	EaseFactor  float64   `json:"ease_factor" db:"ease_factor"` // EF after this review
	Status      Status    `json:"status" db:"status"`           // Status after this review
	ReviewedAt  time.Time `json:"reviewed_at" db:"reviewed_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
