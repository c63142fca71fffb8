package review

import "errors"

// Caller-facing error taxonomy. Test with errors.Is; all of these may carry
// wrapped detail.
var (
	// ErrInvalidOutcome is returned for grades outside the 0-5 scale. No
	// state is touched; the caller must resubmit with a valid grade.
	ErrInvalidOutcome = errors.New("review: outcome outside 0-5 scale")

	// ErrNotFound is returned by GetProgress for a pair that has never been
	// reviewed. SubmitOutcome never returns it (records are created lazily).
	ErrNotFound = errors.New("review: no progress for this user and flashcard")

	// ErrContention is returned when concurrent submissions for the same
	// pair exhausted the retry budget. Transient; safe to resubmit.
	ErrContention = errors.New("review: too much write contention, retry")

	// ErrStoreUnavailable is returned when the underlying store failed for
	// reasons other than a key conflict. Retry policy belongs to the caller.
	ErrStoreUnavailable = errors.New("review: progress store unavailable")
)
