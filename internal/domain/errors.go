package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrNoAccounts         = errors.New("no valid accounts configured")
	ErrInvalidAccountLine = errors.New("invalid account line")

	// ErrAuthExpired means the session credential was rejected. Retrying cannot fix it.
	ErrAuthExpired = errors.New("session expired")
	// ErrNothingToDo means the action ran but found nothing to claim.
	ErrNothingToDo      = errors.New("nothing to do")
	ErrExhaustedRetries = errors.New("exhausted retries")
)

// IsRetryable reports whether an action error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	return !errors.Is(err, ErrAuthExpired) && !errors.Is(err, ErrNothingToDo)
}
