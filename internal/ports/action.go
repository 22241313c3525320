package ports

import (
	"context"

	"github.com/bnema/cyclerun/internal/domain"
)

// Action is the unit of work run for one account. It must be safe to retry and
// return domain.ErrAuthExpired or domain.ErrNothingToDo where they apply.
type Action interface {
	Perform(ctx context.Context, account domain.Account) error
}

type ActionFunc func(ctx context.Context, account domain.Account) error

func (f ActionFunc) Perform(ctx context.Context, account domain.Account) error {
	return f(ctx, account)
}
