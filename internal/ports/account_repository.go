package ports

import (
	"context"

	"github.com/bnema/cyclerun/internal/domain"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter is implemented by sources that can persist imported accounts.
type AccountWriter interface {
	Save(ctx context.Context, account domain.Account) error
}
