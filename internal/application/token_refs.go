package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
)

// PassRefPrefix marks a session token that names a pass entry instead of
// holding the token itself.
const PassRefPrefix = "pass://"

// ResolvingRepository replaces secret references in session tokens with the
// resolved values. Tokens without the prefix are returned unchanged.
type ResolvingRepository struct {
	accounts ports.AccountRepository
	resolver ports.SecretResolver
}

var _ ports.AccountRepository = (*ResolvingRepository)(nil)

func NewResolvingRepository(accounts ports.AccountRepository, resolver ports.SecretResolver) *ResolvingRepository {
	return &ResolvingRepository{accounts: accounts, resolver: resolver}
}

func (r *ResolvingRepository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	account, err := r.accounts.GetByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	return r.resolve(ctx, account)
}

func (r *ResolvingRepository) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	resolved := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		account, err := r.resolve(ctx, account)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, account)
	}

	return resolved, nil
}

func (r *ResolvingRepository) resolve(ctx context.Context, account domain.Account) (domain.Account, error) {
	ref, ok := strings.CutPrefix(account.SessionToken, PassRefPrefix)
	if !ok || account.Disabled {
		return account, nil
	}
	if r.resolver == nil {
		return domain.Account{}, fmt.Errorf("account %s: session token is a reference but no secret resolver configured", account.ID)
	}

	token, err := r.resolver.Resolve(ctx, ref)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s: resolve session token: %w", account.ID, err)
	}
	account.SessionToken = token

	return account, nil
}
