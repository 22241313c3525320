package toml

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/spf13/viper"
)

const (
	accountsPathKey  = "accounts.path"
	accountsFileName = "accounts.toml"
)

// Repository stores accounts in a versioned accounts.toml.
type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var (
	_ ports.AccountRepository = (*Repository)(nil)
	_ ports.AccountWriter     = (*Repository)(nil)
)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	accountsPath := cfg.GetString(accountsPathKey)
	if accountsPath == "" {
		var err error
		accountsPath, err = defaultPath(accountsFileName)
		if err != nil {
			return nil, err
		}
	}

	accountsPath, err := normalizePath(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("accounts path: %w", err)
	}

	return &Repository{accountsPath: accountsPath, mu: lockForPath(accountsPath)}, nil
}

func (r *Repository) Path() string {
	return r.accountsPath
}

func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(account)
	updated := false
	for i := range file.Accounts {
		if file.Accounts[i].ID == encoded.ID {
			file.Accounts[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Accounts = append(file.Accounts, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	file.applyDefaults()
	if err := writeTOMLFile(r.accountsPath, file); err != nil {
		return fmt.Errorf("write accounts file: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Account{}, err
	}

	for _, entry := range file.Accounts {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

// List returns accounts in file order, which is the order the scheduler runs them.
func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(file.Accounts))
	for _, entry := range file.Accounts {
		accounts = append(accounts, fromSchema(entry))
	}

	return accounts, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	var file fileSchema
	if err := readTOMLFile(r.accountsPath, &file); err != nil {
		return fileSchema{}, err
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		ID:           string(account.ID),
		Name:         account.Name,
		SessionToken: account.SessionToken,
		Proxy:        account.Proxy,
		Disabled:     account.Disabled,
	}
}

func fromSchema(account accountSchema) domain.Account {
	return domain.Account{
		ID:           domain.AccountID(account.ID),
		Name:         account.Name,
		SessionToken: account.SessionToken,
		Proxy:        account.Proxy,
		Disabled:     account.Disabled,
	}
}
