// Package tokenfile reads accounts from the line-oriented token.txt format,
// one "<id>=harborSession=<token>" per line, plus an optional proxies.txt.
package tokenfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"go.uber.org/zap"
)

const sessionKey = "harborSession"

type Source struct {
	tokenPath   string
	proxiesPath string
	logger      *zap.Logger
}

var _ ports.AccountRepository = (*Source)(nil)

func NewSource(tokenPath, proxiesPath string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Source{
		tokenPath:   tokenPath,
		proxiesPath: proxiesPath,
		logger:      logger.Named("tokenfile"),
	}
}

// List reads both files on every call and returns the accounts in file order.
func (s *Source) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer file.Close()

	accounts, err := Parse(file, s.logger)
	if err != nil {
		return nil, err
	}

	proxies, err := ReadProxies(s.proxiesPath)
	if err != nil {
		return nil, err
	}
	if len(proxies) > 0 {
		s.logger.Info("proxies loaded", zap.Int("count", len(proxies)))
	}

	return domain.AssignProxies(accounts, proxies), nil
}

func (s *Source) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	accounts, err := s.List(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	for _, account := range accounts {
		if account.ID == id {
			return account, nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

// Parse skips blank and malformed lines, logging the latter. It returns
// domain.ErrNoAccounts when nothing valid remains.
func Parse(r io.Reader, logger *zap.Logger) ([]domain.Account, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var accounts []domain.Account
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		account, err := ParseLine(line)
		if err != nil {
			logger.Warn("skipping token line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		accounts = append(accounts, account)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	if len(accounts) == 0 {
		return nil, domain.ErrNoAccounts
	}

	return accounts, nil
}

// ParseLine keeps any '=' inside the token itself.
func ParseLine(line string) (domain.Account, error) {
	id, rest, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: missing '='", domain.ErrInvalidAccountLine)
	}

	key, token, ok := strings.Cut(rest, "=")
	if !ok || key != sessionKey {
		return domain.Account{}, fmt.Errorf("%w: expected <id>=%s=<token>", domain.ErrInvalidAccountLine, sessionKey)
	}

	account := domain.Account{ID: domain.AccountID(strings.TrimSpace(id)), SessionToken: strings.TrimSpace(token)}
	if err := account.Validate(); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %w", domain.ErrInvalidAccountLine, err)
	}

	return account, nil
}

// ReadProxies returns nil when path is empty or the file does not exist.
func ReadProxies(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read proxies file: %w", err)
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		if proxy := strings.TrimSpace(line); proxy != "" {
			proxies = append(proxies, proxy)
		}
	}

	return proxies, nil
}
