package domain

import (
	"fmt"
	"strings"
)

type AccountID string

type Account struct {
	ID           AccountID
	Name         string
	SessionToken string
	Proxy        string
	Disabled     bool
}

func (a Account) Validate() error {
	if strings.TrimSpace(string(a.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.SessionToken) == "" {
		return fmt.Errorf("account %s: session token is required", a.ID)
	}

	return nil
}

func (a Account) DisplayName() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}

	return string(a.ID)
}

// MaskToken keeps the first and last five characters of a session token.
func MaskToken(token string) string {
	if len(token) <= 10 {
		return strings.Repeat("*", len(token))
	}

	return token[:5] + "****" + token[len(token)-5:]
}

// AssignProxies hands out proxies round-robin by account position.
func AssignProxies(accounts []Account, proxies []string) []Account {
	if len(proxies) == 0 {
		return accounts
	}

	assigned := make([]Account, len(accounts))
	for i, account := range accounts {
		if account.Proxy == "" {
			account.Proxy = proxies[i%len(proxies)]
		}
		assigned[i] = account
	}

	return assigned
}
