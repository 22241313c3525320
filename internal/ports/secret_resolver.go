package ports

import "context"

// SecretResolver turns a secret reference (for example an entry name in a
// password store) into the secret value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}
