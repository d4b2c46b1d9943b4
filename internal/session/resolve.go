package session

import (
	"context"

	"github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/store"
)

// KeyStore is the narrow lookup contract the session needs from persistence
type KeyStore interface {
	GetKey(ctx context.Context, name string) (*store.KeyRecord, error)
}

// ResolveKey resolves which API key a turn uses, with a fixed precedence:
// an explicitly requested key wins, else the character's preferred key.
// A requested key that does not exist is an error, not a fallthrough —
// silently using a different credential than asked for is worse than
// failing. When neither is available the single outcome is a
// ConfigurationError; nothing has been streamed at that point.
func ResolveKey(ctx context.Context, keys KeyStore, explicit, preferred, character string) (*store.KeyRecord, error) {
	if explicit != "" {
		k, err := keys.GetKey(ctx, explicit)
		if err != nil {
			return nil, err
		}
		if k == nil {
			return nil, errors.NewConfigurationError("API key '" + explicit + "' not found")
		}
		return k, nil
	}

	if preferred != "" {
		k, err := keys.GetKey(ctx, preferred)
		if err != nil {
			return nil, err
		}
		if k != nil {
			return k, nil
		}
	}

	return nil, errors.NewMissingAPIKeyError(character)
}
