package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/clawsync/internal/adapters/secrets/file"
	passstore "github.com/bnema/clawsync/internal/adapters/secrets/pass"
	"github.com/bnema/clawsync/internal/ports"
)

// Store tries primary first and falls back to the second backend when the
// primary fails or has no token for the profile.
type Store struct {
	primary  ports.TokenStore
	fallback ports.TokenStore
}

var _ ports.TokenStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary token store is nil")
	errNilFallbackStore = errors.New("fallback token store is nil")
)

func NewStore(primary ports.TokenStore, fallback ports.TokenStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.TokenStore, fallback ports.TokenStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) SaveToken(ctx context.Context, profile string, token string) error {
	err := s.primary.SaveToken(ctx, profile, token)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.SaveToken(ctx, profile, token)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend save failed: %w; fallback backend save failed: %w", err, fallbackErr)
}

func (s *Store) Token(ctx context.Context, profile string) (string, error) {
	token, err := s.primary.Token(ctx, profile)
	if err == nil {
		return token, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackToken, fallbackErr := s.fallback.Token(ctx, profile)
	if fallbackErr == nil {
		return fallbackToken, nil
	}

	return "", fmt.Errorf("primary backend lookup failed: %w; fallback backend lookup failed: %w", err, fallbackErr)
}

// DeleteToken removes the token from both backends so a stale copy cannot
// resurface through the fallback.
func (s *Store) DeleteToken(ctx context.Context, profile string) error {
	err := s.primary.DeleteToken(ctx, profile)
	if err != nil && shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.DeleteToken(ctx, profile)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("fallback backend delete failed: %w", fallbackErr)
	case fallbackErr == nil:
		return fmt.Errorf("primary backend delete failed: %w", err)
	default:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
