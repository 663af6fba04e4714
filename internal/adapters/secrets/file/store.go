package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports"
)

const (
	storeDirMode  = 0o700
	tokenFileMode = 0o600
	tokenFileName = "token"
)

// Store keeps one token file per profile under root.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.TokenStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) SaveToken(ctx context.Context, profile string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForProfile(profile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), tokenFileMode); err != nil {
		return fmt.Errorf("write token for profile %q: %w", profile, err)
	}

	return nil
}

func (s *Store) Token(ctx context.Context, profile string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForProfile(profile)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("token file for profile %q: %w", profile, domain.ErrTokenNotFound)
		}
		return "", fmt.Errorf("read token for profile %q: %w", profile, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file for profile %q is empty: %w", profile, domain.ErrTokenNotFound)
	}
	return token, nil
}

func (s *Store) DeleteToken(ctx context.Context, profile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForProfile(profile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete token for profile %q: %w", profile, err)
	}

	return nil
}

func (s *Store) pathForProfile(profile string) (string, error) {
	trimmed := strings.TrimSpace(profile)
	if trimmed == "" {
		return "", errors.New("profile name is empty")
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return "", fmt.Errorf("invalid profile name %q", profile)
	}

	return filepath.Join(s.root, trimmed, tokenFileName), nil
}
