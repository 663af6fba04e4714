package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

const keyPrefix = "clawsync/gateway"

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store keeps gateway tokens in the pass password store.
type Store struct {
	run runFunc
}

var _ ports.TokenStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: runPassCommand}
}

func (s *Store) SaveToken(ctx context.Context, profile string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := keyForProfile(profile)
	_, stderr, err := s.run(ctx, token+"\n", "insert", "-m", "-f", key)
	if err != nil {
		return formatError("insert", key, err, stderr)
	}

	return nil
}

func (s *Store) Token(ctx context.Context, profile string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := keyForProfile(profile)
	stdout, stderr, err := s.run(ctx, "", "show", key)
	if err != nil {
		if isMissingEntry(stderr) {
			return "", fmt.Errorf("pass entry %q: %w", key, domain.ErrTokenNotFound)
		}
		return "", formatError("show", key, err, stderr)
	}

	// Multi-line entries keep the token on the first line.
	token, _, _ := strings.Cut(stdout, "\n")
	token = strings.TrimSuffix(token, "\r")
	if token == "" {
		return "", fmt.Errorf("pass entry %q is empty: %w", key, domain.ErrTokenNotFound)
	}

	return token, nil
}

func (s *Store) DeleteToken(ctx context.Context, profile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := keyForProfile(profile)
	_, stderr, err := s.run(ctx, "", "rm", "-f", key)
	if err != nil {
		// Nothing stored here is not a failure for a delete.
		if errors.Is(err, ErrUnavailable) || isMissingEntry(stderr) {
			return nil
		}
		return formatError("rm", key, err, stderr)
	}

	return nil
}

func isMissingEntry(stderr string) bool {
	return strings.Contains(stderr, "is not in the password store")
}

func keyForProfile(profile string) string {
	return keyPrefix + "/" + strings.TrimSpace(profile) + "/token"
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, key string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, key, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, key, err, stderr)
}
