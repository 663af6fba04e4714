package ports

import "context"

// TokenStore keeps gateway bearer tokens per connection profile.
type TokenStore interface {
	Token(ctx context.Context, profile string) (string, error)
	SaveToken(ctx context.Context, profile string, token string) error
	DeleteToken(ctx context.Context, profile string) error
}
