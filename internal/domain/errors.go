package domain

import "errors"

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrPreferencesInvalid = errors.New("invalid preferences")
	ErrTokenNotFound      = errors.New("gateway token not found")
)
