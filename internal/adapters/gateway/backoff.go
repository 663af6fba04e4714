package gateway

import (
	"math/rand/v2"
	"time"
)

const (
	reconnectBaseDelay   = time.Second
	reconnectMaxDelay    = 30 * time.Second
	reconnectJitter      = time.Second
	DefaultMaxReconnects = 20
)

// ReconnectDelay returns min(1s * 2^attempt, 30s) plus jitter drawn from
// [0, 1s).
func ReconnectDelay(attempt int, jitter func(n int64) int64) time.Duration {
	attempt = max(attempt, 0)
	delay := reconnectMaxDelay
	if attempt < 16 {
		delay = min(reconnectBaseDelay<<attempt, reconnectMaxDelay)
	}
	if jitter == nil {
		jitter = rand.Int64N
	}
	return delay + time.Duration(jitter(int64(reconnectJitter)))
}
