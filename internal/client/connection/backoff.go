package connection

import "time"

const (
	retryBase = time.Second
	retryMax  = 30 * time.Second
)

// RetryDelay is the wait before reconnect attempt n (1-based): 1s, 2s, 4s,
// capped at 30s.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := retryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= retryMax {
			return retryMax
		}
	}
	return d
}
