package utils

import (
	"math"
	"math/rand"
	"time"
)

// CalculateExponentialBackoffWithJitter computes base * 2^(count-1), jittered by
// ±12.5% and capped at max. count is 1-based; non-positive counts yield 0.
func CalculateExponentialBackoffWithJitter(count int, base time.Duration, max time.Duration) time.Duration {
	if count <= 0 || base <= 0 {
		return 0
	}

	baseDelay := base * time.Duration(math.Pow(2, float64(count-1)))
	if baseDelay <= 0 || baseDelay > max { // overflow or past the cap
		return max
	}

	if spread := int64(baseDelay / 4); spread > 0 {
		baseDelay += time.Duration(rand.Int63n(spread)) - (baseDelay / 8)
	}
	if baseDelay > max {
		baseDelay = max
	}
	return baseDelay
}
