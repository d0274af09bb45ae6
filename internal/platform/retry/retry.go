package retry

import (
	"math/rand/v2"
	"time"
)

// Jitter spreads base by +/-20% so concurrent retries do not line up.
func Jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

// Linear returns the jittered wait before retry number attempt (0-based), capped at max when max > 0.
func Linear(base time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base * time.Duration(attempt+1)
	if max > 0 && d > max {
		d = max
	}
	return Jitter(d)
}
