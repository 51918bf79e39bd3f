package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/madmax100/licitia/internal/ollama"
)

// MaxRetries bounds the summary attempts per document. An Ollama
// server restarting mid-run usually recovers within two backoffs.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether err is a transient model failure worth
// another attempt.
func IsRetryable(err error) bool {
	var retryErr *ollama.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry attempt n (0-indexed):
// exponential growth capped at maxBackoff, plus up to 50% jitter so
// parallel workers do not hammer the server in lockstep.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, maxBackoff)
	return base + time.Duration(rand.Int64N(int64(base)/2))
}
