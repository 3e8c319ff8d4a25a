// Package ratelimit provides fixed-window admission control for the HTTP
// API, keyed by client IP. Admitted requests carry X-RateLimit response
// headers; denied requests receive a 429 with a machine-readable retryAfter.
package ratelimit

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// New creates a Fiber middleware enforcing the configured rate limit.
func New(opts ...Option) fiber.Handler {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	limiter := NewLimiter(config.MaxRequests, config.Window)
	logger := slog.Default()

	return func(c *fiber.Ctx) error {
		key := c.IP()
		if config.KeyFunc != nil {
			key = config.KeyFunc(key)
		}

		result := limiter.Allow(key)

		if !result.Allowed {
			logger.Warn("Rate limit exceeded",
				"client", key,
				"limit", result.Limit,
				"reset_at", result.ResetAt)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(result.RetryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"error":      config.Message,
				"retryAfter": result.RetryAfter,
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", result.ResetAt.UTC().Format(time.RFC3339))

		return c.Next()
	}
}
