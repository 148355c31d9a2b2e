package handler

import (
	"strconv"

	"github.com/famboard/dispatch-engine/internal/observability"
	"github.com/famboard/dispatch-engine/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RateLimitMiddleware guards a route class with the sliding-window limiter.
// The global class is checked first as a backstop, then the specific class.
// Identity is the client IP. A limiter error never blocks the request; the
// limiter itself fails open, this only guards a nil limiter.
func RateLimitMiddleware(
	limiter ratelimit.Limiter,
	class ratelimit.RouteClass,
	metrics *observability.Metrics,
	logger *zap.Logger,
) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		identity := c.IP()

		globalDecision, err := limiter.Check(c.Context(), ratelimit.ClassGlobal, identity)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("class", ratelimit.ClassGlobal.String()), zap.Error(err))
			return c.Next()
		}
		if !globalDecision.Allowed {
			return rejectRateLimited(c, ratelimit.ClassGlobal, globalDecision, metrics)
		}

		decision, err := limiter.Check(c.Context(), class, identity)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("class", class.String()), zap.Error(err))
			return c.Next()
		}
		if !decision.Allowed {
			return rejectRateLimited(c, class, decision, metrics)
		}

		setRateLimitHeaders(c, decision)
		return c.Next()
	}
}

func rejectRateLimited(c *fiber.Ctx, class ratelimit.RouteClass, decision ratelimit.Decision, metrics *observability.Metrics) error {
	metrics.IncRateLimitRejected(class.String())
	setRateLimitHeaders(c, decision)

	retryAfterSec := int(decision.RetryAfter.Seconds())
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSec))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": "rate limit exceeded",
	})
}

func setRateLimitHeaders(c *fiber.Ctx, decision ratelimit.Decision) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	if !decision.ResetAt.IsZero() {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	}
}
