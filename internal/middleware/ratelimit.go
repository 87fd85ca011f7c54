package middleware

import (
	"strconv"

	"go-distribution-ws/internal/applog"

	"github.com/gofiber/fiber/v2"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit throttles requests per authenticated user, falling back to the
// client IP, using a formatted rate such as "60-M".
func RateLimit(formatted string) (fiber.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate)

	return func(c *fiber.Ctx) error {
		key := c.IP()
		if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
			key = uid
		}

		lctx, err := instance.Get(c.UserContext(), c.Route().Path+"|"+key)
		if err != nil {
			// store errors fail open
			applog.Warn(c, "ratelimit.store_failed", err, nil)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, slow down",
				"kind":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}, nil
}
