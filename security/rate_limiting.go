package security

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis     *redis.Client
	perMinute int
}

func NewRateLimiter(redisClient *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{redis: redisClient, perMinute: perMinute}
}

// TicketRateLimit caps how many ticket actions one caller can issue per
// minute, keyed by IP. Disabled when no redis client or limit is configured.
func (r *RateLimiter) TicketRateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.redis == nil || r.perMinute <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:tickets:%s", c.RealIP())
			count, err := r.redis.Incr(ctx, key).Result()
			if err == nil {
				if count == 1 {
					r.redis.Expire(ctx, key, time.Minute)
				}
				if count > int64(r.perMinute) {
					return c.JSON(429, map[string]string{
						"error": "Rate limit exceeded. Please try again later.",
					})
				}
			}

			return next(c)
		}
	}
}
