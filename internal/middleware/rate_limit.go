package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
)

// NewPerMinuteLimiter allows perMinute events per minute with a burst of the same size.
func NewPerMinuteLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// RateLimit rejects requests with 429 once limiter runs out of tokens.
// The limiter is shared by every route it is attached to.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			logger.FromGin(c).Warn().Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
			apierrors.TooManyRequests(c, "")
			return
		}
		c.Next()
	}
}
