package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/collegelover/college-lover-api/utils"
)

// RateLimiter caps requests per client IP in fixed windows held in memory.
type RateLimiter struct {
	limiter *limiter.Limiter
}

func NewRateLimiter(max int, period time.Duration) *RateLimiter {
	rate := limiter.Rate{Period: period, Limit: int64(max)}
	return &RateLimiter{limiter: limiter.New(memory.NewStore(), rate)}
}

// Middleware sets the X-RateLimit-* headers and answers 429 once a client
// spends its window.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return mgin.NewMiddleware(l.limiter,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests, please try again later.",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			c.Error(utils.Internal(err, "rate limiter unavailable"))
		}),
	)
}
