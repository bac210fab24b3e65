package auth

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminGuard protects mutating endpoints with a bearer token checked
// against a bcrypt hash. An empty hash disables the guard.
type AdminGuard struct {
	tokenHash string
	limiter   *RateLimiter
	logger    *zap.Logger
}

// NewAdminGuard creates a guard. limiter may be nil.
func NewAdminGuard(tokenHash string, limiter *RateLimiter, logger *zap.Logger) *AdminGuard {
	return &AdminGuard{tokenHash: tokenHash, limiter: limiter, logger: logger}
}

func (g *AdminGuard) Enabled() bool {
	return g.tokenHash != ""
}

// Handler returns the Gin middleware.
func (g *AdminGuard) Handler() gin.HandlerFunc {
	if !g.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if g.limiter != nil {
			if allowed, retryAfter := g.limiter.Allow(ip); !allowed {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				abort(c, http.StatusTooManyRequests, "too many failed attempts")
				return
			}
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, http.StatusUnauthorized, "admin token required")
			return
		}

		if err := CheckToken(token, g.tokenHash); err != nil {
			g.logger.Warn("Rejected admin token",
				zap.String("client_ip", ip),
				zap.String("path", c.FullPath()),
			)
			if g.limiter != nil {
				g.limiter.RecordFailure(ip)
			}
			abort(c, http.StatusUnauthorized, "invalid admin token")
			return
		}

		if g.limiter != nil {
			g.limiter.RecordSuccess(ip)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}
