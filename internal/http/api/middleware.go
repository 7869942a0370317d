package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/VisitMappingService/internal/config"
	"github.com/router-for-me/VisitMappingService/internal/http/api/handlers"
	"github.com/router-for-me/VisitMappingService/internal/http/api/permissions"
	"github.com/router-for-me/VisitMappingService/internal/logging"
	"github.com/router-for-me/VisitMappingService/internal/ratelimit"
	"github.com/router-for-me/VisitMappingService/internal/security"
	log "github.com/sirupsen/logrus"
)

const (
	contextKeySubject     = "subject"
	contextKeyAuthorities = "authorities"
)

// authMiddleware validates bearer JWTs and stores the caller's subject and roles.
func authMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handlers.AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "missing authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			handlers.AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "invalid authorization format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			handlers.AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "empty token")
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			handlers.AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		c.Set(contextKeySubject, claims.Subject)
		c.Set(contextKeyAuthorities, claims.Authorities)
		c.Next()
	}
}

// permissionMiddleware checks the caller's roles against the matched route.
func permissionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authorities := c.GetStringSlice(contextKeyAuthorities)
		if !permissions.Allowed(c.Request.Method, c.FullPath(), authorities) {
			handlers.AbortWithError(c, http.StatusForbidden, "Forbidden", "access denied for "+permissions.Key(c.Request.Method, c.FullPath()))
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware enforces the per-caller request limit.
// Limiter failures never block a request.
func rateLimitMiddleware(limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Limit() <= 0 {
			c.Next()
			return
		}
		key, scope := ratelimit.KeyFor(c.GetString(contextKeySubject), c.ClientIP())
		if key == "" {
			c.Next()
			return
		}
		result, errAllow := limiter.Allow(c.Request.Context(), key)
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit: check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Reset.IsZero() {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
		}
		if !result.Allowed {
			resetSeconds := int(math.Ceil(time.Until(result.Reset).Seconds()))
			if resetSeconds < 0 {
				resetSeconds = 0
			}
			c.Header("Retry-After", strconv.Itoa(resetSeconds))
			log.WithFields(log.Fields{
				"scope":      scope.String(),
				"key":        key,
				"request_id": logging.RequestID(c),
			}).Info("rate limit exceeded")
			handlers.AbortWithError(c, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded")
			return
		}
		c.Next()
	}
}
