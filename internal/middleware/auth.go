package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/logging"
	"storefront/internal/models"
)

const (
	ctxClaims    = "claims"
	ctxProfileID = "profileId"
	ctxRole      = "role"
)

// AuthGuard requires a valid bearer token and, when roles are given, one
// of those roles.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		if !authenticate(c, secret, raw) {
			return
		}

		if len(allowedRoles) > 0 {
			role := c.GetString(ctxRole)
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Next()
	}
}

func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleAdmin)
}

// ProfileAuth accepts any signed-in profile.
func ProfileAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret)
}

// OptionalAuth lets guests through but still rejects a bad token.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}
		if !authenticate(c, secret, raw) {
			return
		}
		c.Next()
	}
}

// authenticate parses the header and stores the identity on the context.
// It aborts with 401 and returns false on any failure.
func authenticate(c *gin.Context, secret, header string) bool {
	raw, ok := bearerToken(header)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return false
	}

	claims, err := ParseToken(secret, raw)
	if err != nil {
		logging.Debug().Err(err).Str("path", c.FullPath()).Msg("token validation failed")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}

	profileID, err := claims.ProfileID()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}

	c.Set(ctxClaims, claims)
	c.Set(ctxProfileID, profileID)
	c.Set(ctxRole, claims.Role)
	return true
}

// ProfileID returns the authenticated profile id, if any.
func ProfileID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(ctxProfileID)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(ctxRole) == models.RoleAdmin
}
