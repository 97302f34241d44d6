package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
)

// AdminLogin is the admin panel sign-in. Only profiles with the admin role
// receive a token.
func AdminLogin(profiles ProfileStore, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return loginHandler("POST /api/admin/login", profiles, jwtSecret, accessTTL, models.RoleAdmin)
}
