package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/events"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=100"`
	Phone    string `json:"phone" binding:"max=20"`
}

// emailValidator checks addresses after normalization, since binding sees the
// raw body.
var emailValidator = validator.New()

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	AccessToken string         `json:"accessToken"`
	ExpiresIn   int64          `json:"expiresIn"`
	Profile     models.Profile `json:"profile"`
}

// Signup creates a shopper profile and signs it in. The role is always user.
func Signup(profiles ProfileStore, bus Publisher, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/signup"
		defer handlePanic(c, route)

		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := emailValidator.Var(req.Email, "email"); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": []string{"email is invalid"},
			})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondServerError(c, route, err, "password hashing failed")
			return
		}

		profile := models.Profile{
			Email:        req.Email,
			Name:         strings.TrimSpace(req.Name),
			Phone:        strings.TrimSpace(req.Phone),
			Role:         models.RoleUser,
			PasswordHash: string(hash),
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := profiles.Insert(ctx, &profile); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondWithError(c, http.StatusConflict, route, "email already registered")
				return
			}
			respondServerError(c, route, err, "db error")
			return
		}

		resp, err := newAuthResponse(profile, jwtSecret, accessTTL)
		if err != nil {
			respondServerError(c, route, err, "token generation failed")
			return
		}

		logging.Info().Str("route", route).Str("profile", profile.ID.Hex()).Msg("profile registered")
		bus.Publish(events.TypeProfilesUpdated, gin.H{"id": profile.ID.Hex(), "action": "created"})
		c.JSON(http.StatusCreated, resp)
	}
}

func Login(profiles ProfileStore, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return loginHandler("POST /api/auth/login", profiles, jwtSecret, accessTTL, "")
}

// loginHandler verifies email and password. requiredRole, when set, is
// checked after the password so a wrong role looks like bad credentials.
func loginHandler(route string, profiles ProfileStore, jwtSecret string, accessTTL time.Duration, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			respondWithError(c, http.StatusBadRequest, route, "email and password are required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		profile, err := profiles.FindByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if requiredRole != "" && profile.Role != requiredRole {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		resp, err := newAuthResponse(profile, jwtSecret, accessTTL)
		if err != nil {
			respondServerError(c, route, err, "token generation failed")
			return
		}

		logging.Info().Str("route", route).Str("profile", profile.ID.Hex()).Str("role", profile.Role).Msg("login succeeded")
		c.JSON(http.StatusOK, resp)
	}
}

func newAuthResponse(profile models.Profile, jwtSecret string, accessTTL time.Duration) (authResponse, error) {
	token, err := middleware.IssueToken(jwtSecret, profile.ID, profile.Role, profile.Email, accessTTL)
	if err != nil {
		return authResponse{}, err
	}
	return authResponse{
		AccessToken: token,
		ExpiresIn:   int64(accessTTL.Seconds()),
		Profile:     profile,
	}, nil
}
