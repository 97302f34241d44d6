package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/events"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

type updateMeRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=100"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=500"`
}

type adminProfileUpdateRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=100"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	Role    *string `json:"role" binding:"omitempty,oneof=user admin"`
}

func GetMe(profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/profiles/me"
		defer handlePanic(c, route)

		profileID, ok := middleware.ProfileID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		profile, err := profiles.Get(ctx, profileID)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "profile not found")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

// UpdateMe edits the caller's own contact details. Role and email are not
// editable here.
func UpdateMe(profiles ProfileStore, bus Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/profiles/me"
		defer handlePanic(c, route)

		profileID, ok := middleware.ProfileID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req updateMeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		set := contactUpdateSet(req.Name, req.Phone, req.Address)
		if len(set) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		if name, ok := set["name"]; ok && name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := profiles.Update(ctx, profileID, set)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "profile not found")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		bus.Publish(events.TypeProfilesUpdated, gin.H{"id": profileID.Hex(), "action": "updated"})
		c.JSON(http.StatusOK, updated)
	}
}

func ListProfiles(profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/profiles"
		defer handlePanic(c, route)

		page, err := parsePagination(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := store.ProfileFilter{
			Role:   strings.TrimSpace(c.Query("role")),
			Search: strings.TrimSpace(c.Query("search")),
		}
		if filter.Role != "" && !models.ValidRole(filter.Role) {
			respondWithError(c, http.StatusBadRequest, route, "invalid role")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := profiles.List(ctx, filter, page)
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		c.JSON(http.StatusOK, paginated(items, page, total))
	}
}

// UpdateProfile lets an admin edit any profile, including its role.
func UpdateProfile(profiles ProfileStore, bus Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/profiles/:id"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}

		var req adminProfileUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		set := contactUpdateSet(req.Name, req.Phone, req.Address)
		if req.Role != nil {
			set["role"] = *req.Role
		}
		if len(set) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		if name, ok := set["name"]; ok && name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := profiles.Update(ctx, id, set)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "profile not found")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		bus.Publish(events.TypeProfilesUpdated, gin.H{"id": id.Hex(), "action": "updated"})
		c.JSON(http.StatusOK, updated)
	}
}

func contactUpdateSet(name, phone, address *string) bson.M {
	set := bson.M{}
	if name != nil {
		set["name"] = strings.TrimSpace(*name)
	}
	if phone != nil {
		set["phone"] = strings.TrimSpace(*phone)
	}
	if address != nil {
		set["address"] = strings.TrimSpace(*address)
	}
	return set
}
