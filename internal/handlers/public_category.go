package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"storefront/internal/logging"
)

// GetCategories returns the distinct categories of active products.
func GetCategories(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		categories, err := products.Categories(ctx)
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}
		sort.Strings(categories)

		logging.Debug().Str("route", route).Int("count", len(categories)).Msg("categories listed")
		c.JSON(http.StatusOK, categories)
	}
}
