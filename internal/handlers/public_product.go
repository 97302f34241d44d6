package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/logging"
	"storefront/internal/store"
)

// GetProducts lists active products with equality filters, text search, a
// rupee price range and pagination.
func GetProducts(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		page, err := parsePagination(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter, err := productFilterFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := products.List(ctx, filter, page)
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		logging.Debug().Str("route", route).Int("count", len(items)).Int64("total", total).Msg("products listed")
		c.JSON(http.StatusOK, paginated(items, page, total))
	}
}

func GetProduct(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !product.IsActive) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

// productFilterFromQuery maps the shared catalog query parameters.
func productFilterFromQuery(c *gin.Context) (store.ProductFilter, error) {
	filter := store.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Brand:    strings.TrimSpace(c.Query("brand")),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	var err error
	if filter.IsNew, err = boolQuery(c, "isNew"); err != nil {
		return filter, err
	}
	if filter.IsTrending, err = boolQuery(c, "isTrending"); err != nil {
		return filter, err
	}
	if filter.IsFeatured, err = boolQuery(c, "isFeatured"); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = floatQuery(c, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = floatQuery(c, "maxPrice"); err != nil {
		return filter, err
	}
	return filter, nil
}

func boolQuery(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(key + " must be boolean")
	}
	return &v, nil
}

func floatQuery(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, errors.New(key + " must be a non-negative number")
	}
	return &v, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return v, nil
}
