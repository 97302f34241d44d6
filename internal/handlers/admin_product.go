package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/events"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/store"
)

type ProductRequest struct {
	Title       *string            `json:"title" binding:"omitempty,max=200"`
	Description *string            `json:"description" binding:"omitempty,max=5000"`
	PriceINR    *float64           `json:"price_inr"`
	PriceUSD    *float64           `json:"price_usd"`
	Category    *string            `json:"category" binding:"omitempty,max=100"`
	Brand       *string            `json:"brand" binding:"omitempty,max=100"`
	Stock       *int               `json:"stock" binding:"omitempty,gte=0"`
	SKU         *string            `json:"sku" binding:"omitempty,max=100"`
	Tags        *models.StringList `json:"tags"`
	Images      *models.StringList `json:"images"`
	Rating      *models.Rating     `json:"rating"`
	IsActive    *bool              `json:"is_active"`
	IsNew       *bool              `json:"is_new"`
	IsTrending  *bool              `json:"is_trending"`
	IsFeatured  *bool              `json:"is_featured"`
}

/* =======================
   GET (ADMIN) – LIST
======================= */

func GetAllProducts(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
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
		filter.IncludeInactive = true
		if filter.IsActive, err = boolQuery(c, "isActive"); err != nil {
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

		c.JSON(http.StatusOK, paginated(items, page, total))
	}
}

/* =======================
   CREATE
======================= */

func CreateProduct(products ProductStore, bus Publisher, inrPerUSD float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products"
		defer handlePanic(c, route)

		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		product, err := newProductFromRequest(req, inrPerUSD)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := products.Insert(ctx, &product); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondWithError(c, http.StatusConflict, route, "sku already exists")
				return
			}
			respondServerError(c, route, err, "db error")
			return
		}

		logging.Info().Str("route", route).Str("product", product.ID.Hex()).Msg("product created")
		bus.Publish(events.TypeProductsUpdated, gin.H{"id": product.ID.Hex(), "action": "created"})
		c.JSON(http.StatusCreated, product)
	}
}

func newProductFromRequest(req ProductRequest, inrPerUSD float64) (models.Product, error) {
	title := trimmed(req.Title)
	if title == "" {
		return models.Product{}, errors.New("title required")
	}
	category := trimmed(req.Category)
	if category == "" {
		return models.Product{}, errors.New("category required")
	}
	if req.PriceINR == nil {
		return models.Product{}, errors.New("price_inr required")
	}

	prices, err := resolvePriceUpdate(0, 0, inrPerUSD, priceUpdateInput{PriceINR: req.PriceINR, PriceUSD: req.PriceUSD})
	if err != nil {
		return models.Product{}, err
	}

	product := models.Product{
		Title:       title,
		Description: trimmed(req.Description),
		PriceINR:    prices.PriceINR,
		PriceUSD:    prices.PriceUSD,
		Category:    category,
		Brand:       trimmed(req.Brand),
		SKU:         trimmed(req.SKU),
		IsActive:    true,
		Tags:        models.StringList{},
		Images:      models.StringList{},
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	product.InStock = product.Stock > 0
	if req.Tags != nil {
		product.Tags = *req.Tags
	}
	if req.Images != nil {
		product.Images = *req.Images
	}
	if req.Rating != nil {
		product.Rating = *req.Rating
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsNew != nil {
		product.IsNew = *req.IsNew
	}
	if req.IsTrending != nil {
		product.IsTrending = *req.IsTrending
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	return product, nil
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(products ProductStore, bus Publisher, inrPerUSD float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/:id"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}

		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		existing, err := products.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		set, err := productUpdateSet(req, existing, inrPerUSD)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if len(set) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		updated, err := products.Update(ctx, id, set)
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		case errors.Is(err, store.ErrDuplicate):
			respondWithError(c, http.StatusConflict, route, "sku already exists")
			return
		case err != nil:
			respondServerError(c, route, err, "db error")
			return
		}

		logging.Info().Str("route", route).Str("product", id.Hex()).Strs("fields", setKeys(set)).Msg("product updated")
		bus.Publish(events.TypeProductsUpdated, gin.H{"id": id.Hex(), "action": "updated"})
		c.JSON(http.StatusOK, updated)
	}
}

func productUpdateSet(req ProductRequest, existing models.Product, inrPerUSD float64) (bson.M, error) {
	set := bson.M{}

	if req.Title != nil {
		title := trimmed(req.Title)
		if title == "" {
			return nil, errors.New("title required")
		}
		set["title"] = title
	}
	if req.Category != nil {
		category := trimmed(req.Category)
		if category == "" {
			return nil, errors.New("category required")
		}
		set["category"] = category
	}
	if req.Description != nil {
		set["description"] = trimmed(req.Description)
	}
	if req.Brand != nil {
		set["brand"] = trimmed(req.Brand)
	}
	if req.SKU != nil {
		// empty string clears the sku; the unique index only covers strings
		if sku := trimmed(req.SKU); sku != "" {
			set["sku"] = sku
		} else {
			set["sku"] = nil
		}
	}

	prices, err := resolvePriceUpdate(existing.PriceINR, existing.PriceUSD, inrPerUSD, priceUpdateInput{PriceINR: req.PriceINR, PriceUSD: req.PriceUSD})
	if err != nil {
		return nil, err
	}
	if prices.SetINR {
		set["price_inr"] = prices.PriceINR
	}
	if prices.SetUSD {
		set["price_usd"] = prices.PriceUSD
	}

	if req.Stock != nil {
		set["stock"] = *req.Stock
	}
	if req.Tags != nil {
		set["tags"] = *req.Tags
	}
	if req.Images != nil {
		set["images"] = *req.Images
	}
	if req.Rating != nil {
		set["rating"] = *req.Rating
	}
	if req.IsActive != nil {
		set["is_active"] = *req.IsActive
	}
	if req.IsNew != nil {
		set["is_new"] = *req.IsNew
	}
	if req.IsTrending != nil {
		set["is_trending"] = *req.IsTrending
	}
	if req.IsFeatured != nil {
		set["is_featured"] = *req.IsFeatured
	}
	return set, nil
}

/* =======================
   DELETE (SOFT)
======================= */

func DeactivateProduct(products ProductStore, bus Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := products.Deactivate(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondServerError(c, route, err, "db error")
			return
		}

		logging.Info().Str("route", route).Str("product", id.Hex()).Msg("product deactivated")
		bus.Publish(events.TypeProductsUpdated, gin.H{"id": id.Hex(), "action": "deactivated"})
		c.JSON(http.StatusOK, gin.H{"message": "product deactivated"})
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func setKeys(set bson.M) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
