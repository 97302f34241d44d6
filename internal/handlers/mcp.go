package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/assistant"
)

// ProductSearcher is the assistant's searchProducts tool.
type ProductSearcher interface {
	SearchProducts(ctx context.Context, args assistant.SearchArgs) ([]assistant.ProductSummary, error)
}

// SmartSearch exposes the searchProducts tool over HTTP.
func SmartSearch(searcher ProductSearcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/mcp/smart-search"
		defer handlePanic(c, route)

		maxPrice, err := floatQuery(c, "maxPrice")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		limit, err := intQuery(c, "limit")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		args := assistant.SearchArgs{
			Query:    strings.TrimSpace(c.Query("q")),
			MaxPrice: maxPrice,
			Category: strings.TrimSpace(c.Query("category")),
			Limit:    limit,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		products, err := searcher.SearchProducts(ctx, args)
		if err != nil {
			respondServerError(c, route, err, "search failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
	}
}

// Recommendations ranks products for the given category preferences, or
// trending products when none are given.
func Recommendations(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/mcp/ai-recommendations"
		defer handlePanic(c, route)

		limit, err := intQuery(c, "limit")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		var categories []string
		for _, part := range strings.Split(c.Query("categories"), ",") {
			if v := strings.TrimSpace(part); v != "" {
				categories = append(categories, v)
			}
		}
		basis := "trending"
		if len(categories) > 0 {
			basis = "preferences"
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := products.Recommend(ctx, categories, limit)
		if err != nil {
			respondServerError(c, route, err, "recommendations failed")
			return
		}

		summaries := make([]assistant.ProductSummary, 0, len(items))
		for _, p := range items {
			summaries = append(summaries, assistant.Summarize(p))
		}
		c.JSON(http.StatusOK, gin.H{"products": summaries, "count": len(summaries), "basis": basis})
	}
}
