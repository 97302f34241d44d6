package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/events"
	"storefront/internal/knowledge"
	"storefront/internal/logging"
)

type KnowledgeService interface {
	Ingest(ctx context.Context, snippets []knowledge.Snippet, includeProducts bool) (int, error)
	Search(ctx context.Context, query string, limit int) ([]knowledge.Result, error)
}

type ingestRequest struct {
	Docs            []knowledge.Snippet `json:"docs" binding:"max=500,dive"`
	IncludeProducts bool                `json:"includeProducts"`
}

// IngestKnowledge stores admin snippets, optionally with one per active
// product. upstreamTimeout bounds the call since it may reach the embedder.
func IngestKnowledge(svc KnowledgeService, bus Publisher, upstreamTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/knowledge/ingest"
		defer handlePanic(c, route)

		var req ingestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if len(req.Docs) == 0 && !req.IncludeProducts {
			respondWithError(c, http.StatusBadRequest, route, "docs or includeProducts required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
		defer cancel()

		inserted, err := svc.Ingest(ctx, req.Docs, req.IncludeProducts)
		if err != nil {
			respondServerError(c, route, err, "ingest failed")
			return
		}

		logging.Info().Str("route", route).Int("inserted", inserted).Bool("include_products", req.IncludeProducts).Msg("knowledge ingested")
		bus.Publish(events.TypeKnowledgeUpdated, gin.H{"inserted": inserted})
		c.JSON(http.StatusCreated, gin.H{"inserted": inserted})
	}
}

func SearchKnowledge(svc KnowledgeService, upstreamTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/knowledge/search"
		defer handlePanic(c, route)

		limit, err := intQuery(c, "limit")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
		defer cancel()

		results, err := svc.Search(ctx, c.Query("q"), limit)
		if errors.Is(err, knowledge.ErrEmptyQuery) {
			respondWithError(c, http.StatusBadRequest, route, "q is required")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "search failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
	}
}
