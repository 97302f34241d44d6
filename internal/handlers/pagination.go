package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/store"
)

var errInvalidPagination = errors.New("invalid pagination params")

// parsePagination reads page and pageSize, accepting limit as an alias for
// pageSize. Sizes above the maximum are clamped.
func parsePagination(c *gin.Context) (store.Page, error) {
	sizeStr := c.Query("pageSize")
	if sizeStr == "" {
		sizeStr = c.Query("limit")
	}
	return parsePaginationParams(c.Query("page"), sizeStr)
}

func parsePaginationParams(pageStr, sizeStr string) (store.Page, error) {
	page := store.Page{Page: 1, PageSize: store.DefaultPageSize}

	if s := strings.TrimSpace(pageStr); s != "" {
		p, err := strconv.ParseInt(s, 10, 64)
		if err != nil || p < 1 {
			return store.Page{}, errInvalidPagination
		}
		page.Page = p
	}

	if s := strings.TrimSpace(sizeStr); s != "" {
		l, err := strconv.ParseInt(s, 10, 64)
		if err != nil || l < 1 {
			return store.Page{}, errInvalidPagination
		}
		if l > store.MaxPageSize {
			l = store.MaxPageSize
		}
		page.PageSize = l
	}

	return page, nil
}

func paginated(data interface{}, page store.Page, total int64) gin.H {
	return gin.H{
		"data": data,
		"pagination": gin.H{
			"page":       page.Page,
			"pageSize":   page.PageSize,
			"total":      total,
			"totalPages": store.TotalPages(total, page.PageSize),
		},
	}
}
