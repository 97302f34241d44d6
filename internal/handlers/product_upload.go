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

// UploadProductImage stores a multipart "image" file and appends its public
// path to the product's images.
func UploadProductImage(products ProductStore, bus Publisher, uploadRoot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products/:id/images"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "image file required")
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

		imagePath, err := saveImage(uploadRoot, file)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		images := append(models.StringList{}, existing.Images...)
		images = append(images, imagePath)
		updated, err := products.Update(ctx, id, bson.M{"images": images})
		if err != nil {
			if delErr := safeDeleteUpload(uploadRoot, imagePath); delErr != nil {
				logging.Warn().Err(delErr).Str("route", route).Msg("orphaned upload not removed")
			}
			respondServerError(c, route, err, "db error")
			return
		}

		logging.Info().Str("route", route).Str("product", id.Hex()).Str("image", imagePath).Msg("product image uploaded")
		bus.Publish(events.TypeProductsUpdated, gin.H{"id": id.Hex(), "action": "image_added"})
		c.JSON(http.StatusCreated, updated)
	}
}

// RemoveProductImage drops ?path= from the product's images and deletes the
// file when it was uploaded here. External image URLs are only unlinked.
func RemoveProductImage(products ProductStore, bus Publisher, uploadRoot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id/images"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}
		target := strings.TrimSpace(c.Query("path"))
		if target == "" {
			respondWithError(c, http.StatusBadRequest, route, "path required")
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

		images := make(models.StringList, 0, len(existing.Images))
		for _, img := range existing.Images {
			if img != target {
				images = append(images, img)
			}
		}
		if len(images) == len(existing.Images) {
			respondWithError(c, http.StatusNotFound, route, "image not found")
			return
		}

		updated, err := products.Update(ctx, id, bson.M{"images": images})
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		if strings.HasPrefix(strings.TrimPrefix(target, "/"), uploadsPrefix) {
			if err := safeDeleteUpload(uploadRoot, target); err != nil {
				logging.Warn().Err(err).Str("route", route).Str("image", target).Msg("image file not removed")
			}
		}

		bus.Publish(events.TypeProductsUpdated, gin.H{"id": id.Hex(), "action": "image_removed"})
		c.JSON(http.StatusOK, updated)
	}
}
