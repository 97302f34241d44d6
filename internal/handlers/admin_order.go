package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/events"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/store"
)

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
}

func GetOrders(orders OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		page, err := parsePagination(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := store.OrderFilter{
			Status:        models.OrderStatus(strings.TrimSpace(c.Query("status"))),
			PaymentStatus: models.PaymentStatus(strings.TrimSpace(c.Query("paymentStatus"))),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}
		if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid paymentStatus")
			return
		}
		if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
			userID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid userId")
				return
			}
			filter.UserID = &userID
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := orders.List(ctx, filter, page)
		if err != nil {
			respondServerError(c, route, err, "Orders could not be fetched")
			return
		}

		c.JSON(http.StatusOK, paginated(items, page, total))
	}
}

// UpdateOrderStatus moves an order along the fulfilment lifecycle.
func UpdateOrderStatus(orders OrderStore, bus Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/admin/orders/:id/status"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}

		var req orderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !req.Status.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		current, err := orders.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		if !current.Status.CanTransition(req.Status) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "invalid status transition",
				"from":  current.Status,
				"to":    req.Status,
			})
			return
		}

		updated, err := orders.TransitionStatus(ctx, id, current.Status, req.Status)
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		case errors.Is(err, store.ErrConflict):
			respondWithError(c, http.StatusConflict, route, "order changed concurrently")
			return
		case err != nil:
			respondServerError(c, route, err, "db error")
			return
		}

		logging.Info().Str("route", route).Str("order", id.Hex()).Str("from", string(current.Status)).Str("to", string(req.Status)).Msg("order status changed")
		bus.Publish(events.TypeOrdersUpdated, gin.H{"id": id.Hex(), "status": updated.Status})
		c.JSON(http.StatusOK, updated)
	}
}

// UpdatePaymentStatus records a payment outcome. A completed payment moves
// a pending order to processing.
func UpdatePaymentStatus(orders OrderStore, bus Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/admin/orders/:id/payment"
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, route)
		if !ok {
			return
		}

		var req paymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !req.PaymentStatus.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid payment_status")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := orders.SetPaymentStatus(ctx, id, req.PaymentStatus)
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		case errors.Is(err, store.ErrConflict):
			respondWithError(c, http.StatusConflict, route, "order changed concurrently")
			return
		case err != nil:
			respondServerError(c, route, err, "db error")
			return
		}

		logging.Info().Str("route", route).Str("order", id.Hex()).Str("payment_status", string(updated.PaymentStatus)).Msg("payment status changed")
		bus.Publish(events.TypeOrdersUpdated, gin.H{"id": id.Hex(), "payment_status": updated.PaymentStatus})
		c.JSON(http.StatusOK, updated)
	}
}
