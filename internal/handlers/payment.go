package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/payments"
)

// GetOrderUPI returns the UPI collect link for an unpaid order, with its QR
// code as base64 PNG, or the raw PNG when format=png.
func GetOrderUPI(orders OrderStore, payee payments.Payee) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id/upi"
		defer handlePanic(c, route)

		if !payee.Configured() {
			respondWithError(c, http.StatusServiceUnavailable, route, "upi payments are not configured")
			return
		}

		order, ok := loadVisibleOrder(c, orders, route)
		if !ok {
			return
		}
		if order.PaymentStatus == models.PaymentStatusCompleted {
			respondWithError(c, http.StatusConflict, route, "order already paid")
			return
		}

		link, err := payments.BuildUPILink(payee, payments.LinkRequest{
			AmountINR: order.TotalINR,
			Reference: order.ID.Hex(),
			Note:      "Order " + order.ID.Hex(),
		})
		if errors.Is(err, payments.ErrPayeeNotConfigured) {
			respondWithError(c, http.StatusServiceUnavailable, route, "upi payments are not configured")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		png, err := payments.QRPNG(link)
		if err != nil {
			respondServerError(c, route, err, "qr generation failed")
			return
		}

		if c.Query("format") == "png" {
			c.Data(http.StatusOK, "image/png", png)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"upiLink": link,
			"qrPng":   base64.StdEncoding.EncodeToString(png),
			"amount":  order.TotalINR,
		})
	}
}
