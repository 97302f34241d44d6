package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/events"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=100"`
}

type shippingAddressRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"max=60"`
	Phone      string `json:"phone" binding:"max=20"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" binding:"required,min=1,max=50,dive"`
	ShippingAddress shippingAddressRequest   `json:"shipping_address" binding:"required"`
	PaymentMethod   string                   `json:"payment_method" binding:"required,oneof=upi cod"`
}

/* =========================
   CREATE ORDER
========================= */

// CreateOrder accepts guest and signed-in checkouts. Item prices are taken
// from the catalog, never from the request.
func CreateOrder(products ProductStore, orders OrderStore, bus Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ids, err := orderProductIDs(req.Items)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		catalog, err := products.FindManyActive(ctx, ids)
		if err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		order, err := buildOrder(req, ids, catalog)
		if err != nil {
			var stockErr outOfStockError
			if errors.As(err, &stockErr) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":     "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var notFoundErr productNotFoundError
			if errors.As(err, &notFoundErr) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":     "product not found",
					"productId": notFoundErr.ProductID.Hex(),
				})
				return
			}
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if profileID, ok := middleware.ProfileID(c); ok {
			order.UserID = &profileID
		}

		if err := orders.Insert(ctx, &order); err != nil {
			respondServerError(c, route, err, "db error")
			return
		}

		if order.UserID != nil {
			logging.Info().Str("route", route).Str("order", order.ID.Hex()).Str("profile", order.UserID.Hex()).Msg("order created")
		} else {
			logging.Info().Str("route", route).Str("order", order.ID.Hex()).Msg("guest order created")
		}
		bus.Publish(events.TypeOrdersUpdated, gin.H{"id": order.ID.Hex(), "action": "created"})

		c.JSON(http.StatusCreated, order)
	}
}

func orderProductIDs(items []createOrderItemRequest) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, errors.New("invalid product_id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

/* =========================
   BUILD ORDER
========================= */

func buildOrder(req createOrderRequest, ids []primitive.ObjectID, catalog map[primitive.ObjectID]models.Product) (models.Order, error) {
	if len(req.Items) == 0 {
		return models.Order{}, errors.New("at least one item is required")
	}

	requested := make(map[primitive.ObjectID]int, len(ids))
	items := make([]models.OrderItem, 0, len(req.Items))
	for i, item := range req.Items {
		id := ids[i]
		product, ok := catalog[id]
		if !ok {
			return models.Order{}, productNotFoundError{ProductID: id}
		}

		requested[id] += item.Quantity
		if product.Stock < requested[id] {
			return models.Order{}, outOfStockError{ProductID: id, Available: product.Stock, Requested: requested[id]}
		}

		items = append(items, models.OrderItem{
			ProductID: id,
			Title:     product.Title,
			SKU:       product.SKU,
			PriceINR:  product.PriceINR,
			PriceUSD:  product.PriceUSD,
			Quantity:  item.Quantity,
		})
	}

	totalINR, totalUSD := orderTotals(items)
	addr := req.ShippingAddress
	country := strings.TrimSpace(addr.Country)
	if country == "" {
		country = "IN"
	}

	return models.Order{
		Items:         items,
		TotalINR:      totalINR,
		TotalUSD:      totalUSD,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		ShippingAddress: models.ShippingAddress{
			Name:       strings.TrimSpace(addr.Name),
			Line1:      strings.TrimSpace(addr.Line1),
			Line2:      strings.TrimSpace(addr.Line2),
			City:       strings.TrimSpace(addr.City),
			State:      strings.TrimSpace(addr.State),
			PostalCode: strings.TrimSpace(addr.PostalCode),
			Country:    country,
			Phone:      strings.TrimSpace(addr.Phone),
		},
	}, nil
}

/* =========================
   READ ORDERS
========================= */

func GetMyOrders(orders OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/mine"
		defer handlePanic(c, route)

		profileID, ok := middleware.ProfileID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		page, err := parsePagination(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := orders.List(ctx, store.OrderFilter{UserID: &profileID}, page)
		if err != nil {
			respondServerError(c, route, err, "Orders could not be fetched")
			return
		}

		c.JSON(http.StatusOK, paginated(items, page, total))
	}
}

func GetOrder(orders OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		order, ok := loadVisibleOrder(c, orders, route)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// loadVisibleOrder fetches the order in the path. Guest orders are visible
// to anyone holding the id; owned orders only to the owner or an admin.
func loadVisibleOrder(c *gin.Context, orders OrderStore, route string) (models.Order, bool) {
	id, ok := pathObjectID(c, route)
	if !ok {
		return models.Order{}, false
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := orders.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(c, http.StatusNotFound, route, "order not found")
		return models.Order{}, false
	}
	if err != nil {
		respondServerError(c, route, err, "db error")
		return models.Order{}, false
	}

	if order.UserID != nil && !middleware.IsAdmin(c) {
		profileID, signedIn := middleware.ProfileID(c)
		if !signedIn || profileID != *order.UserID {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return models.Order{}, false
		}
	}
	return order, true
}

type outOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e outOfStockError) Error() string {
	return "product out of stock"
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}
