package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

// ProductStore is the catalog persistence the handlers use.
type ProductStore interface {
	List(ctx context.Context, filter store.ProductFilter, page store.Page) ([]models.Product, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Recommend(ctx context.Context, categories []string, limit int) ([]models.Product, error)
	FindManyActive(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	Insert(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Product, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	List(ctx context.Context, filter store.OrderFilter, page store.Page) ([]models.Order, int64, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (models.Order, error)
	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (models.Order, error)
}

type ProfileStore interface {
	Insert(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, id primitive.ObjectID) (models.Profile, error)
	FindByEmail(ctx context.Context, email string) (models.Profile, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Profile, error)
	List(ctx context.Context, filter store.ProfileFilter, page store.Page) ([]models.Profile, int64, error)
}

// Publisher notifies live admin clients that a collection changed.
type Publisher interface {
	Publish(evtType string, data interface{})
}
