package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/logging"
)

const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
	ProfilesCollection = "profiles"
	DocsCollection     = "docs"
)

// EnsureIndexes creates every index the service relies on. Failures are
// returned per collection so callers can log and keep serving.
func EnsureIndexes(db *mongo.Database) []error {
	var errs []error
	for _, fn := range []func(*mongo.Database) error{
		EnsureProductIndexes,
		EnsureProfileIndexes,
		EnsureOrderIndexes,
		EnsureDocIndexes,
	} {
		if err := fn(db); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection(ProductsCollection).Indexes()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().
				SetName("sku_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"sku": bson.M{"$type": "string"},
				}),
		},
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetName("active_category"),
		},
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "price_inr", Value: 1}},
			Options: options.Index().SetName("active_price"),
		},
	}

	return createIndexes(ctx, indexes, ProductsCollection, models)
}

func EnsureProfileIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	return createIndexes(ctx, db.Collection(ProfilesCollection).Indexes(), ProfilesCollection, []mongo.IndexModel{emailIndex})
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_id_index"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
	}

	return createIndexes(ctx, db.Collection(OrdersCollection).Indexes(), OrdersCollection, models)
}

func EnsureDocIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sourceIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "source", Value: 1}},
		Options: options.Index().SetName("source_index"),
	}

	return createIndexes(ctx, db.Collection(DocsCollection).Indexes(), DocsCollection, []mongo.IndexModel{sourceIndex})
}

func createIndexes(ctx context.Context, indexes mongo.IndexView, collection string, models []mongo.IndexModel) error {
	names, err := indexes.CreateMany(ctx, models)
	if err != nil {
		logging.Error().Err(err).Str("collection", collection).Msg("index creation failed")
		return err
	}
	logging.Info().Str("collection", collection).Strs("indexes", names).Msg("indexes ensured")
	return nil
}
