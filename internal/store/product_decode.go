package store

import (
	"context"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

var productFlags = []string{"is_active", "is_new", "is_trending", "is_featured"}

// normalizeProductDocument coerces loosely typed seed data (string flags,
// int32/float stock, string prices) before decoding into a Product.
func normalizeProductDocument(raw bson.M) (models.Product, error) {
	for _, key := range productFlags {
		switch typed := raw[key].(type) {
		case bool:
		case string:
			raw[key] = strings.EqualFold(strings.TrimSpace(typed), "true")
		case nil:
			// documents without is_active are treated as active
			raw[key] = key == "is_active"
		default:
			raw[key] = false
		}
	}

	raw["stock"] = toInt(raw["stock"])
	raw["price_inr"] = toFloat(raw["price_inr"])
	raw["price_usd"] = toFloat(raw["price_usd"])

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}

	p.InStock = p.Stock > 0
	return p, nil
}

func toInt(v interface{}) int {
	switch typed := v.(type) {
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case int:
		return typed
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		product, err := normalizeProductDocument(raw)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func decodeProduct(result *mongo.SingleResult) (models.Product, error) {
	var raw bson.M
	if err := result.Decode(&raw); err != nil {
		return models.Product{}, mapFindOneErr(err)
	}
	return normalizeProductDocument(raw)
}
