package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Product is never hard-deleted; deactivation clears IsActive.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	PriceINR    float64            `bson:"price_inr" json:"price_inr"`
	PriceUSD    float64            `bson:"price_usd" json:"price_usd"`
	Category    string             `bson:"category" json:"category"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	InStock     bool               `bson:"-" json:"in_stock"`
	Rating      Rating             `bson:"rating" json:"rating"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	IsNew       bool               `bson:"is_new" json:"is_new"`
	IsTrending  bool               `bson:"is_trending" json:"is_trending"`
	IsFeatured  bool               `bson:"is_featured" json:"is_featured"`
	SKU         string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Tags        StringList         `bson:"tags" json:"tags"`
	Images      StringList         `bson:"images" json:"images"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
