package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DocSourceProduct = "product"
	DocSourceManual  = "manual"
)

// Doc is a knowledge snippet used to ground assistant answers.
type Doc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Text      string              `bson:"text" json:"text"`
	Title     string              `bson:"title,omitempty" json:"title,omitempty"`
	Source    string              `bson:"source,omitempty" json:"source,omitempty"`
	ProductID *primitive.ObjectID `bson:"product_id,omitempty" json:"product_id,omitempty"`
	Embedding []float64           `bson:"embedding,omitempty" json:"-"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
