package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type OrderFilter struct {
	UserID        *primitive.ObjectID
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
}

func (f OrderFilter) BSON() bson.M {
	filter := bson.M{}
	if f.UserID != nil {
		filter["user_id"] = *f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		filter["payment_status"] = f.PaymentStatus
	}
	return filter
}

type Orders struct {
	coll *mongo.Collection
}

func NewOrders(db *mongo.Database) *Orders {
	return &Orders{coll: db.Collection("orders")}
}

func (s *Orders) Insert(ctx context.Context, o *models.Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	res, err := s.coll.InsertOne(ctx, o)
	if err != nil {
		return err
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *Orders) Get(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return models.Order{}, mapFindOneErr(err)
	}
	return o, nil
}

func (s *Orders) List(ctx context.Context, filter OrderFilter, page Page) ([]models.Order, int64, error) {
	return findPage(ctx, s.coll, filter.BSON(), newestFirst, page, decodeAll[models.Order])
}

// TransitionStatus moves an order from one status to the next. The current
// status is part of the filter so concurrent updates cannot skip a step.
func (s *Orders) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (models.Order, error) {
	return s.findAndSet(ctx, bson.M{"_id": id, "status": from}, bson.M{"status": to})
}

// SetPaymentStatus records a payment outcome. A completed payment moves a
// pending order into processing.
func (s *Orders) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (models.Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	set := bson.M{"payment_status": status}
	filter := bson.M{"_id": id, "status": current.Status}
	if status == models.PaymentStatusCompleted && current.Status == models.OrderStatusPending {
		set["status"] = models.OrderStatusProcessing
	}
	return s.findAndSet(ctx, filter, set)
}

func (s *Orders) findAndSet(ctx context.Context, filter, set bson.M) (models.Order, error) {
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o models.Order
	err := s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := s.coll.CountDocuments(ctx, bson.M{"_id": filter["_id"]})
		if countErr == nil && count > 0 {
			return models.Order{}, ErrConflict
		}
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return o, nil
}
