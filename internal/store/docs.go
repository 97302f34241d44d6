package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type Docs struct {
	coll *mongo.Collection
}

func NewDocs(db *mongo.Database) *Docs {
	return &Docs{coll: db.Collection("docs")}
}

func (s *Docs) InsertMany(ctx context.Context, docs []models.Doc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	now := time.Now()
	payload := make([]interface{}, 0, len(docs))
	for i := range docs {
		if docs[i].CreatedAt.IsZero() {
			docs[i].CreatedAt = now
		}
		payload = append(payload, docs[i])
	}
	res, err := s.coll.InsertMany(ctx, payload)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// MatchText returns docs whose text matches the regex pattern, ignoring case.
// The pattern is used as given; callers quote user input.
func (s *Docs) MatchText(ctx context.Context, pattern string, limit int) ([]models.Doc, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.coll.Find(ctx, bson.M{"text": bson.M{"$regex": pattern, "$options": "i"}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeAll[models.Doc](ctx, cursor)
}

// All loads every doc including embeddings, for brute-force scoring.
func (s *Docs) All(ctx context.Context) ([]models.Doc, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeAll[models.Doc](ctx, cursor)
}
