package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type ProfileFilter struct {
	Role   string
	Search string
}

func (f ProfileFilter) BSON() bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if v := strings.TrimSpace(f.Search); v != "" {
		pattern := containsPattern(v)
		filter["$or"] = []bson.M{
			{"email": pattern},
			{"name": pattern},
		}
	}
	return filter
}

type Profiles struct {
	coll *mongo.Collection
}

func NewProfiles(db *mongo.Database) *Profiles {
	return &Profiles{coll: db.Collection("profiles")}
}

func (s *Profiles) Insert(ctx context.Context, p *models.Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *Profiles) Get(ctx context.Context, id primitive.ObjectID) (models.Profile, error) {
	var p models.Profile
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Profile{}, mapFindOneErr(err)
	}
	return p, nil
}

func (s *Profiles) FindByEmail(ctx context.Context, email string) (models.Profile, error) {
	var p models.Profile
	if err := s.coll.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&p); err != nil {
		return models.Profile{}, mapFindOneErr(err)
	}
	return p, nil
}

func (s *Profiles) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Profile, error) {
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Profile
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Profile{}, ErrDuplicate
		}
		return models.Profile{}, mapFindOneErr(err)
	}
	return p, nil
}

func (s *Profiles) List(ctx context.Context, filter ProfileFilter, page Page) ([]models.Profile, int64, error) {
	return findPage(ctx, s.coll, filter.BSON(), newestFirst, page, decodeAll[models.Profile])
}
