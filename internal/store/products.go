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

const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 20
)

// ProductFilter drives the paginated catalog listings.
type ProductFilter struct {
	// IncludeInactive lists deactivated products too (admin listing).
	IncludeInactive bool
	IsActive        *bool
	Category        string
	Brand           string
	Search          string
	IsNew           *bool
	IsTrending      *bool
	IsFeatured      *bool
	MinPrice        *float64
	MaxPrice        *float64
}

func (f ProductFilter) BSON() bson.M {
	filter := bson.M{}

	switch {
	case f.IsActive != nil:
		filter["is_active"] = *f.IsActive
	case !f.IncludeInactive:
		filter["is_active"] = bson.M{"$ne": false}
	}

	if v := strings.TrimSpace(f.Category); v != "" {
		filter["category"] = exactFoldPattern(v)
	}
	if v := strings.TrimSpace(f.Brand); v != "" {
		filter["brand"] = exactFoldPattern(v)
	}
	if f.IsNew != nil {
		filter["is_new"] = *f.IsNew
	}
	if f.IsTrending != nil {
		filter["is_trending"] = *f.IsTrending
	}
	if f.IsFeatured != nil {
		filter["is_featured"] = *f.IsFeatured
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price_inr"] = price
	}

	if v := strings.TrimSpace(f.Search); v != "" {
		pattern := containsPattern(v)
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"description": pattern},
			{"sku": pattern},
			{"tags": pattern},
		}
	}

	return filter
}

// ProductQuery is the assistant-facing search: free text, price ceiling
// and category over active products.
type ProductQuery struct {
	Query    string
	MaxPrice *float64
	Category string
	Limit    int
}

func (q ProductQuery) BSON() bson.M {
	filter := bson.M{"is_active": bson.M{"$ne": false}}

	if v := strings.TrimSpace(q.Query); v != "" {
		pattern := containsPattern(v)
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"description": pattern},
			{"category": pattern},
			{"brand": pattern},
			{"sku": pattern},
			{"tags": pattern},
		}
	}
	if q.MaxPrice != nil {
		filter["price_inr"] = bson.M{"$lte": *q.MaxPrice}
	}
	if v := strings.TrimSpace(q.Category); v != "" {
		filter["category"] = exactFoldPattern(v)
	}
	return filter
}

// ClampLimit applies the default and hard cap used by every search surface.
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultSearchLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

type Products struct {
	coll *mongo.Collection
}

func NewProducts(db *mongo.Database) *Products {
	return &Products{coll: db.Collection("products")}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func (s *Products) List(ctx context.Context, filter ProductFilter, page Page) ([]models.Product, int64, error) {
	return findPage(ctx, s.coll, filter.BSON(), newestFirst, page, decodeProducts)
}

func (s *Products) Search(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	opts := options.Find().
		SetLimit(int64(ClampLimit(q.Limit))).
		SetSort(bson.D{{Key: "rating.average", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := s.coll.Find(ctx, q.BSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeProducts(ctx, cursor)
}

func (s *Products) Get(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return decodeProduct(s.coll.FindOne(ctx, bson.M{"_id": id}))
}

// FindBySKU matches the SKU exactly, ignoring inactive products.
func (s *Products) FindBySKU(ctx context.Context, sku string) (models.Product, error) {
	return decodeProduct(s.coll.FindOne(ctx, bson.M{
		"sku":       strings.TrimSpace(sku),
		"is_active": bson.M{"$ne": false},
	}))
}

// FindByTitle returns the first active product whose title contains title.
func (s *Products) FindByTitle(ctx context.Context, title string) (models.Product, error) {
	return decodeProduct(s.coll.FindOne(ctx, bson.M{
		"title":     containsPattern(title),
		"is_active": bson.M{"$ne": false},
	}))
}

func (s *Products) ListActive(ctx context.Context) ([]models.Product, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"is_active": bson.M{"$ne": false}}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeProducts(ctx, cursor)
}

// Recommend lists active products in the preferred categories, or trending
// products when no preference is given, best rated first. Short lists are
// topped up with featured products.
func (s *Products) Recommend(ctx context.Context, categories []string, limit int) ([]models.Product, error) {
	limit = ClampLimit(limit)
	byRating := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "rating.average", Value: -1}, {Key: "rating.count", Value: -1}})

	primary := bson.M{"is_active": bson.M{"$ne": false}}
	if len(categories) > 0 {
		clauses := make([]bson.M, 0, len(categories))
		for _, c := range categories {
			clauses = append(clauses, bson.M{"category": exactFoldPattern(c)})
		}
		primary["$or"] = clauses
	} else {
		primary["is_trending"] = true
	}

	cursor, err := s.coll.Find(ctx, primary, byRating)
	if err != nil {
		return nil, err
	}
	products, err := decodeProducts(ctx, cursor)
	cursor.Close(ctx)
	if err != nil || len(products) >= limit {
		return products, err
	}

	seen := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		seen = append(seen, p.ID)
	}
	fill := bson.M{
		"is_active":   bson.M{"$ne": false},
		"is_featured": true,
		"_id":         bson.M{"$nin": seen},
	}
	cursor, err = s.coll.Find(ctx, fill, byRating.SetLimit(int64(limit-len(products))))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	extra, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return append(products, extra...), nil
}

func (s *Products) Categories(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "category", bson.M{"is_active": bson.M{"$ne": false}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok && strings.TrimSpace(name) != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func (s *Products) Insert(ctx context.Context, p *models.Product) error {
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
	p.InStock = p.Stock > 0
	return nil
}

// Update applies a $set and returns the updated document.
func (s *Products) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Product, error) {
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts)
	if err := res.Err(); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Product{}, ErrDuplicate
		}
		return models.Product{}, mapFindOneErr(err)
	}
	return decodeProduct(res)
}

// Deactivate soft-deletes a product.
func (s *Products) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_active":  false,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindManyActive returns active products keyed by id.
func (s *Products) FindManyActive(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	cursor, err := s.coll.Find(ctx, bson.M{
		"_id":       bson.M{"$in": ids},
		"is_active": bson.M{"$ne": false},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
