// Package store holds the MongoDB repositories for products, orders,
// profiles and knowledge docs.
package store

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrConflict  = errors.New("state conflict")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page     int64
	PageSize int64
}

func (p Page) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, pageSize int64) int64 {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(total) / float64(pageSize)))
}

// containsPattern builds a case-insensitive regex filter matching value as
// a literal substring.
func containsPattern(value string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(strings.TrimSpace(value)), "$options": "i"}
}

// exactFoldPattern matches value exactly, ignoring case.
func exactFoldPattern(value string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(strings.TrimSpace(value)) + "$", "$options": "i"}
}

// findPage runs the count and the page fetch concurrently.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, page Page, decode func(context.Context, *mongo.Cursor) ([]T, error)) ([]T, int64, error) {
	var (
		items []T
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := coll.CountDocuments(gctx, filter)
		total = n
		return err
	})
	g.Go(func() error {
		opts := options.Find().
			SetSkip(page.Skip()).
			SetLimit(page.PageSize).
			SetSort(sort)
		cursor, err := coll.Find(gctx, filter, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(gctx)
		items, err = decode(gctx, cursor)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mapFindOneErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
