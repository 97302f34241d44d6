//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("storefront_test")
}

func TestProductsIntegration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	products := NewProducts(db)

	seed := []models.Product{
		{Title: "Wireless Earbuds", SKU: "ELECTRONICS-EARBUDS-001", Category: "Electronics", PriceINR: 1499, Stock: 10, IsActive: true, IsTrending: true},
		{Title: "Steel Bottle", SKU: "HOME-BOTTLE-001", Category: "Home", PriceINR: 499, Stock: 0, IsActive: true, IsFeatured: true},
		{Title: "Retired Speaker", SKU: "ELECTRONICS-SPK-009", Category: "Electronics", PriceINR: 900, Stock: 3, IsActive: false},
	}
	for i := range seed {
		require.NoError(t, products.Insert(ctx, &seed[i]))
	}

	page, total, err := products.List(ctx, ProductFilter{}, Page{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)

	ceiling := 1000.0
	cheap, err := products.Search(ctx, ProductQuery{MaxPrice: &ceiling})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "HOME-BOTTLE-001", cheap[0].SKU)

	bySKU, err := products.FindBySKU(ctx, "ELECTRONICS-EARBUDS-001")
	require.NoError(t, err)
	assert.Equal(t, "Wireless Earbuds", bySKU.Title)

	_, err = products.FindBySKU(ctx, "ELECTRONICS-SPK-009")
	assert.ErrorIs(t, err, ErrNotFound)

	byTitle, err := products.FindByTitle(ctx, "earbud")
	require.NoError(t, err)
	assert.Equal(t, seed[0].ID, byTitle.ID)

	require.NoError(t, products.Deactivate(ctx, seed[0].ID))
	_, total, err = products.List(ctx, ProductFilter{}, Page{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestOrdersTransitionIntegration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	orders := NewOrders(db)

	o := models.Order{Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}
	require.NoError(t, orders.Insert(ctx, &o))

	paid, err := orders.SetPaymentStatus(ctx, o.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, paid.Status)

	_, err = orders.TransitionStatus(ctx, o.ID, models.OrderStatusPending, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDocsMatchTextIntegration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	docs := NewDocs(db)

	n, err := docs.InsertMany(ctx, []models.Doc{
		{Text: "Wireless Earbuds SKU: ELECTRONICS-EARBUDS-001", Source: models.DocSourceProduct},
		{Text: "Returns accepted within 7 days", Source: models.DocSourceManual},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	found, err := docs.MatchText(ctx, "earbuds", 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.DocSourceProduct, found[0].Source)
}
