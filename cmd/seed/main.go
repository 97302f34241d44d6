// Command seed loads sample catalog data for local development and can
// index the catalog into the knowledge store.
package main

import (
	"context"
	"errors"
	"flag"
	"math"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/knowledge"
	"storefront/internal/llm"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/store"
)

func sampleProducts(inrPerUSD float64) []models.Product {
	usd := func(inr float64) float64 {
		return math.Round(inr/inrPerUSD*100) / 100
	}
	products := []models.Product{
		{
			Title:       "Wireless Earbuds",
			Description: "Bluetooth 5.3 earbuds with 30 hour battery and a charging case.",
			PriceINR:    1999,
			Category:    "Electronics",
			Brand:       "Sonique",
			Stock:       25,
			Rating:      models.Rating{Average: 4.4, Count: 312},
			IsTrending:  true,
			IsFeatured:  true,
			SKU:         "ELECTRONICS-EARBUDS-001",
			Tags:        models.StringList{"audio", "bluetooth", "earbuds"},
		},
		{
			Title:       "Portable Speaker",
			Description: "Splash-proof speaker with deep bass.",
			PriceINR:    2499,
			Category:    "Electronics",
			Brand:       "Sonique",
			Stock:       8,
			Rating:      models.Rating{Average: 4.6, Count: 98},
			IsNew:       true,
			SKU:         "ELECTRONICS-SPEAKER-002",
			Tags:        models.StringList{"audio", "speaker"},
		},
		{
			Title:       "USB-C Fast Charger",
			Description: "65W GaN charger for phones and laptops.",
			PriceINR:    1499,
			Category:    "Electronics",
			Brand:       "Voltix",
			Stock:       0,
			Rating:      models.Rating{Average: 4.2, Count: 57},
			SKU:         "ELECTRONICS-CHARGER-003",
			Tags:        models.StringList{"charging"},
		},
		{
			Title:       "Cotton Kurta",
			Description: "Handloom cotton kurta, regular fit.",
			PriceINR:    899,
			Category:    "Fashion",
			Brand:       "Desi Threads",
			Stock:       40,
			Rating:      models.Rating{Average: 4.1, Count: 140},
			IsTrending:  true,
			SKU:         "FASHION-KURTA-001",
			Tags:        models.StringList{"ethnic", "cotton"},
		},
		{
			Title:       "Steel Water Bottle",
			Description: "1 litre insulated bottle, keeps drinks cold for 24 hours.",
			PriceINR:    649,
			Category:    "Home",
			Brand:       "Kitchenly",
			Stock:       60,
			Rating:      models.Rating{Average: 4.5, Count: 220},
			IsFeatured:  true,
			SKU:         "HOME-BOTTLE-001",
			Tags:        models.StringList{"kitchen", "bottle"},
		},
	}
	for i := range products {
		products[i].PriceUSD = usd(products[i].PriceINR)
		products[i].IsActive = true
		products[i].InStock = products[i].Stock > 0
		if products[i].Images == nil {
			products[i].Images = models.StringList{}
		}
	}
	return products
}

func main() {
	ingest := flag.Bool("knowledge", false, "also index active products into the knowledge store")
	flag.Parse()

	config.Load()
	cfg := config.AppEnv
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		logging.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)
	for _, err := range database.EnsureIndexes(db) {
		logging.Warn().Err(err).Msg("index bootstrap warning")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	products := store.NewProducts(db)
	inserted := 0
	for _, p := range sampleProducts(cfg.INRPerUSD) {
		if err := products.Insert(ctx, &p); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				logging.Debug().Str("sku", p.SKU).Msg("sample product already present")
				continue
			}
			logging.Fatal().Err(err).Str("sku", p.SKU).Msg("sample product insert failed")
		}
		inserted++
	}
	logging.Info().Int("inserted", inserted).Msg("sample products seeded")

	if !*ingest {
		return
	}

	var embedder knowledge.Embedder
	if cfg.EmbeddingsEnabled() {
		llmClient := llm.New(llm.Config{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL, Timeout: cfg.UpstreamTimeout})
		embedder = knowledge.NewOpenAIEmbedder(llmClient, cfg.OpenAIEmbeddingModel)
	}
	svc := knowledge.NewService(store.NewDocs(db), products, embedder)
	n, err := svc.Ingest(ctx, nil, true)
	if err != nil {
		logging.Fatal().Err(err).Msg("knowledge ingest failed")
	}
	logging.Info().Int("inserted", n).Bool("embedded", svc.EmbeddingsEnabled()).Msg("knowledge ingested")
}
