package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/store"
)

const (
	ToolSearchProducts    = "searchProducts"
	ToolCheckAvailability = "checkAvailability"
)

type SearchArgs struct {
	Query    string   `json:"query,omitempty" validate:"max=200"`
	MaxPrice *float64 `json:"maxPrice,omitempty" validate:"omitempty,gte=0"`
	Category string   `json:"category,omitempty" validate:"max=100"`
	Limit    int      `json:"limit,omitempty" validate:"gte=0"`
}

type AvailabilityArgs struct {
	SKU   string `json:"sku,omitempty" validate:"max=100"`
	Title string `json:"title,omitempty" validate:"max=200"`
}

// ProductSummary is the compact product shape handed to the model and
// returned in toolResults.
type ProductSummary struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	SKU      string  `json:"sku,omitempty"`
	Category string  `json:"category"`
	PriceINR float64 `json:"price_inr"`
	PriceUSD float64 `json:"price_usd"`
	Stock    int     `json:"stock"`
	InStock  bool    `json:"in_stock"`
	Rating   float64 `json:"rating"`
}

type Availability struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku,omitempty"`
	Title    string  `json:"title"`
	InStock  bool    `json:"in_stock"`
	Stock    int     `json:"stock"`
	PriceINR float64 `json:"price_inr"`
}

func Summarize(p models.Product) ProductSummary {
	return ProductSummary{
		ID:       p.ID.Hex(),
		Title:    p.Title,
		SKU:      p.SKU,
		Category: p.Category,
		PriceINR: p.PriceINR,
		PriceUSD: p.PriceUSD,
		Stock:    p.Stock,
		InStock:  p.Stock > 0,
		Rating:   p.Rating.Average,
	}
}

// Tools executes catalog tools on behalf of either responder.
type Tools struct {
	catalog  Catalog
	validate *validator.Validate
}

func NewTools(catalog Catalog) *Tools {
	return &Tools{catalog: catalog, validate: validator.New()}
}

func (t *Tools) SearchProducts(ctx context.Context, args SearchArgs) ([]ProductSummary, error) {
	products, err := t.catalog.Search(ctx, store.ProductQuery{
		Query:    args.Query,
		MaxPrice: args.MaxPrice,
		Category: args.Category,
		Limit:    store.ClampLimit(args.Limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, Summarize(p))
	}
	return out, nil
}

// CheckAvailability looks a product up by exact SKU first and falls back
// to a title match. It returns nil when nothing matches.
func (t *Tools) CheckAvailability(ctx context.Context, args AvailabilityArgs) (*Availability, error) {
	sku := strings.TrimSpace(args.SKU)
	title := strings.TrimSpace(args.Title)

	if sku != "" {
		p, err := t.catalog.FindBySKU(ctx, sku)
		switch {
		case err == nil:
			return availabilityOf(p), nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}
	if title != "" {
		p, err := t.catalog.FindByTitle(ctx, title)
		switch {
		case err == nil:
			return availabilityOf(p), nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}
	return nil, nil
}

func availabilityOf(p models.Product) *Availability {
	return &Availability{
		ID:       p.ID.Hex(),
		SKU:      p.SKU,
		Title:    p.Title,
		InStock:  p.Stock > 0,
		Stock:    p.Stock,
		PriceINR: p.PriceINR,
	}
}

// Execute runs a model-issued tool call. Unknown tools and arguments that
// fail to decode or validate produce a nil result rather than an error.
func (t *Tools) Execute(ctx context.Context, name, rawArgs string) (ToolResult, error) {
	if strings.TrimSpace(rawArgs) == "" {
		rawArgs = "{}"
	}

	switch name {
	case ToolSearchProducts:
		var args SearchArgs
		if !t.decode(name, rawArgs, &args) {
			return ToolResult{Tool: name, Args: rawArgs}, nil
		}
		res, err := t.SearchProducts(ctx, args)
		if err != nil {
			metrics.ToolCalls.WithLabelValues(name, "error").Inc()
			return ToolResult{}, err
		}
		metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
		return ToolResult{Tool: name, Args: args, Result: res}, nil

	case ToolCheckAvailability:
		var args AvailabilityArgs
		if !t.decode(name, rawArgs, &args) {
			return ToolResult{Tool: name, Args: rawArgs}, nil
		}
		res, err := t.CheckAvailability(ctx, args)
		if err != nil {
			metrics.ToolCalls.WithLabelValues(name, "error").Inc()
			return ToolResult{}, err
		}
		metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
		if res == nil {
			return ToolResult{Tool: name, Args: args}, nil
		}
		return ToolResult{Tool: name, Args: args, Result: res}, nil

	default:
		metrics.ToolCalls.WithLabelValues("unknown", "invalid").Inc()
		logging.Warn().Str("tool", name).Msg("model requested unknown tool")
		return ToolResult{Tool: name}, nil
	}
}

func (t *Tools) decode(name, raw string, dst interface{}) bool {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		metrics.ToolCalls.WithLabelValues(name, "invalid").Inc()
		logging.Warn().Err(err).Str("tool", name).Msg("tool arguments are not valid json")
		return false
	}
	if err := t.validate.Struct(dst); err != nil {
		metrics.ToolCalls.WithLabelValues(name, "invalid").Inc()
		logging.Warn().Err(err).Str("tool", name).Msg("tool arguments failed validation")
		return false
	}
	return true
}

// Definitions describes the tools to the chat model.
func Definitions() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolSearchProducts,
				Description: "Search active catalog products by free text, maximum price in INR and category.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query":    {Type: jsonschema.String, Description: "Words to match in title, description, brand, tags or SKU"},
						"maxPrice": {Type: jsonschema.Number, Description: "Maximum price in INR"},
						"category": {Type: jsonschema.String, Description: "Exact category name"},
						"limit":    {Type: jsonschema.Integer, Description: "Number of results, 1 to 20, default 5"},
					},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolCheckAvailability,
				Description: "Check whether a product is in stock, by exact SKU or by title.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"sku":   {Type: jsonschema.String, Description: "Exact product SKU"},
						"title": {Type: jsonschema.String, Description: "Product title or part of it"},
					},
				},
			},
		},
	}
}
