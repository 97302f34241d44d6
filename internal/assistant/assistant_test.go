package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

// fakeCatalog mirrors the store semantics over an in-memory slice.
type fakeCatalog struct {
	products []models.Product
	err      error
	lastQ    store.ProductQuery
}

func (f *fakeCatalog) Search(_ context.Context, q store.ProductQuery) ([]models.Product, error) {
	f.lastQ = q
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Product
	for _, p := range f.products {
		if !p.IsActive {
			continue
		}
		if q.MaxPrice != nil && p.PriceINR > *q.MaxPrice {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q.Query)) {
			continue
		}
		out = append(out, p)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindBySKU(_ context.Context, sku string) (models.Product, error) {
	if f.err != nil {
		return models.Product{}, f.err
	}
	for _, p := range f.products {
		if p.IsActive && p.SKU == sku {
			return p, nil
		}
	}
	return models.Product{}, store.ErrNotFound
}

func (f *fakeCatalog) FindByTitle(_ context.Context, title string) (models.Product, error) {
	if f.err != nil {
		return models.Product{}, f.err
	}
	for _, p := range f.products {
		if p.IsActive && strings.Contains(strings.ToLower(p.Title), strings.ToLower(title)) {
			return p, nil
		}
	}
	return models.Product{}, store.ErrNotFound
}

func product(title, sku string, priceINR float64, stock int) models.Product {
	return models.Product{
		ID:       primitive.NewObjectID(),
		Title:    title,
		SKU:      sku,
		Category: "Electronics",
		PriceINR: priceINR,
		Stock:    stock,
		IsActive: true,
	}
}

func sampleCatalog() *fakeCatalog {
	return &fakeCatalog{products: []models.Product{
		product("Wireless Earbuds", "ELECTRONICS-EARBUDS-001", 1499, 12),
		product("Steel Bottle", "HOME-BOTTLE-001", 499, 0),
		product("Noise Cancelling Headphones", "ELECTRONICS-HEADPHONES-001", 8999, 3),
		product("USB-C Cable", "ELECTRONICS-CABLE-001", 299, 40),
		product("Earbuds Case", "ACCESSORY-CASE-001", 199, 5),
		product("Phone Stand", "ACCESSORY-STAND-001", 349, 8),
		product("Desk Lamp", "HOME-LAMP-001", 999, 2),
	}}
}

func userSays(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

func TestRulePriceCeiling(t *testing.T) {
	cat := sampleCatalog()
	r := NewRuleResponder(NewTools(cat))

	reply, err := r.Respond(context.Background(), userSays("show me something under ₹1,000"))
	require.NoError(t, err)

	assert.Equal(t, ModeRules, reply.Mode)
	require.Len(t, reply.ToolResults, 1)
	assert.Equal(t, ToolSearchProducts, reply.ToolResults[0].Tool)

	products := reply.ToolResults[0].Result.([]ProductSummary)
	assert.NotEmpty(t, products)
	assert.LessOrEqual(t, len(products), 5)
	for _, p := range products {
		assert.LessOrEqual(t, p.PriceINR, 1000.0)
	}
	assert.Equal(t, 5, cat.lastQ.Limit)
	assert.True(t, strings.HasPrefix(reply.Text, "Here are some picks under ₹1000:"))
}

func TestRulePriceCeilingVariants(t *testing.T) {
	for _, msg := range []string{"below 500", "anything under Rs. 500?", "under INR 500", "UNDER 500"} {
		v, ok := parsePriceCeiling(msg)
		assert.True(t, ok, msg)
		assert.Equal(t, 500.0, v, msg)
	}
	_, ok := parsePriceCeiling("what is trending")
	assert.False(t, ok)
}

func TestRulePriceCeilingNoMatches(t *testing.T) {
	r := NewRuleResponder(NewTools(sampleCatalog()))
	reply, err := r.Respond(context.Background(), userSays("under 10"))
	require.NoError(t, err)
	assert.Equal(t, "I couldn't find products under ₹10 right now.", reply.Text)
}

func TestRuleEarbudsAvailability(t *testing.T) {
	r := NewRuleResponder(NewTools(sampleCatalog()))

	reply, err := r.Respond(context.Background(), userSays("Is ELECTRONICS-EARBUDS-001 in stock?"))
	require.NoError(t, err)

	require.Len(t, reply.ToolResults, 1)
	res, ok := reply.ToolResults[0].Result.(*Availability)
	require.True(t, ok)
	require.NotNil(t, res)
	assert.Equal(t, "ELECTRONICS-EARBUDS-001", res.SKU)
	assert.True(t, res.InStock)
	assert.Equal(t, "Wireless Earbuds (ELECTRONICS-EARBUDS-001) is in stock (12 available) at ₹1499.", reply.Text)
}

func TestRuleAvailabilityByTitle(t *testing.T) {
	r := NewRuleResponder(NewTools(sampleCatalog()))

	reply, err := r.Respond(context.Background(), userSays("is the steel bottle available?"))
	require.NoError(t, err)
	assert.Equal(t, "Steel Bottle (HOME-BOTTLE-001) is currently out of stock.", reply.Text)
}

func TestRuleAvailabilityModelNumberFallsBackToTitle(t *testing.T) {
	catalog := sampleCatalog()
	catalog.products = append(catalog.products, product("Sony WH-1000XM5 Headphones", "ELECTRONICS-HEADPHONES-002", 29990, 4))
	r := NewRuleResponder(NewTools(catalog))

	reply, err := r.Respond(context.Background(), userSays("Is the WH-1000XM5 in stock?"))
	require.NoError(t, err)
	require.Len(t, reply.ToolResults, 1)
	res, ok := reply.ToolResults[0].Result.(*Availability)
	require.True(t, ok)
	require.NotNil(t, res)
	assert.Equal(t, "ELECTRONICS-HEADPHONES-002", res.SKU)
	assert.Equal(t, "Sony WH-1000XM5 Headphones (ELECTRONICS-HEADPHONES-002) is in stock (4 available) at ₹29990.", reply.Text)
}

func TestRuleAvailabilityNotFound(t *testing.T) {
	r := NewRuleResponder(NewTools(sampleCatalog()))

	reply, err := r.Respond(context.Background(), userSays("Is GARDEN-HOSE-009 in stock?"))
	require.NoError(t, err)
	require.Len(t, reply.ToolResults, 1)
	assert.Nil(t, reply.ToolResults[0].Result)
	assert.Contains(t, reply.Text, "GARDEN-HOSE-009")
}

func TestRuleHelpFallback(t *testing.T) {
	r := NewRuleResponder(NewTools(sampleCatalog()))

	reply, err := r.Respond(context.Background(), userSays("hello there"))
	require.NoError(t, err)
	assert.Equal(t, helpMessage, reply.Text)
	assert.Empty(t, reply.ToolResults)

	reply, err = r.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, helpMessage, reply.Text)
}

func TestRuleUsesLatestUserMessage(t *testing.T) {
	r := NewRuleResponder(NewTools(sampleCatalog()))
	conv := []Message{
		{Role: RoleUser, Content: "under 500"},
		{Role: RoleAssistant, Content: "Here are some picks"},
		{Role: RoleUser, Content: "thanks"},
	}
	reply, err := r.Respond(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, helpMessage, reply.Text)
}

func TestRuleCatalogErrorPropagates(t *testing.T) {
	r := NewRuleResponder(NewTools(&fakeCatalog{err: errors.New("db down")}))
	_, err := r.Respond(context.Background(), userSays("under 500"))
	assert.Error(t, err)
}

func TestCheckAvailabilitySKUTakesPrecedence(t *testing.T) {
	tools := NewTools(sampleCatalog())

	res, err := tools.CheckAvailability(context.Background(), AvailabilityArgs{SKU: "HOME-BOTTLE-001", Title: "Earbuds"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "HOME-BOTTLE-001", res.SKU)

	res, err = tools.CheckAvailability(context.Background(), AvailabilityArgs{SKU: "MISSING-1", Title: "earbuds"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Wireless Earbuds", res.Title)

	res, err = tools.CheckAvailability(context.Background(), AvailabilityArgs{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSearchProductsClampsLimit(t *testing.T) {
	cat := sampleCatalog()
	tools := NewTools(cat)

	_, err := tools.SearchProducts(context.Background(), SearchArgs{Limit: 99})
	require.NoError(t, err)
	assert.Equal(t, 20, cat.lastQ.Limit)

	_, err = tools.SearchProducts(context.Background(), SearchArgs{})
	require.NoError(t, err)
	assert.Equal(t, 5, cat.lastQ.Limit)
}

func TestExecuteMalformedArgsYieldNullResult(t *testing.T) {
	tools := NewTools(sampleCatalog())

	for _, raw := range []string{`{not json`, `{"maxPrice": -5}`, `{"limit": -1}`} {
		res, err := tools.Execute(context.Background(), ToolSearchProducts, raw)
		require.NoError(t, err, raw)
		assert.Nil(t, res.Result, raw)
	}

	res, err := tools.Execute(context.Background(), "dropTables", `{}`)
	require.NoError(t, err)
	assert.Nil(t, res.Result)
}

func TestExecuteSearchProducts(t *testing.T) {
	tools := NewTools(sampleCatalog())
	res, err := tools.Execute(context.Background(), ToolSearchProducts, `{"query":"earbuds","maxPrice":2000}`)
	require.NoError(t, err)
	products := res.Result.([]ProductSummary)
	require.Len(t, products, 2)
	for _, p := range products {
		assert.LessOrEqual(t, p.PriceINR, 2000.0)
	}
}

// scriptedCompleter returns canned completions in order and records requests.
type scriptedCompleter struct {
	responses []openai.ChatCompletionResponse
	err       error
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func completion(msg openai.ChatCompletionMessage) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: msg}}}
}

type staticGrounder string

func (g staticGrounder) Grounding(context.Context, string, int) string { return string(g) }

func TestToolCallingResponderRoundTrip(t *testing.T) {
	client := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		completion(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "call_1",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: ToolCheckAvailability, Arguments: `{"sku":"ELECTRONICS-EARBUDS-001"}`},
			}},
		}),
		completion(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Yes, the earbuds are in stock."}),
	}}
	r := NewToolCallingResponder(client, "test-model", NewTools(sampleCatalog()), staticGrounder("- Free shipping over ₹999\n"))

	reply, err := r.Respond(context.Background(), userSays("are the earbuds in stock?"))
	require.NoError(t, err)

	assert.Equal(t, ModeLLM, reply.Mode)
	assert.Equal(t, "Yes, the earbuds are in stock.", reply.Text)
	require.Len(t, reply.ToolResults, 1)
	res := reply.ToolResults[0].Result.(*Availability)
	assert.Equal(t, "ELECTRONICS-EARBUDS-001", res.SKU)

	require.Len(t, client.requests, 2)
	first := client.requests[0]
	assert.Equal(t, "test-model", first.Model)
	assert.Len(t, first.Tools, 2)
	assert.Contains(t, first.Messages[0].Content, "Free shipping over ₹999")

	second := client.requests[1].Messages
	toolMsg := second[len(second)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, `"in_stock":true`)
}

func TestToolCallingResponderWithoutTools(t *testing.T) {
	client := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		completion(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Hi! How can I help?"}),
	}}
	r := NewToolCallingResponder(client, "m", NewTools(sampleCatalog()), nil)

	reply, err := r.Respond(context.Background(), userSays("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Hi! How can I help?", reply.Text)
	assert.Empty(t, reply.ToolResults)
	assert.Len(t, client.requests, 1)
}

func TestToolCallingResponderMalformedToolArgsSendNull(t *testing.T) {
	client := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		completion(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "call_x",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: ToolSearchProducts, Arguments: `{"maxPrice":"cheap"`},
			}},
		}),
		completion(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Sorry, I could not search that."}),
	}}
	r := NewToolCallingResponder(client, "m", NewTools(sampleCatalog()), nil)

	reply, err := r.Respond(context.Background(), userSays("cheap stuff"))
	require.NoError(t, err)
	require.Len(t, reply.ToolResults, 1)
	assert.Nil(t, reply.ToolResults[0].Result)

	second := client.requests[1].Messages
	assert.Equal(t, "null", second[len(second)-1].Content)
}

func TestToolCallingResponderUpstreamError(t *testing.T) {
	client := &scriptedCompleter{err: errors.New("429 too many requests")}
	r := NewToolCallingResponder(client, "m", NewTools(sampleCatalog()), nil)

	_, err := r.Respond(context.Background(), userSays("hi"))
	assert.Error(t, err)
}

func TestToolCallingResponderEmptyChoices(t *testing.T) {
	client := &scriptedCompleter{responses: []openai.ChatCompletionResponse{{}}}
	r := NewToolCallingResponder(client, "m", NewTools(sampleCatalog()), nil)

	_, err := r.Respond(context.Background(), userSays("hi"))
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}
