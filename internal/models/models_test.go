package models

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStringListDecodesLegacySingleString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"title": "Earbuds", "tags": "audio", "images": bson.A{"a.png", "b.png"}})
	require.NoError(t, err)

	var p Product
	require.NoError(t, bson.Unmarshal(raw, &p))

	assert.Equal(t, StringList{"audio"}, p.Tags)
	assert.Equal(t, StringList{"a.png", "b.png"}, p.Images)
}

func TestStringListMarshalsNilAsEmptyArray(t *testing.T) {
	raw, err := bson.Marshal(Product{Title: "x"})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	tags, ok := doc["tags"].(bson.A)
	require.True(t, ok, "tags stored as %T", doc["tags"])
	assert.Empty(t, tags)
}

func TestStringListJSONAcceptsCommaString(t *testing.T) {
	var body struct {
		Tags StringList `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"audio, wireless ,"}`), &body))
	assert.Equal(t, StringList{"audio", "wireless"}, body.Tags)
	assert.True(t, body.Tags.Contains("AUDIO"))

	require.NoError(t, json.Unmarshal([]byte(`{"tags":["a"]}`), &body))
	assert.Equal(t, StringList{"a"}, body.Tags)

	assert.Error(t, json.Unmarshal([]byte(`{"tags":12}`), &body))
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.False(t, OrderStatus("lost").Valid())
	assert.True(t, PaymentStatusFailed.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
}

func TestProfilePasswordHashNotSerialized(t *testing.T) {
	body, err := json.Marshal(Profile{Email: "a@b.c", PasswordHash: "secret-hash", Role: RoleUser})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret-hash")
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("root"))
}
