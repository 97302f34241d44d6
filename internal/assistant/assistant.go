// Package assistant answers shopper chat messages, either with a
// rule-based intent matcher or by letting a chat model call catalog tools.
package assistant

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/store"
)

const (
	ModeRules = "rules"
	ModeLLM   = "llm"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"max=4000"`
}

type ToolResult struct {
	Tool   string      `json:"tool"`
	Args   interface{} `json:"args"`
	Result interface{} `json:"result"`
}

type Reply struct {
	Text        string       `json:"reply"`
	ToolResults []ToolResult `json:"toolResults"`
	Mode        string       `json:"mode"`
}

// Responder produces one assistant turn for a conversation.
type Responder interface {
	Respond(ctx context.Context, conversation []Message) (Reply, error)
	Mode() string
}

// Catalog is the product lookup surface the tools need.
type Catalog interface {
	Search(ctx context.Context, q store.ProductQuery) ([]models.Product, error)
	FindBySKU(ctx context.Context, sku string) (models.Product, error)
	FindByTitle(ctx context.Context, title string) (models.Product, error)
}

// Grounder supplies retrieved context for the latest user message.
type Grounder interface {
	Grounding(ctx context.Context, message string, maxChars int) string
}

func latestUserMessage(conversation []Message) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == RoleUser {
			return strings.TrimSpace(conversation[i].Content)
		}
	}
	return ""
}
