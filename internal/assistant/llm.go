package assistant

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"

	"storefront/internal/logging"
)

const (
	groundingBudget = 4000

	systemPreamble = "You are the shopping assistant for an online store. " +
		"Answer briefly and only about products the store sells. " +
		"Use searchProducts to find products and checkAvailability to confirm stock. " +
		"Prices are in Indian rupees (₹). Never invent products, prices or stock levels."
)

var ErrEmptyCompletion = errors.New("chat completion returned no choices")

type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ToolCallingResponder lets a chat model call catalog tools. It makes at
// most two completion calls per turn: one that may request tools and one
// that sees their results.
type ToolCallingResponder struct {
	client   ChatCompleter
	model    string
	tools    *Tools
	grounder Grounder
}

func NewToolCallingResponder(client ChatCompleter, model string, tools *Tools, grounder Grounder) *ToolCallingResponder {
	return &ToolCallingResponder{client: client, model: model, tools: tools, grounder: grounder}
}

func (r *ToolCallingResponder) Mode() string { return ModeLLM }

func (r *ToolCallingResponder) Respond(ctx context.Context, conversation []Message) (Reply, error) {
	system := systemPreamble
	if r.grounder != nil {
		if grounding := r.grounder.Grounding(ctx, latestUserMessage(conversation), groundingBudget); grounding != "" {
			system += "\n\nStore knowledge:\n" + grounding
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(conversation)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range conversation {
		switch m.Role {
		case RoleUser:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case RoleAssistant:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content})
		}
	}

	first, err := r.complete(ctx, messages)
	if err != nil {
		return Reply{}, err
	}

	reply := Reply{Mode: ModeLLM, ToolResults: []ToolResult{}}
	if len(first.ToolCalls) == 0 {
		reply.Text = first.Content
		return reply, nil
	}

	messages = append(messages, first)
	for _, call := range first.ToolCalls {
		result, err := r.tools.Execute(ctx, call.Function.Name, call.Function.Arguments)
		if err != nil {
			return Reply{}, err
		}
		reply.ToolResults = append(reply.ToolResults, result)

		content, err := json.Marshal(result.Result)
		if err != nil {
			return Reply{}, err
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(content),
			Name:       call.Function.Name,
			ToolCallID: call.ID,
		})
	}

	second, err := r.complete(ctx, messages)
	if err != nil {
		return Reply{}, err
	}
	if len(second.ToolCalls) > 0 {
		logging.Debug().Int("tool_calls", len(second.ToolCalls)).Msg("ignoring tool calls in follow-up completion")
	}
	reply.Text = second.Content
	return reply, nil
}

func (r *ToolCallingResponder) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (openai.ChatCompletionMessage, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
		Tools:    Definitions(),
	})
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, ErrEmptyCompletion
	}
	return resp.Choices[0].Message, nil
}
