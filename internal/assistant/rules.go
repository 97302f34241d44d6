package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	rulesSearchLimit = 5
	helpMessage      = "I can help you shop. Try \"show me earbuds under ₹2000\" or \"is ELECTRONICS-EARBUDS-001 in stock?\""
)

var (
	priceCeilingPattern = regexp.MustCompile(`(?i)\b(?:under|below|less than|within)\s*(?:₹|rs\.?|inr)?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	availabilityIntent  = regexp.MustCompile(`(?i)\b(?:in\s+stock|available|availability|stock)\b`)
	skuToken            = regexp.MustCompile(`\b[A-Z0-9]+(?:-[A-Z0-9]+)+\b`)
	availabilityTitle   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:is|are|do\s+you\s+have)\s+(?:the\s+|a\s+|an\s+|any\s+)?(.+?)\s+(?:still\s+)?(?:in\s+stock|available)\s*\??$`),
		regexp.MustCompile(`(?i)\b(?:availability|stock)\s+(?:of|for)\s+(?:the\s+)?(.+?)\s*\??$`),
	}
)

// RuleResponder answers price-ceiling and availability questions without
// a language model.
type RuleResponder struct {
	tools *Tools
}

func NewRuleResponder(tools *Tools) *RuleResponder {
	return &RuleResponder{tools: tools}
}

func (r *RuleResponder) Mode() string { return ModeRules }

func (r *RuleResponder) Respond(ctx context.Context, conversation []Message) (Reply, error) {
	msg := latestUserMessage(conversation)
	reply := Reply{Mode: ModeRules, ToolResults: []ToolResult{}}

	if ceiling, ok := parsePriceCeiling(msg); ok {
		args := SearchArgs{MaxPrice: &ceiling, Limit: rulesSearchLimit}
		products, err := r.tools.SearchProducts(ctx, args)
		if err != nil {
			return Reply{}, err
		}
		reply.ToolResults = append(reply.ToolResults, ToolResult{Tool: ToolSearchProducts, Args: args, Result: products})
		reply.Text = formatPriceReply(ceiling, products)
		return reply, nil
	}

	if args, ok := parseAvailability(msg); ok {
		res, err := r.tools.CheckAvailability(ctx, args)
		if err != nil {
			return Reply{}, err
		}
		tr := ToolResult{Tool: ToolCheckAvailability, Args: args}
		if res != nil {
			tr.Result = res
		}
		reply.ToolResults = append(reply.ToolResults, tr)
		reply.Text = formatAvailabilityReply(args, res)
		return reply, nil
	}

	reply.Text = helpMessage
	return reply, nil
}

func parsePriceCeiling(msg string) (float64, bool) {
	m := priceCeilingPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseAvailability(msg string) (AvailabilityArgs, bool) {
	if !availabilityIntent.MatchString(msg) {
		return AvailabilityArgs{}, false
	}
	args := AvailabilityArgs{SKU: skuToken.FindString(msg)}
	for _, re := range availabilityTitle {
		if m := re.FindStringSubmatch(msg); m != nil {
			args.Title = strings.TrimSpace(m[1])
			break
		}
	}
	return args, args.SKU != "" || args.Title != ""
}

func formatPriceReply(ceiling float64, products []ProductSummary) string {
	if len(products) == 0 {
		return fmt.Sprintf("I couldn't find products under ₹%s right now.", formatINR(ceiling))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here are some picks under ₹%s:", formatINR(ceiling))
	for _, p := range products {
		fmt.Fprintf(&b, "\n- %s: ₹%s", p.Title, formatINR(p.PriceINR))
		if p.SKU != "" {
			fmt.Fprintf(&b, " (%s)", p.SKU)
		}
	}
	return b.String()
}

func formatAvailabilityReply(args AvailabilityArgs, res *Availability) string {
	if res == nil {
		query := args.SKU
		if query == "" {
			query = args.Title
		}
		return fmt.Sprintf("I couldn't find a product matching %q.", query)
	}

	name := res.Title
	if res.SKU != "" {
		name = fmt.Sprintf("%s (%s)", res.Title, res.SKU)
	}
	if res.InStock {
		return fmt.Sprintf("%s is in stock (%d available) at ₹%s.", name, res.Stock, formatINR(res.PriceINR))
	}
	return fmt.Sprintf("%s is currently out of stock.", name)
}

func formatINR(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
