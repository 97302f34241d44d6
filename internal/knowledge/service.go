// Package knowledge stores free-text snippets and retrieves them by regex
// containment or, when an embedder is configured, by cosine similarity.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/store"
)

var ErrEmptyQuery = errors.New("query is required")

const (
	groundingKeywords = 6
	groundingDocs     = 20
)

type DocStore interface {
	InsertMany(ctx context.Context, docs []models.Doc) (int, error)
	MatchText(ctx context.Context, pattern string, limit int) ([]models.Doc, error)
	All(ctx context.Context) ([]models.Doc, error)
}

type ProductSource interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

// Snippet is caller-supplied text to ingest.
type Snippet struct {
	Text   string `json:"text" binding:"required,max=8000"`
	Title  string `json:"title" binding:"max=200"`
	Source string `json:"source" binding:"max=100"`
}

type Result struct {
	ID        primitive.ObjectID  `json:"id"`
	Text      string              `json:"text"`
	Title     string              `json:"title,omitempty"`
	Source    string              `json:"source"`
	ProductID *primitive.ObjectID `json:"product_id,omitempty"`
	Score     *float64            `json:"score,omitempty"`
}

type Service struct {
	docs     DocStore
	products ProductSource
	embedder Embedder
}

// NewService wires the knowledge store. embedder may be nil.
func NewService(docs DocStore, products ProductSource, embedder Embedder) *Service {
	return &Service{docs: docs, products: products, embedder: embedder}
}

func (s *Service) EmbeddingsEnabled() bool {
	return s.embedder != nil
}

// Ingest persists the snippets, plus one per active product when asked,
// and returns how many docs were written.
func (s *Service) Ingest(ctx context.Context, snippets []Snippet, includeProducts bool) (int, error) {
	docs := make([]models.Doc, 0, len(snippets))
	for _, sn := range snippets {
		text := strings.TrimSpace(sn.Text)
		if text == "" {
			continue
		}
		source := strings.TrimSpace(sn.Source)
		if source == "" {
			source = models.DocSourceManual
		}
		docs = append(docs, models.Doc{Text: text, Title: strings.TrimSpace(sn.Title), Source: source})
	}

	if includeProducts {
		products, err := s.products.ListActive(ctx)
		if err != nil {
			return 0, fmt.Errorf("list products: %w", err)
		}
		for _, p := range products {
			id := p.ID
			docs = append(docs, models.Doc{
				Text:      ProductSnippet(p),
				Title:     p.Title,
				Source:    models.DocSourceProduct,
				ProductID: &id,
			})
		}
	}

	if s.embedder != nil {
		for i := range docs {
			vec, err := s.embedder.Embed(ctx, docs[i].Text)
			if err != nil {
				return 0, fmt.Errorf("embed doc %d: %w", i, err)
			}
			docs[i].Embedding = vec
		}
	}

	return s.docs.InsertMany(ctx, docs)
}

// ProductSnippet flattens a product into a single searchable line.
func ProductSnippet(p models.Product) string {
	parts := []string{p.Title, p.Category, p.Description, "Price: ₹" + formatPrice(p.PriceINR)}
	if p.SKU != "" {
		parts = append(parts, "SKU: "+p.SKU)
	}
	return strings.Join(parts, " | ")
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Search returns at most store.ClampLimit(limit) docs for query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit = store.ClampLimit(limit)

	if s.embedder == nil {
		metrics.KnowledgeSearches.WithLabelValues("regex").Inc()
		docs, err := s.docs.MatchText(ctx, regexp.QuoteMeta(query), limit)
		if err != nil {
			return nil, err
		}
		results := make([]Result, 0, len(docs))
		for _, d := range docs {
			results = append(results, toResult(d, nil))
		}
		return results, nil
	}

	metrics.KnowledgeSearches.WithLabelValues("embedding").Inc()
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	docs, err := s.docs.All(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc   models.Doc
		score float64
	}
	ranked := make([]scored, 0, len(docs))
	for _, d := range docs {
		ranked = append(ranked, scored{doc: d, score: CosineSim(qvec, d.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		score := r.score
		results = append(results, toResult(r.doc, &score))
	}
	return results, nil
}

func toResult(d models.Doc, score *float64) Result {
	return Result{ID: d.ID, Text: d.Text, Title: d.Title, Source: d.Source, ProductID: d.ProductID, Score: score}
}

// Grounding collects doc text matching the leading keywords of message,
// truncated to maxChars. Errors are logged and yield an empty context.
func (s *Service) Grounding(ctx context.Context, message string, maxChars int) string {
	keywords := Keywords(message, groundingKeywords)
	if len(keywords) == 0 {
		return ""
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}

	docs, err := s.docs.MatchText(ctx, strings.Join(quoted, "|"), groundingDocs)
	if err != nil {
		logging.Warn().Err(err).Msg("grounding lookup failed")
		return ""
	}

	var b strings.Builder
	for _, d := range docs {
		line := "- " + d.Text + "\n"
		if b.Len()+len(line) > maxChars {
			remaining := maxChars - b.Len()
			if remaining > 0 {
				b.WriteString(truncateRunes(line, remaining))
			}
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "you": {}, "have": {}, "with": {},
	"what": {}, "which": {}, "any": {}, "can": {}, "show": {}, "me": {}, "is": {},
	"do": {}, "a": {}, "an": {}, "of": {}, "in": {}, "to": {}, "it": {}, "i": {},
	"my": {}, "please": {}, "some": {}, "there": {}, "this": {}, "that": {},
}

// Keywords returns up to n distinct lowercase words of three or more
// characters from text, skipping common filler words.
func Keywords(text string, n int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, n)
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if len([]rune(f)) < 3 {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == n {
			break
		}
	}
	return out
}
