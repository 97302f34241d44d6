package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memProducts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Product
	order []primitive.ObjectID
	err   error

	lastFilter store.ProductFilter
	lastPage   store.Page
}

func newMemProducts(products ...models.Product) *memProducts {
	m := &memProducts{items: map[primitive.ObjectID]models.Product{}}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.items[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *memProducts) List(_ context.Context, filter store.ProductFilter, page store.Page) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter, m.lastPage = filter, page
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []models.Product
	for _, id := range m.order {
		p := m.items[id]
		if !filter.IncludeInactive && !p.IsActive {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		out = append(out, p)
	}
	total := int64(len(out))
	start := page.Skip()
	if start > total {
		start = total
	}
	end := start + page.PageSize
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *memProducts) Get(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.Product{}, m.err
	}
	p, ok := m.items[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) Categories(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, p := range m.items {
		if _, ok := seen[p.Category]; ok || !p.IsActive {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out, nil
}

func (m *memProducts) Recommend(_ context.Context, categories []string, limit int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = store.ClampLimit(limit)
	var out []models.Product
	for _, id := range m.order {
		p := m.items[id]
		if !p.IsActive {
			continue
		}
		match := p.IsTrending
		if len(categories) > 0 {
			match = false
			for _, c := range categories {
				if strings.EqualFold(c, p.Category) {
					match = true
				}
			}
		}
		if match {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating.Average > out[j].Rating.Average })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProducts) FindManyActive(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := m.items[id]; ok && p.IsActive {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memProducts) Insert(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if p.SKU != "" && existing.SKU == p.SKU {
			return store.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now()
	m.items[p.ID] = *p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memProducts) Update(_ context.Context, id primitive.ObjectID, set bson.M) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	for k, v := range set {
		switch k {
		case "title":
			p.Title = v.(string)
		case "category":
			p.Category = v.(string)
		case "price_inr":
			p.PriceINR = v.(float64)
		case "price_usd":
			p.PriceUSD = v.(float64)
		case "stock":
			p.Stock = v.(int)
		case "is_active":
			p.IsActive = v.(bool)
		case "images":
			p.Images = v.(models.StringList)
		case "sku":
			if v == nil {
				p.SKU = ""
			} else {
				p.SKU = v.(string)
			}
		}
	}
	p.InStock = p.Stock > 0
	m.items[id] = p
	return p, nil
}

func (m *memProducts) Deactivate(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return store.ErrNotFound
	}
	p.IsActive = false
	m.items[id] = p
	return nil
}

type memOrders struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Order

	lastFilter store.OrderFilter
}

func newMemOrders(orders ...models.Order) *memOrders {
	m := &memOrders{items: map[primitive.ObjectID]models.Order{}}
	for _, o := range orders {
		if o.ID.IsZero() {
			o.ID = primitive.NewObjectID()
		}
		m.items[o.ID] = o
	}
	return m
}

func (m *memOrders) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now()
	m.items[o.ID] = *o
	return nil
}

func (m *memOrders) Get(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) List(_ context.Context, filter store.OrderFilter, _ store.Page) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	var out []models.Order
	for _, o := range m.items {
		if filter.UserID != nil && (o.UserID == nil || *o.UserID != *filter.UserID) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	if o.Status != from {
		return models.Order{}, store.ErrConflict
	}
	o.Status = to
	m.items[id] = o
	return o, nil
}

func (m *memOrders) SetPaymentStatus(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	o.PaymentStatus = status
	if status == models.PaymentStatusCompleted && o.Status == models.OrderStatusPending {
		o.Status = models.OrderStatusProcessing
	}
	m.items[id] = o
	return o, nil
}

type memProfiles struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Profile
}

func newMemProfiles(profiles ...models.Profile) *memProfiles {
	m := &memProfiles{items: map[primitive.ObjectID]models.Profile{}}
	for _, p := range profiles {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.items[p.ID] = p
	}
	return m
}

func (m *memProfiles) Insert(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == p.Email {
			return store.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	m.items[p.ID] = *p
	return nil
}

func (m *memProfiles) Get(_ context.Context, id primitive.ObjectID) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memProfiles) FindByEmail(_ context.Context, email string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.Email == email {
			return p, nil
		}
	}
	return models.Profile{}, store.ErrNotFound
}

func (m *memProfiles) Update(_ context.Context, id primitive.ObjectID, set bson.M) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	for k, v := range set {
		switch k {
		case "name":
			p.Name = v.(string)
		case "phone":
			p.Phone = v.(string)
		case "address":
			p.Address = v.(string)
		case "role":
			p.Role = v.(string)
		}
	}
	m.items[id] = p
	return p, nil
}

func (m *memProfiles) List(_ context.Context, filter store.ProfileFilter, _ store.Page) ([]models.Profile, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Profile
	for _, p := range m.items {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

type publishedEvent struct {
	Type string
	Data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingPublisher) Publish(evtType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{Type: evtType, Data: data})
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
