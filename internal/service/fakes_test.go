package service

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/cache"
	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/repository"
	"github.com/sashvara/storefront_api/internal/utils"
	"github.com/sashvara/storefront_api/pkg/razorpay"
)

type fakeProductStore struct {
	mu        sync.Mutex
	products  []*models.Product
	findCalls int
	insertErr error
	lastSet   bson.M
}

func (f *fakeProductStore) Find(_ context.Context, _ repository.ProductQuery) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	out := []models.Product{}
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, utils.ErrProductNotFound
}

func (f *fakeProductStore) FindOneBy(_ context.Context, field, value string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if (field == "product_id" && p.ProductID == value) || (field == "slug" && p.Slug == value) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, utils.ErrProductNotFound
}

func (f *fakeProductStore) FindByVariantID(_ context.Context, id primitive.ObjectID) (*models.Product, *models.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		for i := range p.Variants {
			if p.Variants[i].ID == id {
				cp := *p
				return &cp, &cp.Variants[i], nil
			}
		}
	}
	return nil, nil, utils.ErrVariantNotFound
}

func (f *fakeProductStore) Insert(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.products {
		if existing.ProductID == p.ProductID {
			return &utils.DuplicateKeyError{Key: "product_id"}
		}
	}
	p.ID = primitive.NewObjectID()
	cp := *p
	f.products = append(f.products, &cp)
	return nil
}

func (f *fakeProductStore) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSet = set
	for _, p := range f.products {
		if p.ID != id {
			continue
		}
		if v, ok := set["images"].([]string); ok {
			p.Images = v
		}
		if v, ok := set["variants"].([]models.Variant); ok {
			p.Variants = v
		}
		if v, ok := set["product_name"].(string); ok {
			p.ProductName = v
		}
		if v, ok := set["slug"].(string); ok {
			p.Slug = v
		}
		cp := *p
		return &cp, nil
	}
	return nil, utils.ErrProductNotFound
}

func (f *fakeProductStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return utils.ErrProductNotFound
}

type fakeProductCache struct {
	entries     map[string]*models.Product
	invalidated []string
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{entries: map[string]*models.Product{}}
}

func (c *fakeProductCache) Get(_ context.Context, identifier string) (*models.Product, error) {
	if p, ok := c.entries[identifier]; ok {
		return p, nil
	}
	return nil, cache.ErrMiss
}

func (c *fakeProductCache) Set(_ context.Context, identifier string, p *models.Product) error {
	c.entries[identifier] = p
	return nil
}

func (c *fakeProductCache) Invalidate(_ context.Context, products ...*models.Product) error {
	for _, p := range products {
		for _, id := range p.Identifiers() {
			delete(c.entries, id)
			c.invalidated = append(c.invalidated, id)
		}
	}
	return nil
}

type fakeOrderStore struct {
	mu         sync.Mutex
	orders     map[primitive.ObjectID]*models.Order
	markCalls  int
	gatewayIDs map[primitive.ObjectID]string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[primitive.ObjectID]*models.Order{}, gatewayIDs: map[primitive.ObjectID]string{}}
}

func (f *fakeOrderStore) Insert(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, utils.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) List(_ context.Context, limit int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if int64(len(out)) >= limit {
			break
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) SetGatewayOrder(_ context.Context, id primitive.ObjectID, gw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return utils.ErrOrderNotFound
	}
	o.GatewayOrderID = gw
	f.gatewayIDs[id] = gw
	return nil
}

// MarkPaid mirrors the conditional update: only pending or unpaid orders move.
func (f *fakeOrderStore) MarkPaid(_ context.Context, id primitive.ObjectID, paymentID string, amount float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	o, ok := f.orders[id]
	if !ok {
		return false, utils.ErrOrderNotFound
	}
	if o.Status != models.OrderStatusPending && o.Status != models.OrderStatusUnpaid {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.PaymentID = paymentID
	o.AmountPaid = amount
	o.TrackingHistory = append(o.TrackingHistory, models.TrackingEvent{TS: time.Now(), Text: "Payment received"})
	return true, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus, note string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, utils.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return nil, utils.ConflictError("Order is already "+string(o.Status), nil)
	}
	o.Status = status
	o.TrackingHistory = append(o.TrackingHistory, models.TrackingEvent{TS: time.Now(), Text: note})
	cp := *o
	return &cp, nil
}

type fakeSuggestionStore struct {
	mu          sync.Mutex
	items       map[primitive.ObjectID]*models.Suggestion
	searchCalls int
	limits      []int64
}

func newFakeSuggestionStore() *fakeSuggestionStore {
	return &fakeSuggestionStore{items: map[primitive.ObjectID]*models.Suggestion{}}
}

func (f *fakeSuggestionStore) Insert(_ context.Context, s *models.Suggestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	cp := *s
	f.items[s.ID] = &cp
	return nil
}

func (f *fakeSuggestionStore) ExistsRecent(_ context.Context, ip, text string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.items {
		if s.UserIP == ip && s.Suggestion == text && !s.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSuggestionStore) Popular(_ context.Context, _ string, limit int64) ([]models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	return []models.Suggestion{}, nil
}

func (f *fakeSuggestionStore) Search(_ context.Context, _ string, limit int64) ([]models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.limits = append(f.limits, limit)
	return []models.Suggestion{}, nil
}

func (f *fakeSuggestionStore) ListAll(_ context.Context, _, _ int64) ([]models.Suggestion, int64, error) {
	return []models.Suggestion{}, int64(len(f.items)), nil
}

func (f *fakeSuggestionStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.SuggestionStatus) (*models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return nil, utils.ErrSuggestionNotFound
	}
	s.Status = status
	cp := *s
	return &cp, nil
}

// Vote applies the same condition as the repository's single update: the
// check and the increment happen under one lock.
func (f *fakeSuggestionStore) Vote(_ context.Context, id primitive.ObjectID, ip string, delta int) (*models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return nil, utils.ErrSuggestionNotFound
	}
	for _, v := range s.Voters {
		if v == ip {
			return nil, utils.ErrAlreadyVoted
		}
	}
	s.Votes += delta
	s.Voters = append(s.Voters, ip)
	cp := *s
	return &cp, nil
}

type fakeClaimer struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (c *fakeClaimer) Claim(_ context.Context, ip, text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.claimed == nil {
		c.claimed = map[string]bool{}
	}
	k := ip + "|" + text
	if c.claimed[k] {
		return false, nil
	}
	c.claimed[k] = true
	return true, nil
}

func (c *fakeClaimer) Release(_ context.Context, ip, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claimed, ip+"|"+text)
	return nil
}

type fakeGateway struct {
	requests []razorpay.OrderRequest
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	g.requests = append(g.requests, req)
	return &razorpay.Order{ID: "order_GW1", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *fakeNotifier) OrderPaid(context.Context, *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}

type fakePutter struct {
	keys []string
}

func (p *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.keys = append(p.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

type fakeModeration struct {
	out *rekognition.DetectModerationLabelsOutput
}

func (m *fakeModeration) DetectModerationLabels(context.Context, *rekognition.DetectModerationLabelsInput, ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error) {
	return m.out, nil
}
