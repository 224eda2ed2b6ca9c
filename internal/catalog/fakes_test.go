package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charlesng35/artisan/internal/cache"
	"github.com/charlesng35/artisan/internal/models"
)

var errCacheDown = &cache.OpError{Backend: "fake", Op: "any", Err: errors.New("connection refused")}

// fakeCache is an in-memory cache.Store whose operations can be made to fail.
type fakeCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
	failDel bool
	gets    int
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errCacheDown
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.failSet {
		return errCacheDown
	}
	c.values[key] = append([]byte(nil), value...)
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	if c.failDel {
		return errCacheDown
	}
	for _, k := range keys {
		delete(c.values, k)
		delete(c.ttls, k)
	}
	return nil
}

func (c *fakeCache) IncrementWithTTL(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("not used")
}

func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) raw(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *fakeCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *fakeCache) configure(fn func(c *fakeCache)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

// memStore is an in-memory catalog Store that counts list queries.
type memStore struct {
	mu         sync.Mutex
	categories []models.Category
	products   []models.Product
	listErr    error
	clock      time.Time

	productLists  int
	categoryLists int
	listDelay     time.Duration
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *memStore) ListProducts(context.Context) ([]models.Product, error) {
	s.mu.Lock()
	s.productLists++
	delay := s.listDelay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) ListCategories(context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryLists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) GetProduct(_ context.Context, idOrSlug string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == idOrSlug || s.products[i].Slug == idOrSlug {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *memStore) CreateProduct(_ context.Context, in ProductInput) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Product{Name: in.Name, Slug: in.Name, Price: in.Price, Image: in.Image, CategoryID: in.CategoryID}
	p.ID = uuid.NewString()
	p.CreatedAt = s.tick()
	s.products = append(s.products, p)
	return &p, nil
}

func (s *memStore) UpdateProduct(_ context.Context, id string, in ProductInput) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].Name = in.Name
			s.products[i].Price = in.Price
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *memStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (s *memStore) CreateCategory(_ context.Context, in CategoryInput) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == in.Name {
			return nil, errors.New("duplicate")
		}
	}
	c := models.Category{Name: in.Name, Image: in.Image}
	c.ID = uuid.NewString()
	c.CreatedAt = s.tick()
	s.categories = append(s.categories, c)
	return &c, nil
}

func (s *memStore) UpdateCategory(_ context.Context, id string, in CategoryInput) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i].Name = in.Name
			c := s.categories[i]
			return &c, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *memStore) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (s *memStore) counts() (products, categories int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productLists, s.categoryLists
}

func categoryNames(list []models.Category) []string {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	return names
}
