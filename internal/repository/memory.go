package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/query"
)

// MemoryStore keeps the whole catalog in process memory. It implements the
// category, product and admin repositories over one shared lock so that
// cross-entity checks stay consistent.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[string]domain.Category
	products   map[string]domain.Product
	admins     map[string]domain.AdminUser
	now        func() time.Time
}

var (
	_ domain.CategoryRepository = (*MemoryStore)(nil)
	_ domain.ProductRepository  = (*MemoryStore)(nil)
	_ domain.AdminRepository    = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[string]domain.Category),
		products:   make(map[string]domain.Product),
		admins:     make(map[string]domain.AdminUser),
		now:        time.Now,
	}
}

// WithClock replaces the timestamp source. Call before first use.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) CreateCategory(_ context.Context, category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.categories {
		if c.Slug == category.Slug {
			return nil, fmt.Errorf("category with slug '%s': %w", category.Slug, domain.ErrDuplicate)
		}
	}
	c := *category
	c.ID = uuid.NewString()
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.categories[c.ID] = c
	return &c, nil
}

func (m *MemoryStore) GetCategoryByID(_ context.Context, id string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("category with id %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (m *MemoryStore) GetCategoryBySlug(_ context.Context, slug string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category with slug '%s': %w", slug, domain.ErrNotFound)
}

func (m *MemoryStore) GetCategoriesByIDs(_ context.Context, ids []string) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateCategory(_ context.Context, category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.categories[category.ID]
	if !ok {
		return nil, fmt.Errorf("category with id %s: %w", category.ID, domain.ErrNotFound)
	}
	for id, c := range m.categories {
		if id != category.ID && c.Slug == category.Slug {
			return nil, fmt.Errorf("category with slug '%s': %w", category.Slug, domain.ErrDuplicate)
		}
	}
	current.Name = category.Name
	current.Slug = category.Slug
	current.Description = category.Description
	current.UpdatedAt = m.now()
	m.categories[current.ID] = current
	return &current, nil
}

func (m *MemoryStore) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return fmt.Errorf("category with id %s: %w", id, domain.ErrNotFound)
	}
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			return fmt.Errorf("category %s is referenced by products: %w", id, domain.ErrReference)
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkReferencesLocked(product.CategoryID, product.CreatedByID); err != nil {
		return nil, err
	}
	p := *product
	p.ID = uuid.NewString()
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = p
	return &p, nil
}

func (m *MemoryStore) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	if patch.Empty() {
		return &p, nil
	}
	if patch.CategoryID != nil {
		if err := m.checkReferencesLocked(patch.CategoryID, nil); err != nil {
			return nil, err
		}
		p.CategoryID = patch.CategoryID
	}
	if patch.ClearCategory {
		p.CategoryID = nil
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = patch.Image
	}
	if patch.StockStatus != nil {
		p.StockStatus = *patch.StockStatus
	}
	p.UpdatedAt = m.now()
	m.products[id] = p
	return &p, nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) FindProducts(_ context.Context, q query.Query) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched, err := m.matchLocked(q.Predicates)
	if err != nil {
		return nil, err
	}
	less := productLess(q.Sort)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if q.Direction == query.Asc {
			if less(a, b) {
				return true
			}
			if less(b, a) {
				return false
			}
		} else {
			if less(b, a) {
				return true
			}
			if less(a, b) {
				return false
			}
		}
		return a.ID < b.ID
	})

	if q.Offset >= len(matched) {
		return []domain.Product{}, nil
	}
	end := min(q.Offset+q.Limit, len(matched))
	return matched[q.Offset:end], nil
}

func (m *MemoryStore) CountProducts(_ context.Context, predicates []query.Predicate) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched, err := m.matchLocked(predicates)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (m *MemoryStore) CountProductsByCategory(_ context.Context, categoryID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateAdmin(_ context.Context, admin *domain.AdminUser) (*domain.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.admins {
		if strings.EqualFold(a.Email, admin.Email) {
			return nil, fmt.Errorf("admin with email '%s': %w", admin.Email, domain.ErrDuplicate)
		}
	}
	a := *admin
	a.ID = uuid.NewString()
	if a.Role == "" {
		a.Role = domain.RoleAdmin
	}
	a.CreatedAt = m.now()
	a.UpdatedAt = a.CreatedAt
	m.admins[a.ID] = a
	return &a, nil
}

func (m *MemoryStore) GetAdminByEmail(_ context.Context, email string) (*domain.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("admin with email '%s': %w", email, domain.ErrNotFound)
}

func (m *MemoryStore) GetAdminByID(_ context.Context, id string) (*domain.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.admins[id]
	if !ok {
		return nil, fmt.Errorf("admin with id %s: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (m *MemoryStore) GetAdminsByIDs(_ context.Context, ids []string) ([]domain.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.AdminUser, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.admins[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) checkReferencesLocked(categoryID, creatorID *string) error {
	if categoryID != nil {
		if _, ok := m.categories[*categoryID]; !ok {
			return fmt.Errorf("category with id %s: %w", *categoryID, domain.ErrReference)
		}
	}
	if creatorID != nil {
		if _, ok := m.admins[*creatorID]; !ok {
			return fmt.Errorf("admin with id %s: %w", *creatorID, domain.ErrReference)
		}
	}
	return nil
}

func (m *MemoryStore) matchLocked(predicates []query.Predicate) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		ok, err := m.matchesLocked(p, predicates)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) matchesLocked(p domain.Product, predicates []query.Predicate) (bool, error) {
	for _, pred := range predicates {
		switch f := pred.(type) {
		case query.CategoryIDEquals:
			if p.CategoryID == nil || *p.CategoryID != f.ID {
				return false, nil
			}
		case query.CategorySlugEquals:
			if p.CategoryID == nil {
				return false, nil
			}
			c, ok := m.categories[*p.CategoryID]
			if !ok || c.Slug != f.Slug {
				return false, nil
			}
		case query.NameContains:
			if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Term)) {
				return false, nil
			}
		case query.PriceBetween:
			if p.Price.LessThan(f.Min) || p.Price.GreaterThan(f.Max) {
				return false, nil
			}
		case query.PriceAtLeast:
			if p.Price.LessThan(f.Min) {
				return false, nil
			}
		case query.PriceAtMost:
			if p.Price.GreaterThan(f.Max) {
				return false, nil
			}
		case query.InStock:
			if p.StockStatus <= 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported predicate %T", pred)
		}
	}
	return true, nil
}

// productLess orders ascending by key. A missing category sorts after every
// present one, matching Postgres NULLS LAST for ascending order.
func productLess(key query.SortKey) func(a, b domain.Product) bool {
	switch key {
	case query.SortName:
		return func(a, b domain.Product) bool { return a.Name < b.Name }
	case query.SortPrice:
		return func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case query.SortStock:
		return func(a, b domain.Product) bool { return a.StockStatus < b.StockStatus }
	case query.SortCategory:
		return func(a, b domain.Product) bool {
			switch {
			case a.CategoryID == nil:
				return false
			case b.CategoryID == nil:
				return true
			default:
				return *a.CategoryID < *b.CategoryID
			}
		}
	default:
		return func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
