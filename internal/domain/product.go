package domain

import (
	"context"

	"github.com/poisonshell/dream-api/internal/query"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProductByID(ctx context.Context, id string) (*Product, error)

	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error)

	DeleteProduct(ctx context.Context, id string) error
	FindProducts(ctx context.Context, q query.Query) ([]Product, error)
	CountProducts(ctx context.Context, predicates []query.Predicate) (int, error)
	CountProductsByCategory(ctx context.Context, categoryID string) (int, error)
}
