package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/query"
	"github.com/poisonshell/dream-api/internal/validation"
)

type AddProductInput struct {
	Name        string
	Description *string
	Price       float64
	CategoryID  string
	Image       *string
	StockStatus int
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	CategoryID  *string
	Image       *string
	StockStatus *int
	// ClearCategory detaches the product from its category. It cannot be
	// combined with CategoryID.
	ClearCategory bool
}

// ProductPage is one page of products plus its pagination metadata.
type ProductPage struct {
	Items []domain.Product
	query.Page
}

type ProductUseCase interface {
	ListProducts(ctx context.Context, filters *query.Filters, pagination *query.Pagination) (*ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	AddProduct(ctx context.Context, creatorID string, input AddProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	log          *logrus.Logger
}

func NewProductUseCase(pRepo domain.ProductRepository, cRepo domain.CategoryRepository, logger *logrus.Logger) ProductUseCase {
	return &productUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		log:          logger,
	}
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *query.Filters, pagination *query.Pagination) (*ProductPage, error) {
	q, err := query.Build(filters, pagination)
	if err != nil {
		uc.log.Warnf("Use Case: Rejected product listing: %v", err)
		return nil, err
	}

	var (
		items []domain.Product
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = uc.productRepo.FindProducts(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = uc.productRepo.CountProducts(gctx, q.Predicates)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal(uc.log, "failed to list products", err)
	}

	uc.log.WithFields(logrus.Fields{
		"page":       q.Page,
		"limit":      q.Limit,
		"predicates": len(q.Predicates),
		"total":      total,
	}).Debug("Use Case: Listed products")

	if items == nil {
		items = []domain.Product{}
	}
	return &ProductPage{Items: items, Page: query.NewPage(total, q.Page, q.Limit)}, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if !validation.IsWellFormedID(id) {
		return nil, apperr.Validation("id", "Invalid product ID format")
	}
	product, err := uc.productRepo.GetProductByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, internal(uc.log, "failed to fetch product", err)
	}
	return product, nil
}

func (uc *productUseCase) AddProduct(ctx context.Context, creatorID string, input AddProductInput) (*domain.Product, error) {
	uc.log.Infof("Use Case: Attempting to add product '%s'", input.Name)

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperr.Validation("name", "Product name is required")
	}
	if err := checkProductFields(&input.Name, input.Description, &input.Price, input.Image, &input.StockStatus); err != nil {
		uc.log.Warnf("Use Case: Rejected product input: %v", err)
		return nil, err
	}
	if !validation.IsWellFormedID(input.CategoryID) {
		return nil, apperr.Validation("categoryId", "Category ID must be a valid UUID")
	}
	if err := uc.requireCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	categoryID := strings.ToLower(input.CategoryID)
	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       toPrice(input.Price),
		CategoryID:  &categoryID,
		Image:       input.Image,
		StockStatus: input.StockStatus,
	}
	if creatorID != "" {
		product.CreatedByID = &creatorID
	}

	created, err := uc.productRepo.CreateProduct(ctx, product)
	if errors.Is(err, domain.ErrReference) {
		return nil, errCategoryNotFound()
	}
	if err != nil {
		return nil, internal(uc.log, "failed to create product", err)
	}

	uc.log.Infof("Use Case: Product '%s' created successfully with ID %s", created.Name, created.ID)
	return created, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	if !validation.IsWellFormedID(id) {
		return nil, apperr.Validation("id", "Invalid product ID format")
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, apperr.Validation("name", "Product name must not be empty")
		}
		input.Name = &trimmed
	}
	if err := checkProductFields(input.Name, input.Description, input.Price, input.Image, input.StockStatus); err != nil {
		return nil, err
	}

	if _, err := uc.productRepo.GetProductByID(ctx, id); errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	} else if err != nil {
		return nil, internal(uc.log, "failed to load product for update", err)
	}

	patch := domain.ProductPatch{
		Name:        input.Name,
		Description: input.Description,
		Image:       input.Image,
		StockStatus: input.StockStatus,
	}
	if input.Price != nil {
		price := toPrice(*input.Price)
		patch.Price = &price
	}
	if input.ClearCategory {
		if input.CategoryID != nil {
			return nil, apperr.Validation("categoryId", "Provide either categoryId or clearCategory, not both")
		}
		patch.ClearCategory = true
	}
	if input.CategoryID != nil {
		if !validation.IsWellFormedID(*input.CategoryID) {
			return nil, apperr.Validation("categoryId", "Category ID must be a valid UUID")
		}
		if err := uc.requireCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		categoryID := strings.ToLower(*input.CategoryID)
		patch.CategoryID = &categoryID
	}

	updated, err := uc.productRepo.UpdateProduct(ctx, id, patch)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, apperr.NotFound("Product not found")
	case errors.Is(err, domain.ErrReference):
		return nil, errCategoryNotFound()
	case err != nil:
		return nil, internal(uc.log, "failed to update product", err)
	}

	uc.log.Infof("Use Case: Product updated successfully for ID %s", updated.ID)
	return updated, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if !validation.IsWellFormedID(id) {
		return apperr.Validation("id", "Invalid product ID format")
	}
	err := uc.productRepo.DeleteProduct(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	if err != nil {
		return internal(uc.log, "failed to delete product", err)
	}
	uc.log.Infof("Use Case: Product deleted successfully for ID %s", id)
	return nil
}

func (uc *productUseCase) requireCategory(ctx context.Context, id string) error {
	_, err := uc.categoryRepo.GetCategoryByID(ctx, strings.ToLower(id))
	if errors.Is(err, domain.ErrNotFound) {
		uc.log.Warnf("Use Case: Category %s not found for product", id)
		return errCategoryNotFound()
	}
	if err != nil {
		return internal(uc.log, "failed to check category", err)
	}
	return nil
}

func errCategoryNotFound() error {
	return apperr.ReferenceNotFound(apperr.CodeCategoryNotFound, "Category not found")
}

func toPrice(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// checkProductFields validates whichever fields are present.
func checkProductFields(name, description *string, price *float64, image *string, stock *int) error {
	if name != nil && !validation.LengthBetween(*name, 1, validation.MaxProductNameLength) {
		return apperr.Validation("name", "Product name must be less than 200 characters")
	}
	if description != nil {
		if *description == "" {
			return apperr.Validation("description", "Description must not be empty if provided")
		}
		if !validation.LengthBetween(*description, 1, validation.MaxProductDescriptionLength) {
			return apperr.Validation("description", "Description must be less than 2000 characters")
		}
	}
	if price != nil {
		if !validation.IsFiniteNumber(*price) || *price < 0 {
			return apperr.Validation("price", "Price must be a positive number")
		}
		if *price > validation.MaxPrice {
			return apperr.Validation("price", "Price must be less than 1,000,000")
		}
	}
	if image != nil {
		if len(*image) > validation.MaxImageURLLength {
			return apperr.Validation("image", "Image URL must be less than 500 characters")
		}
		if !validation.IsValidImageURL(*image) {
			return apperr.Validation("image", "Image must be a valid URL")
		}
	}
	if stock != nil {
		if *stock < 0 {
			return apperr.Validation("stockStatus", "Stock status must be a non-negative number")
		}
		if *stock > validation.MaxStock {
			return apperr.Validation("stockStatus", "Stock status must be less than 1,000,000")
		}
	}
	return nil
}
