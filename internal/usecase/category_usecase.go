package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/validation"
)

const msgDuplicateSlug = "A category with this slug already exists"

type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description *string
}

type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
}

type CategoryUseCase interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// GetCategory looks a category up by exactly one of id or slug. A missing
	// category is (nil, nil).
	GetCategory(ctx context.Context, id, slug *string) (*domain.Category, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type categoryUseCase struct {
	categoryRepo domain.CategoryRepository
	productRepo  domain.ProductRepository
	log          *logrus.Logger
}

func NewCategoryUseCase(cRepo domain.CategoryRepository, pRepo domain.ProductRepository, logger *logrus.Logger) CategoryUseCase {
	return &categoryUseCase{
		categoryRepo: cRepo,
		productRepo:  pRepo,
		log:          logger,
	}
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, internal(uc.log, "failed to list categories", err)
	}
	uc.log.Debugf("Use Case: Retrieved %d categories", len(categories))
	return categories, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id, slug *string) (*domain.Category, error) {
	if (id == nil) == (slug == nil) {
		return nil, apperr.Validation("id", "Exactly one of id or slug must be provided")
	}

	var (
		category *domain.Category
		err      error
	)
	if id != nil {
		if !validation.IsWellFormedID(*id) {
			return nil, apperr.Validation("id", "Invalid category ID format")
		}
		category, err = uc.categoryRepo.GetCategoryByID(ctx, *id)
	} else {
		if !validation.IsValidSlug(*slug) {
			return nil, apperr.Validation("slug", "Invalid slug format")
		}
		category, err = uc.categoryRepo.GetCategoryBySlug(ctx, *slug)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(uc.log, "failed to fetch category", err)
	}
	return category, nil
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if err := checkCategoryFields(&name, &input.Slug, input.Description); err != nil {
		uc.log.Warnf("Use Case: Rejected category input: %v", err)
		return nil, err
	}

	if _, err := uc.categoryRepo.GetCategoryBySlug(ctx, input.Slug); err == nil {
		uc.log.Warnf("Use Case: Attempted to create category with taken slug '%s'", input.Slug)
		return nil, apperr.Conflict(apperr.CodeDuplicateSlug, msgDuplicateSlug)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, internal(uc.log, "failed to check slug", err)
	}

	uc.log.Infof("Use Case: Attempting to create category with slug '%s'", input.Slug)
	created, err := uc.categoryRepo.CreateCategory(ctx, &domain.Category{
		Name:        name,
		Slug:        input.Slug,
		Description: input.Description,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, apperr.Conflict(apperr.CodeDuplicateSlug, msgDuplicateSlug)
	}
	if err != nil {
		return nil, internal(uc.log, "failed to create category", err)
	}

	uc.log.Infof("Use Case: Category '%s' created successfully with ID %s", created.Slug, created.ID)
	return created, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*domain.Category, error) {
	if !validation.IsWellFormedID(id) {
		return nil, apperr.Validation("id", "Invalid category ID format")
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := checkCategoryFields(input.Name, input.Slug, input.Description); err != nil {
		return nil, err
	}

	category, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Category not found")
	}
	if err != nil {
		return nil, internal(uc.log, "failed to load category for update", err)
	}

	if input.Slug != nil && *input.Slug != category.Slug {
		if _, err := uc.categoryRepo.GetCategoryBySlug(ctx, *input.Slug); err == nil {
			return nil, apperr.Conflict(apperr.CodeDuplicateSlug, msgDuplicateSlug)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, internal(uc.log, "failed to check slug", err)
		}
	}

	if input.Name != nil {
		category.Name = *input.Name
	}
	if input.Slug != nil {
		category.Slug = *input.Slug
	}
	if input.Description != nil {
		category.Description = input.Description
	}

	updated, err := uc.categoryRepo.UpdateCategory(ctx, category)
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		return nil, apperr.Conflict(apperr.CodeDuplicateSlug, msgDuplicateSlug)
	case errors.Is(err, domain.ErrNotFound):
		return nil, apperr.NotFound("Category not found")
	case err != nil:
		return nil, internal(uc.log, "failed to update category", err)
	}

	uc.log.Infof("Use Case: Category updated successfully for ID %s", updated.ID)
	return updated, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	if !validation.IsWellFormedID(id) {
		return apperr.Validation("id", "Invalid category ID format")
	}

	if _, err := uc.categoryRepo.GetCategoryByID(ctx, id); errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("Category not found")
	} else if err != nil {
		return internal(uc.log, "failed to load category for delete", err)
	}

	count, err := uc.productRepo.CountProductsByCategory(ctx, id)
	if err != nil {
		return internal(uc.log, "failed to count category products", err)
	}
	if count > 0 {
		uc.log.Warnf("Use Case: Refused to delete category %s with %d products", id, count)
		return errCategoryHasProducts()
	}

	err = uc.categoryRepo.DeleteCategory(ctx, id)
	switch {
	case errors.Is(err, domain.ErrReference):
		// a product was attached between the count and the delete
		return errCategoryHasProducts()
	case errors.Is(err, domain.ErrNotFound):
		return apperr.NotFound("Category not found")
	case err != nil:
		return internal(uc.log, "failed to delete category", err)
	}

	uc.log.Infof("Use Case: Category deleted successfully for ID %s", id)
	return nil
}

func errCategoryHasProducts() error {
	return apperr.Conflict(apperr.CodeCategoryHasProducts,
		"Cannot delete category with existing products. Please reassign or delete products first.")
}

// checkCategoryFields validates whichever fields are present.
func checkCategoryFields(name, slug, description *string) error {
	if name != nil && !validation.LengthBetween(*name, validation.MinCategoryNameLength, validation.MaxCategoryNameLength) {
		return apperr.Validation("name", "Category name must be between 2 and 100 characters")
	}
	if slug != nil {
		if !validation.LengthBetween(*slug, validation.MinSlugLength, validation.MaxSlugLength) {
			return apperr.Validation("slug", "Slug must be between 2 and 100 characters")
		}
		if !validation.IsValidSlug(*slug) {
			return apperr.Validation("slug", "Slug must be lowercase letters, numbers, and hyphens only")
		}
	}
	if description != nil && !validation.LengthBetween(*description, 0, validation.MaxCategoryDescriptionLength) {
		return apperr.Validation("description", "Description must not exceed 500 characters")
	}
	return nil
}
