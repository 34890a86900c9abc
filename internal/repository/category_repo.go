package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/domain"
)

const categoryColumns = `id, name, slug, description, created_at, updated_at`

type postgresCategoryRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCategoryRepository(db *sql.DB, logger *logrus.Logger) domain.CategoryRepository {
	return &postgresCategoryRepository{
		db:  db,
		log: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	category := &domain.Category{}
	var description sql.NullString
	if err := row.Scan(&category.ID, &category.Name, &category.Slug, &description, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return nil, err
	}
	category.Description = nullableString(description)
	return category, nil
}

func (r *postgresCategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `INSERT INTO categories (id, name, slug, description) VALUES ($1, $2, $3, $4) RETURNING ` + categoryColumns
	created, err := scanCategory(r.db.QueryRowContext(ctx, query, uuid.NewString(), category.Name, category.Slug, toNullString(category.Description)))
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Attempted to create category with duplicate slug: %s", category.Slug)
			return nil, fmt.Errorf("category with slug '%s' already exists: %w", category.Slug, domain.ErrDuplicate)
		}
		r.log.Errorf("Failed to create category '%s': %v", category.Name, err)
		return nil, fmt.Errorf("could not create category: %w", err)
	}
	r.log.Infof("Category created successfully with ID: %s, Slug: %s", created.ID, created.Slug)
	return created, nil
}

func (r *postgresCategoryRepository) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugf("Category with ID %s not found", id)
			return nil, fmt.Errorf("category with id %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Failed to get category by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not get category by id: %w", err)
	}
	return category, nil
}

func (r *postgresCategoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugf("Category with slug %s not found", slug)
			return nil, fmt.Errorf("category with slug '%s': %w", slug, domain.ErrNotFound)
		}
		r.log.Errorf("Failed to get category by slug %s: %v", slug, err)
		return nil, fmt.Errorf("could not get category by slug: %w", err)
	}
	return category, nil
}

func (r *postgresCategoryRepository) GetCategoriesByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Failed to batch load %d categories: %v", len(ids), err)
		return nil, fmt.Errorf("could not batch load categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, len(ids))
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			r.log.Errorf("Failed to scan category row: %v", err)
			return nil, fmt.Errorf("error scanning category data: %w", err)
		}
		categories = append(categories, *category)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	r.log.Debugf("Batch loaded %d of %d categories", len(categories), len(ids))
	return categories, nil
}

func (r *postgresCategoryRepository) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `UPDATE categories SET name = $1, slug = $2, description = $3, updated_at = now()
        WHERE id = $4 RETURNING ` + categoryColumns
	updated, err := scanCategory(r.db.QueryRowContext(ctx, query, category.Name, category.Slug, toNullString(category.Description), category.ID))
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Attempted to update category ID %s with duplicate slug: %s", category.ID, category.Slug)
			return nil, fmt.Errorf("category with slug '%s' already exists: %w", category.Slug, domain.ErrDuplicate)
		}
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Category with ID %s not found for update", category.ID)
			return nil, fmt.Errorf("category with id %s: %w", category.ID, domain.ErrNotFound)
		}
		r.log.Errorf("Failed to update category ID %s: %v", category.ID, err)
		return nil, fmt.Errorf("could not update category: %w", err)
	}
	r.log.Infof("Category updated successfully with ID: %s", updated.ID)
	return updated, nil
}

func (r *postgresCategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	query := `DELETE FROM categories WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			r.log.Warnf("Category ID %s is still referenced by products", id)
			return fmt.Errorf("category %s is referenced by products: %w", id, domain.ErrReference)
		}
		r.log.Errorf("Failed to delete category ID %s: %v", id, err)
		return fmt.Errorf("could not delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after deleting category ID %s: %v", id, err)
		return fmt.Errorf("could not confirm category deletion: %w", err)
	}

	if rowsAffected == 0 {
		r.log.Warnf("Attempted to delete non-existent category ID %s", id)
		return fmt.Errorf("category with id %s: %w", id, domain.ErrNotFound)
	}

	r.log.Infof("Category deleted successfully with ID: %s", id)
	return nil
}

func (r *postgresCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Errorf("Failed to list categories: %v", err)
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			r.log.Errorf("Failed to scan category row: %v", err)
			return nil, fmt.Errorf("error scanning category data: %w", err)
		}
		categories = append(categories, *category)
	}

	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during categories list iteration: %v", err)
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	r.log.Debugf("Retrieved %d categories", len(categories))
	return categories, nil
}
