package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/query"
)

const productColumns = `p.id, p.name, p.description, p.price, p.category_id, p.image, p.stock_status, p.created_by_id, p.created_at, p.updated_at`

type postgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var description, categoryID, image, createdBy sql.NullString
	err := row.Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Price,
		&categoryID,
		&image,
		&product.StockStatus,
		&createdBy,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.Description = nullableString(description)
	product.CategoryID = nullableString(categoryID)
	product.Image = nullableString(image)
	product.CreatedByID = nullableString(createdBy)
	return product, nil
}

func (r *postgresProductRepository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
        INSERT INTO products AS p (id, name, description, price, category_id, image, stock_status, created_by_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		product.Name,
		toNullString(product.Description),
		product.Price,
		toNullString(product.CategoryID),
		toNullString(product.Image),
		product.StockStatus,
		toNullString(product.CreatedByID),
	))
	if err != nil {
		switch pqCode(err) {
		case pqForeignKeyViolation:
			r.log.Warnf("Attempted to create product '%s' with a missing reference: %v", product.Name, err)
			return nil, fmt.Errorf("product '%s': %w", product.Name, domain.ErrReference)
		case pqCheckViolation:
			r.log.Warnf("Check constraint violation for product '%s': %v", product.Name, err)
			return nil, fmt.Errorf("product data constraint violation: %w", err)
		}
		r.log.Errorf("Failed to create product '%s': %v", product.Name, err)
		return nil, fmt.Errorf("could not create product: %w", err)
	}
	r.log.Infof("Product created successfully with ID: %s, Name: %s", created.ID, created.Name)
	return created, nil
}

func (r *postgresProductRepository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugf("Product with ID %s not found", id)
			return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Failed to get product by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}
	return product, nil
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Empty() {
		r.log.Infof("Repository: No fields provided for product update ID %s. Returning current product.", id)
		return r.GetProductByID(ctx, id)
	}

	args := []interface{}{}
	setClauses := []string{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.CategoryID != nil {
		set("category_id", *patch.CategoryID)
	} else if patch.ClearCategory {
		set("category_id", nil)
	}
	if patch.Image != nil {
		set("image", *patch.Image)
	}
	if patch.StockStatus != nil {
		set("stock_status", *patch.StockStatus)
	}
	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := "UPDATE products AS p SET " + strings.Join(setClauses, ", ") +
		fmt.Sprintf(" WHERE p.id = $%d RETURNING ", len(args)) + productColumns

	r.log.Debugf("Repository: Executing partial update query for ID %s: %s", id, query)

	updated, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %s not found for update", id)
			return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
		}
		switch pqCode(err) {
		case pqForeignKeyViolation:
			r.log.Warnf("Repository: Attempted to update product ID %s with a missing category", id)
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrReference)
		case pqCheckViolation:
			r.log.Warnf("Repository: Check constraint violation for product update ID %s: %v", id, err)
			return nil, fmt.Errorf("product data constraint violation: %w", err)
		}
		r.log.Errorf("Repository: Failed to execute partial update for product ID %s: %v", id, err)
		return nil, fmt.Errorf("could not partially update product: %w", err)
	}

	r.log.Infof("Repository: Partial update successful for product ID %s", id)
	return updated, nil
}

func (r *postgresProductRepository) DeleteProduct(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.log.Errorf("Failed to delete product ID %s: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after deleting product ID %s: %v", id, err)
		return fmt.Errorf("could not confirm product deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Attempted to delete non-existent product ID %s", id)
		return fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	r.log.Infof("Product deleted successfully with ID: %s", id)
	return nil
}

func (r *postgresProductRepository) FindProducts(ctx context.Context, q query.Query) ([]domain.Product, error) {
	where, args, err := whereClause(q.Predicates, nil)
	if err != nil {
		return nil, err
	}
	args = append(args, q.Limit, q.Offset)
	stmt := `SELECT ` + productColumns + ` FROM products p` + where + orderClause(q.Sort, q.Direction) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		r.log.Errorf("Failed to list products with limit %d, offset %d: %v", q.Limit, q.Offset, err)
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.log.Errorf("Failed to scan product row: %v", err)
			return nil, fmt.Errorf("error scanning product data: %w", err)
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during products list iteration: %v", err)
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	r.log.Debugf("Retrieved %d products (limit: %d, offset: %d)", len(products), q.Limit, q.Offset)
	return products, nil
}

func (r *postgresProductRepository) CountProducts(ctx context.Context, predicates []query.Predicate) (int, error) {
	where, args, err := whereClause(predicates, nil)
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		r.log.Errorf("Failed to count products: %v", err)
		return 0, fmt.Errorf("could not count products: %w", err)
	}
	return total, nil
}

func (r *postgresProductRepository) CountProductsByCategory(ctx context.Context, categoryID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&total)
	if err != nil {
		r.log.Errorf("Failed to count products for category %s: %v", categoryID, err)
		return 0, fmt.Errorf("could not count products by category: %w", err)
	}
	return total, nil
}
