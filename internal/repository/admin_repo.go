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

const adminColumns = `id, email, first_name, last_name, password_hash, role, created_at, updated_at`

type postgresAdminRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresAdminRepository(db *sql.DB, logger *logrus.Logger) domain.AdminRepository {
	return &postgresAdminRepository{
		db:  db,
		log: logger,
	}
}

func scanAdmin(row rowScanner) (*domain.AdminUser, error) {
	admin := &domain.AdminUser{}
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.FirstName,
		&admin.LastName,
		&admin.PasswordHash,
		&admin.Role,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (r *postgresAdminRepository) CreateAdmin(ctx context.Context, admin *domain.AdminUser) (*domain.AdminUser, error) {
	query := `
        INSERT INTO admin_users (id, email, first_name, last_name, password_hash, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + adminColumns

	role := admin.Role
	if role == "" {
		role = domain.RoleAdmin
	}

	r.log.Debugf("Repository: Attempting to create admin with email: %s", admin.Email)

	created, err := scanAdmin(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), admin.Email, admin.FirstName, admin.LastName, admin.PasswordHash, role))
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Repository: Attempted to create admin with duplicate email: %s", admin.Email)
			return nil, fmt.Errorf("admin with email '%s' already exists: %w", admin.Email, domain.ErrDuplicate)
		}
		r.log.Errorf("Repository: Failed to create admin '%s': %v", admin.Email, err)
		return nil, fmt.Errorf("could not create admin: %w", err)
	}

	r.log.Infof("Repository: Admin created successfully with ID: %s, Email: %s", created.ID, created.Email)
	return created, nil
}

func (r *postgresAdminRepository) GetAdminByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE lower(email) = lower($1)`

	r.log.Debugf("Repository: Attempting to find admin by email: %s", email)

	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("admin with email '%s': %w", email, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get admin by email '%s': %v", email, err)
		return nil, fmt.Errorf("could not get admin by email: %w", err)
	}
	return admin, nil
}

func (r *postgresAdminRepository) GetAdminByID(ctx context.Context, id string) (*domain.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE id = $1`
	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("admin with id %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get admin by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not get admin by id: %w", err)
	}
	return admin, nil
}

func (r *postgresAdminRepository) GetAdminsByIDs(ctx context.Context, ids []string) ([]domain.AdminUser, error) {
	if len(ids) == 0 {
		return []domain.AdminUser{}, nil
	}
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to batch load %d admins: %v", len(ids), err)
		return nil, fmt.Errorf("could not batch load admins: %w", err)
	}
	defer rows.Close()

	admins := make([]domain.AdminUser, 0, len(ids))
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning admin data: %w", err)
		}
		admins = append(admins, *admin)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}
	return admins, nil
}
