package domain

import "context"

type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *AdminUser) (*AdminUser, error)
	GetAdminByEmail(ctx context.Context, email string) (*AdminUser, error)
	GetAdminByID(ctx context.Context, id string) (*AdminUser, error)
	GetAdminsByIDs(ctx context.Context, ids []string) ([]AdminUser, error)
}
