package loader

import (
	"context"

	"github.com/poisonshell/dream-api/internal/domain"
)

// Set is the group of loaders attached to a single request. It must not be
// reused across requests.
type Set struct {
	Categories *Loader[string, *domain.Category]
	Admins     *Loader[string, *domain.AdminUser]
}

func NewSet(categories domain.CategoryRepository, admins domain.AdminRepository, observe BatchObserver) *Set {
	return &Set{
		Categories: New("category", func(ctx context.Context, ids []string) (map[string]*domain.Category, error) {
			found, err := categories.GetCategoriesByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			out := make(map[string]*domain.Category, len(found))
			for i := range found {
				out[found[i].ID] = &found[i]
			}
			return out, nil
		}, observe),
		Admins: New("admin_user", func(ctx context.Context, ids []string) (map[string]*domain.AdminUser, error) {
			found, err := admins.GetAdminsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			out := make(map[string]*domain.AdminUser, len(found))
			for i := range found {
				out[found[i].ID] = &found[i]
			}
			return out, nil
		}, observe),
	}
}
