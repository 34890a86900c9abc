package delivery

import (
	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/metrics"
	"github.com/poisonshell/dream-api/internal/middleware"
	"github.com/poisonshell/dream-api/internal/query"
	"github.com/poisonshell/dream-api/internal/ratelimit"
	"github.com/poisonshell/dream-api/internal/usecase"
)

// Resolver holds everything the catalog schema resolves against.
type Resolver struct {
	products   usecase.ProductUseCase
	categories usecase.CategoryUseCase
	admins     usecase.AdminUseCase
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	log        *logrus.Logger
}

func NewResolver(
	products usecase.ProductUseCase,
	categories usecase.CategoryUseCase,
	admins usecase.AdminUseCase,
	limiter *ratelimit.Limiter,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *Resolver {
	return &Resolver{
		products:   products,
		categories: categories,
		admins:     admins,
		limiter:    limiter,
		metrics:    m,
		log:        logger,
	}
}

// Queries

func (r *Resolver) listProducts(p graphql.ResolveParams) (interface{}, error) {
	var filters *query.Filters
	if m := inputMap(p.Args, "filters"); m != nil {
		filters = &query.Filters{
			Category: optString(m, "category"),
			Search:   optString(m, "search"),
			MinPrice: optFloat(m, "minPrice"),
			MaxPrice: optFloat(m, "maxPrice"),
			InStock:  optBool(m, "inStock"),
		}
	}
	var pagination *query.Pagination
	if m := inputMap(p.Args, "pagination"); m != nil {
		pagination = &query.Pagination{
			Page:      optInt(m, "page"),
			Limit:     optInt(m, "limit"),
			SortBy:    optString(m, "sortBy"),
			SortOrder: optString(m, "sortOrder"),
		}
	}

	page, err := r.products.ListProducts(p.Context, filters, pagination)
	if err != nil {
		return nil, err
	}
	items := make([]*domain.Product, len(page.Items))
	for i := range page.Items {
		items[i] = &page.Items[i]
	}
	return map[string]interface{}{
		"items":           items,
		"total":           page.Total,
		"page":            page.Page.Page,
		"limit":           page.Limit,
		"totalPages":      page.TotalPages,
		"hasNextPage":     page.HasNextPage,
		"hasPreviousPage": page.HasPreviousPage,
	}, nil
}

func (r *Resolver) product(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	return r.products.GetProduct(p.Context, id)
}

func (r *Resolver) listCategories(p graphql.ResolveParams) (interface{}, error) {
	categories, err := r.categories.ListCategories(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Category, len(categories))
	for i := range categories {
		out[i] = &categories[i]
	}
	return out, nil
}

func (r *Resolver) category(p graphql.ResolveParams) (interface{}, error) {
	category, err := r.categories.GetCategory(p.Context, optString(p.Args, "id"), optString(p.Args, "slug"))
	if err != nil || category == nil {
		return nil, err
	}
	return category, nil
}

// me never fails: an anonymous or stale caller simply gets null.
func (r *Resolver) me(p graphql.ResolveParams) (interface{}, error) {
	req, ok := middleware.RequestFrom(p.Context)
	if !ok || req.Claims == nil {
		return nil, nil
	}
	admin, err := r.admins.Me(p.Context, req.Claims.UserID)
	if err != nil || admin == nil {
		return nil, err
	}
	return admin, nil
}

// Relation fields

func (r *Resolver) productCategory(p graphql.ResolveParams) (interface{}, error) {
	product, _ := p.Source.(*domain.Product)
	if product == nil || product.CategoryID == nil {
		return nil, nil
	}
	req, ok := middleware.RequestFrom(p.Context)
	if !ok || req.Loaders == nil {
		return nil, nil
	}
	thunk := req.Loaders.Categories.Load(p.Context, *product.CategoryID)
	return func() (interface{}, error) {
		category, err := thunk()
		if err != nil || category == nil {
			return nil, err
		}
		return category, nil
	}, nil
}

func (r *Resolver) productCreatedBy(p graphql.ResolveParams) (interface{}, error) {
	product, _ := p.Source.(*domain.Product)
	if product == nil || product.CreatedByID == nil {
		return nil, nil
	}
	req, ok := middleware.RequestFrom(p.Context)
	if !ok || req.Claims == nil || !req.Claims.IsAdmin || req.Loaders == nil {
		return nil, nil
	}
	thunk := req.Loaders.Admins.Load(p.Context, *product.CreatedByID)
	return func() (interface{}, error) {
		admin, err := thunk()
		if err != nil || admin == nil {
			return nil, err
		}
		return admin, nil
	}, nil
}

// Mutations

func (r *Resolver) registerAdmin(p graphql.ResolveParams) (interface{}, error) {
	in := inputMap(p.Args, "input")
	return r.admins.Register(p.Context, usecase.RegisterAdminInput{
		Email:          str(in, "email"),
		FirstName:      str(in, "firstName"),
		LastName:       str(in, "lastName"),
		Password:       str(in, "password"),
		InvitationCode: str(in, "invitationCode"),
	})
}

func (r *Resolver) loginAdmin(p graphql.ResolveParams) (interface{}, error) {
	in := inputMap(p.Args, "input")
	return r.admins.Login(p.Context, usecase.LoginInput{
		Email:    str(in, "email"),
		Password: str(in, "password"),
	})
}

func (r *Resolver) refreshToken(p graphql.ResolveParams) (interface{}, error) {
	id, _ := middleware.IdentityFrom(p.Context)
	return r.admins.Refresh(p.Context, id.UserID)
}

func (r *Resolver) createCategory(p graphql.ResolveParams) (interface{}, error) {
	in := inputMap(p.Args, "input")
	return r.categories.CreateCategory(p.Context, usecase.CreateCategoryInput{
		Name:        str(in, "name"),
		Slug:        str(in, "slug"),
		Description: optString(in, "description"),
	})
}

func (r *Resolver) updateCategory(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	in := inputMap(p.Args, "input")
	return r.categories.UpdateCategory(p.Context, id, usecase.UpdateCategoryInput{
		Name:        optString(in, "name"),
		Slug:        optString(in, "slug"),
		Description: optString(in, "description"),
	})
}

func (r *Resolver) deleteCategory(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	if err := r.categories.DeleteCategory(p.Context, id); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) addProduct(p graphql.ResolveParams) (interface{}, error) {
	id, _ := middleware.IdentityFrom(p.Context)
	in := inputMap(p.Args, "input")
	return r.products.AddProduct(p.Context, id.UserID, usecase.AddProductInput{
		Name:        str(in, "name"),
		Description: optString(in, "description"),
		Price:       deref(optFloat(in, "price")),
		CategoryID:  str(in, "categoryId"),
		Image:       optString(in, "image"),
		StockStatus: deref(optInt(in, "stockStatus")),
	})
}

func (r *Resolver) updateProduct(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	in := inputMap(p.Args, "input")
	return r.products.UpdateProduct(p.Context, id, usecase.UpdateProductInput{
		Name:          optString(in, "name"),
		Description:   optString(in, "description"),
		Price:         optFloat(in, "price"),
		CategoryID:    optString(in, "categoryId"),
		Image:         optString(in, "image"),
		StockStatus:   optInt(in, "stockStatus"),
		ClearCategory: deref(optBool(in, "clearCategory")),
	})
}

func (r *Resolver) deleteProduct(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	if err := r.products.DeleteProduct(p.Context, id); err != nil {
		return nil, err
	}
	return true, nil
}
