package query

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/validation"
)

type Filters struct {
	Category *string
	Search   *string
	MinPrice *float64
	MaxPrice *float64
	InStock  *bool
}

type Pagination struct {
	Page      *int
	Limit     *int
	SortBy    *string
	SortOrder *string
}

// Build validates filters and pagination and assembles a Query. Either
// argument may be nil. Failures are *apperr.Error values of kind validation.
func Build(filters *Filters, pagination *Pagination) (Query, error) {
	q := Query{Sort: SortCreatedAt, Direction: Desc, Page: DefaultPage, Limit: DefaultLimit}

	if pagination != nil {
		if pagination.SortBy != nil {
			if !validation.IsAllowedSortField(*pagination.SortBy) {
				return Query{}, apperr.Validation("sortBy", "Invalid sort field")
			}
			q.Sort = sortKeys[*pagination.SortBy]
		}
		if pagination.SortOrder != nil {
			if !validation.IsAllowedSortOrder(*pagination.SortOrder) {
				return Query{}, apperr.Validation("sortOrder", "Invalid sort order")
			}
			if strings.EqualFold(*pagination.SortOrder, "ASC") {
				q.Direction = Asc
			}
		}
		if pagination.Page != nil {
			if *pagination.Page < 1 {
				return Query{}, apperr.Validation("page", "Page must be at least 1")
			}
			q.Page = *pagination.Page
		}
		if pagination.Limit != nil {
			if *pagination.Limit < 1 {
				return Query{}, apperr.Validation("limit", "Limit must be at least 1")
			}
			q.Limit = min(*pagination.Limit, MaxLimit)
		}
	}
	q.Offset = (q.Page - 1) * q.Limit

	if filters == nil {
		return q, nil
	}

	if filters.Category != nil {
		token := validation.SanitizeCategoryToken(*filters.Category)
		switch {
		case token == "":
		case validation.IsWellFormedID(token):
			q.Predicates = append(q.Predicates, CategoryIDEquals{ID: strings.ToLower(token)})
		default:
			q.Predicates = append(q.Predicates, CategorySlugEquals{Slug: token})
		}
	}

	if filters.Search != nil {
		if term := validation.SanitizeSearchTerm(*filters.Search); term != "" {
			q.Predicates = append(q.Predicates, NameContains{Term: term})
		}
	}

	minPrice, err := priceBound("minPrice", filters.MinPrice)
	if err != nil {
		return Query{}, err
	}
	maxPrice, err := priceBound("maxPrice", filters.MaxPrice)
	if err != nil {
		return Query{}, err
	}
	switch {
	case minPrice != nil && maxPrice != nil:
		if minPrice.GreaterThan(*maxPrice) {
			return Query{}, apperr.Validation("minPrice", "minPrice must not be greater than maxPrice")
		}
		q.Predicates = append(q.Predicates, PriceBetween{Min: *minPrice, Max: *maxPrice})
	case minPrice != nil:
		q.Predicates = append(q.Predicates, PriceAtLeast{Min: *minPrice})
	case maxPrice != nil:
		q.Predicates = append(q.Predicates, PriceAtMost{Max: *maxPrice})
	}

	if filters.InStock != nil && *filters.InStock {
		q.Predicates = append(q.Predicates, InStock{})
	}

	return q, nil
}

func priceBound(field string, v *float64) (*decimal.Decimal, error) {
	if v == nil {
		return nil, nil
	}
	if !validation.IsFiniteNumber(*v) {
		return nil, apperr.Validationf(field, "Invalid %s value", field)
	}
	if *v < 0 {
		return nil, apperr.Validationf(field, "%s must not be negative", field)
	}
	d := decimal.NewFromFloat(*v)
	return &d, nil
}
