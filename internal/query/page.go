package query

// Page is the envelope metadata returned alongside a page of products.
type Page struct {
	Total           int
	Page            int
	Limit           int
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
}

func NewPage(total, page, limit int) Page {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Page{
		Total:           total,
		Page:            page,
		Limit:           limit,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
