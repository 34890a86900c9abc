package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrReference = errors.New("referenced entity does not exist")
)

const RoleAdmin = "admin"

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"-"`
	CategoryID  *string         `json:"categoryId"`
	Image       *string         `json:"image"`
	StockStatus int             `json:"stockStatus"`
	CreatedByID *string         `json:"createdById"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AdminUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProductPatch carries the fields of a partial product update. Nil means unchanged.
// ClearCategory detaches the product from its category.
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	CategoryID    *string
	ClearCategory bool
	Image         *string
	StockStatus   *int
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.CategoryID == nil &&
		!p.ClearCategory && p.Image == nil && p.StockStatus == nil
}
