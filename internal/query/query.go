// Package query turns untrusted filter, sort and pagination parameters into a
// storage-agnostic product query. Storage layers receive only the closed set
// of predicate types declared here and map them to concrete columns themselves.
package query

import "github.com/shopspring/decimal"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Predicate is implemented only by the types in this file.
type Predicate interface {
	predicate()
}

type CategoryIDEquals struct{ ID string }

type CategorySlugEquals struct{ Slug string }

// NameContains is a case-insensitive substring match on the product name.
type NameContains struct{ Term string }

// PriceBetween is inclusive on both ends.
type PriceBetween struct{ Min, Max decimal.Decimal }

type PriceAtLeast struct{ Min decimal.Decimal }

type PriceAtMost struct{ Max decimal.Decimal }

// InStock matches products whose stock count is greater than zero.
type InStock struct{}

func (CategoryIDEquals) predicate()   {}
func (CategorySlugEquals) predicate() {}
func (NameContains) predicate()       {}
func (PriceBetween) predicate()       {}
func (PriceAtLeast) predicate()       {}
func (PriceAtMost) predicate()        {}
func (InStock) predicate()            {}

type SortKey int

const (
	SortCreatedAt SortKey = iota
	SortName
	SortPrice
	SortStock
	SortCategory
)

var sortKeys = map[string]SortKey{
	"createdAt":   SortCreatedAt,
	"name":        SortName,
	"price":       SortPrice,
	"stockStatus": SortStock,
	"category":    SortCategory,
}

func (k SortKey) String() string {
	switch k {
	case SortName:
		return "name"
	case SortPrice:
		return "price"
	case SortStock:
		return "stockStatus"
	case SortCategory:
		return "category"
	default:
		return "createdAt"
	}
}

type Direction int

const (
	Desc Direction = iota
	Asc
)

func (d Direction) String() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// Query is the validated product lookup handed to storage.
type Query struct {
	Predicates []Predicate
	Sort       SortKey
	Direction  Direction
	Page       int
	Offset     int
	Limit      int
}
