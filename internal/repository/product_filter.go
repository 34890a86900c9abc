package repository

import (
	"fmt"
	"strings"

	"github.com/poisonshell/dream-api/internal/query"
)

// sortColumns maps each allow-listed sort key to a fixed column. Caller text
// never reaches the ORDER BY clause.
var sortColumns = map[query.SortKey]string{
	query.SortCreatedAt: "p.created_at",
	query.SortName:      "p.name",
	query.SortPrice:     "p.price",
	query.SortStock:     "p.stock_status",
	query.SortCategory:  "p.category_id",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders predicates as a parameterised WHERE clause. Placeholders
// start at $len(args)+1 and the returned args extend the given ones.
func whereClause(predicates []query.Predicate, args []interface{}) (string, []interface{}, error) {
	if len(predicates) == 0 {
		return "", args, nil
	}
	conds := make([]string, 0, len(predicates))
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	for _, pred := range predicates {
		switch f := pred.(type) {
		case query.CategoryIDEquals:
			conds = append(conds, "p.category_id = "+next(f.ID))
		case query.CategorySlugEquals:
			conds = append(conds, "p.category_id IN (SELECT c.id FROM categories c WHERE c.slug = "+next(f.Slug)+")")
		case query.NameContains:
			conds = append(conds, "p.name ILIKE "+next("%"+likeEscaper.Replace(f.Term)+"%")+` ESCAPE '\'`)
		case query.PriceBetween:
			conds = append(conds, "p.price BETWEEN "+next(f.Min)+" AND "+next(f.Max))
		case query.PriceAtLeast:
			conds = append(conds, "p.price >= "+next(f.Min))
		case query.PriceAtMost:
			conds = append(conds, "p.price <= "+next(f.Max))
		case query.InStock:
			conds = append(conds, "p.stock_status > 0")
		default:
			return "", nil, fmt.Errorf("unsupported predicate %T", pred)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func orderClause(key query.SortKey, dir query.Direction) string {
	col, ok := sortColumns[key]
	if !ok {
		col = sortColumns[query.SortCreatedAt]
	}
	return fmt.Sprintf(" ORDER BY %s %s, p.id ASC", col, dir)
}
