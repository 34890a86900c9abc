package delivery

import (
	"strconv"
	"testing"

	"github.com/graphql-go/graphql/language/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitsMeasureFragments(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		op         string
		depth      int
		complexity int
	}{
		{"flat", `{ categories { id } }`, "", 2, 2},
		{"nested", `{ products { items { category { name } } } }`, "", 4, 4},
		{
			"named fragment",
			`query Q { products { items { ...P } } } fragment P on Product { id category { slug } }`,
			"", 4, 5,
		},
		{
			"inline fragment adds no depth",
			`{ products { items { ... on Product { id name } } } }`,
			"", 3, 4,
		},
		{
			"selected operation only",
			`query A { categories { id } } query B { products { items { id } } }`,
			"B", 3, 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.Parse(parser.ParseParams{Source: tt.doc})
			require.NoError(t, err)
			op := selectOperation(doc, tt.op)
			require.NotNil(t, op)

			assert.NoError(t, Limits{MaxDepth: tt.depth, MaxComplexity: tt.complexity}.Check(doc, op))

			err = Limits{MaxDepth: tt.depth - 1}.Check(doc, op)
			assert.EqualError(t, err, "Query is too deep: "+strconv.Itoa(tt.depth)+". Max allowed depth: "+strconv.Itoa(tt.depth-1))

			err = Limits{MaxComplexity: tt.complexity - 1}.Check(doc, op)
			assert.EqualError(t, err, "Query is too complex: "+strconv.Itoa(tt.complexity)+". Max allowed: "+strconv.Itoa(tt.complexity-1))
		})
	}
}

func TestSelectOperationAmbiguous(t *testing.T) {
	doc, err := parser.Parse(parser.ParseParams{Source: `query A { me { id } } query B { me { id } }`})
	require.NoError(t, err)
	assert.Nil(t, selectOperation(doc, ""))
	assert.Nil(t, selectOperation(doc, "C"))
	assert.NotNil(t, selectOperation(doc, "A"))
	assert.NoError(t, Limits{MaxDepth: 1}.Check(doc, nil))
}

func TestZeroLimitsDisableChecks(t *testing.T) {
	doc, err := parser.Parse(parser.ParseParams{Source: `{ products { items { category { name } } } }`})
	require.NoError(t, err)
	assert.NoError(t, Limits{}.Check(doc, selectOperation(doc, "")))
}
