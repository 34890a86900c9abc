package delivery

import (
	"fmt"

	"github.com/graphql-go/graphql/language/ast"
)

const (
	DefaultMaxDepth      = 10
	DefaultMaxComplexity = 250
)

// Limits caps the shape of an operation before it is executed. Zero disables a cap.
type Limits struct {
	MaxDepth      int
	MaxComplexity int
}

// limitError is returned for an operation that exceeds Limits.
type limitError struct {
	reason  string
	message string
}

func (e *limitError) Error() string { return e.message }

func (e *limitError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": "GRAPHQL_VALIDATION_FAILED"}
}

// Check measures op against the limits. Complexity is checked first.
func (l Limits) Check(doc *ast.Document, op *ast.OperationDefinition) error {
	if op == nil {
		return nil
	}
	m := measurer{fragments: fragmentsOf(doc), visiting: map[string]bool{}}
	depth, complexity := m.selectionSet(op.SelectionSet, 0)

	if l.MaxComplexity > 0 && complexity > l.MaxComplexity {
		return &limitError{
			reason:  "complexity",
			message: fmt.Sprintf("Query is too complex: %d. Max allowed: %d", complexity, l.MaxComplexity),
		}
	}
	if l.MaxDepth > 0 && depth > l.MaxDepth {
		return &limitError{
			reason:  "depth",
			message: fmt.Sprintf("Query is too deep: %d. Max allowed depth: %d", depth, l.MaxDepth),
		}
	}
	return nil
}

type measurer struct {
	fragments map[string]*ast.FragmentDefinition
	visiting  map[string]bool
}

// selectionSet returns the deepest field level reached below set and the
// number of fields selected, counting every field as one.
func (m *measurer) selectionSet(set *ast.SelectionSet, depth int) (maxDepth, complexity int) {
	maxDepth = depth
	if set == nil {
		return maxDepth, 0
	}
	for _, sel := range set.Selections {
		var d, c int
		switch s := sel.(type) {
		case *ast.Field:
			d, c = m.selectionSet(s.SelectionSet, depth+1)
			c++
		case *ast.InlineFragment:
			d, c = m.selectionSet(s.SelectionSet, depth)
		case *ast.FragmentSpread:
			name := s.Name.Value
			frag, ok := m.fragments[name]
			if !ok || m.visiting[name] {
				continue
			}
			m.visiting[name] = true
			d, c = m.selectionSet(frag.SelectionSet, depth)
			m.visiting[name] = false
		}
		maxDepth = max(maxDepth, d)
		complexity += c
	}
	return maxDepth, complexity
}

func fragmentsOf(doc *ast.Document) map[string]*ast.FragmentDefinition {
	out := map[string]*ast.FragmentDefinition{}
	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok && frag.Name != nil {
			out[frag.Name.Value] = frag
		}
	}
	return out
}

// selectOperation finds the operation a request will run, or nil when the
// choice is ambiguous and execution will report it.
func selectOperation(doc *ast.Document, name string) *ast.OperationDefinition {
	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if name == "" {
			if found != nil {
				return nil
			}
			found = op
			continue
		}
		if op.Name != nil && op.Name.Value == name {
			return op
		}
	}
	return found
}
