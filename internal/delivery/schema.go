package delivery

import (
	"github.com/graphql-go/graphql"

	mw "github.com/poisonshell/dream-api/internal/middleware"
)

// Schema builds the catalog schema. Protected fields are wrapped in guard
// chains here so resolvers only ever see authorized calls.
func (r *Resolver) Schema() (graphql.Schema, error) {
	productType := newProductType(r)
	admin := []mw.Guard{mw.Authenticate(), mw.RequireAdmin()}
	idArg := graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewNonNull(newProductPageType(productType)),
				Args: graphql.FieldConfigArgument{
					"pagination": &graphql.ArgumentConfig{Type: paginationInput},
					"filters":    &graphql.ArgumentConfig{Type: productFiltersInput},
				},
				Resolve: r.listProducts,
			},
			"product": &graphql.Field{
				Type:    productType,
				Args:    idArg,
				Resolve: r.product,
			},
			"categories": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(categoryType))),
				Resolve: r.listCategories,
			},
			"category": &graphql.Field{
				Type: categoryType,
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.ID},
					"slug": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.category,
			},
			"me": &graphql.Field{
				Type:    adminUserType,
				Resolve: r.me,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"registerAdmin": &graphql.Field{
				Type:    graphql.NewNonNull(authPayloadType),
				Args:    inputArg(registerAdminInput),
				Resolve: r.registerAdmin,
			},
			"loginAdmin": &graphql.Field{
				Type:    graphql.NewNonNull(authPayloadType),
				Args:    inputArg(loginInput),
				Resolve: mw.Chain(r.loginAdmin, mw.LimitLogin(r.limiter, r.metrics, r.log)),
			},
			"refreshToken": &graphql.Field{
				Type:    graphql.NewNonNull(authPayloadType),
				Resolve: mw.Chain(r.refreshToken, mw.Authenticate()),
			},
			"createCategory": &graphql.Field{
				Type:    graphql.NewNonNull(categoryType),
				Args:    inputArg(createCategoryInput),
				Resolve: mw.Chain(r.createCategory, admin...),
			},
			"updateCategory": &graphql.Field{
				Type:    categoryType,
				Args:    withID(inputArg(updateCategoryInput)),
				Resolve: mw.Chain(r.updateCategory, admin...),
			},
			"deleteCategory": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    idArg,
				Resolve: mw.Chain(r.deleteCategory, admin...),
			},
			"addProduct": &graphql.Field{
				Type:    graphql.NewNonNull(productType),
				Args:    inputArg(createProductInput),
				Resolve: mw.Chain(r.addProduct, admin...),
			},
			"updateProduct": &graphql.Field{
				Type:    productType,
				Args:    withID(inputArg(updateProductInput)),
				Resolve: mw.Chain(r.updateProduct, admin...),
			},
			"deleteProduct": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    idArg,
				Resolve: mw.Chain(r.deleteProduct, admin...),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func inputArg(t *graphql.InputObject) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t)},
	}
}

func withID(args graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	args["id"] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}
	return args
}
