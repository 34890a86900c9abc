package delivery

import (
	"github.com/graphql-go/graphql"

	"github.com/poisonshell/dream-api/internal/domain"
)

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"slug":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
	},
})

var adminUserType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AdminUser",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"firstName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"lastName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"role":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
	},
})

var authPayloadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "LoginResponse",
	Fields: graphql.Fields{
		"token":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"adminUser": &graphql.Field{Type: graphql.NewNonNull(adminUserType)},
	},
})

// newProductType needs the resolver for its relation fields.
func newProductType(r *Resolver) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"price": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					product, _ := p.Source.(*domain.Product)
					if product == nil {
						return nil, nil
					}
					return product.Price.InexactFloat64(), nil
				},
			},
			"categoryId":  &graphql.Field{Type: graphql.ID},
			"category":    &graphql.Field{Type: categoryType, Resolve: r.productCategory},
			"image":       &graphql.Field{Type: graphql.String},
			"stockStatus": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdBy": &graphql.Field{
				Type:        adminUserType,
				Description: "Visible to admins only; null for everyone else.",
				Resolve:     r.productCreatedBy,
			},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})
}

func newProductPageType(product *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "PaginatedProductsResponse",
		Fields: graphql.Fields{
			"items":           &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(product)))},
			"total":           &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"page":            &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"limit":           &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalPages":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})
}

var paginationInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "PaginationInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"page":      &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"limit":     &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"sortBy":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		"sortOrder": &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var productFiltersInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ProductFiltersInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"category": &graphql.InputObjectFieldConfig{Type: graphql.String, Description: "Category id or slug."},
		"search":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		"minPrice": &graphql.InputObjectFieldConfig{Type: graphql.Float},
		"maxPrice": &graphql.InputObjectFieldConfig{Type: graphql.Float},
		"inStock":  &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
	},
})

var createProductInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateProductInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"price":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		"categoryId":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		"image":       &graphql.InputObjectFieldConfig{Type: graphql.String},
		"stockStatus": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var updateProductInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UpdateProductInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":          &graphql.InputObjectFieldConfig{Type: graphql.String},
		"description":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		"price":         &graphql.InputObjectFieldConfig{Type: graphql.Float},
		"categoryId":    &graphql.InputObjectFieldConfig{Type: graphql.ID},
		"image":         &graphql.InputObjectFieldConfig{Type: graphql.String},
		"stockStatus":   &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"clearCategory": &graphql.InputObjectFieldConfig{
			Type:        graphql.Boolean,
			Description: "Detach the product from its category.",
		},
	},
})

var createCategoryInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateCategoryInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"slug":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var updateCategoryInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UpdateCategoryInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":        &graphql.InputObjectFieldConfig{Type: graphql.String},
		"slug":        &graphql.InputObjectFieldConfig{Type: graphql.String},
		"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var registerAdminInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "RegisterAdminInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"email":          &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"firstName":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"lastName":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"invitationCode": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var loginInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "LoginInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})
