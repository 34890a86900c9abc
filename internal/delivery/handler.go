package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/metrics"
	"github.com/poisonshell/dream-api/internal/middleware"
)

type Request struct {
	Query         string                 `json:"query" form:"query"`
	OperationName string                 `json:"operationName" form:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type GraphQLHandler struct {
	schema  graphql.Schema
	limits  Limits
	metrics *metrics.Metrics
	log     *logrus.Logger
}

func NewGraphQLHandler(schema graphql.Schema, limits Limits, m *metrics.Metrics, logger *logrus.Logger) *GraphQLHandler {
	return &GraphQLHandler{
		schema:  schema,
		limits:  limits,
		metrics: m,
		log:     logger,
	}
}

func (h *GraphQLHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/graphql", h.Post)
	router.GET("/graphql", h.Get)
}

func (h *GraphQLHandler) Post(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind GraphQL request body: %v", err)
		c.JSON(http.StatusBadRequest, errorResult("Invalid request body"))
		return
	}
	h.serve(c, req, false)
}

func (h *GraphQLHandler) Get(c *gin.Context) {
	req := Request{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			c.JSON(http.StatusBadRequest, errorResult("Variables must be a JSON object"))
			return
		}
	}
	h.serve(c, req, true)
}

func (h *GraphQLHandler) serve(c *gin.Context, req Request, readOnly bool) {
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, errorResult("Must provide query string"))
		return
	}
	if req.OperationName != "" {
		c.Set(middleware.OperationKey, req.OperationName)
	}
	status, result := h.Execute(c.Request.Context(), req, readOnly)
	c.JSON(status, result)
}

// Execute parses, validates, limits and runs one operation. readOnly rejects
// mutations. The returned status is 400 when the operation never ran.
func (h *GraphQLHandler) Execute(ctx context.Context, req Request, readOnly bool) (int, *graphql.Result) {
	start := time.Now()

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(req.Query), Name: "GraphQL request"}),
	})
	if err != nil {
		h.metrics.RejectQuery("parse")
		return http.StatusBadRequest, &graphql.Result{Errors: gqlerrors.FormatErrors(err)}
	}

	validation := graphql.ValidateDocument(&h.schema, doc, nil)
	if !validation.IsValid {
		h.metrics.RejectQuery("validation")
		return http.StatusBadRequest, &graphql.Result{Errors: validation.Errors}
	}

	op := selectOperation(doc, req.OperationName)
	if err := h.limits.Check(doc, op); err != nil {
		var le *limitError
		if errors.As(err, &le) {
			h.metrics.RejectQuery(le.reason)
		}
		h.log.WithField("operation", req.OperationName).Warnf("Rejected GraphQL operation: %v", err)
		return http.StatusBadRequest, &graphql.Result{Errors: []gqlerrors.FormattedError{formatted(err)}}
	}

	opType := operationType(op)
	if readOnly && opType == ast.OperationTypeMutation {
		h.metrics.RejectQuery("method")
		return http.StatusMethodNotAllowed, errorResult("Mutations must be sent with POST")
	}

	result := graphql.Execute(graphql.ExecuteParams{
		Schema:        h.schema,
		AST:           doc,
		OperationName: req.OperationName,
		Args:          req.Variables,
		Context:       ctx,
	})
	result.Errors = h.publicErrors(result.Errors)

	h.metrics.ObserveOperation(opType, result.HasErrors(), time.Since(start))
	return http.StatusOK, result
}

// publicErrors restores extensions lost on the way through graphql-go and
// hides internal failures behind a generic message.
func (h *GraphQLHandler) publicErrors(errs []gqlerrors.FormattedError) []gqlerrors.FormattedError {
	for i, fe := range errs {
		cause := rootCause(fe)
		var appErr *apperr.Error
		if cause == nil || !errors.As(cause, &appErr) {
			if len(fe.Path) == 0 {
				continue
			}
			appErr = apperr.Internal(cause)
		}
		if appErr.Kind == apperr.KindInternal {
			h.log.WithFields(logrus.Fields{
				"path":  fe.Path,
				"cause": fe.Message,
			}).WithError(appErr.Err).Error("Internal error while resolving")
		}
		errs[i].Message = appErr.Message
		errs[i].Extensions = appErr.Extensions()
	}
	return errs
}

func rootCause(fe gqlerrors.FormattedError) error {
	err := fe.OriginalError()
	for err != nil {
		switch e := err.(type) {
		case *gqlerrors.Error:
			if e.OriginalError == nil {
				return e
			}
			err = e.OriginalError
		case gqlerrors.FormattedError:
			next := e.OriginalError()
			if next == nil {
				return e
			}
			err = next
		default:
			return err
		}
	}
	return nil
}

func operationType(op *ast.OperationDefinition) string {
	if op == nil || op.Operation == "" {
		return ast.OperationTypeQuery
	}
	return op.Operation
}

func formatted(err error) gqlerrors.FormattedError {
	fe := gqlerrors.FormatError(err)
	var ext gqlerrors.ExtendedError
	if errors.As(err, &ext) {
		fe.Extensions = ext.Extensions()
	}
	return fe
}

func errorResult(message string) *graphql.Result {
	return &graphql.Result{Errors: []gqlerrors.FormattedError{gqlerrors.NewFormattedError(message)}}
}
