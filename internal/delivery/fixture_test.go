package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/poisonshell/dream-api/internal/auth"
	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/loader"
	"github.com/poisonshell/dream-api/internal/metrics"
	"github.com/poisonshell/dream-api/internal/ratelimit"
	"github.com/poisonshell/dream-api/internal/repository"
	"github.com/poisonshell/dream-api/internal/usecase"
)

const testInvitation = "welcome-aboard"

func init() {
	gin.SetMode(gin.TestMode)
}

type gqlError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   map[string]interface{} `json:"data"`
	Errors []gqlError             `json:"errors"`
}

type batchRecorder struct {
	mu    sync.Mutex
	calls map[string][]int
}

func (b *batchRecorder) observe(name string, keys int, _ error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name] = append(b.calls[name], keys)
}

func (b *batchRecorder) batches(name string) []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.calls[name]...)
}

type fixture struct {
	t          *testing.T
	router     *gin.Engine
	store      *repository.MemoryStore
	tokens     *auth.TokenService
	batches    *batchRecorder
	admin      *domain.AdminUser
	adminToken string
	userToken  string
	phones     *domain.Category
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	limits     Limits
	playground bool
	products   func(usecase.ProductUseCase) usecase.ProductUseCase
}

func withLimits(l Limits) fixtureOption { return func(c *fixtureConfig) { c.limits = l } }

func withPlayground() fixtureOption { return func(c *fixtureConfig) { c.playground = true } }

func withProducts(wrap func(usecase.ProductUseCase) usecase.ProductUseCase) fixtureOption {
	return func(c *fixtureConfig) { c.products = wrap }
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{limits: Limits{MaxDepth: DefaultMaxDepth, MaxComplexity: DefaultMaxComplexity}}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := quietLogger()

	store := repository.NewMemoryStore()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	limiter := ratelimit.New(time.Minute, 5)
	m := metrics.New()
	rec := &batchRecorder{calls: map[string][]int{}}

	var products usecase.ProductUseCase = usecase.NewProductUseCase(store, store, logger)
	if cfg.products != nil {
		products = cfg.products(products)
	}
	resolver := NewResolver(
		products,
		usecase.NewCategoryUseCase(store, store, logger),
		usecase.NewAdminUseCase(store, tokens, testInvitation, logger),
		limiter, m, logger,
	)
	schema, err := resolver.Schema()
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		GraphQL:     NewGraphQLHandler(schema, cfg.limits, m, logger),
		Health:      NewHealthHandler(nil, logger),
		Tokens:      tokens,
		NewLoaders:  func() *loader.Set { return loader.NewSet(store, store, rec.observe) },
		CORSOrigins: []string{"http://localhost:3000"},
		Playground:  cfg.playground,
		Logger:      logger,
	})

	f := &fixture{t: t, router: router, store: store, tokens: tokens, batches: rec}
	f.seed()
	return f
}

func (f *fixture) seed() {
	ctx := context.Background()
	hash, err := auth.HashPassword("Secret123")
	require.NoError(f.t, err)
	f.admin, err = f.store.CreateAdmin(ctx, &domain.AdminUser{
		Email: "owner@example.com", FirstName: "Olga", LastName: "Owner", PasswordHash: hash, Role: domain.RoleAdmin,
	})
	require.NoError(f.t, err)

	f.adminToken, err = f.tokens.Issue(f.admin.ID, true)
	require.NoError(f.t, err)
	f.userToken, err = f.tokens.Issue(f.admin.ID, false)
	require.NoError(f.t, err)

	f.phones, err = f.store.CreateCategory(ctx, &domain.Category{Name: "Phones", Slug: "phones"})
	require.NoError(f.t, err)
	audio, err := f.store.CreateCategory(ctx, &domain.Category{Name: "Audio", Slug: "audio"})
	require.NoError(f.t, err)

	for _, p := range []struct {
		name  string
		price string
		stock int
		cat   *domain.Category
	}{
		{"Phone Pro", "999.99", 4, f.phones},
		{"Phone Lite", "299.00", 0, f.phones},
		{"Headphones", "149.50", 12, audio},
		{"Speaker", "89.00", 3, audio},
	} {
		_, err := f.store.CreateProduct(ctx, &domain.Product{
			Name:        p.name,
			Price:       decimal.RequireFromString(p.price),
			StockStatus: p.stock,
			CategoryID:  &p.cat.ID,
			CreatedByID: &f.admin.ID,
		})
		require.NoError(f.t, err)
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// post sends a GraphQL operation and decodes the response. token may be empty.
func (f *fixture) post(token, query string, variables map[string]interface{}) (int, gqlResponse) {
	f.t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": variables})
	require.NoError(f.t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := f.do(req)

	var resp gqlResponse
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func errorCode(e gqlError) string {
	code, _ := e.Extensions["code"].(string)
	return code
}
