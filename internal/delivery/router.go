package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/loader"
	"github.com/poisonshell/dream-api/internal/middleware"
)

type RouterConfig struct {
	GraphQL           *GraphQLHandler
	Health            *HealthHandler
	Tokens            middleware.TokenVerifier
	NewLoaders        func() *loader.Set
	TrustForwardedFor bool
	CORSOrigins       []string
	Playground        bool
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *logrus.Logger
}

// NewRouter wires the HTTP surface. Only /graphql gets a request scope.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	cfg.Health.RegisterRoutes(router)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	if cfg.Playground {
		router.GET("/playground", ServePlayground)
	}

	api := router.Group("/")
	api.Use(middleware.RequestScope(cfg.Tokens, cfg.NewLoaders, cfg.TrustForwardedFor))
	cfg.GraphQL.RegisterRoutes(api)

	return router
}
