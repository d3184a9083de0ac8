package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marketingax/pdf-generator-service/internal/concurrency"
	"github.com/marketingax/pdf-generator-service/internal/config"
	"github.com/marketingax/pdf-generator-service/internal/generator"
	"github.com/marketingax/pdf-generator-service/internal/storage"
)

// Server is the HTTP transport for the PDF generator service.
type Server struct {
	cfg    *config.Config
	gen    *generator.Generator
	pool   *concurrency.Pool
	store  *storage.Store
	logger *slog.Logger
	engine *gin.Engine
}

// New wires the routes and middleware onto a gin engine.
func New(cfg *config.Config, gen *generator.Generator, pool *concurrency.Pool, store *storage.Store) *Server {
	s := &Server{
		cfg:    cfg,
		gen:    gen,
		pool:   pool,
		store:  store,
		logger: cfg.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	engine.GET("/health", s.handleHealth)
	engine.POST("/webhook", s.requireAPIKey, s.handleWebhook)
	engine.GET("/download/:filename", s.handleDownload)
	engine.GET("/status/:fileID", s.handleStatus)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	s.engine = engine
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requireAPIKey rejects requests without the configured key. When no key
// is configured the check is a no-op.
func (s *Server) requireAPIKey(c *gin.Context) {
	if s.cfg.APIKey == "" {
		return
	}

	provided := c.GetHeader("X-API-Key")
	if provided == "" {
		provided = c.Query("api_key")
	}
	if provided != s.cfg.APIKey {
		s.logger.Warn("unauthorized webhook request", "remote", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
	}
}
