// Package apitest is an in-memory stand-in for the personal-finance backend.
// It serves the same routes, status codes and payload shapes, counts hits
// per route and can revoke every token it has issued.
package apitest

import (
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"finance-client/internal/log"
	"finance-client/internal/wire"

	"github.com/gin-gonic/gin"
)

// Casing selects how response keys are spelled.
type Casing int

const (
	// SnakeCase answers with keys like "category_name".
	SnakeCase Casing = iota
	// GoCase answers with keys like "CategoryName".
	GoCase
)

// Config configures a Server.
type Config struct {
	Secret []byte
	Casing Casing
	Logger *log.Logger
	Now    func() time.Time
}

// Server holds all backend state in memory.
type Server struct {
	casing Casing
	logger *log.Logger
	now    func() time.Time
	engine *gin.Engine

	mu           sync.Mutex
	secret       []byte
	seq          int64
	users        map[int64]*user
	byEmail      map[string]int64
	transactions map[int64]*transaction
	categories   map[int64]*category
	products     map[int64]*product
	hits         map[string]int
}

// New creates a Server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		casing:       cfg.Casing,
		logger:       cfg.Logger,
		now:          cfg.Now,
		secret:       cfg.Secret,
		users:        make(map[int64]*user),
		byEmail:      make(map[string]int64),
		transactions: make(map[int64]*transaction),
		categories:   make(map[int64]*category),
		products:     make(map[int64]*product),
		hits:         make(map[string]int),
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentMockAPI)
	if s.now == nil {
		s.now = time.Now
	}
	if len(s.secret) == 0 {
		s.secret = randomSecret()
	}
	s.engine = s.setupRouter()
	return s
}

// NewHTTPTest starts s behind an httptest server that is closed when tb
// finishes, and returns the server together with its base URL.
func NewHTTPTest(tb testing.TB, cfg Config) (*Server, string) {
	tb.Helper()
	gin.SetMode(gin.TestMode)
	s := New(cfg)
	ts := httptest.NewServer(s.Handler())
	tb.Cleanup(ts.Close)
	return s, ts.URL
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.countHits())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.GET("/profile", s.authRequired(), s.profile)

	tx := api.Group("/transactions", s.authRequired())
	tx.GET("", s.listTransactions)
	tx.POST("", s.createTransaction)
	tx.GET("/summary", s.summary)
	tx.DELETE("/:id", s.deleteTransaction)

	cat := api.Group("/categories", s.authRequired())
	cat.GET("", s.listCategories)
	cat.POST("", s.createCategory)
	cat.DELETE("/:id", s.deleteCategory)

	products := api.Group("/products")
	products.GET("", s.listProducts)
	products.GET("/:id", s.getProduct)
	products.POST("", s.createProduct)
	products.PUT("/:id", s.updateProduct)
	products.DELETE("/:id", s.deleteProduct)

	return r
}

// Hits reports how many requests matched the route pattern, for example
// Hits("GET", "/api/transactions") or Hits("DELETE", "/api/transactions/:id").
func (s *Server) Hits(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+route]
}

// ResetHits zeroes every hit counter.
func (s *Server) ResetHits() {
	s.mu.Lock()
	s.hits = make(map[string]int)
	s.mu.Unlock()
}

// Revoke invalidates every token issued so far by rotating the signing key.
func (s *Server) Revoke() {
	s.mu.Lock()
	s.secret = randomSecret()
	s.mu.Unlock()
}

func (s *Server) countHits() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		s.mu.Lock()
		s.hits[c.Request.Method+" "+route]++
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			log.FieldMethod, c.Request.Method,
			log.FieldPath, c.Request.URL.Path,
			log.FieldStatusCode, c.Writer.Status(),
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldRequestID, c.GetHeader("X-Request-ID"))
	}
}

func (s *Server) nextID() int64 {
	s.seq++
	return s.seq
}

// object is an ordered list of snake_case keys and values.
type object []field

type field struct {
	key   string
	value any
}

func (s *Server) render(o object) map[string]any {
	out := make(map[string]any, len(o))
	for _, f := range o {
		key := f.key
		if s.casing == GoCase {
			key = wire.GoName(key)
		}
		if nested, ok := f.value.(object); ok {
			out[key] = s.render(nested)
			continue
		}
		out[key] = f.value
	}
	return out
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func randomSecret() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}
