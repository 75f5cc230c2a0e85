package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"showroom"
	"showroom/inventory"
	"showroom/recommend"
)

type recommender interface {
	Recommend(ctx context.Context, query string) ([]recommend.Enriched, error)
}

// refresher is implemented by catalog loaders that keep a cached snapshot.
type refresher interface {
	Refresh(ctx context.Context) ([]inventory.Record, error)
}

type Server struct {
	catalog     inventory.CatalogLoader
	recommender recommender
	limiter     *rate.Limiter
	router      *gin.Engine
}

type Opts struct {
	Catalog     inventory.CatalogLoader
	Recommender recommender
	Config      showroom.ServerConfig
}

func New(opts Opts) *Server {
	s := &Server{
		catalog:     opts.Catalog,
		recommender: opts.Recommender,
		limiter:     newLimiter(opts.Config.RecommendRatePerMinute, opts.Config.RecommendRateBurst),
	}
	s.router = s.routes(opts.Config)
	return s
}

func newLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes(cfg showroom.ServerConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(requestID())
	r.Use(tracing())
	r.Use(accessLog())
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api")
	api.GET("/cars", s.listCars)
	api.GET("/cars/:id", s.getCar)
	api.POST("/ai-recommend", rateLimit(s.limiter), s.aiRecommend)

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()

	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowed
	}

	cfg.AddAllowHeaders(requestIDHeader)
	cfg.AddExposeHeaders(requestIDHeader, "Content-Length")
	return cfg
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("SERVER: Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("SERVER: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
