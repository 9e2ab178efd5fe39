// Package admin exposes an introspection and health HTTP surface next to
// a bus server: liveness, metrics scrape, and a snapshot of bound object
// names for operators debugging a running connection.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/socketry/async-bus/internal/metrics"
)

// Inspectable is the narrow surface a Surface needs from the server it
// introspects: a snapshot of currently bound names, keyed by connection.
type Inspectable interface {
	ConnectionNames() map[string][]string
}

// Surface is the admin HTTP server: health, metrics, and introspection
// routes over a target bus server.
type Surface struct {
	name    string
	target  Inspectable
	router  *gin.Engine
	started time.Time
}

// New builds a Surface named name, introspecting target, with CORS
// restricted to corsOrigins (defaulting to loopback if empty).
func New(name string, target Inspectable, corsOrigins []string) *Surface {
	metrics.Register()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.RequestLogger(log.Logger))
	r.Use(metrics.RequestMetricsMiddleware(name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Surface{name: name, target: target, router: r, started: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Surface) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).String(),
			"server": s.name,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/connections", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connections": s.target.ConnectionNames(),
		})
	})
}

// Serve blocks, serving the admin surface on addr.
func (s *Surface) Serve(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the underlying gin engine for embedding in a larger
// HTTP server instead of calling Serve directly.
func (s *Surface) Router() *gin.Engine {
	return s.router
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
