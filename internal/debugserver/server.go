// Package debugserver exposes an optional HTTP sidecar (`/healthz`,
// `/metrics`) alongside the stdio MCP transport, for container liveness
// probes and Prometheus scraping (spec.md §5 "Concurrency & resource
// model" — a long-running process needs externally observable health).
//
// Grounded on the gin + gin-contrib/cors + prometheus/client_golang stack
// the corpus's other manifests (codeready-toolchain-tarsy,
// kart-io-sentinel-x, digitallysavvy-go-ai) declare for exactly this
// "small JSON API + metrics sidecar" shape; no pack repo's source was
// retrieved for it, so the wiring below follows gin's own documented
// default-engine + middleware pattern.
package debugserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// Server hosts the health/metrics HTTP sidecar.
type Server struct {
	reg      *tool.Registry
	launcher *browser.Launcher
	engine   *gin.Engine
	srv      *http.Server
}

// New builds a Server bound to reg (for tool-count reporting) and launcher
// (for liveness).
func New(reg *tool.Registry, launcher *browser.Launcher) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet},
	}))

	s := &Server{reg: reg, launcher: launcher, engine: e}
	e.GET("/healthz", s.handleHealthz)
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return s
}

type healthResponse struct {
	OK         bool `json:"ok"`
	BrowserUp  bool `json:"browser_up"`
	ToolsCount int  `json:"tools_count"`
}

func (s *Server) handleHealthz(c *gin.Context) {
	up := s.launcher.IsRunning()
	resp := healthResponse{OK: up, BrowserUp: up, ToolsCount: len(s.reg.List())}
	status := http.StatusOK
	if !up {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// ListenAndServe blocks serving addr until the process exits or Shutdown is
// called.
func (s *Server) ListenAndServe(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.engine}
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the sidecar within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
