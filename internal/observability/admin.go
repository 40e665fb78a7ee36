package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/ircctl/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const adminShutdownTimeout = 5 * time.Second

// ReadyFunc reports whether the process is serving its main workload.
type ReadyFunc func() bool

// NewAdminRouter exposes /health, /ready and /metrics. When guard is set,
// /ready and /metrics require its bearer token; /health stays open.
func NewAdminRouter(ready ReadyFunc, guard auth.Validator) *gin.Engine {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(Component("observability.admin")))
	router.Use(RequestMetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	private := router.Group("/")
	if guard != nil {
		private.Use(auth.RequireBearer(guard))
	}
	private.GET("/ready", func(c *gin.Context) {
		if ready != nil && !ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	private.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// ServeAdmin runs the admin router on addr until ctx is done.
func ServeAdmin(ctx context.Context, addr string, ready ReadyFunc, guard auth.Validator) error {
	logger := Component("observability.admin")
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewAdminRouter(ready, guard),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("observability.ServeAdmin listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
		defer cancel()
		logger.Info().Msg("observability.ServeAdmin shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}
