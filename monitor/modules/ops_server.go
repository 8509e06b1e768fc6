package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viralmux/viralmux/monitor"
	"github.com/viralmux/viralmux/utils"
	Logger "github.com/viralmux/viralmux/utils/log"
)

type OpsServerConfig struct {
	Name string
	Addr string
}

// OpsServer exposes liveness and the last run report over http, for humans
// and probes. It serves nothing content related.
type OpsServer struct {
	Config OpsServerConfig

	Holder *monitor.ReportHolder
	server *http.Server
}

func NewOpsServer(config OpsServerConfig, holder *monitor.ReportHolder) *OpsServer {
	return &OpsServer{Config: config, Holder: holder}
}

func (s *OpsServer) RunModule(ctx context.Context) error {
	// Keep gin's request logging around in dev, silence it in prod.
	if utils.IsProdEnv() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/report", func(c *gin.Context) {
		report := s.Holder.Last()
		if report == nil {
			c.JSON(http.StatusNoContent, gin.H{})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	s.server = &http.Server{Addr: s.Config.Addr, Handler: router}

	errs := make(chan error, 1)
	go func() {
		errs <- s.server.ListenAndServe()
	}()
	Logger.Log.Infof("ops server listening on %s", s.Config.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return nil
	case err := <-errs:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *OpsServer) Name() string { return s.Config.Name }

func (s *OpsServer) Shutdown() {
	if s.server != nil {
		_ = s.server.Close()
	}
}
