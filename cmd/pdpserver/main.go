// Command pdpserver exposes the PDP as an HTTP service: POST
// /v1/authorize, GET /healthz and GET /metrics, built with gin and
// cobra.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dotrongnhan/xacml-pdp/audit"
	"github.com/dotrongnhan/xacml-pdp/config"
	"github.com/dotrongnhan/xacml-pdp/loader"
	"github.com/dotrongnhan/xacml-pdp/pdp"
	"github.com/dotrongnhan/xacml-pdp/pep"
	"github.com/dotrongnhan/xacml-pdp/predicate"
	"github.com/dotrongnhan/xacml-pdp/predicate/cel"
	"github.com/dotrongnhan/xacml-pdp/predicate/simple"
	"github.com/dotrongnhan/xacml-pdp/store"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "pdpserver",
		Short: "Run the ABAC policy decision point as an HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")

	if err := root.Execute(); err != nil {
		slog.Error("pdpserver exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	service, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("pdpserver: loading configuration: %w", err)
	}

	predicateEngine, err := buildPredicateEngine(service.PredicateBackend)
	if err != nil {
		return fmt.Errorf("pdpserver: %w", err)
	}

	var auditStore store.AuditStore
	if service.AuditEnabled {
		db, err := store.Open(store.Config{
			Host: service.Database.Host, Port: service.Database.Port, User: service.Database.User,
			Password: service.Database.Password, DatabaseName: service.Database.DatabaseName,
			SSLMode: service.Database.SSLMode, TimeZone: "UTC", Quiet: true,
		})
		if err != nil {
			return fmt.Errorf("pdpserver: connecting to audit database: %w", err)
		}
		policyStore := store.New(db)
		if err := policyStore.Migrate(); err != nil {
			return fmt.Errorf("pdpserver: migrating audit schema: %w", err)
		}
		auditStore = store.NewAuditStore(db)
	}
	auditLogger := audit.New(slog.Default(), auditStore)

	engine := pdp.New(predicateEngine, service.Strategy)
	enforcement := pep.DefaultConfig()
	enforcement.CacheEnabled = service.Enforcement.CacheEnabled
	enforcement.CacheTTL = service.Enforcement.CacheTTL
	enforcement.CacheMaxSize = service.Enforcement.CacheMaxSize
	enforcement.RateLimitEnabled = service.Enforcement.RateLimitEnabled
	enforcement.RateLimitPerSecond = service.Enforcement.RateLimitPerSecond
	enforcement.RateLimitBurst = service.Enforcement.RateLimitBurst
	enforcement.FailSafeDeny = true
	enforcer := pep.New(engine, enforcement, pep.NewMetrics(prometheus.DefaultRegisterer), auditLogger)

	engineRouter := gin.New()
	engineRouter.Use(gin.Recovery())
	registerRoutes(engineRouter, enforcer)

	httpServer := &http.Server{
		Addr:         service.Server.Addr(),
		Handler:      engineRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return serveUntilSignal(httpServer)
}

func buildPredicateEngine(backend string) (predicate.Engine, error) {
	switch backend {
	case "simple":
		return simple.New(), nil
	default:
		return cel.New()
	}
}

func registerRoutes(router *gin.Engine, enforcer *pep.Enforcer) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/v1/authorize", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		req, err := loader.DecodeRequest(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		decision, err := enforcer.Authorize(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, decision)
	})
}

func serveUntilSignal(server *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("pdpserver listening", "addr", server.Addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
