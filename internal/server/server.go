// Package server wires the domain services behind one HTTP surface.
package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/lumenshell/platform/internal/api/http"
	"github.com/lumenshell/platform/internal/api/middleware"
	"github.com/lumenshell/platform/internal/domain/capability"
	"github.com/lumenshell/platform/internal/domain/lifecycle"
	"github.com/lumenshell/platform/internal/domain/quickapp"
	"github.com/lumenshell/platform/internal/domain/remote"
	"github.com/lumenshell/platform/internal/domain/resolver"
	"github.com/lumenshell/platform/internal/infrastructure/config"
	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/infrastructure/monitoring"
	"github.com/lumenshell/platform/internal/infrastructure/persist"
)

// Server owns the router and every domain service behind it.
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	lifecycle *lifecycle.Manager
	quick     *quickapp.Registry
	bridge    *quickapp.DevBridge
	bridgeCtx context.CancelFunc
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing platform",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Path),
	)

	metrics := monitoring.NewMetrics()

	store, err := persist.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	lc := lifecycle.NewManager(store, logger).WithMetrics(metrics)
	ledger := capability.NewLedger(store, logger)
	loader := remote.NewLoader(lc, ledger, logger).WithMetrics(metrics)

	compiler := quickapp.NewCompiler(quickapp.CompilerOptions{
		SourceURL: cfg.Compiler.SourceURL,
		Version:   cfg.Compiler.Version,
	}, logger).WithMetrics(metrics)
	runtime := quickapp.NewRuntime(quickapp.NewHost(logger), logger)
	quick := quickapp.NewRegistry(lc, compiler, runtime, store, logger).WithMetrics(metrics)
	quick.ReloadAll()

	var catalog *remote.Client
	if cfg.Registry.URL != "" {
		catalog = remote.NewClient(cfg.Registry.URL)
		logger.Info("remote registry configured", zap.String("url", cfg.Registry.URL))
	}

	res := resolver.New(logger, resolver.NewLocalTable(), loader, quick)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(nil))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	handlers := apihttp.NewHandlers(lc, ledger, quick, loader, catalog, res, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", metrics.Handler())

	router.GET("/apps", handlers.ListApps)
	router.GET("/apps/stats", handlers.AppStats)
	router.GET("/apps/:id", handlers.GetApp)
	router.POST("/apps/:id/open", handlers.OpenApp)
	router.POST("/apps/close", handlers.CloseApp)
	router.PUT("/apps/:id/status", handlers.SetAppStatus)
	router.DELETE("/apps/:id", handlers.UninstallApp)

	router.GET("/dock", handlers.GetDock)
	router.PUT("/dock", handlers.ReorderDock)
	router.POST("/dock/:id", handlers.AddToDock)
	router.DELETE("/dock/:id", handlers.RemoveFromDock)

	router.GET("/capabilities", handlers.ListCapabilities)
	router.GET("/apps/:id/permissions", handlers.AppPermissions)
	router.POST("/apps/:id/permissions/grant", handlers.GrantPermission)
	router.POST("/apps/:id/permissions/revoke", handlers.RevokePermission)
	router.POST("/apps/:id/permissions/check", handlers.CheckPermissions)

	router.POST("/quickapps", handlers.InstallQuickApp)
	router.POST("/quickapps/url", handlers.InstallQuickAppFromURL)
	router.GET("/quickapps", handlers.ListQuickApps)
	router.GET("/quickapps/:id", handlers.GetQuickApp)

	router.POST("/remote/install", handlers.InstallRemoteApp)
	router.GET("/remote/updates", handlers.CheckRemoteUpdates)
	router.GET("/catalog", handlers.Catalog)
	router.GET("/catalog/:id", handlers.CatalogManifest)

	router.GET("/components/:id", handlers.ResolveComponent)

	s := &Server{
		router:    router,
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		lifecycle: lc,
		quick:     quick,
	}

	if cfg.DevBridge.Enabled {
		s.bridge = quickapp.NewDevBridge(quick, cfg.DevBridge.URL, cfg.DevBridge.Backoff, logger)
		ctx, cancel := context.WithCancel(context.Background())
		s.bridgeCtx = cancel
		s.bridge.Start(ctx)
		logger.Info("dev bridge watching", zap.String("url", cfg.DevBridge.URL))
	}

	logger.Info("platform initialized", zap.Int("apps", lc.Stats().TotalApps))
	return s, nil
}

// Run starts serving and blocks.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close stops background work and flushes the log.
func (s *Server) Close() error {
	s.logger.Info("shutting down")
	if s.bridge != nil {
		s.bridge.Stop()
		s.bridgeCtx()
	}
	return s.logger.Sync()
}
