package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzzdr/portfolio-pilot/config"
	"github.com/rzzdr/portfolio-pilot/internal/app"
	"github.com/rzzdr/portfolio-pilot/pkg/api"
	"github.com/rzzdr/portfolio-pilot/pkg/metrics"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

var (
	configFile = flag.String("config", config.GetConfigPath(), "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.GetLogger("api.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("api.main")
	defer log.Sync()
	log.Infow("Starting Portfolio Pilot API service", "environment", cfg.App.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	components := app.Build(cfg, recorder)

	mode := gin.DebugMode
	if cfg.App.Environment == "production" {
		mode = gin.ReleaseMode
	}

	apiServer := api.NewServer(
		api.Config{
			Host:           cfg.API.Host,
			Port:           cfg.API.Port,
			ReadTimeout:    cfg.API.ReadTimeout,
			WriteTimeout:   cfg.API.WriteTimeout,
			RequestTimeout: cfg.API.RequestTimeout,
			AllowedOrigins: cfg.API.CORS.AllowedOrigins,
			RateLimit:      cfg.API.RateLimit,
			RateBurst:      cfg.API.RateBurst,
			Mode:           mode,
		},
		components.Calculator,
		components.Results,
		recorder,
		prometheus.DefaultGatherer,
	)

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Errorf("API server error: %v", err)
			cancel()
		}
	}()

	var metricsServer *metrics.PrometheusServer
	if cfg.Metrics.Prometheus.Enabled && cfg.Metrics.Prometheus.Port != cfg.API.Port {
		metricsServer = metrics.NewPrometheusServer(cfg.Metrics.Prometheus.Port, prometheus.DefaultGatherer)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Errorf("Metrics server error: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infof("Received signal %v, initiating shutdown", sig)
	case <-ctx.Done():
		log.Info("API server stopped, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Errorf("API server shutdown error: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Errorf("Metrics server shutdown error: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
