package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	httpapi "github.com/i474232898/renewable-site-aggregation/internal/api/http"
	"github.com/i474232898/renewable-site-aggregation/internal/config"
	"github.com/i474232898/renewable-site-aggregation/internal/scheduler"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
	"github.com/i474232898/renewable-site-aggregation/internal/store"
	"github.com/i474232898/renewable-site-aggregation/internal/yield"
	"github.com/i474232898/renewable-site-aggregation/internal/yield/providers"
)

const appName = "renewable-site-aggregation"

func main() {
	var (
		once      = pflag.Bool("once", false, "compute a single run, print a per-site report and exit")
		sitesFile = pflag.String("sites", "", "site list CSV (overrides SITES_FILE)")
		gridFile  = pflag.String("grid", "", "resource grid CSV (overrides GRID_SOURCE and GRID_FILE)")
	)
	pflag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if *sitesFile != "" {
		cfg.SitesFile = *sitesFile
	}
	if *gridFile != "" {
		cfg.GridSource = config.GridSourceFile
		cfg.GridFile = *gridFile
	}

	log := newLogger(cfg)

	registry, err := loadRegistry(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to load sites")
	}
	log.WithFields(logrus.Fields{
		"sites": registry.Len(),
		"file":  cfg.SitesFile,
	}).Info("site list loaded")

	provider := newProvider(cfg, log)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	service := yield.NewService(memStore, provider, registry, cfg.AggregationWorkers, log)

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+time.Minute)
		defer cancel()

		run, err := service.Refresh(ctx)
		if err != nil {
			log.WithError(err).Fatal("aggregation failed")
		}
		if err := printReport(os.Stdout, run); err != nil {
			log.WithError(err).Fatal("failed to write report")
		}
		return
	}

	// Scheduler that periodically recomputes every site.
	sched := scheduler.New(service, cfg.RefreshInterval, cfg.HTTPTimeout+time.Minute, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
			"sites":   registry.Len(),
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Warn("fiber server stopped")
		}
	}()
	log.WithField("port", cfg.Port).Info("listening")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}

func newLogger(cfg *config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func loadRegistry(cfg *config.AppConfig) (*site.Registry, error) {
	var gc site.Geocoder
	if cfg.GeocoderAPIKey != "" {
		gc = site.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	defer cancel()

	sites, err := site.LoadFile(ctx, cfg.SitesFile, gc)
	if err != nil {
		return nil, err
	}

	registry := site.NewRegistry()
	for _, s := range sites {
		if err := registry.Add(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func newProvider(cfg *config.AppConfig, log *logrus.Logger) yield.ResourceProvider {
	if cfg.GridSource == config.GridSourceHTTP {
		// Shared HTTP client for grid downloads.
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		return providers.NewHTTPProvider(client, cfg.GridURL, log)
	}
	return providers.NewFileProvider(cfg.GridFile)
}

func printReport(w io.Writer, run yield.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "run %s\tprovider %s\t%s\t\n\n", run.ID, run.Provider, run.ComputedAt.Format(time.RFC3339))
	fmt.Fprintln(tw, "SITE\tTECH\tLON\tLAT\tCAPACITY MW\tMEAN MW\tMEAN CF\t")
	for _, s := range run.Summaries() {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.2f\t%.3f\t%.3f\t\n",
			s.Name, s.Technology, s.Lon, s.Lat, s.CapacityMW, s.MeanGenerationMW, s.MeanCapacityFactor)
	}
	fmt.Fprintf(tw, "\t\t\t\t%.2f\t\t\t\n", run.Layout.Total())
	return tw.Flush()
}
