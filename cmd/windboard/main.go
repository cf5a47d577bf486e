package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/windboard/internal/api/http"
	"github.com/i474232898/windboard/internal/config"
	"github.com/i474232898/windboard/internal/history"
	"github.com/i474232898/windboard/internal/log"
	"github.com/i474232898/windboard/internal/scheduler"
	"github.com/i474232898/windboard/internal/store"
	"github.com/i474232898/windboard/internal/weather"
	"github.com/i474232898/windboard/internal/weather/providers"
)

func main() {
	envErr := godotenv.Load()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := log.Init(cfg.Debug, cfg.LogFile); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer log.Sync()
	if envErr != nil {
		log.Infof("no .env file found or error loading it: %v", envErr)
	}

	if cfg.GeocodeSpot() {
		lat, lon, err := providers.ResolveSpot(cfg.GeocoderAPIKey, providers.SpotAddress{
			Street:  cfg.SpotStreet,
			City:    cfg.SpotCity,
			Country: cfg.SpotCountry,
		})
		if err != nil {
			log.Warnf("geocoding spot failed, using SPOT_LAT/SPOT_LON: %v", err)
		} else {
			cfg.Lat, cfg.Lon = lat, lon
		}
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provs, err := providers.Build(httpClient, cfg.Providers, providers.Options{
		Location:            cfg.Timezone,
		WindySpotID:         cfg.WindySpotID,
		WindfinderSpot:      cfg.WindfinderSpot,
		PirateWeatherAPIKey: cfg.PirateWeatherAPIKey,
		Lat:                 cfg.Lat,
		Lon:                 cfg.Lon,
	})
	if err != nil {
		log.Fatalf("failed to build providers: %v", err)
	}

	aligner := weather.NewAligner(cfg.Timezone, cfg.HorizonDays)
	aligner.Tolerance = cfg.MatchTolerance
	aligner.StartHour, aligner.EndHour = cfg.DayStartHour, cfg.DayEndHour

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	service := weather.NewService(memStore, provs, aligner)
	if cfg.SnapshotDir != "" {
		service.WithArchive(store.NewFileArchive(cfg.SnapshotDir, cfg.Timezone))
	}

	ingestor := history.NewIngestor(cfg.HistoryFile, cfg.Timezone)
	feed := providers.NewObservationFeed(httpClient, cfg.HistoryURL)

	sched := scheduler.New(service, ingestor, feed, cfg.FetchInterval, cfg.Timezone)
	// Fill the store before the first scheduled run.
	go sched.Run()
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "windboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "windboard",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, service, ingestor)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()
	log.Infof("windboard listening on :%s with %d providers", cfg.Port, len(provs))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}
