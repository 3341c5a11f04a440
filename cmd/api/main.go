package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-harvester/config"
	"auction-harvester/controllers"
	"auction-harvester/middleware"
	"auction-harvester/routes"
	"auction-harvester/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 2 * time.Minute

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()

	settings := config.LoadHarvestSettings()
	pipeline := services.NewHarvestPipelineFromSettings(config.DB, settings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduler *services.HarvestScheduler
	if settings.Schedule != "" {
		var err error
		scheduler, err = services.NewHarvestScheduler(pipeline, settings.Schedule, settings.Timezone)
		if err != nil {
			slog.Error("invalid harvest schedule", "err", err)
			os.Exit(1)
		}
		scheduler.Start(ctx)
	} else {
		slog.Info("harvest scheduler disabled")
	}
	controllers.SetHarvestPipeline(ctx, pipeline, scheduler)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	routes.SetupRoutes(router)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port, "locality", settings.Locality)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown", "err", err)
	}
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}
	// a run in progress sees the cancelled ctx and stops after its current record
	if err := pipeline.Job().Wait(shutdownCtx); err != nil {
		slog.Warn("harvest still running at shutdown", "err", err)
	}
	slog.Info("stopped")
}
