package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auction-harvester/services"

	"github.com/gin-gonic/gin"
)

var (
	harvestCtx       = context.Background()
	harvestPipeline  *services.HarvestPipeline
	harvestScheduler *services.HarvestScheduler
)

// SetHarvestPipeline registers the pipeline behind the harvest endpoints.
// Runs started over the API use ctx, so cancelling it interrupts them.
// scheduler may be nil when scheduling is disabled.
func SetHarvestPipeline(ctx context.Context, p *services.HarvestPipeline, scheduler *services.HarvestScheduler) {
	if ctx == nil {
		ctx = context.Background()
	}
	harvestCtx = ctx
	harvestPipeline = p
	harvestScheduler = scheduler
}

// GET /api/v1/health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "ok",
		"message": "Auction harvester is running",
		"time":    time.Now().UTC(),
	})
}

// POST /api/v1/harvest/run
func TriggerHarvest(c *gin.Context) {
	if harvestPipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "harvest pipeline not configured"})
		return
	}

	// the run outlives this request
	if err := harvestPipeline.Start(harvestCtx, services.TriggerAPI); err != nil {
		if services.IsBusy(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "a harvest is already running"})
			return
		}
		slog.Error("failed to start harvest", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "harvest started",
	})
}

// GET /api/v1/harvest/status
func GetHarvestStatus(c *gin.Context) {
	if harvestPipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "harvest pipeline not configured"})
		return
	}

	job := harvestPipeline.Job()
	status := gin.H{
		"state":   job.State(),
		"running": false,
	}
	if trigger, startedAt, ok := job.Guard().Current(); ok {
		status["running"] = true
		status["trigger"] = trigger
		status["started_at"] = startedAt
	}
	if last := job.LastSummary(); last != nil {
		status["last_summary"] = gin.H{
			"success": last.Success,
			"error":   last.Error,
			"stats":   last.Stats,
		}
	}
	if harvestScheduler != nil {
		status["schedule"] = harvestScheduler.Spec()
		status["next_run"] = harvestScheduler.Next()
	}

	latest, err := services.NewHarvestRunService(nil).Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	status["last_run"] = latest

	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

// GET /api/v1/runs?limit=10
func GetHarvestRuns(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := services.NewHarvestRunService(nil).Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    runs,
		"count":   len(runs),
	})
}

// GET /api/v1/runs/:uuid
func GetHarvestRun(c *gin.Context) {
	run, err := services.NewHarvestRunService(nil).GetByUUID(c.Request.Context(), strings.TrimSpace(c.Param("uuid")))
	if err != nil {
		if errors.Is(err, services.ErrHarvestRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": run})
}
