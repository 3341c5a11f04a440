package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"auction-harvester/config"
	"auction-harvester/controllers"
	"auction-harvester/models"
	"auction-harvester/routes"
	"auction-harvester/services"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(config.SQLiteDSN(filepath.Join(t.TempDir(), "api.db"))), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	previous := config.DB
	config.DB = db
	t.Cleanup(func() {
		config.DB = previous
		controllers.SetHarvestPipeline(context.Background(), nil, nil)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	router := gin.New()
	routes.SetupRoutes(router)
	return router, db
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
	Total   int64           `json:"total"`
}

func do(t *testing.T, router *gin.Engine, method, path string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec.Code, body
}

func seedAuctions(t *testing.T, db *gorm.DB) {
	t.Helper()
	repo := services.NewAuctionRepository(db)
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveHarvested(context.Background(), &models.Auction{
		Identity:    "SUB-JA-2024-000001",
		Category:    "Judicial",
		EndDate:     &end,
		ExtractedAt: end,
		Asset:       &models.Asset{Locality: "RIVAS-VACIAMADRID"},
	}))
	require.NoError(t, repo.UpsertAuction(context.Background(), &models.Auction{
		Identity:    "SUB-NE-2024-000002",
		Category:    "Notarial-Electronic",
		ExtractedAt: end,
	}))
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)
	code, body := do(t, router, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, code)
	require.True(t, body.Success)
}

func TestGetAuctions(t *testing.T) {
	router, db := setupRouter(t)
	seedAuctions(t, db)

	code, body := do(t, router, http.MethodGet, "/api/v1/auctions")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, body.Count)
	require.EqualValues(t, 2, body.Total)

	var auctions []models.Auction
	require.NoError(t, json.Unmarshal(body.Data, &auctions))
	require.Equal(t, "SUB-JA-2024-000001", auctions[0].Identity)
	require.NotNil(t, auctions[0].Asset)

	code, body = do(t, router, http.MethodGet, "/api/v1/auctions?limit=1&offset=1")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, body.Count)
	require.EqualValues(t, 2, body.Total)

	code, body = do(t, router, http.MethodGet, "/api/v1/auctions?limit=abc")
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, body.Success)
}

func TestGetAuction(t *testing.T) {
	router, db := setupRouter(t)
	seedAuctions(t, db)

	code, body := do(t, router, http.MethodGet, "/api/v1/auctions/sub-ja-2024-000001")
	require.Equal(t, http.StatusOK, code)
	var auction models.Auction
	require.NoError(t, json.Unmarshal(body.Data, &auction))
	require.Equal(t, "RIVAS-VACIAMADRID", auction.Asset.Locality)

	code, _ = do(t, router, http.MethodGet, "/api/v1/auctions/SUB-JA-2024-999999")
	require.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, router, http.MethodGet, "/api/v1/auctions/nope")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestTriggerHarvest(t *testing.T) {
	router, db := setupRouter(t)

	code, _ := do(t, router, http.MethodPost, "/api/v1/harvest/run")
	require.Equal(t, http.StatusServiceUnavailable, code)

	// without a session driver every run fails fast but is still recorded
	job := services.NewHarvestJobService(db, nil, services.HarvestOptions{})
	controllers.SetHarvestPipeline(context.Background(), services.NewHarvestPipeline(job, nil, nil), nil)

	release, err := job.Guard().Acquire(services.TriggerScheduler)
	require.NoError(t, err)
	code, body := do(t, router, http.MethodPost, "/api/v1/harvest/run")
	require.Equal(t, http.StatusConflict, code)
	require.False(t, body.Success)

	code, body = do(t, router, http.MethodGet, "/api/v1/harvest/status")
	require.Equal(t, http.StatusOK, code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &status))
	require.Equal(t, true, status["running"])
	require.Equal(t, services.TriggerScheduler, status["trigger"])
	release()

	code, body = do(t, router, http.MethodPost, "/api/v1/harvest/run")
	require.Equal(t, http.StatusAccepted, code)
	require.True(t, body.Success)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))

	code, body = do(t, router, http.MethodGet, "/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, body.Count)
	var runs []models.HarvestRun
	require.NoError(t, json.Unmarshal(body.Data, &runs))
	require.Equal(t, services.TriggerAPI, runs[0].TriggerSource)
	require.Equal(t, models.HarvestRunStatusError, runs[0].Status)

	code, _ = do(t, router, http.MethodGet, "/api/v1/runs/"+runs[0].RunUUID)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, router, http.MethodGet, "/api/v1/runs/missing")
	require.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, router, http.MethodGet, "/api/v1/runs?limit=0")
	require.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, router, http.MethodGet, "/api/v1/harvest/status")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body.Data, &status))
	require.Equal(t, false, status["running"])
	require.Equal(t, "failed", status["state"])
	require.NotNil(t, status["last_run"])
}

func TestLogsRouteDisabledWithoutToken(t *testing.T) {
	router, _ := setupRouter(t)
	t.Setenv("MONITOR_TOKEN", "")

	code, _ := do(t, router, http.MethodGet, "/logs?token=x")
	require.Equal(t, http.StatusNotFound, code)

	t.Setenv("MONITOR_TOKEN", "s3cret")
	code, _ = do(t, router, http.MethodGet, "/logs?token=wrong")
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestDashboard(t *testing.T) {
	router, _ := setupRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/api/v1/harvest/status")
}
