package routes

import (
	"auction-harvester/controllers"
	"auction-harvester/monitor"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// Dashboard
	monitor.RegisterDashboard(router)
	monitor.RegisterLogsRoute(router)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)

		// Auctions (read-only)
		auctions := v1.Group("/auctions")
		{
			auctions.GET("", controllers.GetAuctions)
			auctions.GET("/:identity", controllers.GetAuction)
		}

		// Run ledger
		runs := v1.Group("/runs")
		{
			runs.GET("", controllers.GetHarvestRuns)
			runs.GET("/:uuid", controllers.GetHarvestRun)
		}

		// Harvest control
		harvest := v1.Group("/harvest")
		{
			harvest.GET("/status", controllers.GetHarvestStatus)
			harvest.POST("/run", controllers.TriggerHarvest)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"success": false, "error": "not found"})
	})
}
