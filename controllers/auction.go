package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"auction-harvester/extraction"
	"auction-harvester/services"

	"github.com/gin-gonic/gin"
)

const maxAuctionPageSize = 500

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// GET /api/v1/auctions?limit=50&offset=0
func GetAuctions(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid limit"})
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid offset"})
		return
	}
	if limit > maxAuctionPageSize {
		limit = maxAuctionPageSize
	}

	auctions, total, err := services.NewAuctionRepository(nil).ListAuctions(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    auctions,
		"count":   len(auctions),
		"total":   total,
	})
}

// GET /api/v1/auctions/:identity
func GetAuction(c *gin.Context) {
	identity := strings.ToUpper(strings.TrimSpace(c.Param("identity")))
	if !extraction.IdentityPattern.MatchString(identity) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid auction identity"})
		return
	}

	auction, err := services.NewAuctionRepository(nil).GetAuctionWithAsset(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if auction == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "auction not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": auction})
}
