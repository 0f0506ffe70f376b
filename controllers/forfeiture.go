package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/services"
	"github.com/lablinkriparo/riparo-be/websocket"
)

type ForfeitureController struct {
	forfeitureService *services.ForfeitureService
}

func NewForfeitureController() *ForfeitureController {
	return &ForfeitureController{
		forfeitureService: services.NewForfeitureService(config.DB, services.NewLogNotifier()),
	}
}

// RunCheck triggers one forfeiture sweep. An external scheduler (or the
// built-in cron) calls this; the response carries the batch summary.
func (fc *ForfeitureController) RunCheck(c *gin.Context) {
	result, err := fc.forfeitureService.Sweep()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if config.WSHub != nil {
		config.WSHub.BroadcastEvent(websocket.EventForfeitureCompleted, websocket.ForfeitureEvent{
			WarningsSent: result.WarningsSent,
			Forfeited:    result.Forfeited,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Forfeiture check completed",
		"results": result,
	})
}
