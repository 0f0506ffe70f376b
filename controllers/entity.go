package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/models"
	"github.com/lablinkriparo/riparo-be/services"
)

// EntityController serves the credit dashboard of the authenticated centro
// or corner.
type EntityController struct {
	creditService *services.CreditService
}

func NewEntityController() *EntityController {
	return &EntityController{
		creditService: services.NewCreditService(config.DB),
	}
}

func (ec *EntityController) GetBalance(c *gin.Context) {
	entityType, entityID, ok := entityFromContext(c)
	if !ok {
		return
	}

	switch entityType {
	case models.EntityCentro:
		var centro models.Centro
		if err := config.DB.First(&centro, entityID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Centro not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"credit_balance":           centro.CreditBalance,
			"payment_status":           centro.PaymentStatus,
			"credit_warning_threshold": centro.CreditWarningThreshold,
			"last_credit_update":       centro.LastCreditUpdate,
		})
	default:
		var corner models.Corner
		if err := config.DB.First(&corner, entityID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Corner not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"credit_balance":           corner.CreditBalance,
			"payment_status":           corner.PaymentStatus,
			"credit_warning_threshold": corner.CreditWarningThreshold,
			"last_credit_update":       corner.LastCreditUpdate,
		})
	}
}

func (ec *EntityController) GetTransactions(c *gin.Context) {
	entityType, entityID, ok := entityFromContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	transactions, err := ec.creditService.GetTransactions(entityType, entityID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
