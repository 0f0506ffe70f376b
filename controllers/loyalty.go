package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/models"
	"github.com/lablinkriparo/riparo-be/services"
)

type LoyaltyController struct {
	loyaltyService *services.LoyaltyService
}

func NewLoyaltyController() *LoyaltyController {
	credits := services.NewCreditService(config.DB)
	gateway := services.NewStripeGateway(config.C.StripeSecretKey)
	return &LoyaltyController{
		loyaltyService: services.NewLoyaltyService(config.DB, gateway, credits, services.NewLogNotifier()),
	}
}

type CreateLoyaltyCheckoutRequest struct {
	CustomerID    uint   `json:"customer_id" binding:"required"`
	CentroID      uint   `json:"centro_id" binding:"required"`
	CustomerEmail string `json:"customer_email"`
}

func (lc *LoyaltyController) CreateCheckout(c *gin.Context) {
	var req CreateLoyaltyCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := lc.loyaltyService.CreateCheckout(req.CustomerID, req.CentroID, req.CustomerEmail, originOf(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type CornerCheckoutRequest struct {
	InvitationToken string `json:"invitation_token" binding:"required"`
	CentroID        uint   `json:"centro_id" binding:"required"`
}

func (lc *LoyaltyController) CreateCornerCheckout(c *gin.Context) {
	var req CornerCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := lc.loyaltyService.CreateCornerCheckout(req.InvitationToken, req.CentroID, originOf(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (lc *LoyaltyController) Confirm(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := lc.loyaltyService.ConfirmPayment(req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCards lists the loyalty cards of the authenticated centro.
func (lc *LoyaltyController) GetCards(c *gin.Context) {
	entityType, entityID, ok := entityFromContext(c)
	if !ok {
		return
	}
	if entityType != models.EntityCentro {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	cards, err := lc.loyaltyService.ListCards(entityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list loyalty cards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loyalty_cards": cards})
}

type CreateInvitationRequest struct {
	CentroID      uint   `json:"centro_id" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	CustomerPhone string `json:"customer_phone"`
}

// CreateInvitation lets a corner refer a walk-in customer to a centro's
// loyalty program through a tokenized link.
func (lc *LoyaltyController) CreateInvitation(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entityType, cornerID, ok := entityFromContext(c)
	if !ok {
		return
	}
	if entityType != models.EntityCorner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	invitation := models.CornerLoyaltyInvitation{
		CornerID:        cornerID,
		CentroID:        req.CentroID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		InvitationToken: uuid.NewString(),
		Status:          models.InvitationPending,
		ExpiresAt:       time.Now().AddDate(0, 0, 7),
	}
	if err := config.DB.Create(&invitation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invitation": invitation})
}
