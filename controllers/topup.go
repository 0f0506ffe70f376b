package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/models"
	"github.com/lablinkriparo/riparo-be/services"
)

type TopupController struct {
	topupService *services.TopupService
}

func NewTopupController() *TopupController {
	credits := services.NewCreditService(config.DB)
	return &TopupController{
		topupService: services.NewTopupService(config.DB, services.NewStripeGateway(config.C.StripeSecretKey), credits),
	}
}

type CreateTopupCheckoutRequest struct {
	Amount    float64 `json:"amount" binding:"required,min=50"`
	UserEmail string  `json:"user_email"`
}

// CreateCheckout opens a Stripe checkout for the authenticated centro or
// corner topping up its own balance.
func (tc *TopupController) CreateCheckout(c *gin.Context) {
	var req CreateTopupCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entityType, entityID, ok := entityFromContext(c)
	if !ok {
		return
	}

	result, err := tc.topupService.CreateCheckout(entityType, entityID, decimal.NewFromFloat(req.Amount), req.UserEmail, originOf(c))
	if err != nil {
		status := http.StatusInternalServerError
		if isValidationMessage(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Confirm is the client-poll confirmation path used by the success page.
func (tc *TopupController) Confirm(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := tc.topupService.ConfirmPayment(req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type ManualTopupRequest struct {
	Amount float64 `json:"amount" binding:"required,min=50"`
	Notes  string  `json:"notes"`
}

// CreateManual records a bank-transfer topup awaiting admin approval.
func (tc *TopupController) CreateManual(c *gin.Context) {
	var req ManualTopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entityType, entityID, ok := entityFromContext(c)
	if !ok {
		return
	}

	request, err := tc.topupService.CreateManualRequest(entityType, entityID, decimal.NewFromFloat(req.Amount), req.Notes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"topup_request": request})
}

// entityFromContext resolves the tenant of the authenticated user.
func entityFromContext(c *gin.Context) (models.EntityType, uint, bool) {
	role, _ := c.Get("user_role")
	entityID, exists := c.Get("entity_id")
	if !exists {
		c.JSON(http.StatusForbidden, gin.H{"error": "No entity associated with this account"})
		return "", 0, false
	}

	switch role {
	case models.RoleCentro:
		return models.EntityCentro, entityID.(uint), true
	case models.RoleCorner:
		return models.EntityCorner, entityID.(uint), true
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return "", 0, false
	}
}

func originOf(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" {
		return origin
	}
	return config.C.AppBaseURL
}

// isValidationMessage distinguishes synchronous input rejections from
// upstream failures so providers errors surface as 5xx.
func isValidationMessage(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "required") ||
		strings.Contains(msg, "must be") ||
		strings.Contains(msg, "Minimum topup")
}
