package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/models"
	"github.com/lablinkriparo/riparo-be/services"
)

type AdminController struct {
	authService   *services.AuthService
	creditService *services.CreditService
	topupService  *services.TopupService
}

func NewAdminController() *AdminController {
	credits := services.NewCreditService(config.DB)
	return &AdminController{
		authService:   services.NewAuthService(config.DB),
		creditService: credits,
		topupService:  services.NewTopupService(config.DB, services.NewStripeGateway(config.C.StripeSecretKey), credits),
	}
}

type CreateUserRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Name     string          `json:"name" binding:"required"`
	Role     models.UserRole `json:"role" binding:"required,oneof=admin centro corner"`
	EntityID *uint           `json:"entity_id"`
}

func (ac *AdminController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.authService.CreateUser(req.Email, req.Password, req.Name, req.Role, req.EntityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type CreateCentroRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

func (ac *AdminController) CreateCentro(c *gin.Context) {
	var req CreateCentroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	centro := models.Centro{
		BusinessName:           req.BusinessName,
		Email:                  req.Email,
		Phone:                  req.Phone,
		CreditWarningThreshold: decimal.NewFromInt(50),
		PaymentStatus:          models.PaymentStatusGoodStanding,
	}
	if err := config.DB.Create(&centro).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create centro"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"centro": centro})
}

func (ac *AdminController) GetCentri(c *gin.Context) {
	var centri []models.Centro
	if err := config.DB.Order("business_name").Find(&centri).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list centri"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"centri": centri})
}

type CreateCornerRequest struct {
	CentroID     uint   `json:"centro_id" binding:"required"`
	BusinessName string `json:"business_name" binding:"required"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

func (ac *AdminController) CreateCorner(c *gin.Context) {
	var req CreateCornerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	corner := models.Corner{
		CentroID:               req.CentroID,
		BusinessName:           req.BusinessName,
		Email:                  req.Email,
		Phone:                  req.Phone,
		CreditWarningThreshold: decimal.NewFromInt(50),
		PaymentStatus:          models.PaymentStatusGoodStanding,
	}
	if err := config.DB.Create(&corner).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create corner"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"corner": corner})
}

func (ac *AdminController) GetCorners(c *gin.Context) {
	var corners []models.Corner
	if err := config.DB.Order("business_name").Find(&corners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list corners"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"corners": corners})
}

func (ac *AdminController) GetTopupRequests(c *gin.Context) {
	status := models.TopupStatus(c.Query("status"))
	requests, err := ac.topupService.ListRequests(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list topup requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"topup_requests": requests})
}

func (ac *AdminController) ApproveTopupRequest(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid topup request id"})
		return
	}

	result, err := ac.topupService.ApproveRequest(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (ac *AdminController) GetCreditTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	transactions, err := ac.creditService.GetAllTransactions(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list credit transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

type AdjustCreditRequest struct {
	EntityType  string  `json:"entity_type" binding:"required,entitytype"`
	EntityID    uint    `json:"entity_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description" binding:"required"`
}

func (ac *AdminController) AdjustCredit(c *gin.Context) {
	var req AdjustCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update, err := ac.creditService.Adjust(
		models.EntityType(req.EntityType),
		req.EntityID,
		decimal.NewFromFloat(req.Amount),
		req.Description,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"new_balance": update.NewBalance,
		"status":      update.Status,
	})
}
