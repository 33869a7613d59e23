package handlers

import (
	"errors"
	"net/http"

	"github.com/KatlegoSeiphemo/careernest/internal/middleware"
	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/internal/services"
	"github.com/KatlegoSeiphemo/careernest/pkg/momo"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentHandler handles mentor payment HTTP requests
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func mentorID(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := c.Get(middleware.ContextUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return primitive.NilObjectID, false
	}
	return id.(primitive.ObjectID), true
}

// GetSessions handles GET /mentor/sessions
func (h *PaymentHandler) GetSessions(c *gin.Context) {
	id, ok := mentorID(c)
	if !ok {
		return
	}

	sessions, err := h.paymentService.GetMentorSessions(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetPaymentRequests handles GET /mentor/payment-requests
func (h *PaymentHandler) GetPaymentRequests(c *gin.Context) {
	id, ok := mentorID(c)
	if !ok {
		return
	}

	requests, err := h.paymentService.GetPaymentRequests(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetEarnings handles GET /mentor/earnings
func (h *PaymentHandler) GetEarnings(c *gin.Context) {
	id, ok := mentorID(c)
	if !ok {
		return
	}

	stats, err := h.paymentService.GetEarningsStats(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch earnings stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CreatePaymentRequest handles POST /mentor/create-payment-request
func (h *PaymentHandler) CreatePaymentRequest(c *gin.Context) {
	id, ok := mentorID(c)
	if !ok {
		return
	}

	var req struct {
		ClientPhone string  `json:"clientPhone" binding:"required"`
		Amount      float64 `json:"amount" binding:"required,gt=0"`
		Description string  `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.paymentService.CreatePaymentRequest(c.Request.Context(), id, req.ClientPhone, req.Amount, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment request"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RequestSessionPayment handles POST /mentor/request-session-payment/:sessionId
func (h *PaymentHandler) RequestSessionPayment(c *gin.Context) {
	id, ok := mentorID(c)
	if !ok {
		return
	}

	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID format"})
		return
	}

	result, err := h.paymentService.RequestSessionPayment(c.Request.Context(), id, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request session payment"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckPaymentStatus handles GET /payments/status/:transactionId
func (h *PaymentHandler) CheckPaymentStatus(c *gin.Context) {
	result, err := h.paymentService.CheckPaymentStatus(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check payment status"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Webhook handles the gateway's asynchronous payment notification. The
// provider may redeliver the same notification; reconciliation is
// idempotent so that is safe.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var payload struct {
		ReferenceID string `json:"referenceId" binding:"required"`
		Status      string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var status string
	switch payload.Status {
	case momo.StatusSuccessful, models.PaymentStatusPaid:
		status = models.PaymentStatusPaid
	case momo.StatusFailed, models.PaymentStatusFailed:
		status = models.PaymentStatusFailed
	default:
		// Non-terminal notification, nothing to reconcile yet.
		c.JSON(http.StatusOK, gin.H{"message": "Notification acknowledged"})
		return
	}

	if err := h.paymentService.UpdatePaymentStatus(c.Request.Context(), payload.ReferenceID, status); err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated"})
}
