package handlers

import (
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/services"
	"clinic-crm-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BillingHandler exposes bills, payments and treatment packages.
type BillingHandler struct {
	DB      *gorm.DB
	Service services.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(db *gorm.DB, service services.BillingService) *BillingHandler {
	return &BillingHandler{DB: db, Service: service}
}

// CreateBill raises a bill for a visit.
func (h *BillingHandler) CreateBill(c *gin.Context) {
	var input services.CreateBillInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	bill, err := h.Service.CreateBill(c.Request.Context(), input)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Created(c, "Bill created successfully", bill)
}

// GetBillByID fetches a single bill with its payments.
func (h *BillingHandler) GetBillByID(c *gin.Context) {
	var bill models.Billing
	err := h.DB.Preload("Payments").Preload("Visit").
		First(&bill, "id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Bill not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Bill fetched successfully", bill)
}

// GetBills lists bills, optionally filtered by payment status.
func (h *BillingHandler) GetBills(c *gin.Context) {
	query := h.DB.Preload("Payments").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var bills []models.Billing
	if err := query.Limit(200).Find(&bills).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch bills: "+err.Error())
		return
	}
	utils.Success(c, "Bills fetched successfully", bills)
}

// ProcessPayment records a payment against a bill.
func (h *BillingHandler) ProcessPayment(c *gin.Context) {
	var input services.ProcessPaymentInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	bill, err := h.Service.ProcessPayment(c.Request.Context(), input)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Payment recorded successfully", bill)
}

// GetOutstandingBalance returns a patient's total unpaid amount.
func (h *BillingHandler) GetOutstandingBalance(c *gin.Context) {
	outstanding, bills, err := h.Service.OutstandingBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Outstanding balance fetched successfully", gin.H{
		"outstanding": outstanding,
		"bills":       bills,
	})
}

// GetRevenueStats returns billing totals over a date range.
func (h *BillingHandler) GetRevenueStats(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	stats, err := h.Service.RevenueStats(c.Request.Context(), from, to)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Revenue statistics fetched successfully", stats)
}

// CreatePackageRequest represents the request body for defining a
// treatment package.
type CreatePackageRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	TotalSessions   int     `json:"totalSessions" binding:"required,gt=0"`
	PricePerSession float64 `json:"pricePerSession" binding:"required,gt=0"`
	TotalPrice      float64 `json:"totalPrice" binding:"required,gt=0"`
	ValidityDays    int     `json:"validityDays"`
}

// CreatePackage defines a new treatment package.
func (h *BillingHandler) CreatePackage(c *gin.Context) {
	var req CreatePackageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	pkg := models.TreatmentPackage{
		Name:            req.Name,
		Description:     req.Description,
		TotalSessions:   req.TotalSessions,
		PricePerSession: req.PricePerSession,
		TotalPrice:      req.TotalPrice,
		ValidityDays:    req.ValidityDays,
		IsActive:        true,
	}
	if pkg.ValidityDays <= 0 {
		pkg.ValidityDays = 90
	}

	if err := h.DB.Create(&pkg).Error; err != nil {
		utils.InternalServerError(c, "Failed to create package: "+err.Error())
		return
	}
	utils.Created(c, "Package created successfully", pkg)
}

// GetPackages lists active treatment packages.
func (h *BillingHandler) GetPackages(c *gin.Context) {
	var packages []models.TreatmentPackage
	if err := h.DB.Where("is_active = ?", true).Order("name asc").Find(&packages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch packages: "+err.Error())
		return
	}
	utils.Success(c, "Packages fetched successfully", packages)
}

// AssignPackage subscribes a patient to a treatment package.
func (h *BillingHandler) AssignPackage(c *gin.Context) {
	var input services.CreatePatientPackageInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	assignment, err := h.Service.CreatePatientPackage(c.Request.Context(), input)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Created(c, "Package assigned successfully", assignment)
}

// SendPaymentReminders triggers the payment reminder sweep manually.
func (h *BillingHandler) SendPaymentReminders(c *gin.Context) {
	sent, err := h.Service.SendPaymentReminders(c.Request.Context(), 7)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Payment reminder sweep finished", gin.H{"sent": sent})
}
