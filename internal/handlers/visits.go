package handlers

import (
	"time"

	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"
	"clinic-crm-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VisitHandler records realized patient encounters.
type VisitHandler struct {
	DB *gorm.DB
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(db *gorm.DB) *VisitHandler {
	return &VisitHandler{DB: db}
}

// CreateVisitRequest represents the request body for recording a visit.
type CreateVisitRequest struct {
	PatientID       string `json:"patientId" binding:"required"`
	DoctorID        string `json:"doctorId"`
	VisitType       string `json:"visitType" binding:"required,oneof=clinic home online emergency"`
	DateOfVisit     string `json:"dateOfVisit" binding:"required"` // "2006-01-02"
	TimeOfVisit     string `json:"timeOfVisit"`                    // "HH:MM"
	DurationMinutes int    `json:"durationMinutes"`
	ChiefComplaint  string `json:"chiefComplaint"`
	Diagnosis       string `json:"diagnosis"`
	TreatmentPlan   string `json:"treatmentPlan"`
	Remarks         string `json:"remarks"`
	FollowUpDate    string `json:"followUpDate"`
	IsFollowUp      bool   `json:"isFollowUp"`
}

// CreateVisit records a visit for a patient.
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var req CreateVisitRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.DateOfVisit)
	if err != nil {
		utils.BadRequest(c, "Invalid dateOfVisit, expected YYYY-MM-DD")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		utils.NotFound(c, "Patient not found")
		return
	}

	visit := models.Visit{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		VisitType:       models.VisitType(req.VisitType),
		DateOfVisit:     repositories.DateOnly(date),
		TimeOfVisit:     req.TimeOfVisit,
		DurationMinutes: req.DurationMinutes,
		ChiefComplaint:  req.ChiefComplaint,
		Diagnosis:       req.Diagnosis,
		TreatmentPlan:   req.TreatmentPlan,
		Remarks:         req.Remarks,
		IsFollowUp:      req.IsFollowUp,
	}
	if req.FollowUpDate != "" {
		followUp, err := time.Parse("2006-01-02", req.FollowUpDate)
		if err != nil {
			utils.BadRequest(c, "Invalid followUpDate, expected YYYY-MM-DD")
			return
		}
		visit.FollowUpDate = &followUp
	}

	if err := h.DB.Create(&visit).Error; err != nil {
		utils.InternalServerError(c, "Failed to create visit: "+err.Error())
		return
	}
	utils.Created(c, "Visit recorded successfully", visit)
}

// GetVisits lists visits, optionally filtered by patient or doctor.
func (h *VisitHandler) GetVisits(c *gin.Context) {
	query := h.DB.Preload("Billing").Order("date_of_visit desc")
	if patientID := c.Query("patientId"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if doctorID := c.Query("doctorId"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}

	var visits []models.Visit
	if err := query.Limit(200).Find(&visits).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch visits: "+err.Error())
		return
	}
	utils.Success(c, "Visits fetched successfully", visits)
}

// GetVisitByID fetches a single visit with its bill.
func (h *VisitHandler) GetVisitByID(c *gin.Context) {
	var visit models.Visit
	err := h.DB.Preload("Billing").Preload("Billing.Payments").
		First(&visit, "id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Visit not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Visit fetched successfully", visit)
}
