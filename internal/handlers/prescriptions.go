package handlers

import (
	"time"

	"clinic-crm-server/internal/middleware"
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"
	"clinic-crm-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PrescriptionHandler handles doctor-authored prescriptions.
type PrescriptionHandler struct {
	DB *gorm.DB
}

// NewPrescriptionHandler creates a new PrescriptionHandler.
func NewPrescriptionHandler(db *gorm.DB) *PrescriptionHandler {
	return &PrescriptionHandler{DB: db}
}

// MedicationRequest is one medication line on a prescription request.
type MedicationRequest struct {
	MedicationName string `json:"medicationName" binding:"required"`
	Dosage         string `json:"dosage" binding:"required"`
	Frequency      string `json:"frequency" binding:"required"`
	Duration       string `json:"duration" binding:"required"`
	Instructions   string `json:"instructions"`
}

// CreatePrescriptionRequest represents the request body for writing a
// prescription.
type CreatePrescriptionRequest struct {
	PatientID    string              `json:"patientId" binding:"required"`
	VisitID      string              `json:"visitId"`
	Diagnosis    string              `json:"diagnosis"`
	Instructions string              `json:"instructions"`
	FollowUpDate string              `json:"followUpDate"`
	Medications  []MedicationRequest `json:"medications" binding:"required,min=1,dive"`
}

// CreatePrescription writes a prescription. The authoring doctor is the
// authenticated user.
func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	doctorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreatePrescriptionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		utils.NotFound(c, "Patient not found")
		return
	}

	prescription := models.Prescription{
		PatientID:        req.PatientID,
		DoctorID:         doctorID,
		VisitID:          req.VisitID,
		PrescriptionDate: repositories.DateOnly(time.Now().UTC()),
		Diagnosis:        req.Diagnosis,
		Instructions:     req.Instructions,
		IsActive:         true,
	}
	if req.FollowUpDate != "" {
		followUp, err := time.Parse("2006-01-02", req.FollowUpDate)
		if err != nil {
			utils.BadRequest(c, "Invalid followUpDate, expected YYYY-MM-DD")
			return
		}
		prescription.FollowUpDate = &followUp
	}
	for _, m := range req.Medications {
		prescription.Medications = append(prescription.Medications, models.PrescriptionMedication{
			MedicationName: m.MedicationName,
			Dosage:         m.Dosage,
			Frequency:      m.Frequency,
			Duration:       m.Duration,
			Instructions:   m.Instructions,
		})
	}

	if err := h.DB.Create(&prescription).Error; err != nil {
		utils.InternalServerError(c, "Failed to create prescription: "+err.Error())
		return
	}
	utils.Created(c, "Prescription created successfully", prescription)
}

// GetPrescriptions lists prescriptions, optionally filtered by patient or
// doctor. Patients only ever see their own through the route guard.
func (h *PrescriptionHandler) GetPrescriptions(c *gin.Context) {
	query := h.DB.Preload("Medications").Order("prescription_date desc")
	if patientID := c.Query("patientId"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if doctorID := c.Query("doctorId"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}

	var prescriptions []models.Prescription
	if err := query.Limit(200).Find(&prescriptions).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch prescriptions: "+err.Error())
		return
	}
	utils.Success(c, "Prescriptions fetched successfully", prescriptions)
}

// GetPrescriptionByID fetches a single prescription with medications.
func (h *PrescriptionHandler) GetPrescriptionByID(c *gin.Context) {
	var prescription models.Prescription
	err := h.DB.Preload("Medications").
		First(&prescription, "id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Prescription not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Prescription fetched successfully", prescription)
}

// DeactivatePrescription retires a prescription without deleting it.
func (h *PrescriptionHandler) DeactivatePrescription(c *gin.Context) {
	var prescription models.Prescription
	if err := h.DB.First(&prescription, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Prescription not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	prescription.IsActive = false
	if err := h.DB.Save(&prescription).Error; err != nil {
		utils.InternalServerError(c, "Failed to update prescription: "+err.Error())
		return
	}
	utils.Success(c, "Prescription deactivated successfully", nil)
}
