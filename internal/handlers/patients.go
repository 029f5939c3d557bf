package handlers

import (
	"fmt"
	"time"

	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"
	"clinic-crm-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PatientHandler handles patient record management.
type PatientHandler struct {
	DB       *gorm.DB
	Patients repositories.PatientRepository
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB, patients repositories.PatientRepository) *PatientHandler {
	return &PatientHandler{DB: db, Patients: patients}
}

// CreatePatientRequest represents the request body for registering a patient.
type CreatePatientRequest struct {
	FirstName             string `json:"firstName" binding:"required"`
	LastName              string `json:"lastName" binding:"required"`
	Email                 string `json:"email" binding:"omitempty,email"`
	Phone                 string `json:"phone" binding:"required"`
	WhatsAppNumber        string `json:"whatsappNumber"`
	DateOfBirth           string `json:"dateOfBirth"` // "2006-01-02"
	Gender                string `json:"gender"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	EmergencyContactName  string `json:"emergencyContactName"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
	MedicalHistory        string `json:"medicalHistory"`
	Allergies             string `json:"allergies"`
	CurrentMedications    string `json:"currentMedications"`
}

// CreatePatient registers a new patient and assigns a patient number.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existing models.Patient
	if err := h.DB.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
		utils.BadRequest(c, "A patient with this phone number already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	patient := models.Patient{
		PatientNumber:         h.nextPatientNumber(),
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		WhatsAppNumber:        req.WhatsAppNumber,
		Gender:                req.Gender,
		Address:               req.Address,
		City:                  req.City,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		MedicalHistory:        req.MedicalHistory,
		Allergies:             req.Allergies,
		CurrentMedications:    req.CurrentMedications,
		IsActive:              true,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			utils.BadRequest(c, "Invalid dateOfBirth, expected YYYY-MM-DD")
			return
		}
		patient.DateOfBirth = &dob
	}

	if err := h.Patients.Create(c.Request.Context(), &patient); err != nil {
		utils.InternalServerError(c, "Failed to create patient: "+err.Error())
		return
	}

	utils.Created(c, "Patient created successfully", patient)
}

// GetPatients lists patients, optionally filtered by a search term.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	if term := c.Query("search"); term != "" {
		patients, err := h.Patients.Search(c.Request.Context(), term, 0)
		if err != nil {
			utils.InternalServerError(c, "Failed to search patients: "+err.Error())
			return
		}
		utils.Success(c, "Patients fetched successfully", patients)
		return
	}

	var patients []models.Patient
	if err := h.DB.Where("is_active = ?", true).
		Order("last_name asc, first_name asc").
		Limit(200).
		Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientByID fetches a single patient.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.Patients.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// UpdatePatientRequest represents the request body for updating a patient.
type UpdatePatientRequest struct {
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	Email                 string `json:"email" binding:"omitempty,email"`
	Phone                 string `json:"phone"`
	WhatsAppNumber        string `json:"whatsappNumber"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	EmergencyContactName  string `json:"emergencyContactName"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
	MedicalHistory        string `json:"medicalHistory"`
	Allergies             string `json:"allergies"`
	CurrentMedications    string `json:"currentMedications"`
	IsActive              *bool  `json:"isActive"`
}

// UpdatePatient updates a patient record.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	patient, err := h.Patients.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.FirstName != "" {
		patient.FirstName = req.FirstName
	}
	if req.LastName != "" {
		patient.LastName = req.LastName
	}
	if req.Email != "" {
		patient.Email = req.Email
	}
	if req.Phone != "" {
		patient.Phone = req.Phone
	}
	if req.WhatsAppNumber != "" {
		patient.WhatsAppNumber = req.WhatsAppNumber
	}
	if req.Address != "" {
		patient.Address = req.Address
	}
	if req.City != "" {
		patient.City = req.City
	}
	if req.EmergencyContactName != "" {
		patient.EmergencyContactName = req.EmergencyContactName
	}
	if req.EmergencyContactPhone != "" {
		patient.EmergencyContactPhone = req.EmergencyContactPhone
	}
	if req.MedicalHistory != "" {
		patient.MedicalHistory = req.MedicalHistory
	}
	if req.Allergies != "" {
		patient.Allergies = req.Allergies
	}
	if req.CurrentMedications != "" {
		patient.CurrentMedications = req.CurrentMedications
	}
	if req.IsActive != nil {
		patient.IsActive = *req.IsActive
	}

	if err := h.Patients.Update(c.Request.Context(), patient); err != nil {
		utils.InternalServerError(c, "Failed to update patient: "+err.Error())
		return
	}
	utils.Success(c, "Patient updated successfully", patient)
}

// GetPatientAppointments lists a patient's appointments, newest first.
func (h *PatientHandler) GetPatientAppointments(c *gin.Context) {
	var appointments []models.Appointment
	err := h.DB.Preload("Doctor").
		Where("patient_id = ?", c.Param("id")).
		Order("appointment_date desc, appointment_time asc").
		Find(&appointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetPatientPackages lists a patient's package subscriptions.
func (h *PatientHandler) GetPatientPackages(c *gin.Context) {
	var packages []models.PatientPackage
	err := h.DB.Preload("Package").
		Where("patient_id = ?", c.Param("id")).
		Order("created_at desc").
		Find(&packages).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch packages: "+err.Error())
		return
	}
	utils.Success(c, "Packages fetched successfully", packages)
}

// nextPatientNumber allocates the next clinic patient number, PT00001
// onwards. Numbers follow insertion order, not gaps.
func (h *PatientHandler) nextPatientNumber() string {
	var count int64
	h.DB.Model(&models.Patient{}).Count(&count)
	return fmt.Sprintf("PT%05d", count+1)
}
