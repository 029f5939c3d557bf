package handlers

import (
	"strconv"
	"time"

	"clinic-crm-server/internal/middleware"
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"
	"clinic-crm-server/internal/services"
	"clinic-crm-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AppointmentHandler exposes the scheduling engine over HTTP. State
// transitions go through the service; read-only listings query directly.
type AppointmentHandler struct {
	DB      *gorm.DB
	Service services.AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, service services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Service: service}
}

// CreateAppointmentRequest represents the request body for booking.
type CreateAppointmentRequest struct {
	PatientID       string `json:"patientId" binding:"required"`
	DoctorID        string `json:"doctorId" binding:"required"`
	Date            string `json:"date" binding:"required"` // "2006-01-02"
	Time            string `json:"time" binding:"required"` // "HH:MM"
	DurationMinutes int    `json:"durationMinutes"`
	VisitType       string `json:"visitType" binding:"required,oneof=clinic home online emergency"`
	Reason          string `json:"reason"`
	IsEmergency     bool   `json:"isEmergency"`
}

// CreateAppointment books a new appointment.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	createdByID, _ := middleware.GetUserIDFromContext(c)
	appointment, err := h.Service.Create(c.Request.Context(), services.CreateAppointmentInput{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		Date:            date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		VisitType:       models.VisitType(req.VisitType),
		Reason:          req.Reason,
		IsEmergency:     req.IsEmergency,
		CreatedByID:     createdByID,
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointments lists appointments with optional filters on doctor,
// patient, status and date.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	query := h.DB.Preload("Patient").Preload("Doctor").
		Order("appointment_date desc, appointment_time asc")

	if doctorID := c.Query("doctorId"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}
	if patientID := c.Query("patientId"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		query = query.Where("appointment_date = ?", repositories.DateOnly(date))
	}

	var appointments []models.Appointment
	if err := query.Limit(200).Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID fetches a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	var appointment models.Appointment
	err := h.DB.Preload("Patient").Preload("Doctor").Preload("Consultation").
		First(&appointment, "id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointment)
}

// ConfirmAppointment moves a pending appointment to confirmed.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	confirmedByID, _ := middleware.GetUserIDFromContext(c)
	appointment, err := h.Service.Confirm(c.Request.Context(), c.Param("id"), confirmedByID)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Appointment confirmed successfully", appointment)
}

// CancelAppointmentRequest carries the optional cancellation reason.
type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// CancelAppointment cancels an appointment.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var req CancelAppointmentRequest
	_ = c.ShouldBindJSON(&req)

	cancelledByID, _ := middleware.GetUserIDFromContext(c)
	if err := h.Service.Cancel(c.Request.Context(), c.Param("id"), req.Reason, cancelledByID); err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", nil)
}

// CompleteAppointment marks a confirmed appointment as completed.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	if err := h.Service.Complete(c.Request.Context(), c.Param("id")); err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Appointment completed successfully", nil)
}

// MarkNoShow marks a confirmed appointment as a no-show.
func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	if err := h.Service.MarkNoShow(c.Request.Context(), c.Param("id")); err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Appointment marked as no-show", nil)
}

// RescheduleAppointmentRequest carries the new slot.
type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// RescheduleAppointment moves an appointment to a new slot.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	rescheduledByID, _ := middleware.GetUserIDFromContext(c)
	appointment, err := h.Service.Reschedule(c.Request.Context(), c.Param("id"), date, req.Time, rescheduledByID)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Appointment rescheduled successfully", appointment)
}

// GetAvailableSlots returns the free slot starts for a doctor on a date.
func (h *AppointmentHandler) GetAvailableSlots(c *gin.Context) {
	doctorID := c.Query("doctorId")
	dateStr := c.Query("date")
	if doctorID == "" || dateStr == "" {
		utils.BadRequest(c, "doctorId and date query parameters are required")
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	duration := 0
	if d := c.Query("durationMinutes"); d != "" {
		duration, err = strconv.Atoi(d)
		if err != nil || duration < 0 {
			utils.BadRequest(c, "Invalid durationMinutes")
			return
		}
	}

	slots, err := h.Service.AvailableSlots(c.Request.Context(), doctorID, date, duration)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Available slots fetched successfully", gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}

// GetDoctorSchedule returns a doctor's live appointments grouped by day.
func (h *AppointmentHandler) GetDoctorSchedule(c *gin.Context) {
	doctorID := c.Param("id")
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	schedule, err := h.Service.DoctorSchedule(c.Request.Context(), doctorID, from, to)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Schedule fetched successfully", schedule)
}

// GetAppointmentStats returns appointment counts over a date range.
func (h *AppointmentHandler) GetAppointmentStats(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	stats, err := h.Service.Statistics(c.Request.Context(), from, to)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Statistics fetched successfully", stats)
}

// SendReminders triggers the reminder sweep manually. The cron job runs
// the same operation nightly.
func (h *AppointmentHandler) SendReminders(c *gin.Context) {
	sent, err := h.Service.SendDueReminders(c.Request.Context(), time.Now().UTC())
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Reminder sweep finished", gin.H{"sent": sent})
}

// parseRange reads optional from/to query params, defaulting to the last
// 30 days through today.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -30), now

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			utils.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			utils.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	return from, to, true
}
