package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no_show"
)

// VisitType represents how the patient is seen
type VisitType string

const (
	VisitClinic    VisitType = "clinic"
	VisitHome      VisitType = "home"
	VisitOnline    VisitType = "online"
	VisitEmergency VisitType = "emergency"
)

// Appointment represents a scheduled medical appointment.
// AppointmentDate carries only the calendar date; AppointmentTime is the
// slot start as "HH:MM". A doctor holds at most one live (pending or
// confirmed) appointment per (date, time) pair.
type Appointment struct {
	BaseModel
	PatientID          string            `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID           string            `gorm:"size:36;index:idx_doctor_slot;not null" json:"doctorId"`
	AppointmentDate    time.Time         `gorm:"type:date;index:idx_doctor_slot" json:"appointmentDate"`
	AppointmentTime    string            `gorm:"size:5;index:idx_doctor_slot" json:"appointmentTime"` // "09:30"
	DurationMinutes    int               `gorm:"default:30" json:"durationMinutes"`
	VisitType          VisitType         `gorm:"size:20;not null" json:"visitType"`
	Status             AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reason             string            `gorm:"type:text" json:"reason"`
	Notes              string            `gorm:"type:text" json:"notes"`
	IsEmergency        bool              `gorm:"default:false" json:"isEmergency"`
	CreatedByID        string            `gorm:"size:36" json:"createdById,omitempty"`
	ConfirmedAt        *time.Time        `json:"confirmedAt,omitempty"`
	CancelledAt        *time.Time        `json:"cancelledAt,omitempty"`
	CancellationReason string            `gorm:"type:text" json:"cancellationReason,omitempty"`
	ReminderSent       bool              `gorm:"default:false" json:"reminderSent"`

	// Relations
	Patient      Patient             `gorm:"foreignKey:PatientID" json:"-"`
	Doctor       User                `gorm:"foreignKey:DoctorID" json:"-"`
	Consultation *OnlineConsultation `gorm:"foreignKey:AppointmentID" json:"consultation,omitempty"`
}

// IsLive reports whether the appointment still occupies its slot.
func (a *Appointment) IsLive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}
