package models

import (
	"time"
)

// ConsultationStatus represents the status of an online consultation
type ConsultationStatus string

const (
	ConsultationScheduled  ConsultationStatus = "scheduled"
	ConsultationInProgress ConsultationStatus = "in_progress"
	ConsultationCompleted  ConsultationStatus = "completed"
	ConsultationCancelled  ConsultationStatus = "cancelled"
)

// OnlineConsultation is the 1:1 satellite record of an online-visit
// appointment. It is created when the appointment is confirmed and follows
// the appointment through cancel/reschedule.
type OnlineConsultation struct {
	BaseModel
	AppointmentID   string             `gorm:"size:36;uniqueIndex;not null" json:"appointmentId"`
	PatientID       string             `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID        string             `gorm:"size:36;index;not null" json:"doctorId"`
	MeetingURL      string             `gorm:"size:500" json:"meetingUrl"`
	MeetingID       string             `gorm:"size:100" json:"meetingId"`
	MeetingPassword string             `gorm:"size:50" json:"-"`
	Status          ConsultationStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	StartedAt       *time.Time         `json:"startedAt,omitempty"`
	EndedAt         *time.Time         `json:"endedAt,omitempty"`
	DurationMinutes int                `json:"durationMinutes,omitempty"`
	Notes           string             `gorm:"type:text" json:"notes,omitempty"`
}
