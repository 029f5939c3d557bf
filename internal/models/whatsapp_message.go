package models

import (
	"time"
)

// WhatsAppStatus represents the delivery state of an outbound message
type WhatsAppStatus string

const (
	WhatsAppPending   WhatsAppStatus = "pending"
	WhatsAppSent      WhatsAppStatus = "sent"
	WhatsAppDelivered WhatsAppStatus = "delivered"
	WhatsAppFailed    WhatsAppStatus = "failed"
)

// WhatsAppMessage is the audit row for every outbound WhatsApp send attempt.
type WhatsAppMessage struct {
	BaseModel
	PatientID   string         `gorm:"size:36;index" json:"patientId,omitempty"`
	PhoneNumber string         `gorm:"size:20;not null" json:"phoneNumber"`
	MessageType string         `gorm:"size:50;not null" json:"messageType"` // appointment_reminder, bill, general, ...
	MessageText string         `gorm:"type:text;not null" json:"messageText"`
	Status      WhatsAppStatus `gorm:"size:20;default:'pending'" json:"status"`
	TwilioSID   string         `gorm:"size:100" json:"twilioSid,omitempty"`
	SentAt      *time.Time     `json:"sentAt,omitempty"`
	DeliveredAt *time.Time     `json:"deliveredAt,omitempty"`
}
