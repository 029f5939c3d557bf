package models

import (
	"time"
)

// Patient represents a clinic patient record
type Patient struct {
	BaseModel
	PatientNumber         string     `gorm:"uniqueIndex;size:20;not null" json:"patientNumber"` // Custom clinic-assigned ID
	FirstName             string     `gorm:"size:50;not null" json:"firstName"`
	LastName              string     `gorm:"size:50;not null" json:"lastName"`
	Email                 string     `gorm:"size:120" json:"email,omitempty"`
	Phone                 string     `gorm:"size:15;not null" json:"phone"`
	WhatsAppNumber        string     `gorm:"size:15" json:"whatsappNumber,omitempty"`
	DateOfBirth           *time.Time `gorm:"type:date" json:"dateOfBirth,omitempty"`
	Gender                string     `gorm:"size:10" json:"gender,omitempty"`
	Address               string     `gorm:"type:text" json:"address,omitempty"`
	City                  string     `gorm:"size:50" json:"city,omitempty"`
	EmergencyContactName  string     `gorm:"size:100" json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string     `gorm:"size:15" json:"emergencyContactPhone,omitempty"`
	MedicalHistory        string     `gorm:"type:text" json:"medicalHistory,omitempty"`
	Allergies             string     `gorm:"type:text" json:"allergies,omitempty"`
	CurrentMedications    string     `gorm:"type:text" json:"currentMedications,omitempty"`
	IsActive              bool       `gorm:"default:true" json:"isActive"`

	// Patient portal account, if one exists
	UserID string `gorm:"size:36" json:"userId,omitempty"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`

	// Relations
	Appointments  []Appointment  `gorm:"foreignKey:PatientID" json:"-"`
	Visits        []Visit        `gorm:"foreignKey:PatientID" json:"-"`
	Prescriptions []Prescription `gorm:"foreignKey:PatientID" json:"-"`
	Packages      []PatientPackage `gorm:"foreignKey:PatientID" json:"-"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PreferredWhatsApp returns the number reminders should go to.
func (p *Patient) PreferredWhatsApp() string {
	if p.WhatsAppNumber != "" {
		return p.WhatsAppNumber
	}
	return p.Phone
}
