package models

import (
	"time"
)

// Prescription represents a doctor-authored prescription for a patient
type Prescription struct {
	BaseModel
	PatientID        string     `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID         string     `gorm:"size:36;index;not null" json:"doctorId"`
	VisitID          string     `gorm:"size:36" json:"visitId,omitempty"`
	PrescriptionDate time.Time  `gorm:"type:date;not null" json:"prescriptionDate"`
	Diagnosis        string     `gorm:"type:text" json:"diagnosis,omitempty"`
	Instructions     string     `gorm:"type:text" json:"instructions,omitempty"`
	FollowUpDate     *time.Time `gorm:"type:date" json:"followUpDate,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"isActive"`

	// Relations
	Patient     Patient                  `gorm:"foreignKey:PatientID" json:"-"`
	Doctor      User                     `gorm:"foreignKey:DoctorID" json:"-"`
	Medications []PrescriptionMedication `gorm:"foreignKey:PrescriptionID" json:"medications,omitempty"`
}

// PrescriptionMedication is a single medication line on a prescription
type PrescriptionMedication struct {
	BaseModel
	PrescriptionID string `gorm:"size:36;index;not null" json:"prescriptionId"`
	MedicationName string `gorm:"size:200;not null" json:"medicationName"`
	Dosage         string `gorm:"size:100;not null" json:"dosage"`
	Frequency      string `gorm:"size:100;not null" json:"frequency"`
	Duration       string `gorm:"size:100;not null" json:"duration"`
	Instructions   string `gorm:"type:text" json:"instructions,omitempty"`
}
