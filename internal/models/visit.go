package models

import (
	"time"
)

// Visit represents a realized patient encounter; bills hang off visits.
type Visit struct {
	BaseModel
	PatientID       string     `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID        string     `gorm:"size:36;index" json:"doctorId"`
	VisitType       VisitType  `gorm:"size:20;not null" json:"visitType"`
	DateOfVisit     time.Time  `gorm:"type:date;not null" json:"dateOfVisit"`
	TimeOfVisit     string     `gorm:"size:5" json:"timeOfVisit,omitempty"`
	DurationMinutes int        `gorm:"default:30" json:"durationMinutes"`
	ChiefComplaint  string     `gorm:"type:text" json:"chiefComplaint,omitempty"`
	Diagnosis       string     `gorm:"type:text" json:"diagnosis,omitempty"`
	TreatmentPlan   string     `gorm:"type:text" json:"treatmentPlan,omitempty"`
	Remarks         string     `gorm:"type:text" json:"remarks,omitempty"`
	FollowUpDate    *time.Time `gorm:"type:date" json:"followUpDate,omitempty"`
	IsFollowUp      bool       `gorm:"default:false" json:"isFollowUp"`

	// Relations
	Patient Patient  `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User     `gorm:"foreignKey:DoctorID" json:"-"`
	Billing *Billing `gorm:"foreignKey:VisitID" json:"billing,omitempty"`
}
