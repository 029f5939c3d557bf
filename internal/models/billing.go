package models

import (
	"time"
)

// PaymentStatus represents the payment state of a bill
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// TreatmentPackage is a sellable bundle of sessions.
type TreatmentPackage struct {
	BaseModel
	Name            string  `gorm:"size:100;not null" json:"name"`
	Description     string  `gorm:"type:text" json:"description,omitempty"`
	TotalSessions   int     `gorm:"not null" json:"totalSessions"`
	PricePerSession float64 `gorm:"not null" json:"pricePerSession"`
	TotalPrice      float64 `gorm:"not null" json:"totalPrice"`
	ValidityDays    int     `gorm:"default:90" json:"validityDays"`
	IsActive        bool    `gorm:"default:true" json:"isActive"`
}

// PatientPackage is a patient's subscription to a treatment package.
type PatientPackage struct {
	BaseModel
	PatientID         string    `gorm:"size:36;index;not null" json:"patientId"`
	PackageID         string    `gorm:"size:36;index;not null" json:"packageId"`
	SessionsRemaining int       `gorm:"not null" json:"sessionsRemaining"`
	StartDate         time.Time `gorm:"type:date;not null" json:"startDate"`
	ExpiryDate        time.Time `gorm:"type:date;not null" json:"expiryDate"`
	IsActive          bool      `gorm:"default:true" json:"isActive"`

	// Relations
	Patient Patient          `gorm:"foreignKey:PatientID" json:"-"`
	Package TreatmentPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

// Billing is a bill raised for a visit.
type Billing struct {
	BaseModel
	VisitID          string        `gorm:"size:36;uniqueIndex;not null" json:"visitId"`
	PatientPackageID string        `gorm:"size:36" json:"patientPackageId,omitempty"`
	BillNumber       string        `gorm:"uniqueIndex;size:50;not null" json:"billNumber"`
	Subtotal         float64       `gorm:"not null" json:"subtotal"`
	DiscountAmount   float64       `gorm:"default:0" json:"discountAmount"`
	TaxAmount        float64       `gorm:"default:0" json:"taxAmount"`
	TotalAmount      float64       `gorm:"not null" json:"totalAmount"`
	PaymentStatus    PaymentStatus `gorm:"size:20;default:'pending'" json:"paymentStatus"`

	// Relations
	Visit    Visit     `gorm:"foreignKey:VisitID" json:"-"`
	Payments []Payment `gorm:"foreignKey:BillingID" json:"payments,omitempty"`
}

// AmountPaid sums the recorded payments on the bill.
func (b *Billing) AmountPaid() float64 {
	var paid float64
	for _, p := range b.Payments {
		paid += p.Amount
	}
	return paid
}

// Payment records money received against a bill.
type Payment struct {
	BaseModel
	BillingID     string    `gorm:"size:36;index;not null" json:"billingId"`
	PatientID     string    `gorm:"size:36;index;not null" json:"patientId"`
	Amount        float64   `gorm:"not null" json:"amount"`
	PaymentMethod string    `gorm:"size:50;not null" json:"paymentMethod"` // cash, card, upi, bank_transfer
	TransactionID string    `gorm:"size:100" json:"transactionId,omitempty"`
	PaymentDate   time.Time `json:"paymentDate"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
}
