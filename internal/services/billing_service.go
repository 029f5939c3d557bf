package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-crm-server/internal/logger"
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Base consultation charges by visit type, used when the visit is not
// covered by a treatment package.
var visitBasePrices = map[models.VisitType]float64{
	models.VisitClinic:    500,
	models.VisitHome:      800,
	models.VisitOnline:    400,
	models.VisitEmergency: 800,
}

// CreateBillInput is the request payload for raising a bill.
type CreateBillInput struct {
	VisitID          string  `json:"visitId" binding:"required"`
	PatientPackageID string  `json:"patientPackageId"`
	DiscountAmount   float64 `json:"discountAmount" binding:"min=0"`
	TaxAmount        float64 `json:"taxAmount" binding:"min=0"`
}

// ProcessPaymentInput is the request payload for recording a payment.
type ProcessPaymentInput struct {
	BillingID     string  `json:"billingId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" binding:"required,oneof=cash card upi bank_transfer"`
	TransactionID string  `json:"transactionId"`
	Notes         string  `json:"notes"`
}

// CreatePatientPackageInput assigns a treatment package to a patient.
type CreatePatientPackageInput struct {
	PatientID string `json:"patientId" binding:"required"`
	PackageID string `json:"packageId" binding:"required"`
}

// BillingService covers bills, payments and treatment packages.
type BillingService interface {
	CreateBill(ctx context.Context, input CreateBillInput) (*models.Billing, error)
	ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*models.Billing, error)
	CreatePatientPackage(ctx context.Context, input CreatePatientPackageInput) (*models.PatientPackage, error)
	OutstandingBalance(ctx context.Context, patientID string) (float64, []models.Billing, error)
	RevenueStats(ctx context.Context, from, to time.Time) (*repositories.RevenueStats, error)
	SendPaymentReminders(ctx context.Context, olderThanDays int) (int, error)
	DeactivateExpiredPackages(ctx context.Context, today time.Time) (int, error)
}

type billingService struct {
	bills    repositories.BillingRepository
	patients repositories.PatientRepository
	whatsapp *WhatsAppService
}

// NewBillingService wires the billing engine. The WhatsApp service may be
// nil; notifications are then skipped.
func NewBillingService(bills repositories.BillingRepository, patients repositories.PatientRepository, whatsapp *WhatsAppService) BillingService {
	return &billingService{bills: bills, patients: patients, whatsapp: whatsapp}
}

// CreateBill raises a bill for a visit. A visit covered by a patient
// package consumes one session and bills zero; otherwise the visit type's
// base price applies, adjusted by discount and tax.
func (s *billingService) CreateBill(ctx context.Context, input CreateBillInput) (*models.Billing, error) {
	visit, err := s.bills.FindVisitByID(ctx, input.VisitID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundErrorf("visit not found")
		}
		return nil, err
	}

	if _, err := s.bills.FindBillByVisit(ctx, visit.ID); err == nil {
		return nil, conflictErrorf("a bill already exists for this visit")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	bill := &models.Billing{
		VisitID:       visit.ID,
		BillNumber:    generateBillNumber(),
		PaymentStatus: models.PaymentPending,
	}

	if input.PatientPackageID != "" {
		pkg, err := s.bills.FindPatientPackageByID(ctx, input.PatientPackageID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, notFoundErrorf("patient package not found")
			}
			return nil, err
		}
		if !pkg.IsActive || pkg.SessionsRemaining <= 0 {
			return nil, validationErrorf("patient package has no sessions remaining")
		}
		if pkg.PatientID != visit.PatientID {
			return nil, validationErrorf("patient package does not belong to this patient")
		}

		pkg.SessionsRemaining--
		if pkg.SessionsRemaining == 0 {
			pkg.IsActive = false
		}
		if err := s.bills.UpdatePatientPackage(ctx, pkg); err != nil {
			return nil, err
		}

		bill.PatientPackageID = pkg.ID
		bill.Subtotal = 0
		bill.TotalAmount = 0
		bill.PaymentStatus = models.PaymentPaid
	} else {
		base, ok := visitBasePrices[visit.VisitType]
		if !ok {
			base = visitBasePrices[models.VisitClinic]
		}
		bill.Subtotal = base
		bill.DiscountAmount = input.DiscountAmount
		bill.TaxAmount = input.TaxAmount
		bill.TotalAmount = base - input.DiscountAmount + input.TaxAmount
		if bill.TotalAmount < 0 {
			return nil, validationErrorf("discount exceeds the bill subtotal")
		}
	}

	if err := s.bills.CreateBill(ctx, bill); err != nil {
		return nil, err
	}

	if s.whatsapp != nil && bill.TotalAmount > 0 {
		if !s.whatsapp.SendBillNotification(ctx, bill, &visit.Patient) {
			logger.Log.Warn("bill notification not delivered", zap.String("bill", bill.BillNumber))
		}
	}
	return bill, nil
}

// ProcessPayment records a payment against a bill and moves its status to
// partial or paid. Overpaying the remaining balance is rejected.
func (s *billingService) ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*models.Billing, error) {
	bill, err := s.bills.FindBillByID(ctx, input.BillingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundErrorf("bill not found")
		}
		return nil, err
	}

	if bill.PaymentStatus == models.PaymentPaid {
		return nil, conflictErrorf("bill is already fully paid")
	}
	if bill.PaymentStatus == models.PaymentCancelled || bill.PaymentStatus == models.PaymentRefunded {
		return nil, conflictErrorf("bill is not payable in its current status")
	}

	remaining := bill.TotalAmount - bill.AmountPaid()
	if input.Amount > remaining {
		return nil, validationErrorf("payment of %.2f exceeds the outstanding balance of %.2f", input.Amount, remaining)
	}

	visit, err := s.bills.FindVisitByID(ctx, bill.VisitID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		BillingID:     bill.ID,
		PatientID:     visit.PatientID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		TransactionID: input.TransactionID,
		PaymentDate:   time.Now().UTC(),
		Notes:         input.Notes,
	}
	if err := s.bills.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	bill.Payments = append(bill.Payments, *payment)
	if bill.AmountPaid() >= bill.TotalAmount {
		bill.PaymentStatus = models.PaymentPaid
	} else {
		bill.PaymentStatus = models.PaymentPartial
	}
	if err := s.bills.UpdateBill(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// CreatePatientPackage assigns a treatment package to a patient, starting
// today and expiring after the package's validity period.
func (s *billingService) CreatePatientPackage(ctx context.Context, input CreatePatientPackageInput) (*models.PatientPackage, error) {
	patient, err := s.patients.FindActive(ctx, input.PatientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundErrorf("patient not found or inactive")
		}
		return nil, err
	}

	pkg, err := s.bills.FindPackageByID(ctx, input.PackageID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundErrorf("treatment package not found")
		}
		return nil, err
	}
	if !pkg.IsActive {
		return nil, validationErrorf("treatment package is not active")
	}

	start := repositories.DateOnly(time.Now().UTC())
	assignment := &models.PatientPackage{
		PatientID:         patient.ID,
		PackageID:         pkg.ID,
		SessionsRemaining: pkg.TotalSessions,
		StartDate:         start,
		ExpiryDate:        start.AddDate(0, 0, pkg.ValidityDays),
		IsActive:          true,
	}
	if err := s.bills.CreatePatientPackage(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// OutstandingBalance returns the patient's total unpaid amount along with
// the open bills that make it up.
func (s *billingService) OutstandingBalance(ctx context.Context, patientID string) (float64, []models.Billing, error) {
	bills, err := s.bills.FindUnpaidBillsByPatient(ctx, patientID)
	if err != nil {
		return 0, nil, err
	}
	var outstanding float64
	for i := range bills {
		outstanding += bills[i].TotalAmount - bills[i].AmountPaid()
	}
	return outstanding, bills, nil
}

func (s *billingService) RevenueStats(ctx context.Context, from, to time.Time) (*repositories.RevenueStats, error) {
	return s.bills.RevenueInRange(ctx, from, to)
}

// SendPaymentReminders nudges patients whose bills have been open longer
// than the given number of days. Returns the number of reminders sent.
func (s *billingService) SendPaymentReminders(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		olderThanDays = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	bills, err := s.bills.FindUnpaidBillsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range bills {
		bill := &bills[i]
		outstanding := bill.TotalAmount - bill.AmountPaid()
		if outstanding <= 0 || s.whatsapp == nil {
			continue
		}
		if s.whatsapp.SendPaymentReminder(ctx, bill, &bill.Visit.Patient, outstanding) {
			sent++
		}
	}
	logger.SLog.Infof("payment reminder sweep finished, sent %d of %d", sent, len(bills))
	return sent, nil
}

// DeactivateExpiredPackages flags patient packages whose expiry date has
// passed. Returns the number of packages deactivated.
func (s *billingService) DeactivateExpiredPackages(ctx context.Context, today time.Time) (int, error) {
	pkgs, err := s.bills.FindExpiredActivePackages(ctx, today)
	if err != nil {
		return 0, err
	}
	deactivated := 0
	for i := range pkgs {
		pkg := &pkgs[i]
		pkg.IsActive = false
		if err := s.bills.UpdatePatientPackage(ctx, pkg); err != nil {
			logger.Log.Error("failed to deactivate expired package",
				zap.String("package", pkg.ID), zap.Error(err))
			continue
		}
		deactivated++
	}
	return deactivated, nil
}

// generateBillNumber makes a unique human-readable bill number like
// BILL-20250310-1A2B3C4D.
func generateBillNumber() string {
	short := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("BILL-%s-%s", time.Now().UTC().Format("20060102"), short)
}
