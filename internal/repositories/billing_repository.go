package repositories

import (
	"context"
	"errors"
	"time"

	"clinic-crm-server/internal/models"

	"gorm.io/gorm"
)

// RevenueStats aggregates billing totals over a date range.
type RevenueStats struct {
	TotalBilled     float64 `json:"totalBilled"`
	TotalCollected  float64 `json:"totalCollected"`
	TotalOutstanding float64 `json:"totalOutstanding"`
	BillCount       int64   `json:"billCount"`
	PaidBills       int64   `json:"paidBills"`
	PendingBills    int64   `json:"pendingBills"`
	PartialBills    int64   `json:"partialBills"`
}

// BillingRepository is the persistence surface for bills, payments and
// treatment packages.
type BillingRepository interface {
	CreateBill(ctx context.Context, bill *models.Billing) error
	UpdateBill(ctx context.Context, bill *models.Billing) error
	FindBillByID(ctx context.Context, id string) (*models.Billing, error)
	FindBillByVisit(ctx context.Context, visitID string) (*models.Billing, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindVisitByID(ctx context.Context, id string) (*models.Visit, error)
	FindPackageByID(ctx context.Context, id string) (*models.TreatmentPackage, error)
	FindPatientPackageByID(ctx context.Context, id string) (*models.PatientPackage, error)
	CreatePatientPackage(ctx context.Context, pkg *models.PatientPackage) error
	UpdatePatientPackage(ctx context.Context, pkg *models.PatientPackage) error
	FindUnpaidBillsByPatient(ctx context.Context, patientID string) ([]models.Billing, error)
	FindUnpaidBillsOlderThan(ctx context.Context, cutoff time.Time) ([]models.Billing, error)
	FindExpiredActivePackages(ctx context.Context, today time.Time) ([]models.PatientPackage, error)
	RevenueInRange(ctx context.Context, from, to time.Time) (*RevenueStats, error)
}

type billingRepository struct {
	db *gorm.DB
}

// NewBillingRepository creates a gorm-backed BillingRepository.
func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) CreateBill(ctx context.Context, bill *models.Billing) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *billingRepository) UpdateBill(ctx context.Context, bill *models.Billing) error {
	if bill == nil || bill.ID == "" {
		return errors.New("bill has no id")
	}
	return r.db.WithContext(ctx).Save(bill).Error
}

func (r *billingRepository) FindBillByID(ctx context.Context, id string) (*models.Billing, error) {
	var bill models.Billing
	err := r.db.WithContext(ctx).Preload("Payments").First(&bill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

func (r *billingRepository) FindBillByVisit(ctx context.Context, visitID string) (*models.Billing, error) {
	var bill models.Billing
	err := r.db.WithContext(ctx).First(&bill, "visit_id = ?", visitID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

func (r *billingRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *billingRepository) FindVisitByID(ctx context.Context, id string) (*models.Visit, error) {
	var visit models.Visit
	err := r.db.WithContext(ctx).Preload("Patient").First(&visit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &visit, nil
}

func (r *billingRepository) FindPackageByID(ctx context.Context, id string) (*models.TreatmentPackage, error) {
	var pkg models.TreatmentPackage
	err := r.db.WithContext(ctx).First(&pkg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *billingRepository) FindPatientPackageByID(ctx context.Context, id string) (*models.PatientPackage, error) {
	var pkg models.PatientPackage
	err := r.db.WithContext(ctx).Preload("Package").First(&pkg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *billingRepository) CreatePatientPackage(ctx context.Context, pkg *models.PatientPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

func (r *billingRepository) UpdatePatientPackage(ctx context.Context, pkg *models.PatientPackage) error {
	if pkg == nil || pkg.ID == "" {
		return errors.New("patient package has no id")
	}
	return r.db.WithContext(ctx).Save(pkg).Error
}

func (r *billingRepository) FindUnpaidBillsByPatient(ctx context.Context, patientID string) ([]models.Billing, error) {
	var bills []models.Billing
	err := r.db.WithContext(ctx).Preload("Payments").
		Joins("JOIN visits ON visits.id = billings.visit_id").
		Where("visits.patient_id = ? AND billings.payment_status IN ?", patientID,
			[]models.PaymentStatus{models.PaymentPending, models.PaymentPartial}).
		Find(&bills).Error
	return bills, err
}

func (r *billingRepository) FindUnpaidBillsOlderThan(ctx context.Context, cutoff time.Time) ([]models.Billing, error) {
	var bills []models.Billing
	err := r.db.WithContext(ctx).Preload("Payments").Preload("Visit.Patient").
		Where("payment_status IN ? AND created_at < ?",
			[]models.PaymentStatus{models.PaymentPending, models.PaymentPartial}, cutoff).
		Find(&bills).Error
	return bills, err
}

func (r *billingRepository) FindExpiredActivePackages(ctx context.Context, today time.Time) ([]models.PatientPackage, error) {
	var pkgs []models.PatientPackage
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND expiry_date < ?", true, DateOnly(today)).
		Find(&pkgs).Error
	return pkgs, err
}

func (r *billingRepository) RevenueInRange(ctx context.Context, from, to time.Time) (*RevenueStats, error) {
	stats := &RevenueStats{}
	base := r.db.WithContext(ctx).Model(&models.Billing{}).
		Where("created_at >= ? AND created_at < ?", DateOnly(from), DateOnly(to).AddDate(0, 0, 1))

	type sums struct {
		Billed float64
		Count  int64
	}
	var s sums
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_amount),0) AS billed, COUNT(*) AS count").
		Scan(&s).Error; err != nil {
		return nil, err
	}
	stats.TotalBilled = s.Billed
	stats.BillCount = s.Count

	if err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("payment_date >= ? AND payment_date < ?", DateOnly(from), DateOnly(to).AddDate(0, 0, 1)).
		Select("COALESCE(SUM(amount),0)").Scan(&stats.TotalCollected).Error; err != nil {
		return nil, err
	}
	stats.TotalOutstanding = stats.TotalBilled - stats.TotalCollected

	counts := []struct {
		dest   *int64
		status models.PaymentStatus
	}{
		{&stats.PaidBills, models.PaymentPaid},
		{&stats.PendingBills, models.PaymentPending},
		{&stats.PartialBills, models.PaymentPartial},
	}
	for _, c := range counts {
		if err := base.Session(&gorm.Session{}).Where("payment_status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

var _ BillingRepository = (*billingRepository)(nil)
