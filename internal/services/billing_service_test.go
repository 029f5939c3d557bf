package services

import (
	"context"
	"testing"
	"time"

	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func testVisit(visitType models.VisitType) *models.Visit {
	v := &models.Visit{
		PatientID: "patient-1",
		VisitType: visitType,
		Patient:   *activePatient(),
	}
	v.ID = "visit-1"
	return v
}

func newBillingTestService(bills *mockBillingRepo) BillingService {
	patients := &mockPatientRepo{
		FindActiveFn: func(ctx context.Context, id string) (*models.Patient, error) {
			if id == "patient-1" {
				return activePatient(), nil
			}
			return nil, repositories.ErrNotFound
		},
	}
	return NewBillingService(bills, patients, nil)
}

func TestCreateBillBasePrices(t *testing.T) {
	tests := []struct {
		visitType models.VisitType
		want      float64
	}{
		{models.VisitClinic, 500},
		{models.VisitHome, 800},
		{models.VisitOnline, 400},
	}
	for _, tt := range tests {
		t.Run(string(tt.visitType), func(t *testing.T) {
			bills := &mockBillingRepo{
				FindVisitByIDFn: func(ctx context.Context, id string) (*models.Visit, error) {
					return testVisit(tt.visitType), nil
				},
			}
			svc := newBillingTestService(bills)

			bill, err := svc.CreateBill(context.Background(), CreateBillInput{VisitID: "visit-1"})
			assert.NoError(t, err)
			assert.Equal(t, tt.want, bill.Subtotal)
			assert.Equal(t, tt.want, bill.TotalAmount)
			assert.Equal(t, models.PaymentPending, bill.PaymentStatus)
			assert.NotEmpty(t, bill.BillNumber)
		})
	}
}

func TestCreateBillDiscountAndTax(t *testing.T) {
	bills := &mockBillingRepo{
		FindVisitByIDFn: func(ctx context.Context, id string) (*models.Visit, error) {
			return testVisit(models.VisitClinic), nil
		},
	}
	svc := newBillingTestService(bills)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VisitID:        "visit-1",
		DiscountAmount: 50,
		TaxAmount:      25,
	})
	assert.NoError(t, err)
	assert.Equal(t, float64(475), bill.TotalAmount)
}

func TestCreateBillDuplicateVisit(t *testing.T) {
	bills := &mockBillingRepo{
		FindVisitByIDFn: func(ctx context.Context, id string) (*models.Visit, error) {
			return testVisit(models.VisitClinic), nil
		},
		FindBillByVisitFn: func(ctx context.Context, visitID string) (*models.Billing, error) {
			return &models.Billing{}, nil
		},
	}
	svc := newBillingTestService(bills)

	_, err := svc.CreateBill(context.Background(), CreateBillInput{VisitID: "visit-1"})
	assert.True(t, IsConflict(err))
}

func TestCreateBillConsumesPackageSession(t *testing.T) {
	pkg := &models.PatientPackage{
		PatientID:         "patient-1",
		SessionsRemaining: 1,
		IsActive:          true,
	}
	pkg.ID = "ppkg-1"

	var savedPkg *models.PatientPackage
	bills := &mockBillingRepo{
		FindVisitByIDFn: func(ctx context.Context, id string) (*models.Visit, error) {
			return testVisit(models.VisitClinic), nil
		},
		FindPatientPackageByIDFn: func(ctx context.Context, id string) (*models.PatientPackage, error) {
			return pkg, nil
		},
		UpdatePatientPackageFn: func(ctx context.Context, p *models.PatientPackage) error {
			savedPkg = p
			return nil
		},
	}
	svc := newBillingTestService(bills)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VisitID:          "visit-1",
		PatientPackageID: "ppkg-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, float64(0), bill.TotalAmount)
	assert.Equal(t, models.PaymentPaid, bill.PaymentStatus)
	assert.Equal(t, 0, savedPkg.SessionsRemaining)
	// The last session deactivates the package.
	assert.False(t, savedPkg.IsActive)
}

func TestCreateBillPackageExhausted(t *testing.T) {
	pkg := &models.PatientPackage{PatientID: "patient-1", SessionsRemaining: 0, IsActive: true}
	pkg.ID = "ppkg-1"
	bills := &mockBillingRepo{
		FindVisitByIDFn: func(ctx context.Context, id string) (*models.Visit, error) {
			return testVisit(models.VisitClinic), nil
		},
		FindPatientPackageByIDFn: func(ctx context.Context, id string) (*models.PatientPackage, error) {
			return pkg, nil
		},
	}
	svc := newBillingTestService(bills)

	_, err := svc.CreateBill(context.Background(), CreateBillInput{
		VisitID:          "visit-1",
		PatientPackageID: "ppkg-1",
	})
	assert.True(t, IsValidation(err))
}

func TestProcessPayment(t *testing.T) {
	bill := &models.Billing{
		VisitID:       "visit-1",
		TotalAmount:   500,
		PaymentStatus: models.PaymentPending,
	}
	bill.ID = "bill-1"

	var updated *models.Billing
	bills := &mockBillingRepo{
		FindBillByIDFn: func(ctx context.Context, id string) (*models.Billing, error) {
			return bill, nil
		},
		FindVisitByIDFn: func(ctx context.Context, id string) (*models.Visit, error) {
			return testVisit(models.VisitClinic), nil
		},
		UpdateBillFn: func(ctx context.Context, b *models.Billing) error {
			updated = b
			return nil
		},
	}
	svc := newBillingTestService(bills)

	result, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		BillingID:     "bill-1",
		Amount:        200,
		PaymentMethod: "cash",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, result.PaymentStatus)
	assert.Equal(t, float64(200), result.AmountPaid())

	result, err = svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		BillingID:     "bill-1",
		Amount:        300,
		PaymentMethod: "upi",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, result.PaymentStatus)
	assert.NotNil(t, updated)
}

func TestProcessPaymentOverpaymentRejected(t *testing.T) {
	bill := &models.Billing{TotalAmount: 500, PaymentStatus: models.PaymentPending}
	bill.ID = "bill-1"
	bills := &mockBillingRepo{
		FindBillByIDFn: func(ctx context.Context, id string) (*models.Billing, error) {
			return bill, nil
		},
	}
	svc := newBillingTestService(bills)

	_, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		BillingID:     "bill-1",
		Amount:        600,
		PaymentMethod: "cash",
	})
	assert.True(t, IsValidation(err))
}

func TestProcessPaymentOnPaidBillRejected(t *testing.T) {
	bill := &models.Billing{TotalAmount: 500, PaymentStatus: models.PaymentPaid}
	bill.ID = "bill-1"
	bills := &mockBillingRepo{
		FindBillByIDFn: func(ctx context.Context, id string) (*models.Billing, error) {
			return bill, nil
		},
	}
	svc := newBillingTestService(bills)

	_, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		BillingID:     "bill-1",
		Amount:        100,
		PaymentMethod: "cash",
	})
	assert.True(t, IsConflict(err))
}

func TestCreatePatientPackage(t *testing.T) {
	pkg := &models.TreatmentPackage{
		Name:          "Physio 10",
		TotalSessions: 10,
		ValidityDays:  90,
		IsActive:      true,
	}
	pkg.ID = "pkg-1"

	var created *models.PatientPackage
	bills := &mockBillingRepo{
		FindPackageByIDFn: func(ctx context.Context, id string) (*models.TreatmentPackage, error) {
			return pkg, nil
		},
		CreatePatientPackageFn: func(ctx context.Context, p *models.PatientPackage) error {
			created = p
			return nil
		},
	}
	svc := newBillingTestService(bills)

	assignment, err := svc.CreatePatientPackage(context.Background(), CreatePatientPackageInput{
		PatientID: "patient-1",
		PackageID: "pkg-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, 10, assignment.SessionsRemaining)
	assert.True(t, assignment.IsActive)
	assert.Equal(t, assignment.StartDate.AddDate(0, 0, 90), assignment.ExpiryDate)
	assert.NotNil(t, created)
}

func TestOutstandingBalance(t *testing.T) {
	first := models.Billing{TotalAmount: 500, PaymentStatus: models.PaymentPartial}
	first.Payments = []models.Payment{{Amount: 200}}
	second := models.Billing{TotalAmount: 400, PaymentStatus: models.PaymentPending}

	bills := &mockBillingRepo{
		FindUnpaidBillsByPatientFn: func(ctx context.Context, patientID string) ([]models.Billing, error) {
			return []models.Billing{first, second}, nil
		},
	}
	svc := newBillingTestService(bills)

	outstanding, open, err := svc.OutstandingBalance(context.Background(), "patient-1")
	assert.NoError(t, err)
	assert.Equal(t, float64(700), outstanding)
	assert.Len(t, open, 2)
}

func TestDeactivateExpiredPackages(t *testing.T) {
	expired := models.PatientPackage{IsActive: true}
	expired.ID = "ppkg-1"

	var saved []string
	bills := &mockBillingRepo{
		FindExpiredActivePkgsFn: func(ctx context.Context, today time.Time) ([]models.PatientPackage, error) {
			return []models.PatientPackage{expired}, nil
		},
		UpdatePatientPackageFn: func(ctx context.Context, p *models.PatientPackage) error {
			assert.False(t, p.IsActive)
			saved = append(saved, p.ID)
			return nil
		},
	}
	svc := newBillingTestService(bills)

	count, err := svc.DeactivateExpiredPackages(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"ppkg-1"}, saved)
}
