package services

import (
	"context"
	"time"

	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"
)

// Function-field mocks: tests set only the fields they need, the rest
// return zero values.

type mockAppointmentRepo struct {
	CreateFn                        func(ctx context.Context, appointment *models.Appointment) error
	UpdateFn                        func(ctx context.Context, appointment *models.Appointment) error
	UpdateSlotFn                    func(ctx context.Context, appointment *models.Appointment) error
	FindByIDFn                      func(ctx context.Context, id string) (*models.Appointment, error)
	IsSlotAvailableFn               func(ctx context.Context, doctorID string, date time.Time, timeOfDay string, excludeID string) (bool, error)
	FindLiveByDoctorAndDateFn       func(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error)
	FindLiveByDoctorInRangeFn       func(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error)
	FindDueRemindersFn              func(ctx context.Context, date time.Time) ([]models.Appointment, error)
	StatsInRangeFn                  func(ctx context.Context, from, to time.Time) (*repositories.AppointmentStats, error)
	SaveConsultationFn              func(ctx context.Context, consultation *models.OnlineConsultation) error
	FindConsultationByAppointmentFn func(ctx context.Context, appointmentID string) (*models.OnlineConsultation, error)
}

func (m *mockAppointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, appointment)
	}
	return nil
}

func (m *mockAppointmentRepo) Update(ctx context.Context, appointment *models.Appointment) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, appointment)
	}
	return nil
}

func (m *mockAppointmentRepo) UpdateSlot(ctx context.Context, appointment *models.Appointment) error {
	if m.UpdateSlotFn != nil {
		return m.UpdateSlotFn(ctx, appointment)
	}
	return nil
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockAppointmentRepo) IsSlotAvailable(ctx context.Context, doctorID string, date time.Time, timeOfDay string, excludeID string) (bool, error) {
	if m.IsSlotAvailableFn != nil {
		return m.IsSlotAvailableFn(ctx, doctorID, date, timeOfDay, excludeID)
	}
	return true, nil
}

func (m *mockAppointmentRepo) FindLiveByDoctorAndDate(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error) {
	if m.FindLiveByDoctorAndDateFn != nil {
		return m.FindLiveByDoctorAndDateFn(ctx, doctorID, date)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) FindLiveByDoctorInRange(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error) {
	if m.FindLiveByDoctorInRangeFn != nil {
		return m.FindLiveByDoctorInRangeFn(ctx, doctorID, from, to)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) FindDueReminders(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	if m.FindDueRemindersFn != nil {
		return m.FindDueRemindersFn(ctx, date)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) StatsInRange(ctx context.Context, from, to time.Time) (*repositories.AppointmentStats, error) {
	if m.StatsInRangeFn != nil {
		return m.StatsInRangeFn(ctx, from, to)
	}
	return &repositories.AppointmentStats{}, nil
}

func (m *mockAppointmentRepo) SaveConsultation(ctx context.Context, consultation *models.OnlineConsultation) error {
	if m.SaveConsultationFn != nil {
		return m.SaveConsultationFn(ctx, consultation)
	}
	return nil
}

func (m *mockAppointmentRepo) FindConsultationByAppointment(ctx context.Context, appointmentID string) (*models.OnlineConsultation, error) {
	if m.FindConsultationByAppointmentFn != nil {
		return m.FindConsultationByAppointmentFn(ctx, appointmentID)
	}
	return nil, repositories.ErrNotFound
}

var _ repositories.AppointmentRepository = (*mockAppointmentRepo)(nil)

type mockUserRepo struct {
	FindByIDFn          func(ctx context.Context, id string) (*models.User, error)
	FindActiveDoctorFn  func(ctx context.Context, id string) (*models.User, error)
	FindActiveDoctorsFn func(ctx context.Context) ([]models.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) FindActiveDoctor(ctx context.Context, id string) (*models.User, error) {
	if m.FindActiveDoctorFn != nil {
		return m.FindActiveDoctorFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) FindActiveDoctors(ctx context.Context) ([]models.User, error) {
	if m.FindActiveDoctorsFn != nil {
		return m.FindActiveDoctorsFn(ctx)
	}
	return nil, nil
}

var _ repositories.UserRepository = (*mockUserRepo)(nil)

type mockPatientRepo struct {
	CreateFn      func(ctx context.Context, patient *models.Patient) error
	UpdateFn      func(ctx context.Context, patient *models.Patient) error
	FindByIDFn    func(ctx context.Context, id string) (*models.Patient, error)
	FindActiveFn  func(ctx context.Context, id string) (*models.Patient, error)
	FindByPhoneFn func(ctx context.Context, phone string) (*models.Patient, error)
	SearchFn      func(ctx context.Context, term string, limit int) ([]models.Patient, error)
}

func (m *mockPatientRepo) Create(ctx context.Context, patient *models.Patient) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, patient)
	}
	return nil
}

func (m *mockPatientRepo) Update(ctx context.Context, patient *models.Patient) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, patient)
	}
	return nil
}

func (m *mockPatientRepo) FindByID(ctx context.Context, id string) (*models.Patient, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockPatientRepo) FindActive(ctx context.Context, id string) (*models.Patient, error) {
	if m.FindActiveFn != nil {
		return m.FindActiveFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockPatientRepo) FindByPhone(ctx context.Context, phone string) (*models.Patient, error) {
	if m.FindByPhoneFn != nil {
		return m.FindByPhoneFn(ctx, phone)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockPatientRepo) Search(ctx context.Context, term string, limit int) ([]models.Patient, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, term, limit)
	}
	return nil, nil
}

var _ repositories.PatientRepository = (*mockPatientRepo)(nil)

// mockNotifier records every send and answers with the configured result.
type mockNotifier struct {
	ConfirmationResult bool
	ReminderResult     bool
	Confirmations      []string
	Reminders          []string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{ConfirmationResult: true, ReminderResult: true}
}

func (m *mockNotifier) SendAppointmentConfirmation(ctx context.Context, appointment *models.Appointment) bool {
	m.Confirmations = append(m.Confirmations, appointment.ID)
	return m.ConfirmationResult
}

func (m *mockNotifier) SendAppointmentReminder(ctx context.Context, appointment *models.Appointment) bool {
	m.Reminders = append(m.Reminders, appointment.ID)
	return m.ReminderResult
}

var _ Notifier = (*mockNotifier)(nil)

type mockBillingRepo struct {
	CreateBillFn               func(ctx context.Context, bill *models.Billing) error
	UpdateBillFn               func(ctx context.Context, bill *models.Billing) error
	FindBillByIDFn             func(ctx context.Context, id string) (*models.Billing, error)
	FindBillByVisitFn          func(ctx context.Context, visitID string) (*models.Billing, error)
	CreatePaymentFn            func(ctx context.Context, payment *models.Payment) error
	FindVisitByIDFn            func(ctx context.Context, id string) (*models.Visit, error)
	FindPackageByIDFn          func(ctx context.Context, id string) (*models.TreatmentPackage, error)
	FindPatientPackageByIDFn   func(ctx context.Context, id string) (*models.PatientPackage, error)
	CreatePatientPackageFn     func(ctx context.Context, pkg *models.PatientPackage) error
	UpdatePatientPackageFn     func(ctx context.Context, pkg *models.PatientPackage) error
	FindUnpaidBillsByPatientFn func(ctx context.Context, patientID string) ([]models.Billing, error)
	FindUnpaidBillsOlderThanFn func(ctx context.Context, cutoff time.Time) ([]models.Billing, error)
	FindExpiredActivePkgsFn    func(ctx context.Context, today time.Time) ([]models.PatientPackage, error)
	RevenueInRangeFn           func(ctx context.Context, from, to time.Time) (*repositories.RevenueStats, error)
}

func (m *mockBillingRepo) CreateBill(ctx context.Context, bill *models.Billing) error {
	if m.CreateBillFn != nil {
		return m.CreateBillFn(ctx, bill)
	}
	return nil
}

func (m *mockBillingRepo) UpdateBill(ctx context.Context, bill *models.Billing) error {
	if m.UpdateBillFn != nil {
		return m.UpdateBillFn(ctx, bill)
	}
	return nil
}

func (m *mockBillingRepo) FindBillByID(ctx context.Context, id string) (*models.Billing, error) {
	if m.FindBillByIDFn != nil {
		return m.FindBillByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockBillingRepo) FindBillByVisit(ctx context.Context, visitID string) (*models.Billing, error) {
	if m.FindBillByVisitFn != nil {
		return m.FindBillByVisitFn(ctx, visitID)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockBillingRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if m.CreatePaymentFn != nil {
		return m.CreatePaymentFn(ctx, payment)
	}
	return nil
}

func (m *mockBillingRepo) FindVisitByID(ctx context.Context, id string) (*models.Visit, error) {
	if m.FindVisitByIDFn != nil {
		return m.FindVisitByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockBillingRepo) FindPackageByID(ctx context.Context, id string) (*models.TreatmentPackage, error) {
	if m.FindPackageByIDFn != nil {
		return m.FindPackageByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockBillingRepo) FindPatientPackageByID(ctx context.Context, id string) (*models.PatientPackage, error) {
	if m.FindPatientPackageByIDFn != nil {
		return m.FindPatientPackageByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockBillingRepo) CreatePatientPackage(ctx context.Context, pkg *models.PatientPackage) error {
	if m.CreatePatientPackageFn != nil {
		return m.CreatePatientPackageFn(ctx, pkg)
	}
	return nil
}

func (m *mockBillingRepo) UpdatePatientPackage(ctx context.Context, pkg *models.PatientPackage) error {
	if m.UpdatePatientPackageFn != nil {
		return m.UpdatePatientPackageFn(ctx, pkg)
	}
	return nil
}

func (m *mockBillingRepo) FindUnpaidBillsByPatient(ctx context.Context, patientID string) ([]models.Billing, error) {
	if m.FindUnpaidBillsByPatientFn != nil {
		return m.FindUnpaidBillsByPatientFn(ctx, patientID)
	}
	return nil, nil
}

func (m *mockBillingRepo) FindUnpaidBillsOlderThan(ctx context.Context, cutoff time.Time) ([]models.Billing, error) {
	if m.FindUnpaidBillsOlderThanFn != nil {
		return m.FindUnpaidBillsOlderThanFn(ctx, cutoff)
	}
	return nil, nil
}

func (m *mockBillingRepo) FindExpiredActivePackages(ctx context.Context, today time.Time) ([]models.PatientPackage, error) {
	if m.FindExpiredActivePkgsFn != nil {
		return m.FindExpiredActivePkgsFn(ctx, today)
	}
	return nil, nil
}

func (m *mockBillingRepo) RevenueInRange(ctx context.Context, from, to time.Time) (*repositories.RevenueStats, error) {
	if m.RevenueInRangeFn != nil {
		return m.RevenueInRangeFn(ctx, from, to)
	}
	return &repositories.RevenueStats{}, nil
}

var _ repositories.BillingRepository = (*mockBillingRepo)(nil)
