package repositories

import (
	"context"
	"errors"

	"clinic-crm-server/internal/models"

	"gorm.io/gorm"
)

// PatientRepository is the persistence surface for patient records.
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	Update(ctx context.Context, patient *models.Patient) error
	FindByID(ctx context.Context, id string) (*models.Patient, error)
	FindActive(ctx context.Context, id string) (*models.Patient, error)
	FindByPhone(ctx context.Context, phone string) (*models.Patient, error)
	Search(ctx context.Context, term string, limit int) ([]models.Patient, error)
}

type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a gorm-backed PatientRepository.
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *patientRepository) Update(ctx context.Context, patient *models.Patient) error {
	if patient == nil || patient.ID == "" {
		return errors.New("patient has no id")
	}
	return r.db.WithContext(ctx).Save(patient).Error
}

func (r *patientRepository) FindByID(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// FindActive returns the patient only when the record is active.
func (r *patientRepository) FindActive(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// FindByPhone matches either the primary phone or the WhatsApp number;
// used to attach inbound chatbot messages to a patient.
func (r *patientRepository) FindByPhone(ctx context.Context, phone string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Where("phone = ? OR whats_app_number = ?", phone, phone).
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) Search(ctx context.Context, term string, limit int) ([]models.Patient, error) {
	if limit <= 0 {
		limit = 50
	}
	var patients []models.Patient
	like := "%" + term + "%"
	err := r.db.WithContext(ctx).
		Where("first_name LIKE ? OR last_name LIKE ? OR phone LIKE ? OR patient_number LIKE ?", like, like, like, like).
		Order("last_name asc, first_name asc").
		Limit(limit).
		Find(&patients).Error
	return patients, err
}

var _ PatientRepository = (*patientRepository)(nil)
