package repositories

import (
	"context"
	"errors"
	"time"

	"clinic-crm-server/internal/logger"
	"clinic-crm-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// liveStatuses are the appointment states that occupy a slot.
var liveStatuses = []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}

// AppointmentStats aggregates appointment counts over a date range.
type AppointmentStats struct {
	Total        int64 `json:"total"`
	Pending      int64 `json:"pending"`
	Confirmed    int64 `json:"confirmed"`
	Cancelled    int64 `json:"cancelled"`
	Completed    int64 `json:"completed"`
	ClinicVisits int64 `json:"clinicVisits"`
	HomeVisits   int64 `json:"homeVisits"`
	OnlineVisits int64 `json:"onlineVisits"`
}

// AppointmentRepository is the persistence surface the scheduling engine
// depends on. Create and UpdateSlot enforce the live-slot uniqueness
// invariant inside a transaction; everything else is plain CRUD.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	Update(ctx context.Context, appointment *models.Appointment) error
	UpdateSlot(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	IsSlotAvailable(ctx context.Context, doctorID string, date time.Time, timeOfDay string, excludeID string) (bool, error)
	FindLiveByDoctorAndDate(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error)
	FindLiveByDoctorInRange(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error)
	FindDueReminders(ctx context.Context, date time.Time) ([]models.Appointment, error)
	StatsInRange(ctx context.Context, from, to time.Time) (*AppointmentStats, error)
	SaveConsultation(ctx context.Context, consultation *models.OnlineConsultation) error
	FindConsultationByAppointment(ctx context.Context, appointmentID string) (*models.OnlineConsultation, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a gorm-backed AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// DateOnly normalizes a timestamp to its calendar date at midnight UTC,
// the canonical form for appointment_date comparisons.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *appointmentRepository) liveSlotQuery(tx *gorm.DB, doctorID string, date time.Time, timeOfDay string, excludeID string) *gorm.DB {
	q := tx.Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status IN ?",
			doctorID, DateOnly(date), timeOfDay, liveStatuses)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

// Create inserts the appointment after re-checking the slot under a row
// lock, so two concurrent bookings for the same (doctor, date, time)
// cannot both commit. Returns ErrSlotTaken when the slot is lost.
func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	appointment.AppointmentDate = DateOnly(appointment.AppointmentDate)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := r.liveSlotQuery(tx.Clauses(clause.Locking{Strength: "UPDATE"}), appointment.DoctorID,
			appointment.AppointmentDate, appointment.AppointmentTime, "").Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotTaken
		}
		return tx.Create(appointment).Error
	})
}

// Update saves status/flag changes. It must not be used to move an
// appointment to a different slot; that is UpdateSlot's job.
func (r *appointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	if appointment == nil || appointment.ID == "" {
		return errors.New("appointment has no id")
	}
	return r.db.WithContext(ctx).Save(appointment).Error
}

// UpdateSlot saves an appointment whose date/time changed, re-checking the
// target slot under lock with the appointment's own row excluded.
func (r *appointmentRepository) UpdateSlot(ctx context.Context, appointment *models.Appointment) error {
	if appointment == nil || appointment.ID == "" {
		return errors.New("appointment has no id")
	}
	appointment.AppointmentDate = DateOnly(appointment.AppointmentDate)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := r.liveSlotQuery(tx.Clauses(clause.Locking{Strength: "UPDATE"}), appointment.DoctorID,
			appointment.AppointmentDate, appointment.AppointmentTime, appointment.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotTaken
		}
		return tx.Save(appointment).Error
	})
}

func (r *appointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).Preload("Patient").Preload("Doctor").Preload("Consultation").
		First(&appointment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logger.Log.Error("appointment lookup failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &appointment, nil
}

// IsSlotAvailable reports whether no live appointment holds the exact
// (doctor, date, time) triple, other than the excluded one. Equality is
// exact; durations are not compared.
func (r *appointmentRepository) IsSlotAvailable(ctx context.Context, doctorID string, date time.Time, timeOfDay string, excludeID string) (bool, error) {
	var count int64
	err := r.liveSlotQuery(r.db.WithContext(ctx), doctorID, date, timeOfDay, excludeID).Count(&count).Error
	if err != nil {
		logger.Log.Error("slot availability check failed", zap.String("doctorID", doctorID), zap.Error(err))
		return false, err
	}
	return count == 0, nil
}

func (r *appointmentRepository) FindLiveByDoctorAndDate(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date = ? AND status IN ?", doctorID, DateOnly(date), liveStatuses).
		Order("appointment_time asc").
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) FindLiveByDoctorInRange(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).Preload("Patient").
		Where("doctor_id = ? AND appointment_date >= ? AND appointment_date <= ? AND status IN ?",
			doctorID, DateOnly(from), DateOnly(to), liveStatuses).
		Order("appointment_date asc, appointment_time asc").
		Find(&appointments).Error
	return appointments, err
}

// FindDueReminders returns confirmed, not-yet-reminded appointments on the
// given date, with patient and doctor preloaded for message rendering.
func (r *appointmentRepository) FindDueReminders(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).Preload("Patient").Preload("Doctor").
		Where("appointment_date = ? AND status = ? AND reminder_sent = ?",
			DateOnly(date), models.StatusConfirmed, false).
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) StatsInRange(ctx context.Context, from, to time.Time) (*AppointmentStats, error) {
	stats := &AppointmentStats{}
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Appointment{}).
			Where("appointment_date >= ? AND appointment_date <= ?", DateOnly(from), DateOnly(to))
	}
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Total, base()},
		{&stats.Pending, base().Where("status = ?", models.StatusPending)},
		{&stats.Confirmed, base().Where("status = ?", models.StatusConfirmed)},
		{&stats.Cancelled, base().Where("status = ?", models.StatusCancelled)},
		{&stats.Completed, base().Where("status = ?", models.StatusCompleted)},
		{&stats.ClinicVisits, base().Where("visit_type = ?", models.VisitClinic)},
		{&stats.HomeVisits, base().Where("visit_type = ?", models.VisitHome)},
		{&stats.OnlineVisits, base().Where("visit_type = ?", models.VisitOnline)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *appointmentRepository) SaveConsultation(ctx context.Context, consultation *models.OnlineConsultation) error {
	return r.db.WithContext(ctx).Save(consultation).Error
}

func (r *appointmentRepository) FindConsultationByAppointment(ctx context.Context, appointmentID string) (*models.OnlineConsultation, error) {
	var consultation models.OnlineConsultation
	err := r.db.WithContext(ctx).First(&consultation, "appointment_id = ?", appointmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &consultation, nil
}

var _ AppointmentRepository = (*appointmentRepository)(nil)
