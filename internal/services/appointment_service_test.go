package services

import (
	"context"
	"testing"
	"time"

	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"

	"github.com/stretchr/testify/assert"
)

var (
	// 2025-03-10 is a Monday, 2025-03-09 a Sunday.
	monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	sunday = time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
)

func activePatient() *models.Patient {
	p := &models.Patient{
		FirstName: "Asha",
		LastName:  "Verma",
		Phone:     "+911234567890",
		IsActive:  true,
	}
	p.ID = "patient-1"
	return p
}

func activeDoctor() *models.User {
	d := &models.User{
		FirstName: "Meera",
		LastName:  "Rao",
		Role:      models.RoleDoctor,
		IsActive:  true,
	}
	d.ID = "doctor-7"
	return d
}

func newTestService(appointments *mockAppointmentRepo, notifier Notifier) AppointmentService {
	users := &mockUserRepo{
		FindActiveDoctorFn: func(ctx context.Context, id string) (*models.User, error) {
			if id == "doctor-7" {
				return activeDoctor(), nil
			}
			return nil, repositories.ErrNotFound
		},
	}
	patients := &mockPatientRepo{
		FindActiveFn: func(ctx context.Context, id string) (*models.Patient, error) {
			if id == "patient-1" {
				return activePatient(), nil
			}
			return nil, repositories.ErrNotFound
		},
	}
	return NewAppointmentService(appointments, users, patients, notifier,
		DefaultSlotPolicy(), "https://meet.clinic.test/room/")
}

func bookingInput(date time.Time, timeOfDay string) CreateAppointmentInput {
	return CreateAppointmentInput{
		PatientID: "patient-1",
		DoctorID:  "doctor-7",
		Date:      date,
		Time:      timeOfDay,
		VisitType: models.VisitClinic,
		Reason:    "back pain",
	}
}

func TestCreateAppointment(t *testing.T) {
	var created *models.Appointment
	repo := &mockAppointmentRepo{
		CreateFn: func(ctx context.Context, a *models.Appointment) error {
			a.ID = "apt-1"
			created = a
			return nil
		},
	}
	notifier := newMockNotifier()
	svc := newTestService(repo, notifier)

	appointment, err := svc.Create(context.Background(), bookingInput(monday, "10:00"))
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, appointment.Status)
	assert.Equal(t, monday, appointment.AppointmentDate)
	assert.Equal(t, "10:00", appointment.AppointmentTime)
	assert.Equal(t, 30, appointment.DurationMinutes)
	assert.NotNil(t, created)
	assert.Equal(t, []string{"apt-1"}, notifier.Confirmations)
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	repo := &mockAppointmentRepo{
		IsSlotAvailableFn: func(ctx context.Context, doctorID string, date time.Time, timeOfDay, excludeID string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	_, err := svc.Create(context.Background(), bookingInput(monday, "10:00"))
	assert.True(t, IsConflict(err))
}

func TestCreateAppointmentLosesSlotRace(t *testing.T) {
	// The precheck passes but a concurrent booking wins the row lock.
	repo := &mockAppointmentRepo{
		CreateFn: func(ctx context.Context, a *models.Appointment) error {
			return repositories.ErrSlotTaken
		},
	}
	svc := newTestService(repo, newMockNotifier())

	_, err := svc.Create(context.Background(), bookingInput(monday, "10:00"))
	assert.True(t, IsConflict(err))
}

func TestCreateAppointmentValidation(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		time string
	}{
		{"sunday", sunday, "10:00"},
		{"before opening", monday, "08:30"},
		{"after closing", monday, "18:30"},
		{"malformed time", monday, "10am"},
		{"single digit hour", monday, "9:00"},
	}
	svc := newTestService(&mockAppointmentRepo{}, newMockNotifier())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), bookingInput(tt.date, tt.time))
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestCreateAppointmentUnknownPatient(t *testing.T) {
	svc := newTestService(&mockAppointmentRepo{}, newMockNotifier())

	input := bookingInput(monday, "10:00")
	input.PatientID = "missing"
	_, err := svc.Create(context.Background(), input)
	assert.True(t, IsNotFound(err))
}

func TestCreateAppointmentNotifierFailureDoesNotFail(t *testing.T) {
	repo := &mockAppointmentRepo{
		CreateFn: func(ctx context.Context, a *models.Appointment) error {
			a.ID = "apt-1"
			return nil
		},
	}
	notifier := newMockNotifier()
	notifier.ConfirmationResult = false
	svc := newTestService(repo, notifier)

	appointment, err := svc.Create(context.Background(), bookingInput(monday, "10:00"))
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, appointment.Status)
}

func TestConfirmAppointment(t *testing.T) {
	stored := &models.Appointment{
		PatientID: "patient-1",
		DoctorID:  "doctor-7",
		Status:    models.StatusPending,
		VisitType: models.VisitClinic,
	}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	appointment, err := svc.Confirm(context.Background(), "apt-1", "staff-1")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, appointment.Status)
	assert.NotNil(t, appointment.ConfirmedAt)
}

func TestConfirmRequiresPending(t *testing.T) {
	stored := &models.Appointment{Status: models.StatusConfirmed}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	_, err := svc.Confirm(context.Background(), "apt-1", "staff-1")
	assert.True(t, IsConflict(err))
}

func TestConfirmOnlineCreatesConsultation(t *testing.T) {
	stored := &models.Appointment{
		PatientID: "patient-1",
		DoctorID:  "doctor-7",
		Status:    models.StatusPending,
		VisitType: models.VisitOnline,
	}
	stored.ID = "apt-1"
	var saved *models.OnlineConsultation
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
		SaveConsultationFn: func(ctx context.Context, c *models.OnlineConsultation) error {
			saved = c
			return nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	_, err := svc.Confirm(context.Background(), "apt-1", "staff-1")
	assert.NoError(t, err)
	assert.NotNil(t, saved)
	assert.Equal(t, "apt-1", saved.AppointmentID)
	assert.Equal(t, models.ConsultationScheduled, saved.Status)
	assert.Contains(t, saved.MeetingURL, "https://meet.clinic.test/room/")
}

func TestCancelAppointment(t *testing.T) {
	stored := &models.Appointment{Status: models.StatusConfirmed}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	err := svc.Cancel(context.Background(), "apt-1", "patient request", "staff-1")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, "patient request", stored.CancellationReason)
	assert.NotNil(t, stored.CancelledAt)
}

func TestCancelCompletedRejected(t *testing.T) {
	stored := &models.Appointment{Status: models.StatusCompleted}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	err := svc.Cancel(context.Background(), "apt-1", "", "staff-1")
	assert.True(t, IsConflict(err))
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	stored := &models.Appointment{Status: models.StatusPending}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	assert.True(t, IsConflict(svc.Complete(context.Background(), "apt-1")))

	stored.Status = models.StatusConfirmed
	assert.NoError(t, svc.Complete(context.Background(), "apt-1"))
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestMarkNoShowRequiresConfirmed(t *testing.T) {
	stored := &models.Appointment{Status: models.StatusPending}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	assert.True(t, IsConflict(svc.MarkNoShow(context.Background(), "apt-1")))

	stored.Status = models.StatusConfirmed
	assert.NoError(t, svc.MarkNoShow(context.Background(), "apt-1"))
	assert.Equal(t, models.StatusNoShow, stored.Status)
}

func TestRescheduleMovesSlotAndConfirms(t *testing.T) {
	stored := &models.Appointment{
		DoctorID:        "doctor-7",
		AppointmentDate: monday,
		AppointmentTime: "10:00",
		Status:          models.StatusPending,
		ReminderSent:    true,
	}
	stored.ID = "apt-1"

	var checkedExclude string
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
		IsSlotAvailableFn: func(ctx context.Context, doctorID string, date time.Time, timeOfDay, excludeID string) (bool, error) {
			checkedExclude = excludeID
			return true, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	tuesday := monday.AddDate(0, 0, 1)
	appointment, err := svc.Reschedule(context.Background(), "apt-1", tuesday, "11:30", "staff-1")
	assert.NoError(t, err)
	assert.Equal(t, tuesday, appointment.AppointmentDate)
	assert.Equal(t, "11:30", appointment.AppointmentTime)
	assert.Equal(t, models.StatusConfirmed, appointment.Status)
	// The availability check must ignore the appointment's own booking.
	assert.Equal(t, "apt-1", checkedExclude)
	// An already-sent reminder stays sent.
	assert.True(t, appointment.ReminderSent)
}

func TestRescheduleCompletedRejected(t *testing.T) {
	stored := &models.Appointment{Status: models.StatusCompleted}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	_, err := svc.Reschedule(context.Background(), "apt-1", monday, "11:00", "staff-1")
	assert.True(t, IsConflict(err))
}

func TestRescheduleTargetTaken(t *testing.T) {
	stored := &models.Appointment{
		DoctorID:        "doctor-7",
		AppointmentDate: monday,
		AppointmentTime: "10:00",
		Status:          models.StatusConfirmed,
	}
	stored.ID = "apt-1"
	repo := &mockAppointmentRepo{
		FindByIDFn: func(ctx context.Context, id string) (*models.Appointment, error) {
			return stored, nil
		},
		IsSlotAvailableFn: func(ctx context.Context, doctorID string, date time.Time, timeOfDay, excludeID string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	_, err := svc.Reschedule(context.Background(), "apt-1", monday, "11:00", "staff-1")
	assert.True(t, IsConflict(err))
}

func TestAvailableSlots(t *testing.T) {
	taken := models.Appointment{
		DoctorID:        "doctor-7",
		AppointmentDate: monday,
		AppointmentTime: "10:00",
		Status:          models.StatusConfirmed,
	}
	repo := &mockAppointmentRepo{
		FindLiveByDoctorAndDateFn: func(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error) {
			return []models.Appointment{taken}, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	slots, err := svc.AvailableSlots(context.Background(), "doctor-7", monday, 30)
	assert.NoError(t, err)
	// 09:00 through 17:30 is 18 half-hour starts, minus the taken 10:00.
	assert.Len(t, slots, 17)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "17:30", slots[len(slots)-1])
	assert.NotContains(t, slots, "10:00")
	assert.Contains(t, slots, "09:30")
	assert.Contains(t, slots, "10:30")
}

func TestAvailableSlotsClosedDay(t *testing.T) {
	svc := newTestService(&mockAppointmentRepo{}, newMockNotifier())

	slots, err := svc.AvailableSlots(context.Background(), "doctor-7", sunday, 30)
	assert.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSendDueReminders(t *testing.T) {
	first := models.Appointment{Status: models.StatusConfirmed}
	first.ID = "apt-1"
	second := models.Appointment{Status: models.StatusConfirmed}
	second.ID = "apt-2"

	var queriedDate time.Time
	updated := map[string]bool{}
	repo := &mockAppointmentRepo{
		FindDueRemindersFn: func(ctx context.Context, date time.Time) ([]models.Appointment, error) {
			queriedDate = date
			return []models.Appointment{first, second}, nil
		},
		UpdateFn: func(ctx context.Context, a *models.Appointment) error {
			updated[a.ID] = a.ReminderSent
			return nil
		},
	}
	notifier := newMockNotifier()
	svc := newTestService(repo, notifier)

	sent, err := svc.SendDueReminders(context.Background(), monday)
	assert.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, monday.AddDate(0, 0, 1), queriedDate)
	assert.True(t, updated["apt-1"])
	assert.True(t, updated["apt-2"])
}

func TestSendDueRemindersFlagOnlyOnSuccess(t *testing.T) {
	due := models.Appointment{Status: models.StatusConfirmed}
	due.ID = "apt-1"

	updateCalls := 0
	repo := &mockAppointmentRepo{
		FindDueRemindersFn: func(ctx context.Context, date time.Time) ([]models.Appointment, error) {
			return []models.Appointment{due}, nil
		},
		UpdateFn: func(ctx context.Context, a *models.Appointment) error {
			updateCalls++
			return nil
		},
	}
	notifier := newMockNotifier()
	notifier.ReminderResult = false
	svc := newTestService(repo, notifier)

	sent, err := svc.SendDueReminders(context.Background(), monday)
	assert.NoError(t, err)
	// Failed delivery leaves the flag untouched so the next sweep retries.
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, updateCalls)
}

func TestDoctorSchedule(t *testing.T) {
	first := models.Appointment{
		AppointmentDate: monday,
		AppointmentTime: "09:30",
		VisitType:       models.VisitClinic,
		Status:          models.StatusConfirmed,
		Patient:         *activePatient(),
	}
	first.ID = "apt-1"
	second := models.Appointment{
		AppointmentDate: monday.AddDate(0, 0, 1),
		AppointmentTime: "11:00",
		VisitType:       models.VisitOnline,
		Status:          models.StatusPending,
		Patient:         *activePatient(),
	}
	second.ID = "apt-2"

	repo := &mockAppointmentRepo{
		FindLiveByDoctorInRangeFn: func(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error) {
			return []models.Appointment{first, second}, nil
		},
	}
	svc := newTestService(repo, newMockNotifier())

	schedule, err := svc.DoctorSchedule(context.Background(), "doctor-7", monday, monday.AddDate(0, 0, 6))
	assert.NoError(t, err)
	assert.Len(t, schedule, 2)
	assert.Len(t, schedule["2025-03-10"], 1)
	assert.Equal(t, "09:30", schedule["2025-03-10"][0].Time)
	assert.Equal(t, "Asha Verma", schedule["2025-03-10"][0].Patient)
	assert.Len(t, schedule["2025-03-11"], 1)
}
