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

	"go.uber.org/zap"
)

// CreateAppointmentInput carries a booking request into the engine.
type CreateAppointmentInput struct {
	PatientID       string
	DoctorID        string
	Date            time.Time
	Time            string // "HH:MM"
	DurationMinutes int
	VisitType       models.VisitType
	Reason          string
	IsEmergency     bool
	CreatedByID     string
}

// ScheduleEntry is one row of a doctor's day schedule.
type ScheduleEntry struct {
	ID        string                   `json:"id"`
	Time      string                   `json:"time"`
	Patient   string                   `json:"patient"`
	VisitType models.VisitType         `json:"type"`
	Status    models.AppointmentStatus `json:"status"`
	Reason    string                   `json:"reason"`
}

// AppointmentService is the scheduling engine: it owns the appointment
// state machine and consults the slot policy and conflict checks before
// any write. Notification sends never roll back appointment state.
type AppointmentService interface {
	Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error)
	Confirm(ctx context.Context, id, confirmedByID string) (*models.Appointment, error)
	Cancel(ctx context.Context, id, reason, cancelledByID string) error
	Complete(ctx context.Context, id string) error
	MarkNoShow(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id string, newDate time.Time, newTime string, rescheduledByID string) (*models.Appointment, error)
	AvailableSlots(ctx context.Context, doctorID string, date time.Time, durationMinutes int) ([]string, error)
	SendDueReminders(ctx context.Context, today time.Time) (int, error)
	DoctorSchedule(ctx context.Context, doctorID string, from, to time.Time) (map[string][]ScheduleEntry, error)
	Statistics(ctx context.Context, from, to time.Time) (*repositories.AppointmentStats, error)
}

type appointmentService struct {
	appointments     repositories.AppointmentRepository
	users            repositories.UserRepository
	patients         repositories.PatientRepository
	notifier         Notifier
	policy           SlotPolicy
	meetingURLPrefix string
}

// NewAppointmentService wires the engine with its collaborators. All
// dependencies are explicit; there is no package-level state.
func NewAppointmentService(
	appointments repositories.AppointmentRepository,
	users repositories.UserRepository,
	patients repositories.PatientRepository,
	notifier Notifier,
	policy SlotPolicy,
	meetingURLPrefix string,
) AppointmentService {
	return &appointmentService{
		appointments:     appointments,
		users:            users,
		patients:         patients,
		notifier:         notifier,
		policy:           policy,
		meetingURLPrefix: meetingURLPrefix,
	}
}

// validateSlot checks the policy side of a slot: parseable time, open day,
// inside working hours.
func (s *appointmentService) validateSlot(date time.Time, timeOfDay string) error {
	if _, err := ParseClock(timeOfDay); err != nil {
		return validationErrorf("invalid appointment time %q, expected HH:MM", timeOfDay)
	}
	if !s.policy.IsWorkingDay(date) {
		return validationErrorf("%s is not a working day", date.Format("2006-01-02"))
	}
	if !s.policy.IsWorkingTime(date, timeOfDay) {
		return validationErrorf("%s is outside working hours (%s-%s)",
			timeOfDay, FormatClock(s.policy.StartMinutes), FormatClock(s.policy.EndMinutes))
	}
	return nil
}

func (s *appointmentService) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	if err := s.validateSlot(input.Date, input.Time); err != nil {
		return nil, err
	}

	patient, err := s.patients.FindActive(ctx, input.PatientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundErrorf("patient not found or inactive")
		}
		return nil, err
	}
	if _, err := s.users.FindActiveDoctor(ctx, input.DoctorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundErrorf("doctor not found or not schedulable")
		}
		return nil, err
	}

	available, err := s.appointments.IsSlotAvailable(ctx, input.DoctorID, input.Date, input.Time, "")
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, conflictErrorf("the selected time slot is not available")
	}

	duration := input.DurationMinutes
	if duration <= 0 {
		duration = s.policy.SlotMinutes
	}
	appointment := &models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        input.DoctorID,
		AppointmentDate: repositories.DateOnly(input.Date),
		AppointmentTime: input.Time,
		DurationMinutes: duration,
		VisitType:       input.VisitType,
		Status:          models.StatusPending,
		Reason:          input.Reason,
		IsEmergency:     input.IsEmergency || input.VisitType == models.VisitEmergency,
		CreatedByID:     input.CreatedByID,
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		if errors.Is(err, repositories.ErrSlotTaken) {
			// Lost the slot to a concurrent booking between check and write.
			return nil, conflictErrorf("the selected time slot is not available")
		}
		return nil, err
	}

	appointment.Patient = *patient
	if !s.notifier.SendAppointmentConfirmation(ctx, appointment) {
		logger.Log.Warn("booking confirmation message not sent",
			zap.String("appointmentID", appointment.ID))
	}

	logger.SLog.Infof("appointment created: %s (doctor %s, %s %s)",
		appointment.ID, appointment.DoctorID,
		appointment.AppointmentDate.Format("2006-01-02"), appointment.AppointmentTime)
	return appointment, nil
}

func (s *appointmentService) Confirm(ctx context.Context, id, confirmedByID string) (*models.Appointment, error) {
	appointment, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.StatusPending {
		return nil, conflictErrorf("appointment is not in pending status")
	}

	now := time.Now().UTC()
	appointment.Status = models.StatusConfirmed
	appointment.ConfirmedAt = &now

	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, err
	}

	if appointment.VisitType == models.VisitOnline {
		if err := s.createOnlineConsultation(ctx, appointment); err != nil {
			// The appointment stays confirmed; the meeting can be recreated.
			logger.Log.Error("online consultation creation failed",
				zap.String("appointmentID", appointment.ID), zap.Error(err))
		}
	}

	if !s.notifier.SendAppointmentConfirmation(ctx, appointment) {
		logger.Log.Warn("confirmation message not sent", zap.String("appointmentID", appointment.ID))
	}

	logger.SLog.Infof("appointment confirmed: %s (by %s)", appointment.ID, confirmedByID)
	return appointment, nil
}

func (s *appointmentService) Cancel(ctx context.Context, id, reason, cancelledByID string) error {
	appointment, err := s.findAppointment(ctx, id)
	if err != nil {
		return err
	}
	if appointment.Status == models.StatusCompleted {
		return conflictErrorf("cannot cancel a completed appointment")
	}

	now := time.Now().UTC()
	appointment.Status = models.StatusCancelled
	appointment.CancelledAt = &now
	appointment.CancellationReason = reason

	if err := s.appointments.Update(ctx, appointment); err != nil {
		return err
	}
	s.setConsultationStatus(ctx, appointment.ID, models.ConsultationCancelled)

	logger.SLog.Infof("appointment cancelled: %s (by %s)", appointment.ID, cancelledByID)
	return nil
}

func (s *appointmentService) Complete(ctx context.Context, id string) error {
	appointment, err := s.findAppointment(ctx, id)
	if err != nil {
		return err
	}
	if appointment.Status != models.StatusConfirmed {
		return conflictErrorf("only confirmed appointments can be completed")
	}

	appointment.Status = models.StatusCompleted
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return err
	}
	s.setConsultationStatus(ctx, appointment.ID, models.ConsultationCompleted)

	logger.SLog.Infof("appointment completed: %s", appointment.ID)
	return nil
}

func (s *appointmentService) MarkNoShow(ctx context.Context, id string) error {
	appointment, err := s.findAppointment(ctx, id)
	if err != nil {
		return err
	}
	if appointment.Status != models.StatusConfirmed {
		return conflictErrorf("only confirmed appointments can be marked no-show")
	}

	appointment.Status = models.StatusNoShow
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return err
	}

	logger.SLog.Infof("appointment marked no-show: %s", appointment.ID)
	return nil
}

func (s *appointmentService) Reschedule(ctx context.Context, id string, newDate time.Time, newTime string, rescheduledByID string) (*models.Appointment, error) {
	appointment, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == models.StatusCompleted {
		return nil, conflictErrorf("cannot reschedule a completed appointment")
	}
	if err := s.validateSlot(newDate, newTime); err != nil {
		return nil, err
	}

	// Exclude the appointment's own booking so moving within the same slot
	// or swapping back does not conflict with itself.
	available, err := s.appointments.IsSlotAvailable(ctx, appointment.DoctorID, newDate, newTime, appointment.ID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, conflictErrorf("the new time slot is not available")
	}

	oldDate, oldTime := appointment.AppointmentDate, appointment.AppointmentTime
	appointment.AppointmentDate = repositories.DateOnly(newDate)
	appointment.AppointmentTime = newTime
	appointment.Status = models.StatusConfirmed

	if err := s.appointments.UpdateSlot(ctx, appointment); err != nil {
		if errors.Is(err, repositories.ErrSlotTaken) {
			return nil, conflictErrorf("the new time slot is not available")
		}
		return nil, err
	}
	s.setConsultationStatus(ctx, appointment.ID, models.ConsultationScheduled)

	if !s.notifier.SendAppointmentConfirmation(ctx, appointment) {
		logger.Log.Warn("reschedule confirmation message not sent", zap.String("appointmentID", appointment.ID))
	}

	logger.SLog.Infof("appointment rescheduled: %s from %s %s to %s %s (by %s)",
		appointment.ID, oldDate.Format("2006-01-02"), oldTime,
		appointment.AppointmentDate.Format("2006-01-02"), appointment.AppointmentTime, rescheduledByID)
	return appointment, nil
}

// AvailableSlots generates the bookable slot starts for a doctor on a
// date: every policy slot whose exact time is not already held by a live
// appointment. Closed days yield no slots.
func (s *appointmentService) AvailableSlots(ctx context.Context, doctorID string, date time.Time, durationMinutes int) ([]string, error) {
	if !s.policy.IsWorkingDay(date) {
		return []string{}, nil
	}

	existing, err := s.appointments.FindLiveByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, a := range existing {
		taken[a.AppointmentTime] = true
	}

	slots := []string{}
	for _, slot := range s.policy.Slots(durationMinutes) {
		if !taken[slot] {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// SendDueReminders dispatches reminders for tomorrow's confirmed
// appointments. The reminder flag is only set on an acknowledged send, so
// a failed delivery is retried by the next sweep and the sweep as a whole
// is idempotent.
func (s *appointmentService) SendDueReminders(ctx context.Context, today time.Time) (int, error) {
	tomorrow := repositories.DateOnly(today).AddDate(0, 0, 1)
	due, err := s.appointments.FindDueReminders(ctx, tomorrow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		appointment := &due[i]
		if !s.notifier.SendAppointmentReminder(ctx, appointment) {
			logger.Log.Warn("reminder not sent", zap.String("appointmentID", appointment.ID))
			continue
		}
		appointment.ReminderSent = true
		if err := s.appointments.Update(ctx, appointment); err != nil {
			logger.Log.Error("failed to flag reminder as sent",
				zap.String("appointmentID", appointment.ID), zap.Error(err))
			continue
		}
		sent++
	}

	logger.SLog.Infof("sent %d appointment reminders for %s", sent, tomorrow.Format("2006-01-02"))
	return sent, nil
}

func (s *appointmentService) DoctorSchedule(ctx context.Context, doctorID string, from, to time.Time) (map[string][]ScheduleEntry, error) {
	appointments, err := s.appointments.FindLiveByDoctorInRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}

	schedule := make(map[string][]ScheduleEntry)
	for _, a := range appointments {
		day := a.AppointmentDate.Format("2006-01-02")
		schedule[day] = append(schedule[day], ScheduleEntry{
			ID:        a.ID,
			Time:      a.AppointmentTime,
			Patient:   a.Patient.FullName(),
			VisitType: a.VisitType,
			Status:    a.Status,
			Reason:    a.Reason,
		})
	}
	return schedule, nil
}

func (s *appointmentService) Statistics(ctx context.Context, from, to time.Time) (*repositories.AppointmentStats, error) {
	if from.IsZero() {
		from = time.Now().UTC().AddDate(0, 0, -30)
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	return s.appointments.StatsInRange(ctx, from, to)
}

func (s *appointmentService) findAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundErrorf("appointment not found")
		}
		return nil, err
	}
	return appointment, nil
}

func (s *appointmentService) createOnlineConsultation(ctx context.Context, appointment *models.Appointment) error {
	meetingID := fmt.Sprintf("meeting_%s_%s",
		shortID(appointment.ID), time.Now().UTC().Format("200601021504"))
	consultation := &models.OnlineConsultation{
		AppointmentID:   appointment.ID,
		PatientID:       appointment.PatientID,
		DoctorID:        appointment.DoctorID,
		MeetingID:       meetingID,
		MeetingURL:      s.meetingURLPrefix + meetingID,
		MeetingPassword: "clinic-" + shortID(appointment.ID),
		Status:          models.ConsultationScheduled,
	}
	return s.appointments.SaveConsultation(ctx, consultation)
}

// setConsultationStatus mirrors an appointment transition onto its online
// consultation, if one exists. Absence is not an error.
func (s *appointmentService) setConsultationStatus(ctx context.Context, appointmentID string, status models.ConsultationStatus) {
	consultation, err := s.appointments.FindConsultationByAppointment(ctx, appointmentID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Error("consultation lookup failed",
				zap.String("appointmentID", appointmentID), zap.Error(err))
		}
		return
	}
	consultation.Status = status
	if err := s.appointments.SaveConsultation(ctx, consultation); err != nil {
		logger.Log.Error("consultation update failed",
			zap.String("appointmentID", appointmentID), zap.Error(err))
	}
}

func shortID(id string) string {
	return strings.SplitN(id, "-", 2)[0]
}

var _ AppointmentService = (*appointmentService)(nil)
