package services

import (
	"context"

	"clinic-crm-server/internal/models"
)

// Notifier dispatches patient-facing messages. Implementations report
// delivery with a plain bool: the scheduling engine treats sends as
// fire-and-forget except for reminders, where the reminder_sent flag is
// only set on an acknowledged success.
type Notifier interface {
	SendAppointmentConfirmation(ctx context.Context, appointment *models.Appointment) bool
	SendAppointmentReminder(ctx context.Context, appointment *models.Appointment) bool
}
