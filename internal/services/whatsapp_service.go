package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinic-crm-server/internal/config"
	"clinic-crm-server/internal/logger"
	"clinic-crm-server/internal/models"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WhatsAppService sends WhatsApp messages through Twilio and records every
// attempt as a WhatsAppMessage audit row. Missing credentials disable
// sends; callers see the same false they would on a delivery failure.
type WhatsAppService struct {
	client     *twilio.RestClient
	fromNumber string
	clinicName string
	db         *gorm.DB
}

// NewWhatsAppService builds the service. When the Twilio credentials are
// not configured the client stays nil and the service runs disabled.
func NewWhatsAppService(cfg config.TwilioConfig, clinicName string, db *gorm.DB) *WhatsAppService {
	s := &WhatsAppService{
		fromNumber: cfg.WhatsAppNumber,
		clinicName: clinicName,
		db:         db,
	}
	if cfg.AccountSID != "" && cfg.AuthToken != "" {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
	} else {
		logger.Log.Warn("Twilio credentials not configured, WhatsApp service disabled")
	}
	return s
}

// SendMessage sends a free-form WhatsApp message and logs the outcome.
func (s *WhatsAppService) SendMessage(ctx context.Context, toNumber, messageText, messageType, patientID string) bool {
	record := &models.WhatsAppMessage{
		PatientID:   patientID,
		PhoneNumber: strings.TrimPrefix(toNumber, "whatsapp:"),
		MessageType: messageType,
		MessageText: messageText,
		Status:      models.WhatsAppFailed,
	}

	if s.client == nil {
		logger.Log.Error("WhatsApp service not configured")
		s.log(ctx, record)
		return false
	}

	if !strings.HasPrefix(toNumber, "whatsapp:") {
		toNumber = "whatsapp:" + toNumber
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.fromNumber)
	params.SetBody(messageText)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		logger.Log.Error("failed to send WhatsApp message",
			zap.String("to", record.PhoneNumber), zap.Error(err))
		s.log(ctx, record)
		return false
	}

	now := time.Now().UTC()
	record.Status = models.WhatsAppSent
	record.SentAt = &now
	if resp.Sid != nil {
		record.TwilioSID = *resp.Sid
	}
	s.log(ctx, record)

	logger.SLog.Infof("WhatsApp message sent, SID: %s", record.TwilioSID)
	return true
}

// SendAppointmentConfirmation sends the booking/confirmation template.
func (s *WhatsAppService) SendAppointmentConfirmation(ctx context.Context, appointment *models.Appointment) bool {
	patient := appointment.Patient
	message := fmt.Sprintf(
		"Appointment Confirmed\n\nHello %s,\n\nYour appointment has been confirmed:\nDate: %s\nTime: %s\nDoctor: %s\nType: %s\n\nPlease arrive 15 minutes early.\n\nThank you!\n%s",
		patient.FullName(),
		appointment.AppointmentDate.Format("January 2, 2006"),
		appointment.AppointmentTime,
		appointment.Doctor.FullName(),
		appointment.VisitType,
		s.clinicName,
	)
	return s.SendMessage(ctx, patient.PreferredWhatsApp(), message, "appointment_confirmation", patient.ID)
}

// SendAppointmentReminder sends the next-day reminder template.
func (s *WhatsAppService) SendAppointmentReminder(ctx context.Context, appointment *models.Appointment) bool {
	patient := appointment.Patient
	message := fmt.Sprintf(
		"Appointment Reminder\n\nHello %s,\n\nYou have an appointment scheduled:\nDate: %s\nTime: %s\nDoctor: %s\nType: %s\n\nFor any changes, please contact us.\n\nThank you!\n%s",
		patient.FullName(),
		appointment.AppointmentDate.Format("January 2, 2006"),
		appointment.AppointmentTime,
		appointment.Doctor.FullName(),
		appointment.VisitType,
		s.clinicName,
	)
	return s.SendMessage(ctx, patient.PreferredWhatsApp(), message, "appointment_reminder", patient.ID)
}

// SendBillNotification sends the bill summary to the visit's patient.
func (s *WhatsAppService) SendBillNotification(ctx context.Context, bill *models.Billing, patient *models.Patient) bool {
	message := fmt.Sprintf(
		"Bill Generated\n\nHello %s,\n\nBill Number: %s\nTotal Amount: %.2f\nStatus: %s\n\nPlease settle at your earliest convenience.\n\n%s",
		patient.FullName(), bill.BillNumber, bill.TotalAmount, bill.PaymentStatus, s.clinicName,
	)
	return s.SendMessage(ctx, patient.PreferredWhatsApp(), message, "bill", patient.ID)
}

// SendPaymentReminder nudges a patient about an outstanding balance.
func (s *WhatsAppService) SendPaymentReminder(ctx context.Context, bill *models.Billing, patient *models.Patient, outstanding float64) bool {
	message := fmt.Sprintf(
		"Payment Reminder\n\nHello %s,\n\nBill %s has an outstanding balance of %.2f.\n\nPlease settle at your earliest convenience.\n\n%s",
		patient.FullName(), bill.BillNumber, outstanding, s.clinicName,
	)
	return s.SendMessage(ctx, patient.PreferredWhatsApp(), message, "payment_reminder", patient.ID)
}

func (s *WhatsAppService) log(ctx context.Context, record *models.WhatsAppMessage) {
	if s.db == nil {
		return
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		logger.Log.Error("failed to log WhatsApp message", zap.Error(err))
	}
}

var _ Notifier = (*WhatsAppService)(nil)
