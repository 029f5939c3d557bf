package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"clinic-crm-server/internal/config"
	"clinic-crm-server/internal/logger"
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChatbotService answers inbound WhatsApp messages. Intents are detected
// with keyword/regex matching; anything unmatched falls back to an LLM
// chat completion. Every turn is persisted on a phone-keyed conversation.
type ChatbotService struct {
	db       *gorm.DB
	patients repositories.PatientRepository
	llm      *openai.Client
	model    string
	clinic   config.ClinicConfig
}

// NewChatbotService builds the service. A missing API key leaves the LLM
// client nil; intent handlers keep working and the fallback degrades to a
// canned reply.
func NewChatbotService(db *gorm.DB, patients repositories.PatientRepository, cfg config.OpenAIConfig, clinic config.ClinicConfig) *ChatbotService {
	s := &ChatbotService{
		db:       db,
		patients: patients,
		model:    cfg.Model,
		clinic:   clinic,
	}
	if cfg.APIKey != "" {
		s.llm = openai.NewClient(cfg.APIKey)
	} else {
		logger.Log.Warn("OpenAI API key not configured, chatbot fallback disabled")
	}
	return s
}

// Intent patterns are checked in order; the more specific phrases come
// first so "cancel my appointment" is not swallowed by the generic
// booking keywords.
var intentPatterns = []struct {
	name     string
	keywords []string
}{
	{"cancel_appointment", []string{"cancel appointment", "cancel my appointment", "reschedule"}},
	{"check_appointment", []string{"check appointment", "my appointment", "appointment status", "when is my appointment"}},
	{"book_appointment", []string{"book appointment", "schedule appointment", "make appointment", "book", "appointment", "schedule", "visit"}},
	{"package_inquiry", []string{"treatment package", "package", "packages", "pricing", "cost", "price", "how much"}},
	{"clinic_info", []string{"address", "location", "timing", "hours", "contact", "phone number", "where are you"}},
	{"greeting", []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "namaste"}},
	{"help", []string{"help", "what can you do", "options", "menu"}},
}

var (
	datePattern    = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	dayWordPattern = regexp.MustCompile(`\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	timePattern    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
)

// AnalyzeMessage extracts the intent and any date/time/visit-type entities
// from a message. The first matching intent wins, in declaration order.
func AnalyzeMessage(messageText string) (string, map[string]string) {
	lower := strings.ToLower(messageText)
	entities := map[string]string{}

	if m := datePattern.FindString(lower); m != "" {
		entities["date"] = m
	} else if m := dayWordPattern.FindString(lower); m != "" {
		entities["date"] = m
	}
	if m := timePattern.FindString(lower); m != "" {
		entities["time"] = m
	}

	switch {
	case strings.Contains(lower, "home"):
		entities["visit_type"] = "home"
	case strings.Contains(lower, "online"), strings.Contains(lower, "video"), strings.Contains(lower, "virtual"):
		entities["visit_type"] = "online"
	default:
		entities["visit_type"] = "clinic"
	}

	for _, p := range intentPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.name, entities
			}
		}
	}
	return "unknown", entities
}

// ProcessMessage handles one inbound message end to end and returns the
// reply text to send back.
func (s *ChatbotService) ProcessMessage(ctx context.Context, phoneNumber, messageText string) string {
	conversation, err := s.getOrCreateConversation(ctx, phoneNumber)
	if err != nil {
		logger.Log.Error("chatbot conversation lookup failed", zap.Error(err))
		return "I'm sorry, I encountered an error. Please try again or contact our staff directly."
	}

	intent, entities := AnalyzeMessage(messageText)
	entitiesJSON, _ := json.Marshal(entities)

	s.logTurn(ctx, conversation.ID, "user", messageText, intent, string(entitiesJSON))

	response := s.generateResponse(ctx, conversation, intent, entities, messageText)

	s.logTurn(ctx, conversation.ID, "bot", response, intent, "")
	return response
}

func (s *ChatbotService) getOrCreateConversation(ctx context.Context, phoneNumber string) (*models.ChatbotConversation, error) {
	var conversation models.ChatbotConversation
	err := s.db.WithContext(ctx).
		Where("phone_number = ? AND is_active = ?", phoneNumber, true).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conversation = models.ChatbotConversation{
		PhoneNumber: phoneNumber,
		SessionID:   fmt.Sprintf("session_%s", time.Now().UTC().Format("20060102_150405")),
		IsActive:    true,
	}
	if patient, perr := s.patients.FindByPhone(ctx, phoneNumber); perr == nil {
		conversation.PatientID = patient.ID
	}
	if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (s *ChatbotService) generateResponse(ctx context.Context, conversation *models.ChatbotConversation, intent string, entities map[string]string, messageText string) string {
	switch intent {
	case "greeting":
		return s.handleGreeting(ctx, conversation)
	case "book_appointment":
		return s.handleBooking(ctx, conversation)
	case "check_appointment":
		return s.handleAppointmentCheck(ctx, conversation)
	case "cancel_appointment":
		return s.handleCancellation(ctx, conversation)
	case "package_inquiry":
		return s.handlePackageInquiry(ctx)
	case "clinic_info":
		return s.handleClinicInfo()
	case "help":
		return s.handleHelp()
	default:
		return s.generateAIResponse(ctx, conversation, messageText)
	}
}

func (s *ChatbotService) handleGreeting(ctx context.Context, conversation *models.ChatbotConversation) string {
	if conversation.PatientID != "" {
		if patient, err := s.patients.FindByID(ctx, conversation.PatientID); err == nil {
			return fmt.Sprintf("Hello %s! How can I help you today? You can:\n\n- Book an appointment\n- Check your appointments\n- Ask about treatment packages\n- Get clinic information", patient.FullName())
		}
	}
	return fmt.Sprintf("Hello! Welcome to %s. How can I help you today?\n\n- Book an appointment\n- Get clinic information\n- Ask about treatment packages", s.clinic.Name)
}

func (s *ChatbotService) handleBooking(ctx context.Context, conversation *models.ChatbotConversation) string {
	if conversation.PatientID == "" {
		return "To book an appointment, I'll need your details first. Please provide your name and phone number, or contact our staff directly."
	}

	var pendingCount int64
	if err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("patient_id = ? AND status = ?", conversation.PatientID, models.StatusPending).
		Count(&pendingCount).Error; err == nil && pendingCount > 0 {
		return fmt.Sprintf("You already have %d pending appointment(s). Please wait for confirmation or contact our staff to modify existing appointments.", pendingCount)
	}

	return "I can request an appointment for you. Our staff will pick the next free slot and confirm it over WhatsApp. Reply with a preferred date and time, or contact the clinic directly to choose a slot."
}

func (s *ChatbotService) handleAppointmentCheck(ctx context.Context, conversation *models.ChatbotConversation) string {
	if conversation.PatientID == "" {
		return "To check appointments, please provide your patient details or contact our staff directly."
	}

	var upcoming []models.Appointment
	err := s.db.WithContext(ctx).Preload("Doctor").
		Where("patient_id = ? AND appointment_date >= ?", conversation.PatientID, repositories.DateOnly(time.Now().UTC())).
		Order("appointment_date asc, appointment_time asc").
		Find(&upcoming).Error
	if err != nil || len(upcoming) == 0 {
		return "You don't have any upcoming appointments. Would you like to book one?"
	}

	var b strings.Builder
	b.WriteString("Your upcoming appointments:\n\n")
	for _, apt := range upcoming {
		fmt.Fprintf(&b, "- %s at %s with Dr. %s (%s, %s)\n",
			apt.AppointmentDate.Format("January 2, 2006"), apt.AppointmentTime,
			apt.Doctor.FullName(), apt.VisitType, apt.Status)
	}
	return b.String()
}

func (s *ChatbotService) handleCancellation(ctx context.Context, conversation *models.ChatbotConversation) string {
	if conversation.PatientID == "" {
		return "To cancel appointments, please contact our staff directly with your patient details."
	}

	var upcoming []models.Appointment
	err := s.db.WithContext(ctx).Preload("Doctor").
		Where("patient_id = ? AND appointment_date >= ? AND status IN ?",
			conversation.PatientID, repositories.DateOnly(time.Now().UTC()),
			[]models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}).
		Find(&upcoming).Error
	if err != nil || len(upcoming) == 0 {
		return "You don't have any appointments to cancel."
	}

	var b strings.Builder
	b.WriteString("To cancel an appointment, please contact our staff directly. Here are your upcoming appointments:\n\n")
	for _, apt := range upcoming {
		fmt.Fprintf(&b, "- %s at %s with Dr. %s\n",
			apt.AppointmentDate.Format("January 2, 2006"), apt.AppointmentTime, apt.Doctor.FullName())
	}
	return b.String()
}

func (s *ChatbotService) handlePackageInquiry(ctx context.Context) string {
	var packages []models.TreatmentPackage
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&packages).Error; err != nil || len(packages) == 0 {
		return "We currently don't have any active treatment packages. Please contact our staff for current pricing."
	}

	var b strings.Builder
	b.WriteString("Our treatment packages:\n\n")
	for _, pkg := range packages {
		fmt.Fprintf(&b, "%s\n  Sessions: %d\n  Price: %.2f (%.2f per session)\n  Validity: %d days\n\n",
			pkg.Name, pkg.TotalSessions, pkg.TotalPrice, pkg.PricePerSession, pkg.ValidityDays)
	}
	b.WriteString("For more details or to purchase a package, please contact our staff.")
	return b.String()
}

func (s *ChatbotService) handleClinicInfo() string {
	return fmt.Sprintf(
		"%s\n\nAddress: %s\nPhone: %s\n\nWorking Hours:\nMonday - Saturday: %s - %s\nSunday: Closed\n\nFor appointments, reply with \"BOOK APPOINTMENT\" or call us directly!",
		s.clinic.Name, s.clinic.Address, s.clinic.Phone, s.clinic.WorkingStart, s.clinic.WorkingEnd)
}

func (s *ChatbotService) handleHelp() string {
	return "How I can help you:\n\n- Book appointments\n- Check appointment status\n- Get package information\n- Clinic information\n- Answer general questions\n\nJust type what you need, and I'll assist you!\n\nFor urgent matters, please call our clinic directly."
}

const llmUnavailableReply = "I'm sorry, I couldn't process your request right now. Please contact our staff directly for assistance."

func (s *ChatbotService) generateAIResponse(ctx context.Context, conversation *models.ChatbotConversation, messageText string) string {
	if s.llm == nil {
		return llmUnavailableReply
	}

	// Last few turns give the model enough context without growing the
	// prompt unboundedly.
	var recent []models.ChatbotMessage
	_ = s.db.WithContext(ctx).
		Where("conversation_id = ?", conversation.ID).
		Order("created_at desc").Limit(10).
		Find(&recent).Error

	system := fmt.Sprintf("You are a helpful assistant for %s. You can help with appointments, clinic information, and general physiotherapy questions. Be friendly, professional, and concise.", s.clinic.Name)
	messages := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: system}}
	for i := len(recent) - 1; i >= 0; i-- {
		role := openai.ChatMessageRoleUser
		if recent[i].MessageType == "bot" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: recent[i].MessageText})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: messageText})

	resp, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil || len(resp.Choices) == 0 {
		logger.Log.Error("LLM completion failed", zap.Error(err))
		return llmUnavailableReply
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func (s *ChatbotService) logTurn(ctx context.Context, conversationID, messageType, text, intent, entities string) {
	turn := &models.ChatbotMessage{
		ConversationID: conversationID,
		MessageType:    messageType,
		MessageText:    text,
		Intent:         intent,
		Entities:       entities,
	}
	if err := s.db.WithContext(ctx).Create(turn).Error; err != nil {
		logger.Log.Error("failed to log chatbot message", zap.Error(err))
	}
}
