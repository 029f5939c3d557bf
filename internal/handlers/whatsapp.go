package handlers

import (
	"net/http"
	"strings"

	"clinic-crm-server/internal/logger"
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/services"
	"clinic-crm-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WhatsAppHandler receives inbound WhatsApp messages from the Twilio
// webhook, routes them through the chatbot and replies.
type WhatsAppHandler struct {
	DB       *gorm.DB
	Chatbot  *services.ChatbotService
	WhatsApp *services.WhatsAppService
}

// NewWhatsAppHandler creates a new WhatsAppHandler.
func NewWhatsAppHandler(db *gorm.DB, chatbot *services.ChatbotService, whatsapp *services.WhatsAppService) *WhatsAppHandler {
	return &WhatsAppHandler{DB: db, Chatbot: chatbot, WhatsApp: whatsapp}
}

// Webhook handles Twilio's inbound message callback. Twilio posts
// form-encoded From and Body fields and expects a 200 regardless of what
// we do with the message.
func (h *WhatsAppHandler) Webhook(c *gin.Context) {
	from := c.PostForm("From")
	body := strings.TrimSpace(c.PostForm("Body"))
	if from == "" || body == "" {
		c.Status(http.StatusOK)
		return
	}

	phoneNumber := strings.TrimPrefix(from, "whatsapp:")
	logger.SLog.Infof("inbound WhatsApp message from %s", phoneNumber)

	reply := h.Chatbot.ProcessMessage(c.Request.Context(), phoneNumber, body)
	if reply != "" && h.WhatsApp != nil {
		if !h.WhatsApp.SendMessage(c.Request.Context(), phoneNumber, reply, "chatbot_reply", "") {
			logger.Log.Warn("chatbot reply not delivered", zap.String("to", phoneNumber))
		}
	}

	c.Status(http.StatusOK)
}

// SendMessageRequest represents the request body for a staff-initiated
// WhatsApp message.
type SendMessageRequest struct {
	PatientID string `json:"patientId" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// SendMessage sends a free-form message to a patient.
func (h *WhatsAppHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		utils.NotFound(c, "Patient not found")
		return
	}

	if h.WhatsApp == nil || !h.WhatsApp.SendMessage(c.Request.Context(), patient.PreferredWhatsApp(), req.Message, "manual", patient.ID) {
		utils.InternalServerError(c, "Failed to send WhatsApp message")
		return
	}
	utils.Success(c, "Message sent successfully", nil)
}

// GetMessageLog lists the WhatsApp delivery audit trail, optionally
// filtered by patient.
func (h *WhatsAppHandler) GetMessageLog(c *gin.Context) {
	query := h.DB.Order("created_at desc")
	if patientID := c.Query("patientId"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}

	var messages []models.WhatsAppMessage
	if err := query.Limit(200).Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch message log: "+err.Error())
		return
	}
	utils.Success(c, "Message log fetched successfully", messages)
}

// GetConversations lists chatbot conversations with their turns.
func (h *WhatsAppHandler) GetConversations(c *gin.Context) {
	var conversations []models.ChatbotConversation
	err := h.DB.Preload("Messages").Order("updated_at desc").
		Limit(50).Find(&conversations).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch conversations: "+err.Error())
		return
	}
	utils.Success(c, "Conversations fetched successfully", conversations)
}
