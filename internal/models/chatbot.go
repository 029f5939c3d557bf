package models

// ChatbotConversation is a phone-keyed chatbot session.
type ChatbotConversation struct {
	BaseModel
	PatientID   string `gorm:"size:36;index" json:"patientId,omitempty"`
	PhoneNumber string `gorm:"size:20;index;not null" json:"phoneNumber"`
	SessionID   string `gorm:"size:100;not null" json:"sessionId"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`

	// Relations
	Messages []ChatbotMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// ChatbotMessage is one turn of a conversation, user or bot.
type ChatbotMessage struct {
	BaseModel
	ConversationID string `gorm:"size:36;index;not null" json:"conversationId"`
	MessageType    string `gorm:"size:20;not null" json:"messageType"` // "user" or "bot"
	MessageText    string `gorm:"type:text;not null" json:"messageText"`
	Intent         string `gorm:"size:100" json:"intent,omitempty"`
	Entities       string `gorm:"type:text" json:"entities,omitempty"` // JSON-encoded extracted entities
}
