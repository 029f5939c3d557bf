package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	Twilio                    TwilioConfig
	OpenAI                    OpenAIConfig
	Clinic                    ClinicConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	AppURL                    string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// TwilioConfig holds the WhatsApp messaging credentials.
type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
}

// OpenAIConfig holds the chatbot API credentials.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// ClinicConfig holds clinic profile and scheduling defaults.
type ClinicConfig struct {
	Name             string
	Address          string
	Phone            string
	WorkingStart     string // "HH:MM"
	WorkingEnd       string // "HH:MM"
	SlotMinutes      int
	MeetingURLPrefix string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "clinic_crm"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	twilioConfig := TwilioConfig{
		AccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		AuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		WhatsAppNumber: getEnv("TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886"),
	}

	openAIConfig := OpenAIConfig{
		APIKey: getEnv("OPENAI_API_KEY", ""),
		Model:  getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
	}

	clinicConfig := ClinicConfig{
		Name:             getEnv("CLINIC_NAME", "Dr. Payal's Clinic"),
		Address:          getEnv("CLINIC_ADDRESS", ""),
		Phone:            getEnv("CLINIC_PHONE", ""),
		WorkingStart:     getEnv("CLINIC_WORKING_START", "09:00"),
		WorkingEnd:       getEnv("CLINIC_WORKING_END", "18:00"),
		MeetingURLPrefix: getEnv("CLINIC_MEETING_URL_PREFIX", "https://meet.clinic.com/room/"),
	}

	slotMinutes, err := strconv.Atoi(getEnv("CLINIC_SLOT_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLINIC_SLOT_MINUTES: %w", err)
	}
	clinicConfig.SlotMinutes = slotMinutes

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:4200"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		Database:                  dbConfig,
		Twilio:                    twilioConfig,
		OpenAI:                    openAIConfig,
		Clinic:                    clinicConfig,
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		AppURL:                    getEnv("APP_URL", "http://localhost:3001"),
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
