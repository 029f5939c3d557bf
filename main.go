package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-crm-server/internal/config"
	"clinic-crm-server/internal/logger"
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"
	"clinic-crm-server/internal/routes"
	"clinic-crm-server/internal/services"
)

func main() {
	// A missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		logger.Log.Fatal("Error connecting to database", zap.Error(err))
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, db, cfg)

	scheduler := startScheduler(db, cfg)
	defer scheduler.Stop()

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.SLog.Infof("Server running on port %s", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		logger.Log.Fatal("Failed to start server", zap.Error(err))
	}
}

// startScheduler runs the recurring background sweeps: appointment
// reminders every evening, payment reminders and package expiry checks
// every morning.
func startScheduler(db *gorm.DB, cfg *config.Config) *cron.Cron {
	appointmentRepo := repositories.NewAppointmentRepository(db)
	userRepo := repositories.NewUserRepository(db)
	patientRepo := repositories.NewPatientRepository(db)
	billingRepo := repositories.NewBillingRepository(db)

	whatsappService := services.NewWhatsAppService(cfg.Twilio, cfg.Clinic.Name, db)
	appointmentService := services.NewAppointmentService(
		appointmentRepo, userRepo, patientRepo, whatsappService,
		services.NewSlotPolicy(cfg.Clinic), cfg.Clinic.MeetingURLPrefix)
	billingService := services.NewBillingService(billingRepo, patientRepo, whatsappService)

	scheduler := cron.New()

	// 18:00 daily: remind tomorrow's confirmed appointments.
	scheduler.AddFunc("0 18 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := appointmentService.SendDueReminders(ctx, time.Now().UTC()); err != nil {
			logger.Log.Error("reminder sweep failed", zap.Error(err))
		}
	})

	// 10:00 daily: chase unpaid bills older than a week.
	scheduler.AddFunc("0 10 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := billingService.SendPaymentReminders(ctx, 7); err != nil {
			logger.Log.Error("payment reminder sweep failed", zap.Error(err))
		}
	})

	// 00:30 daily: deactivate expired patient packages.
	scheduler.AddFunc("30 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := billingService.DeactivateExpiredPackages(ctx, time.Now().UTC()); err != nil {
			logger.Log.Error("package expiry sweep failed", zap.Error(err))
		}
	})

	scheduler.Start()
	return scheduler
}
