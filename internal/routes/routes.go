package routes

import (
	"clinic-crm-server/internal/config"
	"clinic-crm-server/internal/handlers"
	"clinic-crm-server/internal/middleware"
	"clinic-crm-server/internal/models"
	"clinic-crm-server/internal/repositories"
	"clinic-crm-server/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes wires the repositories, services and handlers and mounts
// the API routes with their role guards.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	appointmentRepo := repositories.NewAppointmentRepository(db)
	userRepo := repositories.NewUserRepository(db)
	patientRepo := repositories.NewPatientRepository(db)
	billingRepo := repositories.NewBillingRepository(db)

	whatsappService := services.NewWhatsAppService(cfg.Twilio, cfg.Clinic.Name, db)
	appointmentService := services.NewAppointmentService(
		appointmentRepo, userRepo, patientRepo, whatsappService,
		services.NewSlotPolicy(cfg.Clinic), cfg.Clinic.MeetingURLPrefix)
	billingService := services.NewBillingService(billingRepo, patientRepo, whatsappService)
	chatbotService := services.NewChatbotService(db, patientRepo, cfg.OpenAI, cfg.Clinic)

	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	patientHandler := handlers.NewPatientHandler(db, patientRepo)
	appointmentHandler := handlers.NewAppointmentHandler(db, appointmentService)
	visitHandler := handlers.NewVisitHandler(db)
	billingHandler := handlers.NewBillingHandler(db, billingService)
	prescriptionHandler := handlers.NewPrescriptionHandler(db)
	whatsappHandler := handlers.NewWhatsAppHandler(db, chatbotService, whatsappService)

	// Public routes
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		// Twilio posts inbound messages here; it cannot carry a JWT.
		public.POST("/whatsapp/webhook", whatsappHandler.Webhook)
	}

	staffRoles := []models.Role{models.RoleAdmin, models.RoleDoctor, models.RoleStaff}

	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			// Booking screens need the doctor list regardless of role.
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeactivateUser)
			}
		}

		patientRoutes := private.Group("/patients")
		patientRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
		{
			patientRoutes.POST("", patientHandler.CreatePatient)
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PUT("/:id", patientHandler.UpdatePatient)
			patientRoutes.GET("/:id/appointments", patientHandler.GetPatientAppointments)
			patientRoutes.GET("/:id/packages", patientHandler.GetPatientPackages)
			patientRoutes.GET("/:id/outstanding", billingHandler.GetOutstandingBalance)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff, models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/slots", appointmentHandler.GetAvailableSlots)
			appointmentRoutes.GET("/stats", middleware.RoleAuthMiddleware(models.RoleAdmin), appointmentHandler.GetAppointmentStats)
			appointmentRoutes.POST("/send-reminders", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff), appointmentHandler.SendReminders)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/confirm", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff), appointmentHandler.ConfirmAppointment)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.PATCH("/:id/complete", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor, models.RoleStaff), appointmentHandler.CompleteAppointment)
			appointmentRoutes.PATCH("/:id/no-show", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor, models.RoleStaff), appointmentHandler.MarkNoShow)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
		}

		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("/:id/schedule", appointmentHandler.GetDoctorSchedule)
		}

		visitRoutes := private.Group("/visits")
		visitRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
		{
			visitRoutes.POST("", visitHandler.CreateVisit)
			visitRoutes.GET("", visitHandler.GetVisits)
			visitRoutes.GET("/:id", visitHandler.GetVisitByID)
		}

		billingRoutes := private.Group("/billing")
		billingRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
		{
			billingRoutes.POST("/bills", billingHandler.CreateBill)
			billingRoutes.GET("/bills", billingHandler.GetBills)
			billingRoutes.GET("/bills/:id", billingHandler.GetBillByID)
			billingRoutes.POST("/payments", billingHandler.ProcessPayment)
			billingRoutes.GET("/revenue", middleware.RoleAuthMiddleware(models.RoleAdmin), billingHandler.GetRevenueStats)
			billingRoutes.POST("/send-reminders", billingHandler.SendPaymentReminders)
		}

		packageRoutes := private.Group("/packages")
		{
			packageRoutes.GET("", billingHandler.GetPackages)
			packageRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin), billingHandler.CreatePackage)
			packageRoutes.POST("/assign", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff), billingHandler.AssignPackage)
		}

		prescriptionRoutes := private.Group("/prescriptions")
		{
			prescriptionRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), prescriptionHandler.CreatePrescription)
			prescriptionRoutes.GET("", prescriptionHandler.GetPrescriptions)
			prescriptionRoutes.GET("/:id", prescriptionHandler.GetPrescriptionByID)
			prescriptionRoutes.PATCH("/:id/deactivate", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), prescriptionHandler.DeactivatePrescription)
		}

		whatsappRoutes := private.Group("/whatsapp")
		whatsappRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
		{
			whatsappRoutes.POST("/send", whatsappHandler.SendMessage)
			whatsappRoutes.GET("/messages", whatsappHandler.GetMessageLog)
			whatsappRoutes.GET("/conversations", whatsappHandler.GetConversations)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
