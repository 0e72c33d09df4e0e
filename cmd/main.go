package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/stayloop/stays-service/internal/app"
	"github.com/stayloop/stays-service/internal/config"
	"github.com/stayloop/stays-service/internal/constants"
	"github.com/stayloop/stays-service/internal/controllers"
	"github.com/stayloop/stays-service/internal/events"
	"github.com/stayloop/stays-service/internal/middleware"
	"github.com/stayloop/stays-service/internal/repositories"
	"github.com/stayloop/stays-service/internal/routes"
	"github.com/stayloop/stays-service/internal/services"
	"github.com/stayloop/stays-service/internal/storage"
	"github.com/stayloop/stays-service/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.AppName)

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize stays-service:", err)
	}
	defer application.Close()

	userRepo := repositories.NewUserRepository(application.DB)
	propertyRepo := repositories.NewPropertyRepository(application.DB)
	bookingRepo := repositories.NewBookingRepository(application.DB)
	reviewRepo := repositories.NewReviewRepository(application.DB)
	messageRepo := repositories.NewMessageRepository(application.DB)
	paymentRepo := repositories.NewPaymentRepository(application.DB)
	propertyImageRepo := repositories.NewPropertyImageRepository(application.DB)

	imageStore := storage.NewCloudinaryStore(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
		cfg.CloudinaryFolder,
	)

	publisher, err := events.NewKafkaPublisher(
		cfg.KafkaBrokers,
		cfg.BookingEventsTopic,
		cfg.BookingEventsDLQ,
		cfg.AppName,
	)
	if err != nil {
		utils.Logger.Fatal("Failed to create event publisher:", err)
	}
	defer publisher.Close()

	notificationService := services.NewNotificationService(cfg, userRepo, propertyRepo, bookingRepo)
	userService := services.NewUserService(userRepo, cfg.JWTSecret)
	bookingService := services.NewBookingService(bookingRepo, propertyRepo, publisher)
	propertyService := services.NewPropertyService(propertyRepo, bookingRepo, propertyImageRepo, imageStore)
	reviewService := services.NewReviewService(reviewRepo, propertyRepo)
	messageService := services.NewMessageService(messageRepo, userRepo, notificationService)
	paymentService := services.NewPaymentService(paymentRepo, bookingRepo)
	schedulerService := services.NewSchedulerService(bookingService, bookingRepo, propertyRepo, messageRepo, notificationService)

	consumer, err := events.NewConsumer(
		cfg.KafkaBrokers,
		cfg.BookingEventsTopic,
		cfg.ConsumerGroupID,
		cfg.BookingEventsDLQ,
		constants.EventMaxRetries,
		notificationService.HandleEvent,
	)
	if err != nil {
		utils.Logger.Fatal("Failed to create event consumer:", err)
	}
	defer consumer.Close()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := consumer.Start(consumerCtx); err != nil && consumerCtx.Err() == nil {
			utils.Logger.WithError(err).Error("Event consumer stopped")
		}
	}()

	usersController := controllers.NewUsersController(userService)
	propertiesController := controllers.NewPropertiesController(propertyService, bookingService)
	bookingsController := controllers.NewBookingsController(bookingService)
	reviewsController := controllers.NewReviewsController(reviewService)
	messagesController := controllers.NewMessagesController(messageService)
	paymentsController := controllers.NewPaymentsController(paymentService)
	healthController := controllers.NewHealthController(cfg.AppName)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.UsersRegister, usersController.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.UsersLogin, usersController.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PropertiesBase, propertiesController.ListHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PropertyByID, propertiesController.GetHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PropertyReviews, reviewsController.ListHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PropertyImages, propertiesController.ListImagesHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	secured.HandleFunc(routes.UsersMe, usersController.MeHandler).Methods(http.MethodGet)

	secured.HandleFunc(routes.PropertiesBase, propertiesController.CreateHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.PropertyByID, propertiesController.PatchHandler).Methods(http.MethodPut, http.MethodPatch)
	secured.HandleFunc(routes.PropertyByID, propertiesController.DeleteHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.PropertyBookings, propertiesController.ActiveBookingsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PropertyImages, propertiesController.UploadImageHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.PropertyImageByID, propertiesController.DeleteImageHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.PropertyReviews, reviewsController.CreateHandler).Methods(http.MethodPost)

	secured.HandleFunc(routes.BookingsBase, bookingsController.CreateHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingsBase, bookingsController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.BookingByID, bookingsController.GetHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.BookingConfirm, bookingsController.ConfirmHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingCancel, bookingsController.CancelHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingPayment, paymentsController.RecordHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingPayment, paymentsController.GetHandler).Methods(http.MethodGet)

	secured.HandleFunc(routes.MessagesBase, messagesController.SendHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.MessagesConversations, messagesController.ConversationsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.MessagesWithUser, messagesController.ConversationHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.MessagesMarkRead, messagesController.MarkReadHandler).Methods(http.MethodPost)

	c := cron.New()
	_, reminderErr := c.AddFunc(constants.CheckInReminderSpec, func() {
		if _, e := schedulerService.RunCheckInReminders(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Check-in reminders failed")
		}
	})
	if reminderErr != nil {
		utils.Logger.WithError(reminderErr).Fatal("Failed to schedule check-in reminder cron")
	}

	_, sweepErr := c.AddFunc(constants.CompletionSweepSpec, func() {
		if _, e := schedulerService.RunCompletionSweep(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Completion sweep failed")
		}
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule completion sweep cron")
	}

	_, cleanupErr := c.AddFunc(constants.MessageCleanupSpec, func() {
		if _, e := schedulerService.RunMessageCleanup(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Message cleanup failed")
		}
	})
	if cleanupErr != nil {
		utils.Logger.WithError(cleanupErr).Fatal("Failed to schedule message cleanup cron")
	}

	_, availErr := c.AddFunc(constants.AvailabilityRefreshSpec, func() {
		if e := schedulerService.RunAvailabilityRefresh(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Availability refresh failed")
		}
	})
	if availErr != nil {
		utils.Logger.WithError(availErr).Fatal("Failed to schedule availability refresh cron")
	}
	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("stays-service failed to start:", err)
	}
}
