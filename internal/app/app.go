package app

import (
	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/config"
	"github.com/kireiworks/cleaning-backend/internal/app/controller"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
	"github.com/kireiworks/cleaning-backend/internal/router"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	ws "github.com/kireiworks/cleaning-backend/internal/websocket"
	"github.com/kireiworks/cleaning-backend/pkg/redis"
	"gorm.io/gorm"
)

// Dependencies are the external resources the application is built on
type Dependencies struct {
	DB        *gorm.DB
	Store     storage.ObjectStore
	Blacklist redis.Blacklist
	Line      service.LineSender // nil disables LINE pushes
	Hub       *ws.Hub
}

// App is the wired application
type App struct {
	Engine   *gin.Engine
	Cleaner  service.BlobCleaner
	Notifier service.Notifier
}

// New wires repositories, services, controllers and routes
func New(cfg *config.Config, deps Dependencies) *App {
	gormDB := deps.DB

	companyRepo := repository.NewCompanyRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	facilityRepo := repository.NewFacilityRepository(gormDB)
	recordRepo := repository.NewCleaningRecordRepository(gormDB)
	imageRepo := repository.NewCleaningImageRepository(gormDB)
	receiptRepo := repository.NewReceiptRepository(gormDB)
	outbox := repository.NewBlobDeletionRepository(gormDB)
	notificationRepo := repository.NewNotificationRepository(gormDB)
	applicationRepo := repository.NewClientApplicationRepository(gormDB)
	guidelineRepo := repository.NewCleaningGuidelineRepository(gormDB)

	var pusher service.RealtimePusher
	if deps.Hub != nil {
		pusher = deps.Hub
	}

	cleaner := service.NewBlobCleaner(outbox, deps.Store)
	notifier := service.NewNotifier(notificationRepo, userRepo, pusher, deps.Line)
	maxBytes := cfg.Upload.MaxBytes

	authService := service.NewAuthService(
		companyRepo,
		userRepo,
		facilityRepo,
		deps.Blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	companyService := service.NewCompanyService(companyRepo, facilityRepo)
	hierarchyService := service.NewHierarchyService(imageRepo, companyRepo, facilityRepo)
	recordService := service.NewCleaningRecordService(recordRepo, facilityRepo)
	imageService := service.NewCleaningImageService(gormDB, imageRepo, recordRepo, facilityRepo, outbox, deps.Store, cleaner, notifier, maxBytes)
	receiptService := service.NewReceiptService(gormDB, receiptRepo, facilityRepo, outbox, deps.Store, cleaner, maxBytes)
	signedURLService := service.NewSignedURLService(deps.Store, facilityRepo, cfg.Storage.SignedURLExpiry)
	applicationService := service.NewClientApplicationService(applicationRepo, facilityRepo, notifier)
	guidelineService := service.NewGuidelineService(guidelineRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Company:      controller.NewCompanyController(companyService, hierarchyService),
		Cleaning:     controller.NewCleaningController(recordService, imageService, maxBytes),
		Receipt:      controller.NewReceiptController(receiptService, maxBytes),
		Upload:       controller.NewUploadController(signedURLService),
		Application:  controller.NewClientApplicationController(applicationService),
		Guideline:    controller.NewGuidelineController(guidelineService),
		Notification: controller.NewNotificationController(notificationService, deps.Hub, cfg.CORS.AllowedOrigins),
	}

	r := router.NewRouter(controllers, middleware.NewAuthMiddleware(authService), cfg)

	return &App{
		Engine:   r.Setup(),
		Cleaner:  cleaner,
		Notifier: notifier,
	}
}
