package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/config"
	"github.com/kireiworks/cleaning-backend/internal/app/controller"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

// Controllers bundles every HTTP handler set the router mounts
type Controllers struct {
	Auth         *controller.AuthController
	Company      *controller.CompanyController
	Cleaning     *controller.CleaningController
	Receipt      *controller.ReceiptController
	Upload       *controller.UploadController
	Application  *controller.ClientApplicationController
	Guideline    *controller.GuidelineController
	Notification *controller.NotificationController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Cleaning API is running",
		})
	})

	ctl := r.controllers
	authn := r.authMiddleware.Authenticate()

	api := router.Group("/api/auth")
	{
		api.POST("/login", ctl.Auth.Login)

		protected := api.Group("", authn)

		protected.POST("/logout", ctl.Auth.Logout)
		protected.GET("/verify", ctl.Auth.Verify)
		protected.POST("/users",
			r.authMiddleware.RequireRole(apperrors.AuthzPresidentOnly, "president", "headquarter", "branch"),
			ctl.Auth.RegisterUser,
		)

		companies := protected.Group("/companies")
		{
			companies.GET("", ctl.Company.ListCompanies)
			companies.POST("",
				r.authMiddleware.RequireRole(apperrors.AuthzHeadquarterOnly, "headquarter"),
				ctl.Auth.RegisterCompany,
			)
			companies.GET("/:companyId/facilities", ctl.Company.ListFacilities)
			companies.POST("/:companyId/facilities", ctl.Company.CreateFacility)
		}

		protected.GET("/company/uploads/hierarchy", ctl.Company.GetUploadHierarchy)

		facilities := protected.Group("/facilities/:facilityId")
		{
			facilities.GET("", ctl.Company.GetFacility)
			facilities.GET("/receipts", ctl.Receipt.ListReceipts)
			facilities.POST("/receipts", ctl.Receipt.UploadReceipt)
			facilities.GET("/receipts/export", ctl.Receipt.ExportReceipts)
		}

		protected.POST("/cleaning-records/find-or-create", ctl.Cleaning.FindOrCreateRecord)

		images := protected.Group("/cleaning-images")
		{
			images.POST("/upload", ctl.Cleaning.UploadImage)
			images.POST("/batch-delete", ctl.Cleaning.BatchDeleteImages)
			// older clients
			images.DELETE("/batch", ctl.Cleaning.BatchDeleteImages)
			images.PATCH("/:id", ctl.Cleaning.ReplaceImage)
			images.DELETE("/:id", ctl.Cleaning.DeleteImage)
		}

		receipts := protected.Group("/receipts")
		{
			receipts.POST("/batch-delete", ctl.Receipt.BatchDeleteReceipts)
			receipts.DELETE("/:id", ctl.Receipt.DeleteReceipt)
		}

		uploads := protected.Group("/uploads")
		{
			uploads.POST("/signed-url", ctl.Upload.SignedUploadURL)
			uploads.GET("/signed-read", ctl.Upload.SignedReadURL)
		}

		applications := protected.Group("/client-applications")
		{
			applications.POST("", ctl.Application.CreateApplication)
			applications.GET("", ctl.Application.ListApplications)
			applications.PATCH("/:id/status", ctl.Application.UpdateApplicationStatus)
		}

		protected.GET("/guidelines", ctl.Guideline.ListGuidelines)

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", ctl.Notification.ListNotifications)
			notifications.GET("/unread-count", ctl.Notification.UnreadCount)
			notifications.PUT("/read-all", ctl.Notification.MarkAllRead)
			notifications.PUT("/:id/read", ctl.Notification.MarkRead)
		}

		protected.GET("/ws", ctl.Notification.WebSocketHandler)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Content-Length",
		"Accept",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		middleware.RequestIDHeader,
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	cfg.MaxAge = 12 * time.Hour

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
