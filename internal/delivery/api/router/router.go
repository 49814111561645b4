// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"globalchek/config"
	"globalchek/internal/delivery/api/middleware"
	"globalchek/internal/delivery/api/router/handler"
	"globalchek/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	SessionHandler      *handler.SessionHandler
	PropertyHandler     *handler.PropertyHandler
	VerificationHandler *handler.VerificationHandler
	GuestHandler        *handler.GuestHandler
	NotificationHandler *handler.NotificationHandler
	DeviceHandler       *handler.DeviceHandler
	UploadHandler       *handler.UploadHandler
	AuthMiddleware      *middleware.AuthMiddleware
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	RouterParams
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{RouterParams: params}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Welcome)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET(r.Config.Storage.PublicPrefix, r.UploadHandler.Serve, middleware.RateLimit(r.Config.RateLimit))

	authenticate := r.AuthMiddleware.Authenticate

	api := e.Group("/api", middleware.RateLimit(r.Config.RateLimit))
	v1 := api.Group("/v1")
	v1.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", r.AuthHandler.Register)
		authGroup.POST("/login", r.AuthHandler.Login)
		authGroup.POST("/verify-2fa", r.AuthHandler.VerifyTwoFactor)
		authGroup.POST("/refresh", r.AuthHandler.Refresh)
		authGroup.POST("/logout", r.AuthHandler.Logout)

		authGroup.GET("/profile", r.AuthHandler.Profile, authenticate)
		authGroup.POST("/2fa/enable", r.AuthHandler.EnableTwoFactor, authenticate)
		authGroup.POST("/2fa/confirm", r.AuthHandler.ConfirmTwoFactor, authenticate)
		authGroup.POST("/2fa/disable", r.AuthHandler.DisableTwoFactor, authenticate)

		authGroup.GET("/sessions", r.SessionHandler.List, authenticate)
		authGroup.DELETE("/sessions/:id", r.SessionHandler.Revoke, authenticate)
		authGroup.POST("/logout-all", r.SessionHandler.RevokeAll, authenticate)
	}

	// Property routes
	propertiesGroup := v1.Group("/properties", authenticate)
	{
		propertiesGroup.POST("", r.PropertyHandler.Create)
		propertiesGroup.GET("", r.PropertyHandler.List)
		propertiesGroup.GET("/:id", r.PropertyHandler.Get)
		propertiesGroup.PUT("/:id", r.PropertyHandler.Update)
		propertiesGroup.DELETE("/:id", r.PropertyHandler.Delete)
		propertiesGroup.GET("/:id/stats", r.PropertyHandler.Stats)
	}

	// Verification routes; the guest wizard routes are public
	verificationsGroup := v1.Group("/verifications")
	{
		verificationsGroup.GET("/:id/public", r.GuestHandler.GetPublic)
		verificationsGroup.PUT("/:id/public/steps/:step", r.GuestHandler.UploadStep)
		verificationsGroup.POST("/:id/submit", r.GuestHandler.Submit)

		verificationsGroup.POST("", r.VerificationHandler.Create, authenticate)
		verificationsGroup.GET("", r.VerificationHandler.List, authenticate)
		verificationsGroup.GET("/:id", r.VerificationHandler.Get, authenticate)
		verificationsGroup.POST("/:id/document", r.VerificationHandler.UploadDocument, authenticate)
		verificationsGroup.POST("/:id/process-ai", r.VerificationHandler.ProcessWithAI, authenticate)
		verificationsGroup.POST("/:id/selfie", r.VerificationHandler.UploadSelfie, authenticate)
		verificationsGroup.POST("/:id/complete", r.VerificationHandler.Complete, authenticate)
	}

	// Notification routes
	notificationsGroup := v1.Group("/notifications", authenticate)
	{
		notificationsGroup.GET("", r.NotificationHandler.List)
		notificationsGroup.GET("/unread-count", r.NotificationHandler.UnreadCount)
		notificationsGroup.PATCH("/:id/read", r.NotificationHandler.MarkRead)
		notificationsGroup.POST("/read-all", r.NotificationHandler.MarkAllRead)
	}

	// Device management routes
	devicesGroup := v1.Group("/devices", authenticate)
	{
		devicesGroup.POST("", r.DeviceHandler.RegisterDevice)
		devicesGroup.GET("", r.DeviceHandler.GetUserDevices)
		devicesGroup.PUT("/:id/token", r.DeviceHandler.UpdateFCMToken)
		devicesGroup.DELETE("/:id", r.DeviceHandler.DeactivateDevice)
	}
}
