package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arkodent/clinic/internal/auth"
	"github.com/arkodent/clinic/internal/middleware"
)

type Router struct {
	handler        *Handler
	authMiddleware *auth.Middleware
}

func NewRouter(handler *Handler, authService auth.Service) *Router {
	return &Router{
		handler:        handler,
		authMiddleware: auth.NewMiddleware(authService),
	}
}

func (r *Router) SetupRouter(logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.AuditContext(),
		middleware.RateLimit(rate.Every(time.Second), 30),
		middleware.CORS(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", r.handler.Login)

		protected := api.Group("")
		protected.Use(r.authMiddleware.RequireRoles())
		{
			protected.GET("/settings/:key", r.handler.GetSetting)

			patients := protected.Group("/patients")
			{
				patients.GET("", r.handler.ListPatients)
				patients.GET("/:id", r.handler.GetPatient)
				patients.GET("/:id/summary", r.handler.GetPatientSummary)
				patients.GET("/:id/appointments", r.handler.GetPatientAppointments)

				// Record edits require the editor role
				edit := patients.Group("")
				edit.Use(r.authMiddleware.RequireRoles(auth.RoleAdmin, auth.RoleEditor))
				{
					edit.POST("", r.handler.RegisterPatient)
					edit.PUT("/:id", r.handler.UpdatePatient)
					edit.DELETE("/:id", r.handler.DeletePatient)

					edit.POST("/:id/medical-history", r.handler.AddMedicalHistory)
					edit.DELETE("/:id/medical-history/:index", r.handler.RemoveMedicalHistory)
					edit.POST("/:id/gallery", r.handler.AddGalleryImage)
					edit.DELETE("/:id/gallery/:index", r.handler.RemoveGalleryImage)
					edit.POST("/:id/labels", r.handler.AddLabel)
					edit.DELETE("/:id/labels/:index", r.handler.RemoveLabel)
					edit.POST("/:id/teeth/:position/notes", r.handler.AddToothNote)
					edit.DELETE("/:id/teeth/:position/notes/:index", r.handler.RemoveToothNote)
				}
			}

			appointments := protected.Group("/appointments")
			appointments.Use(r.authMiddleware.RequireRoles(auth.RoleAdmin, auth.RoleEditor))
			{
				appointments.PUT("", r.handler.SaveAppointment)
				appointments.DELETE("/:id", r.handler.DeleteAppointment)
			}

			// Audit log routes (admin only)
			auditLogs := protected.Group("/audit")
			auditLogs.Use(r.authMiddleware.RequireRoles(auth.RoleAdmin))
			{
				auditLogs.GET("/logs", r.handler.GetAuditLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}
