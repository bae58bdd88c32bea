package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/synergysphere/backend/api/handler"
	"github.com/synergysphere/backend/internal/middleware"
)

type Handlers struct {
	Auth       *apiHandler.AuthHandler
	Project    *apiHandler.ProjectHandler
	Invitation *apiHandler.InvitationHandler
	Task       *apiHandler.TaskHandler
	Attachment *apiHandler.AttachmentHandler
	Analytics  *apiHandler.AnalyticsHandler
	Realtime   *apiHandler.RealtimeHandler
	Health     *apiHandler.HealthHandler
}

func New(handlers Handlers, auth func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Open auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/confirm-email", handlers.Auth.ConfirmEmail)
	r.POST("/api/v1/auth/request-password-reset", handlers.Auth.RequestPasswordReset)
	r.POST("/api/v1/auth/reset-password", handlers.Auth.ResetPassword)
	r.GET("/api/v1/auth/me", auth(handlers.Auth.Me))

	// Projects
	r.GET("/api/v1/projects", auth(handlers.Project.List))
	r.POST("/api/v1/projects", auth(handlers.Project.Create))
	r.GET("/api/v1/projects/{id}", auth(handlers.Project.Get))
	r.PUT("/api/v1/projects/{id}", auth(handlers.Project.Update))
	r.DELETE("/api/v1/projects/{id}", auth(handlers.Project.Delete))
	r.DELETE("/api/v1/projects/{id}/members/{userId}", auth(handlers.Project.RemoveMember))

	// Invitations
	r.POST("/api/v1/projects/{id}/invitations", auth(middleware.RequireConfirmedEmail(handlers.Invitation.Send)))
	r.GET("/api/v1/projects/{id}/invitations", auth(handlers.Invitation.ListForProject))
	r.GET("/api/v1/invitations", auth(handlers.Invitation.ListMine))
	r.POST("/api/v1/invitations/accept", auth(handlers.Invitation.Accept))
	r.POST("/api/v1/invitations/decline", auth(handlers.Invitation.Decline))

	// Tasks
	r.GET("/api/v1/tasks", auth(handlers.Task.List))
	r.POST("/api/v1/tasks", auth(handlers.Task.Create))
	r.GET("/api/v1/tasks/my-tasks", auth(handlers.Task.Mine))
	r.GET("/api/v1/tasks/{id}", auth(handlers.Task.Get))
	r.PUT("/api/v1/tasks/{id}", auth(handlers.Task.Update))
	r.DELETE("/api/v1/tasks/{id}", auth(handlers.Task.Delete))
	r.POST("/api/v1/tasks/{id}/comments", auth(handlers.Task.AddComment))

	// Attachments
	r.POST("/api/v1/projects/{id}/attachments", auth(handlers.Attachment.Upload))
	r.GET("/api/v1/projects/{id}/attachments", auth(handlers.Attachment.List))
	r.GET("/api/v1/attachments/{id}/download", auth(handlers.Attachment.Download))
	r.DELETE("/api/v1/attachments/{id}", auth(handlers.Attachment.Delete))

	// Analytics
	r.GET("/api/v1/analytics/projects/{id}", auth(handlers.Analytics.Project))
	r.GET("/api/v1/analytics/me", auth(handlers.Analytics.Me))
	r.GET("/api/v1/analytics/platform", auth(handlers.Analytics.Platform))

	// Realtime channel authenticates inside the handshake; browser
	// websocket clients cannot send an Authorization header.
	r.GET("/ws", handlers.Realtime.Connect)

	return r
}
