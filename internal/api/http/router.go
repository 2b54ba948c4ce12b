package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atendesk/atendesk/internal/api/http/handlers"
	"github.com/atendesk/atendesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Conversations  *handlers.ConversationsHandler
	Contacts       *handlers.ContactsHandler
	Roster         *handlers.RosterHandler
	Replies        *handlers.RepliesHandler
	Webhook        *handlers.WebhookHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/webhooks/whatsapp", cfg.Webhook.Receive)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	conversations := api.Group("/conversations")
	conversations.Get("/", cfg.Conversations.List)
	conversations.Get("/counts", cfg.Conversations.Counts)
	conversations.Get("/:id", cfg.Conversations.Get)
	conversations.Get("/:id/messages", cfg.Conversations.Thread)
	conversations.Post("/:id/messages", cfg.Conversations.SendMessage)
	conversations.Post("/:id/transfer", cfg.Conversations.Transfer)
	conversations.Post("/:id/close", cfg.Conversations.Close)
	conversations.Post("/:id/reopen", cfg.Conversations.Reopen)

	contacts := api.Group("/contacts")
	contacts.Get("/", cfg.Contacts.List)
	contacts.Get("/:id", cfg.Contacts.Get)
	contacts.Put("/:id/name", cfg.Contacts.SetCustomName)

	teams := api.Group("/teams")
	teams.Get("/", cfg.Roster.ListTeams)
	teams.Post("/", cfg.Roster.CreateTeam)
	teams.Get("/:id/members", cfg.Roster.TeamMembers)
	teams.Post("/:id/members", cfg.Roster.AddMember)
	teams.Delete("/:id/members/:userId", cfg.Roster.RemoveMember)

	api.Get("/users", cfg.Roster.ListUsers)

	replies := api.Group("/quick-replies")
	replies.Get("/", cfg.Replies.ListQuickReplies)
	replies.Post("/", cfg.Replies.CreateQuickReply)
	replies.Put("/:id", cfg.Replies.UpdateQuickReply)
	replies.Delete("/:id", cfg.Replies.DeleteQuickReply)

	classifications := api.Group("/classifications")
	classifications.Get("/", cfg.Replies.ListClassifications)
	classifications.Post("/", cfg.Replies.CreateClassification)
	classifications.Delete("/:id", cfg.Replies.DeactivateClassification)
}
