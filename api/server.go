/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:       Request logging
  2. Recoverer:    Panic recovery (500 instead of crash)
  3. RequestID:    Unique ID per request for tracing
  4. CORS:         Cross-origin requests for frontend
  5. Authenticate: Session token -> ledger.Actor   (/api only)
  6. Authorize:    casbin role/path/method check   (/api only)

ROUTE GROUPS:
  /health               Liveness (public)
  /api/users/*          Accounts and earnings
  /api/projects/*       Projects, their assignments and payments
  /api/assignments/*    Assignment lifecycle
  /api/payments/*       Payment lifecycle
  /api/finance/*        Financial summaries and export
  /api/notifications/*  Notification inbox and live stream
  /api/scenarios/*      Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go, authz.go: Authentication and authorization
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions holds what the router needs besides the handler.
type RouterOptions struct {
	Sessions    *Sessions
	Authorizer  *Authorizer
	CORSOrigins []string
	// Quiet disables request logging (tests).
	Quiet bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	if !opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(opts.Sessions.Authenticate)
		r.Use(opts.Authorizer.Middleware)

		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Get("/{id}/earnings", h.GetEarnings)
		})

		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Put("/{id}/tracking", h.UpdateProject)
			r.Get("/{id}/assignments", h.ListProjectAssignments)
			r.Post("/{id}/assignments", h.CreateAssignment)
			r.Get("/{id}/payments", h.ListProjectPayments)
		})

		// Assignment routes
		r.Route("/assignments", func(r chi.Router) {
			r.Get("/mine", h.ListMyAssignments)
			r.Get("/{id}", h.GetAssignment)
			r.Delete("/{id}", h.RemoveAssignment)
			r.Post("/{id}/accept", h.AcceptAssignment)
			r.Post("/{id}/reject", h.RejectAssignment)
			r.Post("/{id}/submit", h.SubmitWork)
			r.Post("/{id}/verify", h.VerifyWork)
			r.Post("/{id}/reject-work", h.RejectWork)
			r.Post("/{id}/revision", h.RequestRevision)
			r.Put("/{id}/tracking", h.UpdateAssignmentTracking)
			r.Post("/{id}/payment-request", h.RequestPayment)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreateDirectPayment)
			r.Get("/{id}", h.GetPayment)
			r.Post("/{id}/approve", h.ApprovePayment)
			r.Post("/{id}/reject", h.RejectPayment)
			r.Post("/{id}/mark-paid", h.MarkPaymentPaid)
			r.Post("/{id}/confirm", h.ConfirmPayment)
		})

		// Finance routes
		r.Route("/finance", func(r chi.Router) {
			r.Get("/projects/{id}", h.ProjectFinance)
			r.Get("/overview", h.FinanceOverview)
			r.Get("/export", h.ExportFinance)
		})

		// Notification routes
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Get("/stream", h.StreamNotifications)
			r.Post("/read-all", h.MarkAllNotificationsRead)
			r.Post("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
