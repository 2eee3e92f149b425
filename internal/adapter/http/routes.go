package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Instructions
		r.Post("/instructions", h.CreateInstruction)

		// Status
		r.Get("/status", h.GetStatus)
		r.Get("/activity", h.GetActivity)

		// Tasks
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{id}", h.GetTask)

		// Agents
		r.Put("/agents/{id}/status", h.UpdateAgentStatus)
	})
}
