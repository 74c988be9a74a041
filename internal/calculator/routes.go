package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts all calculator endpoints onto the given router
// under the /calculator prefix.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/calculator", func(r chi.Router) {
		r.Get("/", h.State)
		r.Post("/digit", h.Digit)
		r.Post("/operator", h.Operator)
		r.Post("/command", h.Command)
		r.Post("/key", h.Key)
		r.Post("/keys", h.Keys)
		r.Get("/history", h.History)
		r.Delete("/history", h.ClearHistory)
	})
}
