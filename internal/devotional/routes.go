package devotional

import "github.com/go-chi/chi/v5"

// Mount registra as rotas de meditação e versículos sob o roteador autenticado.
func Mount(r chi.Router, h *Handler) {
	r.Route("/meditations", func(r chi.Router) {
		r.Get("/weeks", h.listWeeks)
		r.Post("/weeks", h.createWeek)
		r.Get("/current", h.currentWeek)
		r.Get("/current/deliveries", h.currentDeliveries)
		r.Get("/weeks/{weekId}/deliveries", h.listDeliveriesByWeek)
		r.Post("/status", h.updateDeliveryStatus)
	})

	r.Route("/verses", func(r chi.Router) {
		r.Get("/", h.listVerses)
		r.Post("/", h.createVerse)
		r.Get("/memorizations", h.listMemorizations)
		r.Post("/memorizations", h.updateMemorization)
	})
}
