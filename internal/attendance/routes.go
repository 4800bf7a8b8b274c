package attendance

import "github.com/go-chi/chi/v5"

// Mount registra as rotas de presença sob o roteador autenticado.
func Mount(r chi.Router, h *Handler) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/class-meetings", h.listClassMeetings)
		r.Post("/class-meetings", h.createClassMeeting)
		r.Get("/worship-services", h.listWorshipServices)
		r.Post("/worship-services", h.createWorshipService)
		r.Post("/class", h.markClass)
		r.Post("/worship", h.markWorship)
		r.Get("/class", h.listClassByDate)
		r.Get("/worship", h.listWorshipByDate)
		r.Get("/consecutive-absences/{childId}", h.consecutiveAbsences)
	})
}
