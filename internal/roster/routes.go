package roster

import "github.com/go-chi/chi/v5"

// Mount registra as rotas de cadastro sob o roteador autenticado.
func Mount(r chi.Router, h *Handler) {
	r.Route("/children", func(r chi.Router) {
		r.Get("/", h.listChildren)
		r.Post("/", h.createChild)
		r.Get("/{id}", h.getChild)
		r.Put("/{id}", h.updateChild)
		r.Delete("/{id}", h.deleteChild)
	})

	r.Route("/guardians", func(r chi.Router) {
		r.Get("/", h.listGuardians)
		r.Post("/", h.createGuardian)
		r.Post("/link", h.linkGuardian)
		r.Get("/child/{childId}", h.listGuardiansByChild)
		r.Put("/{id}", h.updateGuardian)
		r.Delete("/{id}", h.deleteGuardian)
	})

	r.Route("/classes", func(r chi.Router) {
		r.Get("/", h.listClasses)
		r.Post("/", h.createClass)
		r.Get("/{id}", h.getClass)
		r.Put("/{id}", h.updateClass)
		r.Delete("/{id}", h.deleteClass)
	})
}
