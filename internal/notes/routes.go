package notes

import "github.com/go-chi/chi/v5"

// Mount registra as rotas de anotações sob o roteador autenticado.
func Mount(r chi.Router, h *Handler) {
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/child/{childId}", h.listByChild)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}
