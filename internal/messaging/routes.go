package messaging

import "github.com/go-chi/chi/v5"

// Mount registra as rotas de mensagens sob o roteador autenticado.
func Mount(r chi.Router, h *Handler) {
	r.Route("/message-templates", func(r chi.Router) {
		r.Get("/", h.listTemplates)
		r.Post("/", h.createTemplate)
		r.Put("/{id}", h.updateTemplate)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Post("/send", h.send)
		r.Get("/history", h.history)
	})
}
