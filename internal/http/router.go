// Package http monta o roteador da API e os endpoints de autenticação.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ministeriokids/api/internal/attendance"
	"github.com/ministeriokids/api/internal/audit"
	"github.com/ministeriokids/api/internal/config"
	"github.com/ministeriokids/api/internal/dashboard"
	"github.com/ministeriokids/api/internal/devotional"
	"github.com/ministeriokids/api/internal/http/middleware"
	"github.com/ministeriokids/api/internal/messaging"
	"github.com/ministeriokids/api/internal/metrics"
	"github.com/ministeriokids/api/internal/notes"
	"github.com/ministeriokids/api/internal/repo"
	"github.com/ministeriokids/api/internal/roster"
	"github.com/ministeriokids/api/internal/service"
	"github.com/ministeriokids/api/internal/util"
)

// Deps agrupa tudo que o roteador precisa para montar a API.
type Deps struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client

	Auth       *service.AuthService
	Audit      *audit.Repository
	Roster     *roster.Service
	Attendance *attendance.Service
	Devotional *devotional.Service
	Notes      *notes.Service
	Messaging  *messaging.Service
	Dashboard  *dashboard.Repository
}

// NewRouter monta o roteador completo: rotas públicas com limite por IP e
// rotas de domínio atrás da sessão autenticada.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(middleware.CORS(deps.Config.AllowOrigins))

	publicLimiter := middleware.NewRateLimiter(
		deps.Config.RateLimitPublic.RequestsPerSecond, deps.Config.RateLimitPublic.Burst)
	authLimiter := middleware.NewRateLimiter(
		deps.Config.RateLimitAuth.RequestsPerSecond, deps.Config.RateLimitAuth.Burst)

	ah := &authHandler{svc: deps.Auth, cookieName: deps.Config.SessionCookieName}

	r.Group(func(r chi.Router) {
		r.Use(middleware.IPRateLimit(publicLimiter))

		r.Get("/health", handleHealth)
		r.Get("/ready", handleReady(deps.DB, deps.Redis))
		r.Handle("/metrics", metrics.Handler())

		r.Post("/api/register", ah.register)
		r.Post("/api/login", ah.login)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth, deps.Config.SessionCookieName))
		r.Use(middleware.UserRateLimit(authLimiter))

		r.Post("/logout", ah.logout)
		r.Get("/user", ah.currentUser)

		roster.Mount(r, roster.NewHandler(deps.Roster))
		attendance.Mount(r, attendance.NewHandler(deps.Attendance))
		devotional.Mount(r, devotional.NewHandler(deps.Devotional))
		notes.Mount(r, notes.NewHandler(deps.Notes))
		messaging.Mount(r, messaging.NewHandler(deps.Messaging))
		dashboard.Mount(r, dashboard.NewHandler(deps.Dashboard))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(repo.RoleAdmin))

			r.Get("/users", ah.listUsers)
			r.Put("/users/{id}/active", ah.setUserActive)
			r.Put("/users/{id}/classes", ah.setUserClasses)
			r.Get("/audit-logs", handleAuditLogs(deps.Audit))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady confirma acesso ao Postgres e ao Redis antes de aceitar tráfego.
func handleReady(db *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		if err := db.Ping(ctx); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "banco indisponível")
			return
		}
		metrics.ObserveDBPing(time.Since(start))

		if err := rdb.Ping(ctx).Err(); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "redis indisponível")
			return
		}

		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleAuditLogs(rep *audit.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := rep.List(r.Context(), 0)
		if err != nil {
			WriteInternalError(w, err)
			return
		}
		if entries == nil {
			entries = []audit.Entry{}
		}
		WriteJSON(w, http.StatusOK, entries)
	}
}

type authHandler struct {
	svc        *service.AuthService
	cookieName string
}

type registerRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=60"`
	Password  string  `json:"password" validate:"required"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, sessionID, err := h.svc.Register(r.Context(), service.RegisterParams{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			WriteError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrWeakPassword):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.setSessionCookie(w, r, sessionID)
	WriteJSON(w, http.StatusCreated, view)
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "payload inválido")
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, sessionID, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		WriteInternalError(w, err)
		return
	}

	h.setSessionCookie(w, r, sessionID)
	WriteJSON(w, http.StatusOK, view)
}

// logout destrói a sessão; repetir a chamada não é erro.
func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	if err := h.svc.Logout(r.Context(), sessionID); err != nil {
		WriteInternalError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   requestIsSecure(r),
	})
	WriteJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (h *authHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "não autorizado")
		return
	}
	WriteJSON(w, http.StatusOK, user.Public())
}

func (h *authHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		WriteInternalError(w, err)
		return
	}
	if users == nil {
		users = []repo.PublicView{}
	}
	WriteJSON(w, http.StatusOK, users)
}

type setActiveRequest struct {
	IsActive bool `json:"isActive"`
}

func (h *authHandler) setUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	if err := h.svc.SetUserActive(r.Context(), id, req.IsActive); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "usuário não encontrado")
			return
		}
		WriteInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"isActive": req.IsActive})
}

type setClassesRequest struct {
	ClassIDs []uuid.UUID `json:"classIds"`
}

func (h *authHandler) setUserClasses(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	var req setClassesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "payload inválido")
		return
	}

	if err := h.svc.SetUserClasses(r.Context(), id, req.ClassIDs); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "usuário não encontrado")
			return
		}
		WriteInternalError(w, err)
		return
	}
	if req.ClassIDs == nil {
		req.ClassIDs = []uuid.UUID{}
	}
	WriteJSON(w, http.StatusOK, map[string][]uuid.UUID{"classIds": req.ClassIDs})
}

func (h *authHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.svc.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   requestIsSecure(r),
	})
}

func requestIsSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
