package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ministeriokids/api/internal/repo"
)

type contextKey string

const (
	ContextKeyUser      contextKey = "user"
	ContextKeySessionID contextKey = "session_id"
)

// CurrentUserResolver resolve a identidade presa à sessão do cookie.
type CurrentUserResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (repo.User, error)
}

// Auth exige sessão válida: resolve o cookie, carrega o usuário e injeta
// ambos no contexto. Sem sessão, responde 401 sem invocar o handler.
func Auth(resolver CurrentUserResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "não autorizado")
				return
			}

			user, err := resolver.CurrentUser(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "não autorizado")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeySessionID, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser recupera o usuário autenticado do contexto.
func GetUser(ctx context.Context) (repo.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(repo.User)
	return user, ok
}

// GetSessionID recupera o id da sessão ativa.
func GetSessionID(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySessionID).(string)
	return val
}

// RequireRoles garante que o usuário autenticado possua um dos papéis.
func RequireRoles(requiredRoles ...string) func(http.Handler) http.Handler {
	normalized := make([]string, 0, len(requiredRoles))
	for _, role := range requiredRoles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			normalized = append(normalized, role)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "não autorizado")
				return
			}

			role := strings.ToLower(user.Role)
			for _, required := range normalized {
				if role == required {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "acesso restrito")
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
