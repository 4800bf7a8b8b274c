package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ministeriokids/api/internal/auth"
	"github.com/ministeriokids/api/internal/repo"
	"github.com/ministeriokids/api/internal/session"
	"github.com/ministeriokids/api/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("usuário ou senha incorretos")
	// ErrUsernameTaken indica nome de usuário indisponível.
	ErrUsernameTaken = errors.New("nome de usuário indisponível")
	// ErrUnauthenticated indica ausência de sessão válida.
	ErrUnauthenticated = errors.New("não autorizado")
	// ErrWeakPassword indica senha fora dos requisitos mínimos.
	ErrWeakPassword = errors.New("senha fora dos requisitos mínimos")
)

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	GetByUsername(ctx context.Context, username string) (repo.User, error)
	Insert(ctx context.Context, arg repo.InsertUserParams) (repo.User, error)
	List(ctx context.Context) ([]repo.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetClassIDs(ctx context.Context, id uuid.UUID, classIDs []uuid.UUID) error
}

// AuthService concentra registro, login e resolução de sessão.
type AuthService struct {
	users      userRepository
	sessions   session.Store
	sessionTTL time.Duration
}

func NewAuthService(users userRepository, sessions session.Store, sessionTTL time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, sessionTTL: sessionTTL}
}

// SessionTTL expõe o tempo de vida configurado (usado no cookie).
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// RegisterParams agrupa os campos do cadastro.
type RegisterParams struct {
	Username  string
	Password  string
	Email     *string
	FirstName *string
	LastName  *string
	Role      string
}

// Register cria usuário e já estabelece sessão (cadastro implica login).
func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (repo.PublicView, string, error) {
	arg.Username = strings.TrimSpace(arg.Username)
	if arg.Username == "" {
		return repo.PublicView{}, "", errors.New("username obrigatório")
	}
	if err := util.ValidatePassword(arg.Password); err != nil {
		return repo.PublicView{}, "", ErrWeakPassword
	}
	if arg.Role == "" {
		arg.Role = repo.RoleLeader
	}
	if !repo.ValidRole(arg.Role) {
		return repo.PublicView{}, "", errors.New("papel inválido")
	}

	hash, err := auth.Hash(arg.Password)
	if err != nil {
		return repo.PublicView{}, "", err
	}

	user, err := s.users.Insert(ctx, repo.InsertUserParams{
		Username:     arg.Username,
		PasswordHash: hash,
		Email:        arg.Email,
		FirstName:    arg.FirstName,
		LastName:     arg.LastName,
		Role:         arg.Role,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return repo.PublicView{}, "", ErrUsernameTaken
		}
		return repo.PublicView{}, "", err
	}

	sessionID, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return repo.PublicView{}, "", err
	}

	return user.Public(), sessionID, nil
}

// Login autentica por username/senha. A mensagem de erro é uniforme para
// usuário desconhecido e senha errada.
func (s *AuthService) Login(ctx context.Context, username, password string) (repo.PublicView, string, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return repo.PublicView{}, "", ErrInvalidCredentials
		}
		return repo.PublicView{}, "", err
	}

	if !auth.Verify(password, user.PasswordHash) {
		log.Warn().Msg("login: senha inválida")
		return repo.PublicView{}, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Msg("login: conta desativada")
		return repo.PublicView{}, "", ErrInvalidCredentials
	}

	sessionID, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return repo.PublicView{}, "", err
	}

	return user.Public(), sessionID, nil
}

// Logout destrói a sessão; chamadas repetidas não são erro.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// CurrentUser resolve a identidade da sessão, relendo o registro a cada
// chamada para que mudanças de papel/ativação valham imediatamente.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (repo.User, error) {
	if sessionID == "" {
		return repo.User{}, ErrUnauthenticated
	}

	userID, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return repo.User{}, ErrUnauthenticated
		}
		return repo.User{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.User{}, ErrUnauthenticated
		}
		return repo.User{}, err
	}
	if !user.IsActive {
		return repo.User{}, ErrUnauthenticated
	}

	return user, nil
}

// ListUsers devolve todos os usuários (restrito a admin na camada HTTP).
func (s *AuthService) ListUsers(ctx context.Context) ([]repo.PublicView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]repo.PublicView, 0, len(users))
	for _, u := range users {
		views = append(views, u.Public())
	}
	return views, nil
}

// SetUserActive ativa/desativa conta (soft delete).
func (s *AuthService) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.users.SetActive(ctx, id, active)
}

// SetUserClasses atribui as turmas do líder/auxiliar (restrito a admin na
// camada HTTP).
func (s *AuthService) SetUserClasses(ctx context.Context, id uuid.UUID, classIDs []uuid.UUID) error {
	return s.users.SetClassIDs(ctx, id, classIDs)
}

// BootstrapAdmin garante o usuário admin no primeiro boot. A senha padrão
// é conveniência de primeira execução e deve ser trocada em seguida.
func (s *AuthService) BootstrapAdmin(ctx context.Context, defaultPassword string) error {
	_, err := s.users.GetByUsername(ctx, "admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	hash, err := auth.Hash(defaultPassword)
	if err != nil {
		return err
	}

	email := "admin@sistema.com"
	first := "Administrador"
	last := "Sistema"
	_, err = s.users.Insert(ctx, repo.InsertUserParams{
		Username:     "admin",
		PasswordHash: hash,
		Email:        &email,
		FirstName:    &first,
		LastName:     &last,
		Role:         repo.RoleAdmin,
	})
	if err != nil && !errors.Is(err, repo.ErrConflict) {
		return err
	}

	log.Info().Msg("usuário admin criado no bootstrap")
	return nil
}
