package repo

import (
	"time"

	"github.com/google/uuid"
)

// Papéis reconhecidos pelo sistema.
const (
	RoleAdmin     = "admin"
	RoleLeader    = "leader"
	RoleAssistant = "assistant"
)

// ValidRole informa se o papel pertence ao conjunto fechado.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLeader, RoleAssistant:
		return true
	}
	return false
}

// User representa um usuário do ministério (líder, auxiliar ou admin).
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Email        *string
	FirstName    *string
	LastName     *string
	Role         string
	IsActive     bool
	ClassIDs     []uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicView é a projeção do usuário sem o hash de senha.
type PublicView struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Email     *string     `json:"email"`
	FirstName *string     `json:"firstName"`
	LastName  *string     `json:"lastName"`
	Role      string      `json:"role"`
	IsActive  bool        `json:"isActive"`
	ClassIDs  []uuid.UUID `json:"classIds"`
}

// Public projeta o usuário para resposta HTTP.
func (u User) Public() PublicView {
	classIDs := u.ClassIDs
	if classIDs == nil {
		classIDs = []uuid.UUID{}
	}
	return PublicView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		ClassIDs:  classIDs,
	}
}
