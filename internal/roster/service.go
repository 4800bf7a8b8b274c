package roster

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
)

var (
	ErrFullNameRequired     = errors.New("nome completo é obrigatório")
	ErrGuardianDataRequired = errors.New("nome, parentesco e telefone são obrigatórios")
	ErrClassNameRequired    = errors.New("nome da turma é obrigatório")
)

type rosterRepository interface {
	ListChildren(ctx context.Context, classID *uuid.UUID) ([]Child, error)
	GetChild(ctx context.Context, id uuid.UUID) (Child, error)
	CreateChild(ctx context.Context, arg ChildParams) (Child, error)
	UpdateChild(ctx context.Context, id uuid.UUID, arg ChildParams) (Child, error)
	DeleteChild(ctx context.Context, id uuid.UUID) error

	ListGuardians(ctx context.Context) ([]Guardian, error)
	ListGuardiansByChild(ctx context.Context, childID uuid.UUID) ([]Guardian, error)
	CreateGuardian(ctx context.Context, arg GuardianParams) (Guardian, error)
	UpdateGuardian(ctx context.Context, id uuid.UUID, arg GuardianParams) (Guardian, error)
	DeleteGuardian(ctx context.Context, id uuid.UUID) error
	LinkGuardian(ctx context.Context, childID, guardianID uuid.UUID, isPrimary bool) error

	ListClasses(ctx context.Context) ([]Class, error)
	GetClass(ctx context.Context, id uuid.UUID) (Class, error)
	CreateClass(ctx context.Context, arg ClassParams) (Class, error)
	UpdateClass(ctx context.Context, id uuid.UUID, arg ClassParams) (Class, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo  rosterRepository
	audit audit.Recorder
}

func NewService(repo rosterRepository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

func (s *Service) ListChildren(ctx context.Context, classID *uuid.UUID) ([]Child, error) {
	return s.repo.ListChildren(ctx, classID)
}

func (s *Service) GetChild(ctx context.Context, id uuid.UUID) (Child, error) {
	return s.repo.GetChild(ctx, id)
}

func (s *Service) CreateChild(ctx context.Context, actor uuid.UUID, arg ChildParams) (Child, error) {
	if blank(arg.FullName) {
		return Child{}, ErrFullNameRequired
	}

	child, err := s.repo.CreateChild(ctx, arg)
	if err != nil {
		return Child{}, err
	}
	s.audit.Record(ctx, actor, "create", "child", child.ID.String(), map[string]any{"fullName": child.FullName})
	return child, nil
}

func (s *Service) UpdateChild(ctx context.Context, actor, id uuid.UUID, arg ChildParams) (Child, error) {
	if arg.FullName != nil && blank(arg.FullName) {
		return Child{}, ErrFullNameRequired
	}

	child, err := s.repo.UpdateChild(ctx, id, arg)
	if err != nil {
		return Child{}, err
	}
	s.audit.Record(ctx, actor, "update", "child", child.ID.String(), nil)
	return child, nil
}

func (s *Service) DeleteChild(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.repo.DeleteChild(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, "delete", "child", id.String(), nil)
	return nil
}

func (s *Service) ListGuardians(ctx context.Context) ([]Guardian, error) {
	return s.repo.ListGuardians(ctx)
}

func (s *Service) ListGuardiansByChild(ctx context.Context, childID uuid.UUID) ([]Guardian, error) {
	return s.repo.ListGuardiansByChild(ctx, childID)
}

func (s *Service) CreateGuardian(ctx context.Context, actor uuid.UUID, arg GuardianParams) (Guardian, error) {
	if blank(arg.FullName) || blank(arg.Relationship) || blank(arg.PhoneWhatsApp) {
		return Guardian{}, ErrGuardianDataRequired
	}

	guardian, err := s.repo.CreateGuardian(ctx, arg)
	if err != nil {
		return Guardian{}, err
	}
	s.audit.Record(ctx, actor, "create", "guardian", guardian.ID.String(), map[string]any{"fullName": guardian.FullName})
	return guardian, nil
}

func (s *Service) UpdateGuardian(ctx context.Context, actor, id uuid.UUID, arg GuardianParams) (Guardian, error) {
	guardian, err := s.repo.UpdateGuardian(ctx, id, arg)
	if err != nil {
		return Guardian{}, err
	}
	s.audit.Record(ctx, actor, "update", "guardian", guardian.ID.String(), nil)
	return guardian, nil
}

func (s *Service) DeleteGuardian(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.repo.DeleteGuardian(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, "delete", "guardian", id.String(), nil)
	return nil
}

func (s *Service) LinkGuardian(ctx context.Context, actor, childID, guardianID uuid.UUID, isPrimary bool) error {
	if err := s.repo.LinkGuardian(ctx, childID, guardianID, isPrimary); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, "link", "guardian", guardianID.String(), map[string]any{"childId": childID})
	return nil
}

func (s *Service) ListClasses(ctx context.Context) ([]Class, error) {
	return s.repo.ListClasses(ctx)
}

func (s *Service) GetClass(ctx context.Context, id uuid.UUID) (Class, error) {
	return s.repo.GetClass(ctx, id)
}

func (s *Service) CreateClass(ctx context.Context, actor uuid.UUID, arg ClassParams) (Class, error) {
	if blank(arg.Name) {
		return Class{}, ErrClassNameRequired
	}

	class, err := s.repo.CreateClass(ctx, arg)
	if err != nil {
		return Class{}, err
	}
	s.audit.Record(ctx, actor, "create", "class", class.ID.String(), map[string]any{"name": class.Name})
	return class, nil
}

func (s *Service) UpdateClass(ctx context.Context, actor, id uuid.UUID, arg ClassParams) (Class, error) {
	class, err := s.repo.UpdateClass(ctx, id, arg)
	if err != nil {
		return Class{}, err
	}
	s.audit.Record(ctx, actor, "update", "class", class.ID.String(), nil)
	return class, nil
}

func (s *Service) DeleteClass(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.repo.DeleteClass(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, "delete", "class", id.String(), nil)
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
