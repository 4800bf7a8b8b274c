package notes

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
	"github.com/ministeriokids/api/internal/repo"
)

var (
	ErrNoteDataRequired = errors.New("criança, título e conteúdo são obrigatórios")
	ErrInvalidAttention = errors.New("nível de atenção inválido")
	ErrInvalidTag       = errors.New("categoria de anotação inválida")
)

type noteRepository interface {
	List(ctx context.Context) ([]Note, error)
	ListByChild(ctx context.Context, childID uuid.UUID) ([]Note, error)
	Get(ctx context.Context, id uuid.UUID) (Note, error)
	Create(ctx context.Context, createdBy uuid.UUID, arg NoteParams) (Note, error)
	Update(ctx context.Context, id uuid.UUID, arg UpdateParams) (Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo  noteRepository
	audit audit.Recorder
}

func NewService(repo noteRepository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

// List devolve as anotações visíveis para o usuário. Anotações sensíveis
// são restritas a administradores e líderes.
func (s *Service) List(ctx context.Context, viewer repo.User) ([]Note, error) {
	notes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterSensitive(notes, viewer), nil
}

func (s *Service) ListByChild(ctx context.Context, viewer repo.User, childID uuid.UUID) ([]Note, error) {
	notes, err := s.repo.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	return filterSensitive(notes, viewer), nil
}

func filterSensitive(notes []Note, viewer repo.User) []Note {
	if viewer.Role != repo.RoleAssistant {
		return notes
	}
	filtered := make([]Note, 0, len(notes))
	for _, n := range notes {
		if !n.IsSensitive {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

func (s *Service) Create(ctx context.Context, creator repo.User, arg NoteParams) (Note, error) {
	if err := validateParams(arg); err != nil {
		return Note{}, err
	}

	note, err := s.repo.Create(ctx, creator.ID, arg)
	if err != nil {
		return Note{}, err
	}
	s.audit.Record(ctx, creator.ID, "create", "note", note.ID.String(),
		map[string]any{"childId": note.ChildID})
	return note, nil
}

func (s *Service) Update(ctx context.Context, actor repo.User, id uuid.UUID, arg UpdateParams) (Note, error) {
	if err := validateUpdate(arg); err != nil {
		return Note{}, err
	}

	note, err := s.repo.Update(ctx, id, arg)
	if err != nil {
		return Note{}, err
	}
	s.audit.Record(ctx, actor.ID, "update", "note", note.ID.String(), nil)
	return note, nil
}

func (s *Service) Delete(ctx context.Context, actor repo.User, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.ID, "delete", "note", id.String(), nil)
	return nil
}

func validateParams(arg NoteParams) error {
	if arg.ChildID == uuid.Nil || strings.TrimSpace(arg.Title) == "" || strings.TrimSpace(arg.Content) == "" {
		return ErrNoteDataRequired
	}
	if !arg.AttentionLevel.Valid() {
		return ErrInvalidAttention
	}
	for _, tag := range arg.Tags {
		if !ValidTag(tag) {
			return ErrInvalidTag
		}
	}
	return nil
}

func validateUpdate(arg UpdateParams) error {
	if (arg.Title != nil && strings.TrimSpace(*arg.Title) == "") ||
		(arg.Content != nil && strings.TrimSpace(*arg.Content) == "") {
		return ErrNoteDataRequired
	}
	if arg.AttentionLevel != nil && !arg.AttentionLevel.Valid() {
		return ErrInvalidAttention
	}
	for _, tag := range arg.Tags {
		if !ValidTag(tag) {
			return ErrInvalidTag
		}
	}
	return nil
}
