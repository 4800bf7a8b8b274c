package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
)

var (
	ErrTemplateDataRequired = errors.New("título, corpo e categoria são obrigatórios")
	ErrInvalidCategory      = errors.New("categoria de mensagem inválida")
	ErrSendDataRequired     = errors.New("criança, responsável e mensagem são obrigatórios")
)

// DefaultChannel é o canal assumido quando o envio não informa outro.
const DefaultChannel = "whatsapp"

// RenderTemplate substitui tokens {{variavel}} pelos valores informados.
// Tokens sem valor correspondente ficam intactos no texto.
func RenderTemplate(body string, variables map[string]string) string {
	rendered := body
	for name, value := range variables {
		rendered = strings.ReplaceAll(rendered, "{{"+name+"}}", value)
	}
	return rendered
}

type messagingRepository interface {
	ListActiveTemplates(ctx context.Context, category *Category) ([]Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (Template, error)
	CreateTemplate(ctx context.Context, arg TemplateParams) (Template, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, arg TemplateParams) (Template, error)
	LogSend(ctx context.Context, childID, guardianID uuid.UUID, templateID, sentBy *uuid.UUID, channel, message string) (Send, error)
	ListHistory(ctx context.Context, limit int) ([]Send, error)
}

type Service struct {
	repo  messagingRepository
	audit audit.Recorder
}

func NewService(repo messagingRepository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

func (s *Service) ListTemplates(ctx context.Context, category *Category) ([]Template, error) {
	if category != nil && !category.Valid() {
		return nil, ErrInvalidCategory
	}
	return s.repo.ListActiveTemplates(ctx, category)
}

func (s *Service) CreateTemplate(ctx context.Context, actor uuid.UUID, arg TemplateParams) (Template, error) {
	if arg.Title == nil || strings.TrimSpace(*arg.Title) == "" ||
		arg.BodyTemplate == nil || strings.TrimSpace(*arg.BodyTemplate) == "" ||
		arg.Category == nil {
		return Template{}, ErrTemplateDataRequired
	}
	if !arg.Category.Valid() {
		return Template{}, ErrInvalidCategory
	}

	template, err := s.repo.CreateTemplate(ctx, arg)
	if err != nil {
		return Template{}, err
	}
	s.audit.Record(ctx, actor, "create", "message_template", template.ID.String(),
		map[string]any{"title": template.Title})
	return template, nil
}

func (s *Service) UpdateTemplate(ctx context.Context, actor, id uuid.UUID, arg TemplateParams) (Template, error) {
	if arg.Category != nil && !arg.Category.Valid() {
		return Template{}, ErrInvalidCategory
	}

	template, err := s.repo.UpdateTemplate(ctx, id, arg)
	if err != nil {
		return Template{}, err
	}
	s.audit.Record(ctx, actor, "update", "message_template", template.ID.String(), nil)
	return template, nil
}

// SendParams descreve um envio. Quando TemplateID está presente a mensagem
// é renderizada a partir do modelo; caso contrário Message é usada como veio.
type SendParams struct {
	ChildID    uuid.UUID
	GuardianID uuid.UUID
	TemplateID *uuid.UUID
	Channel    string
	Message    string
	Variables  map[string]string
}

// Send registra o envio com o texto final. O histórico guarda o texto
// renderizado; editar o modelo depois não altera o que já foi registrado.
func (s *Service) Send(ctx context.Context, sender uuid.UUID, arg SendParams) (Send, error) {
	if arg.ChildID == uuid.Nil || arg.GuardianID == uuid.Nil {
		return Send{}, ErrSendDataRequired
	}

	message := arg.Message
	if arg.TemplateID != nil {
		template, err := s.repo.GetTemplate(ctx, *arg.TemplateID)
		if err != nil {
			return Send{}, err
		}
		message = RenderTemplate(template.BodyTemplate, arg.Variables)
	}
	if strings.TrimSpace(message) == "" {
		return Send{}, ErrSendDataRequired
	}

	channel := arg.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	send, err := s.repo.LogSend(ctx, arg.ChildID, arg.GuardianID, arg.TemplateID, &sender, channel, message)
	if err != nil {
		return Send{}, err
	}
	s.audit.Record(ctx, sender, "send", "message", send.ID.String(),
		map[string]any{"childId": arg.ChildID, "guardianId": arg.GuardianID, "channel": channel})
	return send, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]Send, error) {
	return s.repo.ListHistory(ctx, limit)
}
