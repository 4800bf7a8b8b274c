package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
	httpmiddleware "github.com/ministeriokids/api/internal/http/middleware"
	"github.com/ministeriokids/api/internal/repo"
)

type stubMessagingRepo struct {
	templates []Template
	sends     []Send
}

func (s *stubMessagingRepo) ListActiveTemplates(ctx context.Context, category *Category) ([]Template, error) {
	var out []Template
	for _, t := range s.templates {
		if !t.IsActive {
			continue
		}
		if category != nil && t.Category != *category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *stubMessagingRepo) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	for _, t := range s.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, repo.ErrNotFound
}

func (s *stubMessagingRepo) CreateTemplate(ctx context.Context, arg TemplateParams) (Template, error) {
	t := Template{ID: uuid.New(), Title: *arg.Title, BodyTemplate: *arg.BodyTemplate, Category: *arg.Category, IsActive: true}
	if arg.IsActive != nil {
		t.IsActive = *arg.IsActive
	}
	s.templates = append(s.templates, t)
	return t, nil
}

func (s *stubMessagingRepo) UpdateTemplate(ctx context.Context, id uuid.UUID, arg TemplateParams) (Template, error) {
	for i, t := range s.templates {
		if t.ID == id {
			if arg.BodyTemplate != nil {
				s.templates[i].BodyTemplate = *arg.BodyTemplate
			}
			if arg.IsActive != nil {
				s.templates[i].IsActive = *arg.IsActive
			}
			return s.templates[i], nil
		}
	}
	return Template{}, repo.ErrNotFound
}

func (s *stubMessagingRepo) LogSend(ctx context.Context, childID, guardianID uuid.UUID, templateID, sentBy *uuid.UUID, channel, message string) (Send, error) {
	send := Send{
		ID: uuid.New(), ChildID: childID, GuardianID: guardianID, MessageTemplateID: templateID,
		Channel: channel, GeneratedMessage: message, SentAt: time.Now(), SentBy: sentBy,
	}
	s.sends = append(s.sends, send)
	return send, nil
}

func (s *stubMessagingRepo) ListHistory(ctx context.Context, limit int) ([]Send, error) {
	return s.sends, nil
}

func newTestRouter(t *testing.T, stub *stubMessagingRepo) chi.Router {
	t.Helper()
	h := NewHandler(NewService(stub, audit.NopRecorder{}))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user := repo.User{ID: uuid.New(), Username: "lider", Role: repo.RoleLeader, IsActive: true}
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), httpmiddleware.ContextKeyUser, user)))
		})
	})
	Mount(r, h)
	return r
}

func TestRenderTemplate(t *testing.T) {
	body := "Olá {{responsavel}}, sentimos falta de {{crianca}} no culto."
	got := RenderTemplate(body, map[string]string{"responsavel": "Maria", "crianca": "Ana"})
	want := "Olá Maria, sentimos falta de Ana no culto."
	if got != want {
		t.Fatalf("render = %q, esperado %q", got, want)
	}

	// token sem valor permanece no texto
	got = RenderTemplate("Oi {{nome}}", nil)
	if got != "Oi {{nome}}" {
		t.Fatalf("render = %q", got)
	}
}

func TestSendLogsVerbatimMessage(t *testing.T) {
	stub := &stubMessagingRepo{}
	router := newTestRouter(t, stub)

	active := true
	title := "Falta"
	body := "Sentimos falta de {{crianca}}!"
	category := CategoryFalta
	template, _ := stub.CreateTemplate(context.Background(), TemplateParams{
		Title: &title, BodyTemplate: &body, Category: &category, IsActive: &active,
	})

	payload, _ := json.Marshal(sendRequest{
		ChildID:    uuid.New(),
		GuardianID: uuid.New(),
		TemplateID: &template.ID,
		Variables:  map[string]string{"crianca": "Ana"},
	})
	req := httptest.NewRequest(http.MethodPost, "/messages/send", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(stub.sends) != 1 {
		t.Fatalf("envios = %d", len(stub.sends))
	}
	if stub.sends[0].GeneratedMessage != "Sentimos falta de Ana!" {
		t.Fatalf("mensagem registrada = %q", stub.sends[0].GeneratedMessage)
	}

	// editar o modelo depois não muda o histórico
	newBody := "Outro texto {{crianca}}"
	if _, err := stub.UpdateTemplate(context.Background(), template.ID, TemplateParams{BodyTemplate: &newBody}); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/messages/history", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var history []Send
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if len(history) != 1 || history[0].GeneratedMessage != "Sentimos falta de Ana!" {
		t.Fatalf("histórico alterado: %+v", history)
	}
}

func TestSendRequiresChildAndGuardian(t *testing.T) {
	router := newTestRouter(t, &stubMessagingRepo{})

	req := httptest.NewRequest(http.MethodPost, "/messages/send",
		bytes.NewBufferString(`{"message":"oi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListTemplatesOnlyActive(t *testing.T) {
	stub := &stubMessagingRepo{templates: []Template{
		{ID: uuid.New(), Title: "Ativo", Category: CategoryAviso, IsActive: true},
		{ID: uuid.New(), Title: "Inativo", Category: CategoryAviso, IsActive: false},
	}}
	router := newTestRouter(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/message-templates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var templates []Template
	if err := json.Unmarshal(rec.Body.Bytes(), &templates); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if len(templates) != 1 || templates[0].Title != "Ativo" {
		t.Fatalf("modelos = %+v", templates)
	}
}

func TestCreateTemplateRejectsUnknownCategory(t *testing.T) {
	router := newTestRouter(t, &stubMessagingRepo{})

	req := httptest.NewRequest(http.MethodPost, "/message-templates",
		bytes.NewBufferString(`{"title":"t","bodyTemplate":"b","category":"spam"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
