package devotional

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
)

var (
	ErrInvalidStatus = errors.New("status inválido")
	ErrWeekRequired  = errors.New("referência da semana e tema são obrigatórios")
	ErrVerseRequired = errors.New("referência e texto do versículo são obrigatórios")
)

type devotionalRepository interface {
	ListWeeks(ctx context.Context) ([]MeditationWeek, error)
	CreateWeek(ctx context.Context, weekReference, theme string, materialLink *string, allowsAttachments bool) (MeditationWeek, error)
	CurrentWeek(ctx context.Context) (MeditationWeek, error)
	ListDeliveriesByWeek(ctx context.Context, weekID uuid.UUID) ([]Delivery, error)
	UpsertDelivery(ctx context.Context, childID, weekID uuid.UUID, status DeliveryStatus, evidenceURL, observation *string) (Delivery, error)
	ListVerses(ctx context.Context) ([]Verse, error)
	CreateVerse(ctx context.Context, reference, text string, weekReference *string) (Verse, error)
	ListMemorizations(ctx context.Context, childID *uuid.UUID) ([]Memorization, error)
	UpsertMemorization(ctx context.Context, childID, verseID uuid.UUID, status MemorizationStatus, observation *string) (Memorization, error)
}

type Service struct {
	repo  devotionalRepository
	audit audit.Recorder
}

func NewService(repo devotionalRepository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

func (s *Service) ListWeeks(ctx context.Context) ([]MeditationWeek, error) {
	return s.repo.ListWeeks(ctx)
}

func (s *Service) CreateWeek(ctx context.Context, actor uuid.UUID, weekReference, theme string, materialLink *string, allowsAttachments bool) (MeditationWeek, error) {
	if strings.TrimSpace(weekReference) == "" || strings.TrimSpace(theme) == "" {
		return MeditationWeek{}, ErrWeekRequired
	}
	week, err := s.repo.CreateWeek(ctx, weekReference, theme, materialLink, allowsAttachments)
	if err != nil {
		return MeditationWeek{}, err
	}
	s.audit.Record(ctx, actor, "create", "meditation_week", week.ID.String(),
		map[string]any{"weekReference": week.WeekReference})
	return week, nil
}

func (s *Service) CurrentWeek(ctx context.Context) (MeditationWeek, error) {
	return s.repo.CurrentWeek(ctx)
}

// CurrentDeliveries lista as entregas da semana vigente.
func (s *Service) CurrentDeliveries(ctx context.Context) ([]Delivery, error) {
	week, err := s.repo.CurrentWeek(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDeliveriesByWeek(ctx, week.ID)
}

func (s *Service) ListDeliveriesByWeek(ctx context.Context, weekID uuid.UUID) ([]Delivery, error) {
	return s.repo.ListDeliveriesByWeek(ctx, weekID)
}

func (s *Service) UpdateDeliveryStatus(ctx context.Context, actor, childID, weekID uuid.UUID, status DeliveryStatus, evidenceURL, observation *string) (Delivery, error) {
	if !status.Valid() {
		return Delivery{}, ErrInvalidStatus
	}
	delivery, err := s.repo.UpsertDelivery(ctx, childID, weekID, status, evidenceURL, observation)
	if err != nil {
		return Delivery{}, err
	}
	s.audit.Record(ctx, actor, "update", "meditation_delivery", delivery.ID.String(),
		map[string]any{"childId": childID, "status": string(status)})
	return delivery, nil
}

func (s *Service) ListVerses(ctx context.Context) ([]Verse, error) {
	return s.repo.ListVerses(ctx)
}

func (s *Service) CreateVerse(ctx context.Context, actor uuid.UUID, reference, text string, weekReference *string) (Verse, error) {
	if strings.TrimSpace(reference) == "" || strings.TrimSpace(text) == "" {
		return Verse{}, ErrVerseRequired
	}
	verse, err := s.repo.CreateVerse(ctx, reference, text, weekReference)
	if err != nil {
		return Verse{}, err
	}
	s.audit.Record(ctx, actor, "create", "bible_verse", verse.ID.String(),
		map[string]any{"reference": verse.Reference})
	return verse, nil
}

func (s *Service) ListMemorizations(ctx context.Context, childID *uuid.UUID) ([]Memorization, error) {
	return s.repo.ListMemorizations(ctx, childID)
}

func (s *Service) UpdateMemorization(ctx context.Context, actor, childID, verseID uuid.UUID, status MemorizationStatus, observation *string) (Memorization, error) {
	if !status.Valid() {
		return Memorization{}, ErrInvalidStatus
	}
	memorization, err := s.repo.UpsertMemorization(ctx, childID, verseID, status, observation)
	if err != nil {
		return Memorization{}, err
	}
	s.audit.Record(ctx, actor, "update", "verse_memorization", memorization.ID.String(),
		map[string]any{"childId": childID, "status": string(status)})
	return memorization, nil
}
