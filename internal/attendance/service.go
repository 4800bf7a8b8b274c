package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ministeriokids/api/internal/audit"
)

var (
	ErrInvalidStatus = errors.New("status de presença inválido")
	ErrDateRequired  = errors.New("data é obrigatória")
)

// DefaultStreakLimit limita a janela da contagem de faltas seguidas.
const DefaultStreakLimit = 5

type attendanceRepository interface {
	ListClassMeetings(ctx context.Context, classID *uuid.UUID) ([]ClassMeeting, error)
	CreateClassMeeting(ctx context.Context, classID *uuid.UUID, date time.Time, observations *string) (ClassMeeting, error)
	ListWorshipServices(ctx context.Context) ([]WorshipService, error)
	CreateWorshipService(ctx context.Context, date time.Time, description, observations *string) (WorshipService, error)
	MarkClass(ctx context.Context, meetingID, childID uuid.UUID, status Status, observation *string) (ClassRecord, error)
	MarkWorship(ctx context.Context, serviceID, childID uuid.UUID, status Status, observation *string) (WorshipRecord, error)
	ListClassByDate(ctx context.Context, date time.Time) ([]ClassRecord, error)
	ListWorshipByDate(ctx context.Context, date time.Time) ([]WorshipRecord, error)
	RecentClassStatuses(ctx context.Context, childID uuid.UUID, limit int) ([]Status, error)
}

type Service struct {
	repo  attendanceRepository
	audit audit.Recorder
}

func NewService(repo attendanceRepository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

func (s *Service) ListClassMeetings(ctx context.Context, classID *uuid.UUID) ([]ClassMeeting, error) {
	return s.repo.ListClassMeetings(ctx, classID)
}

func (s *Service) CreateClassMeeting(ctx context.Context, actor uuid.UUID, classID *uuid.UUID, date time.Time, observations *string) (ClassMeeting, error) {
	if date.IsZero() {
		return ClassMeeting{}, ErrDateRequired
	}
	meeting, err := s.repo.CreateClassMeeting(ctx, classID, date, observations)
	if err != nil {
		return ClassMeeting{}, err
	}
	s.audit.Record(ctx, actor, "create", "class_meeting", meeting.ID.String(), nil)
	return meeting, nil
}

func (s *Service) ListWorshipServices(ctx context.Context) ([]WorshipService, error) {
	return s.repo.ListWorshipServices(ctx)
}

func (s *Service) CreateWorshipService(ctx context.Context, actor uuid.UUID, date time.Time, description, observations *string) (WorshipService, error) {
	if date.IsZero() {
		return WorshipService{}, ErrDateRequired
	}
	service, err := s.repo.CreateWorshipService(ctx, date, description, observations)
	if err != nil {
		return WorshipService{}, err
	}
	s.audit.Record(ctx, actor, "create", "worship_service", service.ID.String(), nil)
	return service, nil
}

func (s *Service) MarkClass(ctx context.Context, actor, meetingID, childID uuid.UUID, status Status, observation *string) (ClassRecord, error) {
	if !status.Valid() {
		return ClassRecord{}, ErrInvalidStatus
	}
	record, err := s.repo.MarkClass(ctx, meetingID, childID, status, observation)
	if err != nil {
		return ClassRecord{}, err
	}
	s.audit.Record(ctx, actor, "mark", "class_attendance", record.ID.String(),
		map[string]any{"childId": childID, "status": string(status)})
	return record, nil
}

func (s *Service) MarkWorship(ctx context.Context, actor, serviceID, childID uuid.UUID, status Status, observation *string) (WorshipRecord, error) {
	if !status.Valid() {
		return WorshipRecord{}, ErrInvalidStatus
	}
	record, err := s.repo.MarkWorship(ctx, serviceID, childID, status, observation)
	if err != nil {
		return WorshipRecord{}, err
	}
	s.audit.Record(ctx, actor, "mark", "worship_attendance", record.ID.String(),
		map[string]any{"childId": childID, "status": string(status)})
	return record, nil
}

func (s *Service) ListClassByDate(ctx context.Context, date time.Time) ([]ClassRecord, error) {
	return s.repo.ListClassByDate(ctx, date)
}

func (s *Service) ListWorshipByDate(ctx context.Context, date time.Time) ([]WorshipRecord, error) {
	return s.repo.ListWorshipByDate(ctx, date)
}

// ConsecutiveAbsences conta a sequência de "ausente" a partir do registro
// mais recente, parando na primeira presença. É uma sequência, não um total.
func (s *Service) ConsecutiveAbsences(ctx context.Context, childID uuid.UUID, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultStreakLimit
	}

	statuses, err := s.repo.RecentClassStatuses(ctx, childID, limit)
	if err != nil {
		return 0, err
	}

	streak := 0
	for _, st := range statuses {
		if st != StatusAusente {
			break
		}
		streak++
	}
	return streak, nil
}
