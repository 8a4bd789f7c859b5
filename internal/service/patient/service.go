package patient

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/internal/service/event"
	apperrors "github.com/jwalitptl/intake-api/pkg/errors"
)

// PatientService validates request bodies and runs the matching store
// operation. Errors are *apperrors.ValidationError or *apperrors.AppError.
type PatientService interface {
	CreatePatient(ctx context.Context, input map[string]interface{}) (*model.Patient, error)
	GetPatient(ctx context.Context, id int64) (*model.Patient, error)
	ListPatients(ctx context.Context) ([]*model.Patient, error)
	UpdatePatient(ctx context.Context, id int64, input map[string]interface{}) (*model.Patient, error)
	DeletePatient(ctx context.Context, id int64) error
}

type Service struct {
	repo   repository.PatientRepository
	events event.Emitter
	now    func() time.Time
}

func NewService(repo repository.PatientRepository, events event.Emitter) *Service {
	return &Service{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *Service) CreatePatient(ctx context.Context, input map[string]interface{}) (*model.Patient, error) {
	fields, err := model.PatientSchema.ValidateCreate(input)
	if err != nil {
		return nil, err
	}

	patient, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, storageError(err)
	}

	s.emit(ctx, model.EventPatientCreated, patient.ID, nil)
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*model.Patient, error) {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	if patients == nil {
		patients = []*model.Patient{}
	}
	return patients, nil
}

// UpdatePatient applies the fields present in input. A body with no known
// fields returns the current record unchanged.
func (s *Service) UpdatePatient(ctx context.Context, id int64, input map[string]interface{}) (*model.Patient, error) {
	fields, err := model.PatientSchema.ValidateUpdate(input)
	if err != nil {
		return nil, err
	}

	patient, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storageError(err)
	}

	if changed := fields.Provided(); len(changed) > 0 {
		s.emit(ctx, model.EventPatientUpdated, id, changed)
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err)
	}

	s.emit(ctx, model.EventPatientDeleted, id, nil)
	return nil
}

func (s *Service) emit(ctx context.Context, eventType string, id int64, changed []string) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, eventType, model.PatientEvent{
		Type:          eventType,
		PatientID:     id,
		ChangedFields: changed,
		OccurredAt:    s.now().UTC(),
	})
}

func storageError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("patient", err)
	}
	return apperrors.NewStorage(err)
}
