package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("record not found")

// PatientRepository persists intake records. Every method is one round trip
// to the store. Fields come from model.PatientSchema.
type PatientRepository interface {
	Create(ctx context.Context, fields validator.Fields) (*model.Patient, error)
	GetByID(ctx context.Context, id int64) (*model.Patient, error)
	// List returns every record, newest id first.
	List(ctx context.Context) ([]*model.Patient, error)
	// Update writes only the provided fields. With nothing to write it
	// returns the current record.
	Update(ctx context.Context, id int64, fields validator.Fields) (*model.Patient, error)
	Delete(ctx context.Context, id int64) error
}
