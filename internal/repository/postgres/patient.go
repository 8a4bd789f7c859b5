package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

type patientRepository struct {
	exec Executor
}

func NewPatientRepository(exec Executor) repository.PatientRepository {
	return &patientRepository{exec: exec}
}

func (r *patientRepository) Create(ctx context.Context, fields validator.Fields) (*model.Patient, error) {
	cols := writableColumns()
	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))

	for _, c := range cols {
		// absent optional values are stored as NULL
		v, _ := fields.Get(c.field)
		args = append(args, v)
		names = append(names, c.name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		patientsTable, strings.Join(names, ", "), strings.Join(placeholders, ", "), projectionSQL)

	res, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	if res.RowCount == 0 {
		return nil, errors.New("failed to create patient: insert returned no row")
	}
	return r.one(res, "create")
}

func (r *patientRepository) GetByID(ctx context.Context, id int64) (*model.Patient, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", projectionSQL, patientsTable)

	res, err := r.exec.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if res.RowCount == 0 {
		return nil, repository.ErrNotFound
	}
	return r.one(res, "get")
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id DESC", projectionSQL, patientsTable)

	res, err := r.exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	patients := make([]*model.Patient, 0, res.RowCount)
	for _, row := range res.Rows {
		p, err := scanPatient(row)
		if err != nil {
			return nil, fmt.Errorf("failed to list patients: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func (r *patientRepository) Update(ctx context.Context, id int64, fields validator.Fields) (*model.Patient, error) {
	stmt, err := BuildUpdate(id, fields)
	if errors.Is(err, ErrNoChanges) {
		return r.GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	res, err := r.exec.Query(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	if res.RowCount == 0 {
		return nil, repository.ErrNotFound
	}
	return r.one(res, "update")
}

func (r *patientRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING id", patientsTable)

	res, err := r.exec.Query(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if res.RowCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *patientRepository) one(res *Result, op string) (*model.Patient, error) {
	p, err := scanPatient(res.Rows[0])
	if err != nil {
		return nil, fmt.Errorf("failed to %s patient: %w", op, err)
	}
	return p, nil
}
