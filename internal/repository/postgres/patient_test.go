package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

var ts = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func patientRow(id int64, first string, age interface{}) Row {
	return Row{
		"id":          id,
		"firstName":   first,
		"lastName":    "Lovelace",
		"age":         age,
		"phoneNumber": "5551234567",
		"healthIssue": "",
		"createdAt":   ts,
		"updatedAt":   ts,
	}
}

func TestPatientRepository_Create(t *testing.T) {
	exec := &fakeExecutor{results: []*Result{rows(patientRow(1, "Ada", nil))}}
	repo := NewPatientRepository(exec)

	fields, err := model.PatientSchema.ValidateCreate(map[string]interface{}{
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"phoneNumber": "5551234567",
	})
	require.NoError(t, err)

	p, err := repo.Create(context.Background(), fields)
	require.NoError(t, err)

	require.Len(t, exec.calls, 1)
	assert.Equal(t,
		"INSERT INTO patients (first_name, last_name, age, phone_number, health_issue) VALUES ($1, $2, $3, $4, $5) RETURNING "+wantProjection,
		exec.calls[0].query)
	assert.Equal(t, []interface{}{"Ada", "Lovelace", nil, "5551234567", ""}, exec.calls[0].args)

	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Nil(t, p.Age)
	assert.Equal(t, "", p.HealthIssue)
	assert.Equal(t, ts, p.CreatedAt)
}

func TestPatientRepository_GetByID(t *testing.T) {
	exec := &fakeExecutor{results: []*Result{rows(patientRow(4, "Ada", int64(36)))}}
	repo := NewPatientRepository(exec)

	p, err := repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, p.Age)
	assert.Equal(t, 36, *p.Age)

	assert.Equal(t, "SELECT "+wantProjection+" FROM patients WHERE id = $1", exec.calls[0].query)
	assert.Equal(t, []interface{}{int64(4)}, exec.calls[0].args)
}

func TestPatientRepository_GetByIDNotFound(t *testing.T) {
	repo := NewPatientRepository(&fakeExecutor{})

	_, err := repo.GetByID(context.Background(), 4)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatientRepository_List(t *testing.T) {
	exec := &fakeExecutor{results: []*Result{rows(
		patientRow(3, "C", nil),
		patientRow(2, "B", nil),
		patientRow(1, "A", nil),
	)}}
	repo := NewPatientRepository(exec)

	list, err := repo.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+wantProjection+" FROM patients ORDER BY id DESC", exec.calls[0].query)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{list[0].FirstName, list[1].FirstName, list[2].FirstName})
}

func TestPatientRepository_ListEmpty(t *testing.T) {
	list, err := NewPatientRepository(&fakeExecutor{}).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPatientRepository_Update(t *testing.T) {
	exec := &fakeExecutor{results: []*Result{rows(patientRow(1, "Ada", int64(36)))}}
	repo := NewPatientRepository(exec)

	fields, err := model.PatientSchema.ValidateUpdate(map[string]interface{}{"age": 36})
	require.NoError(t, err)

	p, err := repo.Update(context.Background(), 1, fields)
	require.NoError(t, err)
	assert.Equal(t, 36, *p.Age)

	require.Len(t, exec.calls, 1)
	assert.Equal(t,
		"UPDATE patients SET age = $1, updated_at = NOW() WHERE id = $2 RETURNING "+wantProjection,
		exec.calls[0].query)
	assert.Equal(t, []interface{}{36, int64(1)}, exec.calls[0].args)
}

func TestPatientRepository_UpdateNoChangesReReads(t *testing.T) {
	exec := &fakeExecutor{results: []*Result{rows(patientRow(1, "Ada", nil))}}
	repo := NewPatientRepository(exec)

	fields, err := model.PatientSchema.ValidateUpdate(map[string]interface{}{})
	require.NoError(t, err)

	p, err := repo.Update(context.Background(), 1, fields)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "SELECT "+wantProjection+" FROM patients WHERE id = $1", exec.calls[0].query)
}

func TestPatientRepository_UpdateNotFound(t *testing.T) {
	repo := NewPatientRepository(&fakeExecutor{})

	_, err := repo.Update(context.Background(), 9, validator.Fields{{Name: "firstName", Value: "X"}})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Update(context.Background(), 9, validator.Fields{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatientRepository_Delete(t *testing.T) {
	exec := &fakeExecutor{results: []*Result{rows(Row{"id": int64(2)}), rows()}}
	repo := NewPatientRepository(exec)

	require.NoError(t, repo.Delete(context.Background(), 2))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), repository.ErrNotFound)

	assert.Equal(t, "DELETE FROM patients WHERE id = $1 RETURNING id", exec.calls[0].query)
}

func TestPatientRepository_StorageErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	repo := NewPatientRepository(&fakeExecutor{err: boom})
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = repo.Update(ctx, 1, validator.Fields{{Name: "firstName", Value: "X"}})
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, repo.Delete(ctx, 1), boom)
}

func TestScanPatient_RejectsUnexpectedTypes(t *testing.T) {
	row := patientRow(1, "Ada", nil)
	row["createdAt"] = "yesterday"

	_, err := scanPatient(row)
	assert.Error(t, err)
}

func TestScanPatient_ByteStrings(t *testing.T) {
	row := patientRow(1, "Ada", []byte("12"))
	row["lastName"] = []byte("Byron")

	p, err := scanPatient(row)
	require.NoError(t, err)
	assert.Equal(t, "Byron", p.LastName)
	assert.Equal(t, 12, *p.Age)
}
