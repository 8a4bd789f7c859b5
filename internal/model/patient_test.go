package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	verr, ok := apperrors.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	out := map[string]string{}
	for _, d := range verr.Details {
		out[d.Field] = d.Message
	}
	return out
}

func TestPatientSchema_CreateDefaults(t *testing.T) {
	fields, err := PatientSchema.ValidateCreate(map[string]interface{}{
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"phoneNumber": "5551234567",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{FieldFirstName, FieldLastName, FieldPhoneNumber, FieldHealthIssue}, fields.Provided())
	issue, _ := fields.Get(FieldHealthIssue)
	assert.Equal(t, "", issue)
	_, hasAge := fields.Get(FieldAge)
	assert.False(t, hasAge)
}

func TestPatientSchema_CreateMissingEverything(t *testing.T) {
	_, err := PatientSchema.ValidateCreate(map[string]interface{}{})

	got := fieldMessages(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "firstName is required", got[FieldFirstName])
	assert.Equal(t, "lastName is required", got[FieldLastName])
	assert.Equal(t, "phoneNumber is required", got[FieldPhoneNumber])
}

func TestPatientSchema_Phone(t *testing.T) {
	tests := []struct {
		phone string
		msg   string
	}{
		{"+1 (555) 222-3333", ""},
		{"5551234", ""},
		{"12345678901234567890", ""},
		{"abc", "phoneNumber must be at least 7 characters"},
		{"555-CALL-NOW", "phoneNumber can only contain digits, spaces, +, -, ( and )"},
		{"123456", "phoneNumber must be at least 7 characters"},
		{"123456789012345678901", "phoneNumber must be at most 20 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			_, err := PatientSchema.ValidateUpdate(map[string]interface{}{"phoneNumber": tt.phone})
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.msg, fieldMessages(t, err)[FieldPhoneNumber])
		})
	}
}

func TestPatientSchema_Age(t *testing.T) {
	fields, err := PatientSchema.ValidateUpdate(map[string]interface{}{"age": json.Number("0")})
	require.NoError(t, err)
	v, ok := fields.Get(FieldAge)
	require.True(t, ok)
	assert.Equal(t, 0, v)

	_, err = PatientSchema.ValidateUpdate(map[string]interface{}{"age": json.Number("-1")})
	assert.Contains(t, fieldMessages(t, err), FieldAge)

	fields, err = PatientSchema.ValidateUpdate(map[string]interface{}{"age": ""})
	require.NoError(t, err)
	age := fields[2]
	assert.Equal(t, FieldAge, age.Name)
	assert.True(t, validator.IsNotProvided(age.Value))
}

func TestPatient_JSONShape(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := json.Marshal(Patient{ID: 1, FirstName: "Ada", LastName: "Lovelace", PhoneNumber: "5551234567", CreatedAt: ts, UpdatedAt: ts})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": 1,
		"firstName": "Ada",
		"lastName": "Lovelace",
		"age": null,
		"phoneNumber": "5551234567",
		"healthIssue": "",
		"createdAt": "2024-01-02T03:04:05Z",
		"updatedAt": "2024-01-02T03:04:05Z"
	}`, string(b))
}
