package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/intake-api/internal/model"
)

const patientsTable = "patients"

type column struct {
	field    string
	name     string
	writable bool
}

// patientColumns maps external field names to storage columns, in
// projection order. Only writable columns accept caller values.
var patientColumns = []column{
	{field: model.FieldID, name: "id"},
	{field: model.FieldFirstName, name: "first_name", writable: true},
	{field: model.FieldLastName, name: "last_name", writable: true},
	{field: model.FieldAge, name: "age", writable: true},
	{field: model.FieldPhoneNumber, name: "phone_number", writable: true},
	{field: model.FieldHealthIssue, name: "health_issue", writable: true},
	{field: model.FieldCreatedAt, name: "created_at"},
	{field: model.FieldUpdatedAt, name: "updated_at"},
}

// StorageColumn returns the column for a caller-settable field. Unknown
// and system-owned fields report false.
func StorageColumn(field string) (string, bool) {
	for _, c := range patientColumns {
		if c.field == field && c.writable {
			return c.name, true
		}
	}
	return "", false
}

// Projection lists every column aliased back to its external name.
func Projection() []string {
	out := make([]string, 0, len(patientColumns))
	for _, c := range patientColumns {
		out = append(out, fmt.Sprintf("%s AS %q", c.name, c.field))
	}
	return out
}

var projectionSQL = strings.Join(Projection(), ", ")

func writableColumns() []column {
	out := make([]column, 0, len(patientColumns))
	for _, c := range patientColumns {
		if c.writable {
			out = append(out, c)
		}
	}
	return out
}

// scanPatient converts a projected row back into a Patient.
func scanPatient(row Row) (*model.Patient, error) {
	p := &model.Patient{}
	var err error

	if p.ID, err = int64Value(row, model.FieldID); err != nil {
		return nil, err
	}
	if p.FirstName, err = stringValue(row, model.FieldFirstName); err != nil {
		return nil, err
	}
	if p.LastName, err = stringValue(row, model.FieldLastName); err != nil {
		return nil, err
	}
	if row[model.FieldAge] != nil {
		age, err := int64Value(row, model.FieldAge)
		if err != nil {
			return nil, err
		}
		a := int(age)
		p.Age = &a
	}
	if p.PhoneNumber, err = stringValue(row, model.FieldPhoneNumber); err != nil {
		return nil, err
	}
	if p.HealthIssue, err = stringValue(row, model.FieldHealthIssue); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = timeValue(row, model.FieldCreatedAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = timeValue(row, model.FieldUpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func stringValue(row Row, key string) (string, error) {
	switch v := row[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unexpected type %T for %s", v, key)
	}
}

func int64Value(row Row, key string) (int64, error) {
	switch v := row[key].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T for %s", v, key)
	}
}

func timeValue(row Row, key string) (time.Time, error) {
	switch v := row[key].(type) {
	case time.Time:
		return v, nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T for %s", v, key)
	}
}
