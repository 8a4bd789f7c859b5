package model

import (
	"regexp"
	"time"

	"github.com/jwalitptl/intake-api/pkg/validator"
)

// External field names, as they appear in request and response bodies.
const (
	FieldID          = "id"
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldAge         = "age"
	FieldPhoneNumber = "phoneNumber"
	FieldHealthIssue = "healthIssue"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
)

// Patient is a stored intake record.
type Patient struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Age         *int      `json:"age"`
	PhoneNumber string    `json:"phoneNumber"`
	HealthIssue string    `json:"healthIssue"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var phoneChars = regexp.MustCompile(`^[0-9+\-() ]+$`)

// PatientSchema validates create and update bodies. Rule order is the order
// fields are reported in and the order update terms are emitted.
var PatientSchema = validator.NewSchema(
	validator.Rule{Field: FieldFirstName, Kind: validator.RequiredString},
	validator.Rule{Field: FieldLastName, Kind: validator.RequiredString},
	validator.Rule{Field: FieldAge, Kind: validator.OptionalNonNegInt, Tag: "gte=0"},
	validator.Rule{
		Field:   FieldPhoneNumber,
		Kind:    validator.PatternString,
		Tag:     "min=7,max=20",
		Pattern: phoneChars,
		Messages: map[string]string{
			"min":     "phoneNumber must be at least 7 characters",
			"max":     "phoneNumber must be at most 20 characters",
			"pattern": "phoneNumber can only contain digits, spaces, +, -, ( and )",
		},
	},
	validator.Rule{Field: FieldHealthIssue, Kind: validator.DefaultString, Default: ""},
)
