package model

import "time"

// Change event types published after a successful mutation.
const (
	EventPatientCreated = "patient.created"
	EventPatientUpdated = "patient.updated"
	EventPatientDeleted = "patient.deleted"
)

// PatientEvent announces a change to a record. It carries ids and field
// names only, never field values.
type PatientEvent struct {
	Type          string    `json:"type"`
	PatientID     int64     `json:"patientId"`
	ChangedFields []string  `json:"changedFields,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}
