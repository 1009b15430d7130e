package domain

import "time"

// Batch groups the records created by one upload.
type Batch struct {
	ID        int64     `db:"id"         json:"id"`
	FileName  string    `db:"file_name"  json:"file_name"`
	TotalDNIs int       `db:"total_dnis" json:"total_dnis"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Record tracks a single DNI through the verification pipeline.
// Payloads are opaque JSON produced by the stage lookup providers.
type Record struct {
	ID                int64     `db:"id"                 json:"id"`
	BatchID           int64     `db:"batch_id"           json:"batch_id"`
	DNI               string    `db:"dni"                json:"dni"`
	Status            Status    `db:"status"             json:"status"`
	RetryCount        int       `db:"retry_count"        json:"retry_count"`
	UniversityPayload *string   `db:"university_payload" json:"university_payload,omitempty"`
	InstitutePayload  *string   `db:"institute_payload"  json:"institute_payload,omitempty"`
	ErrorMessage      *string   `db:"error_message"      json:"error_message,omitempty"`
	CreatedAt         time.Time `db:"created_at"         json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"         json:"updated_at"`
}

// RecordUpdate carries the optional fields of a status update. Nil fields
// are left untouched in the database.
type RecordUpdate struct {
	UniversityPayload *string
	InstitutePayload  *string
	ErrorMessage      *string
}

// RecordFilter narrows record listings.
type RecordFilter struct {
	Status  *Status
	BatchID *int64
}
