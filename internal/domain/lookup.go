package domain

import "encoding/json"

// LookupResult is the outcome of one registry lookup for one DNI.
// Reason is non-empty whenever Found is false.
type LookupResult struct {
	Found   bool            `json:"found"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}
