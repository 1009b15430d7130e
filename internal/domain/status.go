package domain

import "fmt"

// Status is the closed set of pipeline states a record can be in.
// Values are stored as-is in the database; ParseStatus is the only way
// external input may enter the set.
type Status string

const (
	StatusPending            Status = "pending"
	StatusCheckingUniversity Status = "checking_university"
	StatusFoundUniversity    Status = "found_university"
	StatusCheckingInstitute  Status = "checking_institute"
	StatusFoundInstitute     Status = "found_institute"
	StatusNotFound           Status = "not_found"
	StatusFailed             Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusCheckingUniversity,
	StatusFoundUniversity,
	StatusCheckingInstitute,
	StatusFoundInstitute,
	StatusNotFound,
	StatusFailed,
}

// ActiveStatuses are the states that count as work still in flight.
var ActiveStatuses = []Status{
	StatusPending,
	StatusCheckingUniversity,
	StatusCheckingInstitute,
}

// RetryableStatuses are the terminal states the retry operation resets.
var RetryableStatuses = []Status{
	StatusNotFound,
	StatusFailed,
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusFoundUniversity, StatusFoundInstitute, StatusNotFound, StatusFailed:
		return true
	}
	return false
}

func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusCheckingUniversity, StatusCheckingInstitute:
		return true
	}
	return false
}

func (s Status) IsRetryable() bool {
	return s == StatusNotFound || s == StatusFailed
}

func ParseStatus(raw string) (Status, error) {
	for _, s := range allStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}
