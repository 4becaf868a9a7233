package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// ReportID identifies one loaded report instance
type ReportID ID

// NewReportID creates a report instance identifier
func NewReportID() ReportID { return ReportID(NewID()) }

func (id ReportID) String() string { return ID(id).String() }

// ParseReportID accepts only well-formed UUIDs so route parameters cannot
// be used to look up arbitrary keys.
func ParseReportID(s string) (ReportID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("report ID cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid report ID %q: %w", s, err)
	}
	return ReportID(u.String()), nil
}
