package application

import "errors"

var (
	ErrStatusConflict  = errors.New("operation not allowed in current status")
	ErrInvalidDuration = errors.New("min duration must not exceed max duration")
	ErrInvalidPeriod   = errors.New("begin date must not be after end date")
)

// Status of an application through the seasonal round.
type Status string

const (
	StatusDraft        Status = "draft"
	StatusReceived     Status = "received"
	StatusInAllocation Status = "in_allocation"
	StatusHandled      Status = "handled"
	StatusSent         Status = "sent"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusReceived, StatusInAllocation, StatusHandled, StatusSent:
		return true
	default:
		return false
	}
}

// SectionStatus drives the per-section allocation state machine.
type SectionStatus string

const (
	SectionCreated   SectionStatus = "created"
	SectionValidated SectionStatus = "validated"
	SectionApproved  SectionStatus = "approved"
	SectionDeclined  SectionStatus = "declined"
)

func (s SectionStatus) String() string {
	return string(s)
}

// Priority of a suitable time range within a section.
type Priority string

const (
	PriorityPrimary   Priority = "primary"
	PrioritySecondary Priority = "secondary"
)
