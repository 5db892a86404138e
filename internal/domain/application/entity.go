package application

import (
	"time"

	"github.com/google/uuid"
)

// Application is an organisation's seasonal request for recurring time
// allocations inside an application round.
type Application struct {
	id         uuid.UUID
	roundID    uuid.UUID
	userID     uuid.UUID
	applicant  string
	status     Status
	flagged    bool
	sentAt     *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

func NewApplication(roundID, userID uuid.UUID, applicant string) *Application {
	return &Application{
		id:        uuid.New(),
		roundID:   roundID,
		userID:    userID,
		applicant: applicant,
		status:    StatusDraft,
	}
}

func ReconstructApplication(
	id, roundID, userID uuid.UUID,
	applicant string,
	status Status,
	flagged bool,
	sentAt *time.Time,
	createdAt, updatedAt time.Time,
) *Application {
	return &Application{
		id:        id,
		roundID:   roundID,
		userID:    userID,
		applicant: applicant,
		status:    status,
		flagged:   flagged,
		sentAt:    sentAt,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Submit moves a draft into the round's review queue.
func (a *Application) Submit() error {
	if a.status != StatusDraft {
		return ErrStatusConflict
	}
	a.status = StatusReceived
	return nil
}

func (a *Application) StartAllocation() error {
	if a.status != StatusReceived {
		return ErrStatusConflict
	}
	a.status = StatusInAllocation
	return nil
}

func (a *Application) MarkHandled() error {
	if a.status != StatusInAllocation {
		return ErrStatusConflict
	}
	a.status = StatusHandled
	return nil
}

// MarkSent records that decisions were delivered to the applicant.
func (a *Application) MarkSent(now time.Time) error {
	if a.status != StatusHandled {
		return ErrStatusConflict
	}
	a.status = StatusSent
	a.sentAt = &now
	return nil
}

// SetFlag raises or clears the staff follow-up flag. Once the
// application has been sent the flag may only be cleared; raising it
// requires a status where staff still handle the application.
func (a *Application) SetFlag(flagged bool) error {
	if !flagged {
		a.flagged = false
		return nil
	}
	switch a.status {
	case StatusReceived, StatusInAllocation, StatusHandled:
		a.flagged = true
		return nil
	default:
		return ErrStatusConflict
	}
}

func (a *Application) ID() uuid.UUID        { return a.id }
func (a *Application) RoundID() uuid.UUID   { return a.roundID }
func (a *Application) UserID() uuid.UUID    { return a.userID }
func (a *Application) Applicant() string    { return a.applicant }
func (a *Application) Status() Status       { return a.status }
func (a *Application) Flagged() bool        { return a.flagged }
func (a *Application) SentAt() *time.Time   { return a.sentAt }
func (a *Application) CreatedAt() time.Time { return a.createdAt }
func (a *Application) UpdatedAt() time.Time { return a.updatedAt }
