package application_test

import (
	"testing"
	"time"

	"booking-core/internal/domain/application"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, status application.Status) *application.Application {
	t.Helper()
	app := application.NewApplication(uuid.New(), uuid.New(), "Chess club")

	advance := func(err error) { require.NoError(t, err) }
	switch status {
	case application.StatusDraft:
	case application.StatusReceived:
		advance(app.Submit())
	case application.StatusInAllocation:
		advance(app.Submit())
		advance(app.StartAllocation())
	case application.StatusHandled:
		advance(app.Submit())
		advance(app.StartAllocation())
		advance(app.MarkHandled())
	case application.StatusSent:
		advance(app.Submit())
		advance(app.StartAllocation())
		advance(app.MarkHandled())
		advance(app.MarkSent(time.Now()))
	}
	require.Equal(t, status, app.Status())
	return app
}

func TestApplication_StatusMachine(t *testing.T) {
	t.Run("full path draft to sent", func(t *testing.T) {
		app := newApp(t, application.StatusSent)
		assert.NotNil(t, app.SentAt())
	})

	t.Run("submit twice fails", func(t *testing.T) {
		app := newApp(t, application.StatusReceived)
		assert.ErrorIs(t, app.Submit(), application.ErrStatusConflict)
	})

	t.Run("cannot send before handling", func(t *testing.T) {
		app := newApp(t, application.StatusInAllocation)
		assert.ErrorIs(t, app.MarkSent(time.Now()), application.ErrStatusConflict)
	})
}

func TestApplication_SetFlag(t *testing.T) {
	tests := []struct {
		name    string
		status  application.Status
		flagged bool
		errIs   error
	}{
		{name: "raising while received", status: application.StatusReceived, flagged: true},
		{name: "raising while in allocation", status: application.StatusInAllocation, flagged: true},
		{name: "raising while handled", status: application.StatusHandled, flagged: true},
		{name: "raising after sent fails", status: application.StatusSent, flagged: true, errIs: application.ErrStatusConflict},
		{name: "raising while draft fails", status: application.StatusDraft, flagged: true, errIs: application.ErrStatusConflict},
		{name: "clearing after sent succeeds", status: application.StatusSent, flagged: false},
		{name: "clearing while draft succeeds", status: application.StatusDraft, flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(t, tt.status)
			err := app.SetFlag(tt.flagged)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				assert.False(t, app.Flagged())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.flagged, app.Flagged())
		})
	}
}

func TestSection_StatusMachine(t *testing.T) {
	newSection := func(t *testing.T) *application.Section {
		t.Helper()
		section, err := application.NewSection(
			uuid.New(),
			"Weekly practice",
			2,
			time.Hour, 2*time.Hour,
			time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 2, 28, 0, 0, 0, 0, time.UTC),
			false,
			nil,
		)
		require.NoError(t, err)
		return section
	}

	t.Run("created validated approved", func(t *testing.T) {
		s := newSection(t)
		require.NoError(t, s.Validate())
		require.NoError(t, s.Approve())
		assert.Equal(t, application.SectionApproved, s.Status())
	})

	t.Run("approve straight from created fails", func(t *testing.T) {
		s := newSection(t)
		assert.ErrorIs(t, s.Approve(), application.ErrStatusConflict)
	})

	t.Run("decline before approval", func(t *testing.T) {
		s := newSection(t)
		require.NoError(t, s.Validate())
		require.NoError(t, s.Decline())
		assert.Equal(t, application.SectionDeclined, s.Status())
	})

	t.Run("decline after approval fails", func(t *testing.T) {
		s := newSection(t)
		require.NoError(t, s.Validate())
		require.NoError(t, s.Approve())
		assert.ErrorIs(t, s.Decline(), application.ErrStatusConflict)
	})

	t.Run("min duration above max is rejected", func(t *testing.T) {
		_, err := application.NewSection(
			uuid.New(), "Bad", 1,
			2*time.Hour, time.Hour,
			time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 2, 28, 0, 0, 0, 0, time.UTC),
			false, nil,
		)
		assert.ErrorIs(t, err, application.ErrInvalidDuration)
	})
}

func TestAllocatedTimeSlot(t *testing.T) {
	t.Run("declined slot produces no series", func(t *testing.T) {
		slot, err := application.NewAllocatedTimeSlot(uuid.New(), uuid.New(), time.Monday, 12*time.Hour, 14*time.Hour)
		require.NoError(t, err)
		require.NoError(t, slot.Decline())

		section, err := application.NewSection(
			uuid.New(), "Weekly practice", 1,
			time.Hour, 2*time.Hour,
			time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 2, 28, 0, 0, 0, 0, time.UTC),
			false, nil,
		)
		require.NoError(t, err)

		_, err = slot.SeriesSpec(section, time.UTC)
		assert.ErrorIs(t, err, application.ErrAllocationDeclined)
	})

	t.Run("declining an applied slot fails", func(t *testing.T) {
		slot, err := application.NewAllocatedTimeSlot(uuid.New(), uuid.New(), time.Monday, 12*time.Hour, 14*time.Hour)
		require.NoError(t, err)
		slot.MarkApplied(time.Now())
		assert.ErrorIs(t, slot.Decline(), application.ErrStatusConflict)
	})

	t.Run("start must precede end", func(t *testing.T) {
		_, err := application.NewAllocatedTimeSlot(uuid.New(), uuid.New(), time.Monday, 14*time.Hour, 12*time.Hour)
		assert.ErrorIs(t, err, application.ErrInvalidTimeRange)
	})
}
