package repository

import (
	"context"
	"time"

	"booking-core/internal/domain/application"
	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/pgconv"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ApplicationRepository struct {
	db db.DBTX
}

func NewApplicationRepository(pool db.DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: pool}
}

func (r *ApplicationRepository) Create(ctx context.Context, tx db.DBTX, app *application.Application) (uuid.UUID, error) {
	query, args, err := qb.Insert("applications").
		Columns("id", "round_id", "user_id", "applicant_name", "status", "flagged", "sent_at").
		Values(app.ID(), app.RoundID(), app.UserID(), app.Applicant(), app.Status(), app.Flagged(), app.SentAt()).
		ToSql()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build application insert", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create application", err, kindFromPgErr(err))
	}
	return app.ID(), nil
}

func (r *ApplicationRepository) Update(ctx context.Context, tx db.DBTX, app *application.Application) error {
	query, args, err := qb.Update("applications").
		Set("status", app.Status()).
		Set("flagged", app.Flagged()).
		Set("sent_at", app.SentAt()).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": app.ID()}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build application update", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update application", err, kindFromPgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("application not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*application.Application, error) {
	query, args, err := qb.Select(
		"id", "round_id", "user_id", "applicant_name", "status", "flagged", "sent_at", "created_at", "updated_at",
	).
		From("applications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build application select", err)
	}

	var (
		appID     uuid.UUID
		roundID   uuid.UUID
		userID    uuid.UUID
		applicant string
		status    string
		flagged   bool
		sentAt    pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx, query, args...).Scan(
		&appID, &roundID, &userID, &applicant, &status, &flagged, &sentAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("application not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find application", err)
	}

	return application.ReconstructApplication(
		appID, roundID, userID,
		applicant,
		application.Status(status),
		flagged,
		pgconv.TimePtrFromPgtype(sentAt),
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}

func (r *ApplicationRepository) CreateSection(ctx context.Context, tx db.DBTX, section *application.Section) (uuid.UUID, error) {
	query, args, err := qb.Insert("application_sections").
		Columns(
			"id", "application_id", "name", "events_per_week",
			"min_duration_minutes", "max_duration_minutes",
			"begin_date", "end_date", "biweekly", "status",
		).
		Values(
			section.ID(), section.ApplicationID(), section.Name(), section.EventsPerWeek(),
			int32(section.MinDuration()/time.Minute), int32(section.MaxDuration()/time.Minute),
			section.Begin(), section.End(), section.Biweekly(), section.Status(),
		).
		ToSql()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build section insert", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create application section", err, kindFromPgErr(err))
	}

	if len(section.Suitable()) > 0 {
		insert := qb.Insert("suitable_time_ranges").
			Columns("section_id", "weekday", "start_minutes", "end_minutes", "priority")
		for _, tr := range section.Suitable() {
			insert = insert.Values(
				section.ID(),
				int32(tr.Weekday),
				int32(tr.Start/time.Minute),
				int32(tr.End/time.Minute),
				tr.Priority,
			)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return uuid.Nil, infra.WrapRepoErr("failed to build suitable time range insert", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return uuid.Nil, infra.WrapRepoErr("failed to create suitable time ranges", err, kindFromPgErr(err))
		}
	}

	return section.ID(), nil
}

func (r *ApplicationRepository) UpdateSectionStatus(ctx context.Context, tx db.DBTX, section *application.Section) error {
	query, args, err := qb.Update("application_sections").
		Set("status", section.Status()).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": section.ID()}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build section update", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update application section", err, kindFromPgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("application section not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ApplicationRepository) FindSectionByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*application.Section, error) {
	query, args, err := qb.Select(
		"id", "application_id", "name", "events_per_week",
		"min_duration_minutes", "max_duration_minutes",
		"begin_date", "end_date", "biweekly", "status",
	).
		From("application_sections").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build section select", err)
	}

	var (
		sectionID  uuid.UUID
		appID      uuid.UUID
		name       string
		perWeek    int32
		minMinutes int32
		maxMinutes int32
		begin, end time.Time
		biweekly   bool
		status     string
	)
	err = tx.QueryRow(ctx, query, args...).Scan(
		&sectionID, &appID, &name, &perWeek, &minMinutes, &maxMinutes, &begin, &end, &biweekly, &status,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("application section not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find application section", err)
	}

	suitable, err := r.suitableRangesFor(ctx, tx, sectionID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load suitable time ranges", err)
	}

	return application.ReconstructSection(
		sectionID, appID,
		name,
		int(perWeek),
		time.Duration(minMinutes)*time.Minute,
		time.Duration(maxMinutes)*time.Minute,
		begin, end,
		biweekly,
		application.SectionStatus(status),
		suitable,
	), nil
}

func (r *ApplicationRepository) suitableRangesFor(ctx context.Context, tx db.DBTX, sectionID uuid.UUID) ([]application.SuitableTimeRange, error) {
	query, args, err := qb.Select("weekday", "start_minutes", "end_minutes", "priority").
		From("suitable_time_ranges").
		Where(squirrel.Eq{"section_id": sectionID}).
		OrderBy("weekday ASC, start_minutes ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []application.SuitableTimeRange
	for rows.Next() {
		var (
			weekday  int32
			startMin int32
			endMin   int32
			priority string
		)
		if err := rows.Scan(&weekday, &startMin, &endMin, &priority); err != nil {
			return nil, err
		}
		out = append(out, application.SuitableTimeRange{
			Weekday:  time.Weekday(weekday),
			Start:    time.Duration(startMin) * time.Minute,
			End:      time.Duration(endMin) * time.Minute,
			Priority: application.Priority(priority),
		})
	}
	return out, rows.Err()
}

func (r *ApplicationRepository) CreateAllocation(ctx context.Context, tx db.DBTX, slot *application.AllocatedTimeSlot) (uuid.UUID, error) {
	query, args, err := qb.Insert("allocated_time_slots").
		Columns("id", "section_id", "unit_id", "weekday", "begin_minutes", "end_minutes", "declined", "applied_at").
		Values(
			slot.ID(), slot.SectionID(), slot.UnitID(),
			int32(slot.Weekday()),
			int32(slot.Start()/time.Minute), int32(slot.End()/time.Minute),
			slot.Declined(), slot.AppliedAt(),
		).
		ToSql()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build allocation insert", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create allocated time slot", err, kindFromPgErr(err))
	}
	return slot.ID(), nil
}

func (r *ApplicationRepository) UpdateAllocation(ctx context.Context, tx db.DBTX, slot *application.AllocatedTimeSlot) error {
	query, args, err := qb.Update("allocated_time_slots").
		Set("declined", slot.Declined()).
		Set("applied_at", slot.AppliedAt()).
		Where(squirrel.Eq{"id": slot.ID()}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build allocation update", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update allocated time slot", err, kindFromPgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("allocated time slot not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ApplicationRepository) FindAllocationByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*application.AllocatedTimeSlot, error) {
	query, args, err := qb.Select(
		"id", "section_id", "unit_id", "weekday", "begin_minutes", "end_minutes", "declined", "applied_at",
	).
		From("allocated_time_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build allocation select", err)
	}

	var (
		slotID    uuid.UUID
		sectionID uuid.UUID
		unitID    uuid.UUID
		weekday   int32
		beginMin  int32
		endMin    int32
		declined  bool
		appliedAt pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx, query, args...).Scan(
		&slotID, &sectionID, &unitID, &weekday, &beginMin, &endMin, &declined, &appliedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("allocated time slot not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find allocated time slot", err)
	}

	return application.ReconstructAllocatedTimeSlot(
		slotID, sectionID, unitID,
		time.Weekday(weekday),
		time.Duration(beginMin)*time.Minute,
		time.Duration(endMin)*time.Minute,
		declined,
		pgconv.TimePtrFromPgtype(appliedAt),
	), nil
}
