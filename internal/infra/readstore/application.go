package readstore

import (
	"context"

	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/pgconv"
	"booking-core/internal/usecase/queries"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ApplicationReadStore struct {
	db db.DBTX
}

func NewApplicationReadStore(pool db.DBTX) *ApplicationReadStore {
	return &ApplicationReadStore{db: pool}
}

func (r *ApplicationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ApplicationView, error) {
	query, args, err := qb.Select(
		"a.id", "a.round_id", "ar.name", "a.user_id", "a.applicant_name",
		"a.status", "a.flagged", "a.sent_at", "a.created_at", "a.updated_at",
	).
		From("applications AS a").
		Join("application_rounds AS ar ON ar.id = a.round_id").
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build application view select", err)
	}

	var (
		view      queries.ApplicationView
		sentAt    pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&view.ID, &view.RoundID, &view.RoundName, &view.UserID, &view.Applicant,
		&view.Status, &view.Flagged, &sentAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("application not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find application by ID", err)
	}
	view.SentAt = pgconv.TimePtrFromPgtype(sentAt)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	view.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)

	sections, err := r.sectionsFor(ctx, view.ID)
	if err != nil {
		return nil, err
	}
	view.Sections = sections

	return &view, nil
}

func (r *ApplicationReadStore) sectionsFor(ctx context.Context, applicationID uuid.UUID) ([]queries.SectionView, error) {
	query, args, err := qb.Select(
		"id", "name", "status", "events_per_week",
		"min_duration_minutes", "max_duration_minutes",
		"begin_date", "end_date", "biweekly",
	).
		From("application_sections").
		Where(squirrel.Eq{"application_id": applicationID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build section view select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query application sections", err)
	}
	defer rows.Close()

	var sections []queries.SectionView
	for rows.Next() {
		var s queries.SectionView
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Status, &s.EventsPerWeek,
			&s.MinDurationMinutes, &s.MaxDurationMinutes,
			&s.Begin, &s.End, &s.Biweekly,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan application section", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read application sections", err)
	}
	if len(sections) == 0 {
		return nil, nil
	}

	sectionIDs := make([]uuid.UUID, len(sections))
	index := make(map[uuid.UUID]int, len(sections))
	for i, s := range sections {
		sectionIDs[i] = s.ID
		index[s.ID] = i
	}

	if err := r.attachTimeRanges(ctx, sections, index, sectionIDs); err != nil {
		return nil, err
	}
	if err := r.attachAllocations(ctx, sections, index, sectionIDs); err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *ApplicationReadStore) attachTimeRanges(ctx context.Context, sections []queries.SectionView, index map[uuid.UUID]int, sectionIDs []uuid.UUID) error {
	query, args, err := qb.Select("section_id", "weekday", "start_minutes", "end_minutes", "priority").
		From("suitable_time_ranges").
		Where(squirrel.Eq{"section_id": sectionIDs}).
		OrderBy("weekday ASC, start_minutes ASC").
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build time range select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to query suitable time ranges", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sectionID uuid.UUID
			tr        queries.SuitableTimeRangeView
		)
		if err := rows.Scan(&sectionID, &tr.Weekday, &tr.StartMinutes, &tr.EndMinutes, &tr.Priority); err != nil {
			return infra.WrapRepoErr("failed to scan suitable time range", err)
		}
		if i, ok := index[sectionID]; ok {
			sections[i].SuitableTimeRanges = append(sections[i].SuitableTimeRanges, tr)
		}
	}
	return rows.Err()
}

func (r *ApplicationReadStore) attachAllocations(ctx context.Context, sections []queries.SectionView, index map[uuid.UUID]int, sectionIDs []uuid.UUID) error {
	query, args, err := qb.Select(
		"ats.id", "ats.section_id", "ats.unit_id", "u.name",
		"ats.weekday", "ats.begin_minutes", "ats.end_minutes",
		"ats.declined", "ats.applied_at",
	).
		From("allocated_time_slots AS ats").
		Join("units AS u ON u.id = ats.unit_id").
		Where(squirrel.Eq{"ats.section_id": sectionIDs}).
		OrderBy("ats.weekday ASC, ats.begin_minutes ASC").
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build allocation view select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to query allocated time slots", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sectionID uuid.UUID
			a         queries.AllocationView
			appliedAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&a.ID, &sectionID, &a.UnitID, &a.UnitName,
			&a.Weekday, &a.BeginMinutes, &a.EndMinutes,
			&a.Declined, &appliedAt,
		); err != nil {
			return infra.WrapRepoErr("failed to scan allocated time slot", err)
		}
		a.AppliedAt = pgconv.TimePtrFromPgtype(appliedAt)
		if i, ok := index[sectionID]; ok {
			sections[i].Allocations = append(sections[i].Allocations, a)
		}
	}
	return rows.Err()
}

func (r *ApplicationReadStore) FindByRound(ctx context.Context, roundID uuid.UUID, limit int32) ([]*queries.ApplicationListItem, error) {
	query, args, err := qb.Select(
		"a.id", "a.round_id", "a.applicant_name", "a.status", "a.flagged",
		"count(s.id) AS section_count",
		"a.created_at",
	).
		From("applications AS a").
		LeftJoin("application_sections AS s ON s.application_id = a.id").
		Where(squirrel.Eq{"a.round_id": roundID}).
		GroupBy("a.id").
		OrderBy("a.created_at DESC, a.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build application list select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query applications by round", err)
	}
	defer rows.Close()

	var out []*queries.ApplicationListItem
	for rows.Next() {
		var (
			item      queries.ApplicationListItem
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&item.ID, &item.RoundID, &item.Applicant, &item.Status, &item.Flagged,
			&item.SectionCount, &createdAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan application list item", err)
		}
		item.CreatedAt = pgconv.TimeFromPgtype(createdAt)
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read application list", err)
	}
	return out, nil
}
