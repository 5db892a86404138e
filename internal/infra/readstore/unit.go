package readstore

import (
	"context"
	"time"

	"booking-core/internal/domain/scheduling"
	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/pgconv"
	"booking-core/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// UnitReadStore loads the validation snapshot of reservation units:
// unit rules, pricing records, space-sharing neighbours and the
// application rounds covering them.
type UnitReadStore struct {
	db db.DBTX
}

func NewUnitReadStore(pool db.DBTX) *UnitReadStore {
	return &UnitReadStore{db: pool}
}

func (r *UnitReadStore) Configs(ctx context.Context, unitIDs []uuid.UUID) ([]scheduling.UnitConfig, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select(
		"id", "name", "timezone",
		"min_duration_minutes", "max_duration_minutes",
		"buffer_before_minutes", "buffer_after_minutes", "start_interval_minutes",
		"max_days_before", "min_days_before",
		"reservation_begins", "reservation_ends",
		"publish_begins", "publish_ends",
		"is_draft", "is_archived",
		"allow_no_opening_hours", "block_whole_day",
	).
		From("units").
		Where(squirrel.Eq{"id": unitIDs}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build unit select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query units", err)
	}
	defer rows.Close()

	configs := make(map[uuid.UUID]*scheduling.UnitConfig, len(unitIDs))
	var order []uuid.UUID
	for rows.Next() {
		var (
			cfg               scheduling.UnitConfig
			timezone          string
			minMin, maxMin    int32
			bufBefore         int32
			bufAfter          int32
			interval          int32
			maxDays, minDays  int32
			resBegins         pgtype.Timestamptz
			resEnds           pgtype.Timestamptz
			pubBegins         pgtype.Timestamptz
			pubEnds           pgtype.Timestamptz
		)
		if err := rows.Scan(
			&cfg.ID, &cfg.Name, &timezone,
			&minMin, &maxMin,
			&bufBefore, &bufAfter, &interval,
			&maxDays, &minDays,
			&resBegins, &resEnds,
			&pubBegins, &pubEnds,
			&cfg.IsDraft, &cfg.IsArchived,
			&cfg.AllowReservationsWithoutOpeningHours, &cfg.ReservationBlockWholeDay,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan unit", err)
		}

		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, infra.WrapRepoErr("unknown unit timezone", err)
		}

		cfg.MinReservationDuration = time.Duration(minMin) * time.Minute
		cfg.MaxReservationDuration = time.Duration(maxMin) * time.Minute
		cfg.BufferBefore = time.Duration(bufBefore) * time.Minute
		cfg.BufferAfter = time.Duration(bufAfter) * time.Minute
		cfg.StartInterval = time.Duration(interval) * time.Minute
		cfg.ReservationsMaxDaysBefore = int(maxDays)
		cfg.ReservationsMinDaysBefore = int(minDays)
		cfg.ReservationBegins = pgconv.TimePtrFromPgtype(resBegins)
		cfg.ReservationEnds = pgconv.TimePtrFromPgtype(resEnds)
		cfg.PublishBegins = pgconv.TimePtrFromPgtype(pubBegins)
		cfg.PublishEnds = pgconv.TimePtrFromPgtype(pubEnds)
		cfg.Location = loc

		copied := cfg
		configs[cfg.ID] = &copied
		order = append(order, cfg.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read units", err)
	}
	if len(order) == 0 {
		return nil, infra.WrapRepoErr("reservation unit not found", nil, infra.KindNotFound)
	}

	if err := r.attachPricings(ctx, configs, order); err != nil {
		return nil, err
	}

	out := make([]scheduling.UnitConfig, 0, len(order))
	for _, id := range order {
		out = append(out, *configs[id])
	}
	return out, nil
}

func (r *UnitReadStore) attachPricings(ctx context.Context, configs map[uuid.UUID]*scheduling.UnitConfig, order []uuid.UUID) error {
	query, args, err := qb.Select(
		"unit_id", "begins", "pricing_type",
		"highest_price_cents", "lowest_price_cents",
		"price_unit_minutes", "tax_percentage",
	).
		From("unit_pricings").
		Where(squirrel.Eq{"unit_id": order}).
		OrderBy("unit_id ASC, begins ASC").
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build pricing select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to query unit pricings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			unitID      uuid.UUID
			begins      time.Time
			pricingType string
			highest     int64
			lowest      int64
			unitMinutes int32
			tax         pgtype.Numeric
		)
		if err := rows.Scan(&unitID, &begins, &pricingType, &highest, &lowest, &unitMinutes, &tax); err != nil {
			return infra.WrapRepoErr("failed to scan unit pricing", err)
		}
		taxValue, err := pgconv.Float64FromNumeric(tax)
		if err != nil {
			return infra.WrapRepoErr("invalid tax percentage", err)
		}

		cfg, ok := configs[unitID]
		if !ok {
			continue
		}
		cfg.Pricings = append(cfg.Pricings, scheduling.PricingRecord{
			Begins:            begins,
			Type:              scheduling.PricingType(pricingType),
			HighestPriceCents: highest,
			LowestPriceCents:  lowest,
			PriceUnit:         time.Duration(unitMinutes) * time.Minute,
			TaxPercentage:     taxValue,
		})
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to read unit pricings", err)
	}
	return nil
}

// AffectedUnitIDs expands the target units with every unit sharing
// physical space with them, so overlap checks see bookings that block
// the same rooms.
func (r *UnitReadStore) AffectedUnitIDs(ctx context.Context, unitIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("DISTINCT neighbour.unit_id").
		From("unit_spaces AS target").
		Join("unit_spaces AS neighbour ON neighbour.space_id = target.space_id").
		Where(squirrel.Eq{"target.unit_id": unitIDs}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build space sharing select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query space sharing units", err)
	}
	defer rows.Close()

	seen := make(map[uuid.UUID]struct{}, len(unitIDs))
	out := make([]uuid.UUID, 0, len(unitIDs))
	for _, id := range unitIDs {
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan space sharing unit", err)
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read space sharing units", err)
	}
	return out, nil
}

// RoundWindows lists the application round reservation periods covering
// any of the units. Open reflects whether applications are being taken
// at the given instant.
func (r *UnitReadStore) RoundWindows(ctx context.Context, unitIDs []uuid.UUID, now time.Time) ([]scheduling.RoundWindow, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select(
		"DISTINCT ar.id", "ar.application_begins", "ar.application_ends",
		"ar.reservation_begins", "ar.reservation_ends",
	).
		From("application_rounds AS ar").
		Join("application_round_units AS aru ON aru.round_id = ar.id").
		Where(squirrel.Eq{"aru.unit_id": unitIDs}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build round select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query application rounds", err)
	}
	defer rows.Close()

	var out []scheduling.RoundWindow
	for rows.Next() {
		var (
			id                 uuid.UUID
			appBegins, appEnds time.Time
			resBegins, resEnds time.Time
		)
		if err := rows.Scan(&id, &appBegins, &appEnds, &resBegins, &resEnds); err != nil {
			return nil, infra.WrapRepoErr("failed to scan application round", err)
		}
		out = append(out, scheduling.RoundWindow{
			Begin: resBegins,
			End:   resEnds,
			Open:  !now.Before(appBegins) && now.Before(appEnds),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read application rounds", err)
	}
	return out, nil
}

func (r *UnitReadStore) RoundByID(ctx context.Context, id uuid.UUID) (*shared.RoundSnapshot, error) {
	query, args, err := qb.Select(
		"id", "name", "application_begins", "application_ends", "reservation_begins", "reservation_ends",
	).
		From("application_rounds").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build round select", err)
	}

	var snap shared.RoundSnapshot
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&snap.ID, &snap.Name,
		&snap.ApplicationBegins, &snap.ApplicationEnds,
		&snap.ReservationBegins, &snap.ReservationEnds,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("application round not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find application round", err)
	}
	return &snap, nil
}
