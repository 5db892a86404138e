package readstore

import (
	"context"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/domain/scheduling"
	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/pgconv"
	"booking-core/internal/usecase/queries"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(pool db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: pool}
}

var reservationViewColumns = []string{
	"r.id",
	"r.user_id",
	"r.begin_time",
	"r.end_time",
	"r.state",
	"r.type",
	"r.buffer_before_minutes",
	"r.buffer_after_minutes",
	"r.price_cents",
	"r.net_price_cents",
	"r.unit_price_cents",
	"r.non_subsidised_price_cents",
	"r.tax_percentage",
	"r.deny_reason",
	"r.payment_deadline",
	"r.order_id",
	"r.created_at",
	"r.updated_at",
	"array_agg(ru.unit_id ORDER BY ru.unit_id)::text[] AS unit_ids",
	"array_agg(u.name ORDER BY ru.unit_id) AS unit_names",
}

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	query, args, err := qb.Select(reservationViewColumns...).
		From("reservations AS r").
		Join("reservation_units AS ru ON ru.reservation_id = r.id").
		Join("units AS u ON u.id = ru.unit_id").
		Where(squirrel.Eq{"r.id": id}).
		GroupBy("r.id").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build reservation view select", err)
	}

	view, err := scanReservationView(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return view, nil
}

func (r *ReservationReadStore) FindByUserIDFirstPage(ctx context.Context, userID uuid.UUID, limit int32) ([]*queries.ReservationListItem, error) {
	builder := r.listBuilder(userID).Limit(uint64(limit))
	return r.queryList(ctx, builder, "failed to find reservations first page")
}

func (r *ReservationReadStore) FindByUserIDKeyset(ctx context.Context, userID uuid.UUID, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.ReservationListItem, error) {
	builder := r.listBuilder(userID).
		Where(squirrel.Expr("(r.created_at, r.id) < (?, ?)", lastCreatedAt, lastID)).
		Limit(uint64(limit))
	return r.queryList(ctx, builder, "failed to find reservations keyset")
}

func (r *ReservationReadStore) listBuilder(userID uuid.UUID) squirrel.SelectBuilder {
	return qb.Select(
		"r.id",
		"r.begin_time",
		"r.end_time",
		"r.state",
		"r.type",
		"r.price_cents",
		"r.created_at",
		"array_agg(u.name ORDER BY ru.unit_id) AS unit_names",
	).
		From("reservations AS r").
		Join("reservation_units AS ru ON ru.reservation_id = r.id").
		Join("units AS u ON u.id = ru.unit_id").
		Where(squirrel.Eq{"r.user_id": userID}).
		GroupBy("r.id").
		OrderBy("r.created_at DESC, r.id DESC")
}

func (r *ReservationReadStore) queryList(ctx context.Context, builder squirrel.SelectBuilder, msg string) ([]*queries.ReservationListItem, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build reservation list select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(msg, err)
	}
	defer rows.Close()

	var out []*queries.ReservationListItem
	for rows.Next() {
		var (
			item      queries.ReservationListItem
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&item.ID, &item.Begin, &item.End, &item.State, &item.Type,
			&item.PriceCents, &createdAt, &item.UnitNames,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation list item", err)
		}
		item.CreatedAt = pgconv.TimeFromPgtype(createdAt)
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservation list", err)
	}
	return out, nil
}

// Spans loads the booked spans the overlap check needs: every
// reservation touching the window on any of the units, minus states
// that no longer occupy their slot.
func (r *ReservationReadStore) Spans(ctx context.Context, unitIDs []uuid.UUID, from, to time.Time) ([]scheduling.BookedSpan, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select(
		"DISTINCT r.id",
		"r.begin_time",
		"r.end_time",
		"r.buffer_before_minutes",
		"r.buffer_after_minutes",
		"r.type",
		"r.state",
	).
		From("reservations AS r").
		Join("reservation_units AS ru ON ru.reservation_id = r.id").
		Where(squirrel.Eq{"ru.unit_id": unitIDs}).
		Where(squirrel.NotEq{"r.state": []string{
			string(reservation.StateDenied),
			string(reservation.StateCancelled),
		}}).
		Where(squirrel.Gt{"r.end_time": from}).
		Where(squirrel.Lt{"r.begin_time": to}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booked span select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query booked spans", err)
	}
	defer rows.Close()

	var out []scheduling.BookedSpan
	for rows.Next() {
		var (
			span      scheduling.BookedSpan
			bufBefore int32
			bufAfter  int32
			typ       string
			state     string
		)
		if err := rows.Scan(&span.ID, &span.Begin, &span.End, &bufBefore, &bufAfter, &typ, &state); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booked span", err)
		}
		span.BufferBefore = time.Duration(bufBefore) * time.Minute
		span.BufferAfter = time.Duration(bufAfter) * time.Minute
		span.Type = reservation.Type(typ)
		span.State = reservation.State(state)
		out = append(out, span)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read booked spans", err)
	}
	return out, nil
}

func scanReservationView(row interface{ Scan(dest ...any) error }) (*queries.ReservationView, error) {
	var (
		view            queries.ReservationView
		tax             pgtype.Numeric
		denyReason      pgtype.Text
		paymentDeadline pgtype.Timestamptz
		orderID         pgtype.Text
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
		unitIDs         []string
	)
	if err := row.Scan(
		&view.ID, &view.UserID, &view.Begin, &view.End, &view.State, &view.Type,
		&view.BufferBeforeMinutes, &view.BufferAfterMinutes,
		&view.PriceCents, &view.NetPriceCents, &view.UnitPriceCents, &view.NonSubsidisedPriceCents,
		&tax, &denyReason, &paymentDeadline, &orderID, &createdAt, &updatedAt,
		&unitIDs, &view.UnitNames,
	); err != nil {
		return nil, err
	}

	taxValue, err := pgconv.Float64FromNumeric(tax)
	if err != nil {
		return nil, err
	}
	view.TaxPercentage = taxValue
	view.DenyReason = pgconv.StringPtrFromPgtype(denyReason)
	view.PaymentDeadline = pgconv.TimePtrFromPgtype(paymentDeadline)
	view.OrderID = pgconv.StringPtrFromPgtype(orderID)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	view.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)

	view.UnitIDs = make([]uuid.UUID, 0, len(unitIDs))
	for _, raw := range unitIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		view.UnitIDs = append(view.UnitIDs, id)
	}
	return &view, nil
}
