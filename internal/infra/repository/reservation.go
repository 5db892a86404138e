package repository

import (
	"context"
	"sort"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/pgconv"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var reservationColumns = []string{
	"id",
	"user_id",
	"begin_time",
	"end_time",
	"state",
	"type",
	"buffer_before_minutes",
	"buffer_after_minutes",
	"price_cents",
	"net_price_cents",
	"unit_price_cents",
	"non_subsidised_price_cents",
	"tax_percentage",
	"deny_reason",
	"payment_deadline",
	"order_id",
	"order_cancel_failed",
	"created_at",
	"updated_at",
}

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(pool db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: pool}
}

// LockUnits takes per-unit advisory locks for the current transaction,
// serializing concurrent writes against the same units. Sorted to keep
// lock order stable across callers.
func (r *ReservationRepository) LockUnits(ctx context.Context, tx db.DBTX, unitIDs []uuid.UUID) error {
	ids := make([]uuid.UUID, len(unitIDs))
	copy(ids, unitIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", id.String()); err != nil {
			return infra.WrapRepoErr("failed to lock reservation unit", err)
		}
	}
	return nil
}

func (r *ReservationRepository) Create(ctx context.Context, tx db.DBTX, res *reservation.Reservation) (uuid.UUID, error) {
	price := res.Price()
	query, args, err := qb.Insert("reservations").
		Columns(
			"id",
			"user_id",
			"begin_time",
			"end_time",
			"state",
			"type",
			"buffer_before_minutes",
			"buffer_after_minutes",
			"price_cents",
			"net_price_cents",
			"unit_price_cents",
			"non_subsidised_price_cents",
			"tax_percentage",
			"deny_reason",
			"payment_deadline",
			"order_id",
			"order_cancel_failed",
		).
		Values(
			res.ID(),
			res.UserID(),
			res.Slot().Begin(),
			res.Slot().End(),
			res.State(),
			res.Type(),
			int32(res.BufferBefore()/time.Minute),
			int32(res.BufferAfter()/time.Minute),
			price.Price.Cents(),
			price.NetPrice.Cents(),
			price.UnitPrice.Cents(),
			price.NonSubsidisedPrice.Cents(),
			price.TaxPercentage,
			res.DenyReason(),
			res.PaymentDeadline(),
			res.OrderID(),
			res.OrderCancelFailed(),
		).
		ToSql()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build reservation insert", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create reservation", err, kindFromPgErr(err))
	}

	insert := qb.Insert("reservation_units").Columns("reservation_id", "unit_id")
	for _, unitID := range res.UnitIDs() {
		insert = insert.Values(res.ID(), unitID)
	}
	query, args, err = insert.ToSql()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build reservation unit insert", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to link reservation units", err, kindFromPgErr(err))
	}

	return res.ID(), nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error {
	price := res.Price()
	query, args, err := qb.Update("reservations").
		Set("begin_time", res.Slot().Begin()).
		Set("end_time", res.Slot().End()).
		Set("state", res.State()).
		Set("buffer_before_minutes", int32(res.BufferBefore()/time.Minute)).
		Set("buffer_after_minutes", int32(res.BufferAfter()/time.Minute)).
		Set("price_cents", price.Price.Cents()).
		Set("net_price_cents", price.NetPrice.Cents()).
		Set("unit_price_cents", price.UnitPrice.Cents()).
		Set("non_subsidised_price_cents", price.NonSubsidisedPrice.Cents()).
		Set("tax_percentage", price.TaxPercentage).
		Set("deny_reason", res.DenyReason()).
		Set("payment_deadline", res.PaymentDeadline()).
		Set("order_id", res.OrderID()).
		Set("order_cancel_failed", res.OrderCancelFailed()).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID()}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build reservation update", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation", err, kindFromPgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	query, args, err := qb.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build reservation select", err)
	}

	var raw reservationRow
	if err := raw.scan(tx.QueryRow(ctx, query, args...)); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}

	unitIDs, err := r.unitIDsFor(ctx, tx, raw.id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load reservation units", err)
	}

	res, err := raw.toEntity(unitIDs)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to rebuild reservation", err)
	}
	return res, nil
}

// FindExpiredUnpaid lists reservations still waiting for payment whose
// deadline has passed. Used by the expiry job.
func (r *ReservationRepository) FindExpiredUnpaid(ctx context.Context, now time.Time) ([]*reservation.Reservation, error) {
	query, args, err := qb.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"state": reservation.StateWaitingForPayment}).
		Where(squirrel.Lt{"payment_deadline": now}).
		OrderBy("payment_deadline ASC").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build expired reservation select", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query expired reservations", err)
	}
	defer rows.Close()

	var raws []reservationRow
	for rows.Next() {
		var raw reservationRow
		if err := raw.scan(rows); err != nil {
			return nil, infra.WrapRepoErr("failed to scan expired reservation", err)
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read expired reservations", err)
	}

	out := make([]*reservation.Reservation, 0, len(raws))
	for _, raw := range raws {
		unitIDs, err := r.unitIDsFor(ctx, r.db, raw.id)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to load reservation units", err)
		}
		res, err := raw.toEntity(unitIDs)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to rebuild reservation", err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *ReservationRepository) unitIDsFor(ctx context.Context, dbtx db.DBTX, reservationID uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := qb.Select("unit_id").
		From("reservation_units").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("unit_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var unitID uuid.UUID
		if err := rows.Scan(&unitID); err != nil {
			return nil, err
		}
		ids = append(ids, unitID)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

type reservationRow struct {
	id                uuid.UUID
	userID            uuid.UUID
	begin, end        time.Time
	state             string
	typ               string
	bufBefore         int32
	bufAfter          int32
	priceCents        int64
	netCents          int64
	unitCents         int64
	nonSubCents       int64
	tax               pgtype.Numeric
	denyReason        pgtype.Text
	paymentDeadline   pgtype.Timestamptz
	orderID           pgtype.Text
	orderCancelFailed bool
	createdAt         pgtype.Timestamptz
	updatedAt         pgtype.Timestamptz
}

func (raw *reservationRow) scan(row rowScanner) error {
	return row.Scan(
		&raw.id, &raw.userID, &raw.begin, &raw.end, &raw.state, &raw.typ,
		&raw.bufBefore, &raw.bufAfter,
		&raw.priceCents, &raw.netCents, &raw.unitCents, &raw.nonSubCents, &raw.tax,
		&raw.denyReason, &raw.paymentDeadline, &raw.orderID, &raw.orderCancelFailed,
		&raw.createdAt, &raw.updatedAt,
	)
}

func (raw *reservationRow) toEntity(unitIDs []uuid.UUID) (*reservation.Reservation, error) {
	slot, err := reservation.NewTimeSlot(raw.begin, raw.end)
	if err != nil {
		return nil, err
	}
	tax, err := pgconv.Float64FromNumeric(raw.tax)
	if err != nil {
		return nil, err
	}

	return reservation.ReconstructReservation(
		raw.id,
		unitIDs,
		raw.userID,
		slot,
		reservation.State(raw.state),
		reservation.Type(raw.typ),
		time.Duration(raw.bufBefore)*time.Minute,
		time.Duration(raw.bufAfter)*time.Minute,
		reservation.PriceBreakdown{
			Price:              reservation.NewMoney(raw.priceCents),
			NetPrice:           reservation.NewMoney(raw.netCents),
			UnitPrice:          reservation.NewMoney(raw.unitCents),
			NonSubsidisedPrice: reservation.NewMoney(raw.nonSubCents),
			TaxPercentage:      tax,
		},
		pgconv.StringPtrFromPgtype(raw.denyReason),
		pgconv.TimePtrFromPgtype(raw.paymentDeadline),
		pgconv.StringPtrFromPgtype(raw.orderID),
		raw.orderCancelFailed,
		pgconv.TimeFromPgtype(raw.createdAt),
		pgconv.TimeFromPgtype(raw.updatedAt),
	), nil
}
