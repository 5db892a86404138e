package repository

import (
	"context"
	"time"

	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/pgconv"
	"booking-core/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(pool db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: pool}
}

// TryInsert claims the key. Returns whether this request won the
// claim; an existing row is left untouched so the follow-up Get can
// distinguish replay from conflict.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	query, args, err := qb.Insert("idempotency_keys").
		Columns("key", "user_id", "endpoint", "status", "request_hash", "expires_at").
		Values(key, userID, endpoint, "processing", requestHash, expiresAt).
		Suffix("ON CONFLICT (key, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, infra.WrapRepoErr("failed to build idempotency insert", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key, userID uuid.UUID, now time.Time) (*shared.IdempotencyRecord, error) {
	query, args, err := qb.Select("key", "user_id", "status", "request_hash", "result_reservation_id", "expires_at").
		From("idempotency_keys").
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build idempotency select", err)
	}

	var (
		record   shared.IdempotencyRecord
		resultID pgtype.UUID
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&record.Key, &record.UserID, &record.Status, &record.RequestHash, &resultID, &record.ExpiresAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	record.ResultReservationID = pgconv.UUIDPtrFromPgtype(resultID)

	if now.After(record.ExpiresAt) {
		return nil, infra.WrapRepoErr("idempotency key expired", nil, infra.KindNotFound)
	}

	return &record, nil
}

func (r *IdempotencyRepository) UpdateStatusCompleted(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, resultReservationID uuid.UUID) error {
	query, args, err := qb.Update("idempotency_keys").
		Set("status", "completed").
		Set("result_reservation_id", resultReservationID).
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build idempotency update", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	return nil
}

// Delete releases a claimed key so the caller may retry with it.
func (r *IdempotencyRepository) Delete(ctx context.Context, key, userID uuid.UUID) error {
	query, args, err := qb.Delete("idempotency_keys").
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build idempotency delete", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to delete idempotency key", err)
	}
	return nil
}

// DeleteExpired clears keys past their expiry. Called from the cron job.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := qb.Delete("idempotency_keys").
		Where(squirrel.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build idempotency delete", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
