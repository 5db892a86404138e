package commands

import (
	"context"
	"testing"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/domain/scheduling"
	"booking-core/internal/domain/user"
	reqdto "booking-core/internal/handler/dto/request"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveType(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		role      user.Role
		want      reservation.Type
		wantErr   error
	}{
		{name: "empty defaults to normal", requested: "", role: user.RoleViewer, want: reservation.TypeNormal},
		{name: "viewer may book normal", requested: "normal", role: user.RoleViewer, want: reservation.TypeNormal},
		{name: "viewer may not book blocked", requested: "blocked", role: user.RoleViewer, wantErr: errs.ErrForbidden},
		{name: "operator may book blocked", requested: "blocked", role: user.RoleOperator, want: reservation.TypeBlocked},
		{name: "operator may book on behalf", requested: "behalf", role: user.RoleOperator, want: reservation.TypeBehalf},
		{name: "unknown type is rejected", requested: "party", role: user.RoleAdmin, wantErr: errs.ErrDomainValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveType(tt.requested, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinutesPtr(t *testing.T) {
	assert.Nil(t, minutesPtr(nil))

	m := int32(45)
	d := minutesPtr(&m)
	require.NotNil(t, d)
	assert.Equal(t, 45*time.Minute, *d)
}

func TestCalculateRequestHash(t *testing.T) {
	type payload struct {
		A string
		B int
	}

	first := calculateRequestHash(payload{A: "x", B: 1})
	same := calculateRequestHash(payload{A: "x", B: 1})
	other := calculateRequestHash(payload{A: "x", B: 2})

	assert.Equal(t, first, same)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

type fakePaymentGateway struct {
	orderID     string
	checkoutURL string
	err         error

	calls            int
	gotReservationID uuid.UUID
	gotAmountCents   int64
	gotDescription   string
}

func (f *fakePaymentGateway) CreateOrder(_ context.Context, reservationID uuid.UUID, amountCents int64, description string) (string, string, error) {
	f.calls++
	f.gotReservationID = reservationID
	f.gotAmountCents = amountCents
	f.gotDescription = description
	if f.err != nil {
		return "", "", f.err
	}
	return f.orderID, f.checkoutURL, nil
}

func (f *fakePaymentGateway) CancelOrder(context.Context, string) error { return nil }

type fakeIdempotencyRepo struct {
	claimed   bool
	record    *shared.IdempotencyRecord
	deleteErr error

	deletedKeys  []uuid.UUID
	deletedUsers []uuid.UUID
}

func (f *fakeIdempotencyRepo) TryInsert(context.Context, uuid.UUID, uuid.UUID, string, string, time.Time) (bool, error) {
	return f.claimed, nil
}

func (f *fakeIdempotencyRepo) Get(context.Context, uuid.UUID, uuid.UUID, time.Time) (*shared.IdempotencyRecord, error) {
	if f.record == nil {
		return nil, errs.New("no idempotency record configured")
	}
	return f.record, nil
}

func (f *fakeIdempotencyRepo) UpdateStatusCompleted(context.Context, db.DBTX, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return nil
}

func (f *fakeIdempotencyRepo) Delete(_ context.Context, key, userID uuid.UUID) error {
	f.deletedKeys = append(f.deletedKeys, key)
	f.deletedUsers = append(f.deletedUsers, userID)
	return f.deleteErr
}

func TestSettleInitialState(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	units := []scheduling.UnitConfig{{ID: uuid.New(), Name: "Sauna 1"}}

	newRes := func(t *testing.T, typ reservation.Type, priceCents int64) *reservation.Reservation {
		t.Helper()
		slot, err := reservation.NewTimeSlot(now.Add(24*time.Hour), now.Add(26*time.Hour))
		require.NoError(t, err)
		res, err := reservation.NewReservation(
			[]uuid.UUID{units[0].ID}, uuid.New(), slot, typ, 0, 0,
			reservation.PriceBreakdown{Price: reservation.NewMoney(priceCents)},
		)
		require.NoError(t, err)
		return res
	}

	t.Run("priced normal waits for payment", func(t *testing.T) {
		payments := &fakePaymentGateway{orderID: "order-1", checkoutURL: "https://shop.example/checkout/order-1"}
		impl := &reservationCommandsImpl{
			payments:   payments,
			clock:      clock.NewMockClock(now),
			paymentTTL: 30 * time.Minute,
		}

		res := newRes(t, reservation.TypeNormal, 4500)
		url, err := impl.settleInitialState(context.Background(), res, units)
		require.NoError(t, err)

		require.NotNil(t, url)
		assert.Equal(t, "https://shop.example/checkout/order-1", *url)
		assert.Equal(t, 1, payments.calls)
		assert.Equal(t, res.ID(), payments.gotReservationID)
		assert.Equal(t, int64(4500), payments.gotAmountCents)
		assert.Contains(t, payments.gotDescription, "Sauna 1")

		assert.Equal(t, reservation.StateWaitingForPayment, res.State())
		require.NotNil(t, res.PaymentDeadline())
		assert.Equal(t, now.Add(30*time.Minute), *res.PaymentDeadline())
		require.NotNil(t, res.OrderID())
		assert.Equal(t, "order-1", *res.OrderID())
	})

	t.Run("free normal confirms immediately", func(t *testing.T) {
		payments := &fakePaymentGateway{}
		impl := &reservationCommandsImpl{
			payments:   payments,
			clock:      clock.NewMockClock(now),
			paymentTTL: 30 * time.Minute,
		}

		res := newRes(t, reservation.TypeNormal, 0)
		url, err := impl.settleInitialState(context.Background(), res, units)
		require.NoError(t, err)

		assert.Nil(t, url)
		assert.Zero(t, payments.calls)
		assert.Equal(t, reservation.StateConfirmed, res.State())
	})

	t.Run("behalf booking waits for staff", func(t *testing.T) {
		payments := &fakePaymentGateway{}
		impl := &reservationCommandsImpl{
			payments:   payments,
			clock:      clock.NewMockClock(now),
			paymentTTL: 30 * time.Minute,
		}

		res := newRes(t, reservation.TypeBehalf, 4500)
		url, err := impl.settleInitialState(context.Background(), res, units)
		require.NoError(t, err)

		assert.Nil(t, url)
		assert.Zero(t, payments.calls)
		assert.Equal(t, reservation.StateRequiresHandling, res.State())
	})
}

// unreachablePool builds a pool whose first connection attempt fails,
// so any transactional path errors out before reaching the database.
func unreachablePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg, err := pgxpool.ParseConfig("postgres://127.0.0.1:1/booking?sslmode=disable")
	require.NoError(t, err)
	cfg.ConnConfig.ConnectTimeout = time.Second
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestCreateReleasesClaimWhenReservationFails(t *testing.T) {
	key := uuid.New()
	actor := uuid.New()
	req := reqdto.CreateReservationRequest{
		UnitIDs: []uuid.UUID{uuid.New()},
		Begin:   time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 6, 4, 11, 0, 0, 0, time.UTC),
	}

	t.Run("fresh claim is released on failure", func(t *testing.T) {
		idem := &fakeIdempotencyRepo{claimed: true}
		impl := &reservationCommandsImpl{
			idempotencyRepo: idem,
			pool:            unreachablePool(t),
			clock:           clock.NewMockClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)),
		}

		_, err := impl.Create(context.Background(), req, actor, user.RoleViewer, key)
		require.Error(t, err)

		require.Len(t, idem.deletedKeys, 1)
		assert.Equal(t, key, idem.deletedKeys[0])
		assert.Equal(t, actor, idem.deletedUsers[0])
	})

	t.Run("release failure keeps the original error", func(t *testing.T) {
		idem := &fakeIdempotencyRepo{claimed: true, deleteErr: errs.New("delete refused")}
		impl := &reservationCommandsImpl{
			idempotencyRepo: idem,
			pool:            unreachablePool(t),
			clock:           clock.NewMockClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)),
		}

		_, err := impl.Create(context.Background(), req, actor, user.RoleViewer, key)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "delete refused")
	})

	t.Run("a claim held by another request is left alone", func(t *testing.T) {
		idem := &fakeIdempotencyRepo{
			claimed: false,
			record: &shared.IdempotencyRecord{
				Status:      "processing",
				RequestHash: "somebody-elses-hash",
			},
		}
		impl := &reservationCommandsImpl{
			idempotencyRepo: idem,
			clock:           clock.NewMockClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)),
		}

		_, err := impl.Create(context.Background(), req, actor, user.RoleViewer, key)
		assert.ErrorIs(t, err, errs.ErrDuplicateReservation)
		assert.Empty(t, idem.deletedKeys)
	})
}
