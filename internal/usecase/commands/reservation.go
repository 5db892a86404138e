package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/domain/scheduling"
	"booking-core/internal/domain/user"
	reqdto "booking-core/internal/handler/dto/request"
	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/queries"
	"booking-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	idempotencyTTL = 24 * time.Hour

	// Window around a candidate slot wide enough to catch whole-day
	// buffers from neighbouring reservations.
	spanLookaround = 48 * time.Hour

	TopicReservationConfirmed = "reservation.confirmed"
	TopicReservationCancelled = "reservation.cancelled"
)

type CreateReservationResult struct {
	Reservation *queries.ReservationView
	CheckoutURL *string
	IsReplayed  bool
}

type ReservationCommands interface {
	Create(ctx context.Context, req reqdto.CreateReservationRequest, actorID uuid.UUID, actorRole user.Role, idempotencyKey uuid.UUID) (*CreateReservationResult, error)
	AdjustTime(ctx context.Context, id uuid.UUID, req reqdto.AdjustReservationTimeRequest, actorID uuid.UUID, actorRole user.Role) (*queries.ReservationView, error)
	Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole user.Role) error
	Confirm(ctx context.Context, id uuid.UUID) error
	Approve(ctx context.Context, id uuid.UUID) error
	Deny(ctx context.Context, id uuid.UUID, reason string) error
}

type reservationCommandsImpl struct {
	reservationRepo  ReservationRepository
	idempotencyRepo  IdempotencyRepository
	unitReads        UnitReads
	reservationReads ReservationReads
	openingHours     OpeningHoursProvider
	payments         PaymentGateway
	events           EventPublisher
	mailer           Mailer
	views            queries.ReservationQueries
	validator        *scheduling.Validator
	pool             *pgxpool.Pool
	clock            clock.Clock
	paymentTTL       time.Duration
}

func NewReservationCommands(
	reservationRepo ReservationRepository,
	idempotencyRepo IdempotencyRepository,
	unitReads UnitReads,
	reservationReads ReservationReads,
	openingHours OpeningHoursProvider,
	payments PaymentGateway,
	events EventPublisher,
	mailer Mailer,
	views queries.ReservationQueries,
	validator *scheduling.Validator,
	pool *pgxpool.Pool,
	c clock.Clock,
	paymentTTL time.Duration,
) ReservationCommands {
	return &reservationCommandsImpl{
		reservationRepo:  reservationRepo,
		idempotencyRepo:  idempotencyRepo,
		unitReads:        unitReads,
		reservationReads: reservationReads,
		openingHours:     openingHours,
		payments:         payments,
		events:           events,
		mailer:           mailer,
		views:            views,
		validator:        validator,
		pool:             pool,
		clock:            c,
		paymentTTL:       paymentTTL,
	}
}

func (r *reservationCommandsImpl) Create(
	ctx context.Context,
	req reqdto.CreateReservationRequest,
	actorID uuid.UUID,
	actorRole user.Role,
	idempotencyKey uuid.UUID,
) (*CreateReservationResult, error) {
	typ, err := resolveType(req.Type, actorRole)
	if err != nil {
		return nil, err
	}

	requestHash := calculateRequestHash(req)
	now := r.clock.Now()

	replayed, err := r.handleIdempotency(ctx, idempotencyKey, actorID, requestHash, now)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &CreateReservationResult{Reservation: replayed, IsReplayed: true}, nil
	}

	view, checkoutURL, err := r.createNewReservation(ctx, req, typ, actorID, idempotencyKey)
	if err != nil {
		// Release the claim so an honest retry with the same key is not
		// stuck behind a processing row until the prune job runs.
		if delErr := r.idempotencyRepo.Delete(ctx, idempotencyKey, actorID); delErr != nil {
			slog.Warn("failed to release idempotency claim", "key", idempotencyKey, "error", delErr)
		}
		return nil, err
	}

	r.announce(ctx, view)

	return &CreateReservationResult{Reservation: view, CheckoutURL: checkoutURL, IsReplayed: false}, nil
}

func resolveType(requested string, actorRole user.Role) (reservation.Type, error) {
	if requested == "" {
		return reservation.TypeNormal, nil
	}
	typ := reservation.Type(requested)
	if !typ.IsValid() {
		return "", errs.ErrDomainValidation
	}
	if typ != reservation.TypeNormal && !actorRole.IsStaff() {
		return "", errs.ErrForbidden
	}
	return typ, nil
}

func (r *reservationCommandsImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey, userID uuid.UUID,
	requestHash string,
	now time.Time,
) (*queries.ReservationView, error) {
	claimed, err := r.idempotencyRepo.TryInsert(ctx, idempotencyKey, userID, "POST /reservations", requestHash, now.Add(idempotencyTTL))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}
	if claimed {
		return nil, nil
	}

	existing, err := r.idempotencyRepo.Get(ctx, idempotencyKey, userID, now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}

	switch existing.Status {
	case "completed":
		if existing.ResultReservationID != nil {
			// Use system-level access for idempotency replay
			return r.views.GetByIDSystem(ctx, *existing.ResultReservationID)
		}
		return nil, errs.New("completed request missing result reservation ID")

	case "processing":
		if existing.RequestHash != requestHash {
			return nil, errs.ErrDuplicateReservation
		}
		return nil, errs.ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func (r *reservationCommandsImpl) createNewReservation(
	ctx context.Context,
	req reqdto.CreateReservationRequest,
	typ reservation.Type,
	actorID, idempotencyKey uuid.UUID,
) (*queries.ReservationView, *string, error) {
	var checkoutURL *string

	reservationID, err := shared.WithDefaultRetry(ctx, r.pool, func(tx db.DBTX) (uuid.UUID, error) {
		if err := r.reservationRepo.LockUnits(ctx, tx, req.UnitIDs); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		cand := scheduling.Candidate{
			Begin:        req.Begin,
			End:          req.End,
			Type:         typ,
			BufferBefore: minutesPtr(req.BufferBeforeMinutes),
			BufferAfter:  minutesPtr(req.BufferAfterMinutes),
		}

		normalized, units, err := r.validate(ctx, req.UnitIDs, cand)
		if err != nil {
			return uuid.Nil, err
		}

		slot, err := reservation.NewTimeSlot(normalized.Begin, normalized.End)
		if err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrInvalidTimeSlot)
		}

		res, err := reservation.NewReservation(
			req.UnitIDs, actorID, slot, typ,
			normalized.BufferBefore, normalized.BufferAfter,
			normalized.Price,
		)
		if err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDomainValidation)
		}

		url, err := r.settleInitialState(ctx, res, units)
		if err != nil {
			return uuid.Nil, err
		}
		checkoutURL = url

		if _, err := r.reservationRepo.Create(ctx, tx, res); err != nil {
			if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindDuplicateKey) {
				return uuid.Nil, errs.ErrReservationConflict
			}
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if err := r.idempotencyRepo.UpdateStatusCompleted(ctx, tx, idempotencyKey, actorID, res.ID()); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		return res.ID(), nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Read-after-write: full view from the read store
	view, err := r.views.GetByIDSystem(ctx, reservationID)
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, checkoutURL, nil
}

// settleInitialState decides where a fresh reservation lands: behalf
// bookings wait for staff, priced normal bookings wait for payment,
// everything else confirms on the spot.
func (r *reservationCommandsImpl) settleInitialState(
	ctx context.Context,
	res *reservation.Reservation,
	units []scheduling.UnitConfig,
) (*string, error) {
	if res.Type() == reservation.TypeBehalf {
		if err := res.RequireHandling(); err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		return nil, nil
	}

	if res.Type() == reservation.TypeNormal && res.Price().Price.Cents() > 0 {
		description := fmt.Sprintf("Reservation of %s", units[0].Name)
		orderID, url, err := r.payments.CreateOrder(ctx, res.ID(), res.Price().Price.Cents(), description)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		deadline := r.clock.Now().Add(r.paymentTTL)
		if err := res.RequirePayment(deadline, orderID); err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		return &url, nil
	}

	if err := res.Confirm(); err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	return nil, nil
}

// validate loads the scheduling snapshot and runs the engine.
func (r *reservationCommandsImpl) validate(
	ctx context.Context,
	unitIDs []uuid.UUID,
	cand scheduling.Candidate,
) (*scheduling.NormalizedReservation, []scheduling.UnitConfig, error) {
	units, err := r.unitReads.Configs(ctx, unitIDs)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil, errs.ErrReservationUnitNotFound
		}
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	affected, err := r.unitReads.AffectedUnitIDs(ctx, unitIDs)
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	existing, err := r.reservationReads.Spans(ctx, affected, cand.Begin.Add(-spanLookaround), cand.End.Add(spanLookaround))
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	spans, err := r.reservableSpans(ctx, units, cand.Begin, cand.End)
	if err != nil {
		return nil, nil, err
	}

	rounds, err := r.unitReads.RoundWindows(ctx, unitIDs, r.clock.Now())
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	normalized, err := r.validator.Validate(units, cand, existing, spans, rounds)
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	return normalized, units, nil
}

// reservableSpans fetches opening hours for the lead unit. Units booked
// together share the physical resource, so one span set covers them.
func (r *reservationCommandsImpl) reservableSpans(
	ctx context.Context,
	units []scheduling.UnitConfig,
	begin, end time.Time,
) ([]scheduling.ReservableSpan, error) {
	allWithout := true
	for _, u := range units {
		if !u.AllowReservationsWithoutOpeningHours {
			allWithout = false
			break
		}
	}
	if allWithout {
		return nil, nil
	}

	spans, err := r.openingHours.ReservableSpans(ctx, units[0].ID, begin.Add(-24*time.Hour), end.Add(24*time.Hour))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrOpeningHoursUnavailable)
	}
	return spans, nil
}

func (r *reservationCommandsImpl) AdjustTime(
	ctx context.Context,
	id uuid.UUID,
	req reqdto.AdjustReservationTimeRequest,
	actorID uuid.UUID,
	actorRole user.Role,
) (*queries.ReservationView, error) {
	reservationID, err := shared.WithDefaultRetry(ctx, r.pool, func(tx db.DBTX) (uuid.UUID, error) {
		res, err := r.loadOwned(ctx, tx, id, actorID, actorRole)
		if err != nil {
			return uuid.Nil, err
		}

		if err := r.reservationRepo.LockUnits(ctx, tx, res.UnitIDs()); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		resID := res.ID()
		cand := scheduling.Candidate{
			Begin:      req.Begin,
			End:        req.End,
			Type:       res.Type(),
			AdjustedID: &resID,
		}

		normalized, _, err := r.validate(ctx, res.UnitIDs(), cand)
		if err != nil {
			return uuid.Nil, err
		}

		slot, err := reservation.NewTimeSlot(normalized.Begin, normalized.End)
		if err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrInvalidTimeSlot)
		}
		if err := res.AdjustTime(slot, normalized.BufferBefore, normalized.BufferAfter, normalized.Price); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrStatusConflict)
		}

		if err := r.reservationRepo.Update(ctx, tx, res); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return res.ID(), nil
	})
	if err != nil {
		return nil, err
	}

	view, err := r.views.GetByIDSystem(ctx, reservationID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (r *reservationCommandsImpl) Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole user.Role) error {
	res, err := shared.WithDefaultRetry(ctx, r.pool, func(tx db.DBTX) (*reservation.Reservation, error) {
		res, err := r.loadOwned(ctx, tx, id, actorID, actorRole)
		if err != nil {
			return nil, err
		}
		if err := res.Cancel(); err != nil {
			return nil, errs.Mark(err, errs.ErrStatusConflict)
		}
		if err := r.reservationRepo.Update(ctx, tx, res); err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return res, nil
	})
	if err != nil {
		return err
	}

	r.cancelRemoteOrder(ctx, res)
	r.publish(ctx, TopicReservationCancelled, res.ID())
	return nil
}

// cancelRemoteOrder undoes the webshop order after a local cancel.
// Remote failure is flagged for follow-up; local state already won.
func (r *reservationCommandsImpl) cancelRemoteOrder(ctx context.Context, res *reservation.Reservation) {
	if res.OrderID() == nil {
		return
	}
	if err := r.payments.CancelOrder(ctx, *res.OrderID()); err != nil {
		slog.Warn("webshop order cancel failed",
			"reservation_id", res.ID(),
			"order_id", *res.OrderID(),
			"error", err)
		res.MarkOrderCancelFailed()
		if _, updateErr := shared.RunInTx(ctx, r.pool, func(tx db.DBTX) (struct{}, error) {
			return struct{}{}, r.reservationRepo.Update(ctx, tx, res)
		}); updateErr != nil {
			slog.Error("failed to record order cancel failure",
				"reservation_id", res.ID(),
				"error", updateErr)
		}
	}
}

func (r *reservationCommandsImpl) Confirm(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, TopicReservationConfirmed, func(res *reservation.Reservation) error {
		return res.Confirm()
	})
}

// Approve resolves a reservation waiting for staff handling.
func (r *reservationCommandsImpl) Approve(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, TopicReservationConfirmed, func(res *reservation.Reservation) error {
		if res.State() != reservation.StateRequiresHandling {
			return reservation.ErrInvalidStateTransition
		}
		return res.Confirm()
	})
}

func (r *reservationCommandsImpl) Deny(ctx context.Context, id uuid.UUID, reason string) error {
	return r.transition(ctx, id, "", func(res *reservation.Reservation) error {
		return res.Deny(reason)
	})
}

func (r *reservationCommandsImpl) transition(ctx context.Context, id uuid.UUID, topic string, fn func(*reservation.Reservation) error) error {
	resID, err := shared.WithDefaultRetry(ctx, r.pool, func(tx db.DBTX) (uuid.UUID, error) {
		res, err := r.reservationRepo.FindByID(ctx, tx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return uuid.Nil, errs.ErrReservationNotFound
			}
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := fn(res); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrStatusConflict)
		}
		if err := r.reservationRepo.Update(ctx, tx, res); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return res.ID(), nil
	})
	if err != nil {
		return err
	}

	if topic != "" {
		r.publish(ctx, topic, resID)
	}
	return nil
}

func (r *reservationCommandsImpl) loadOwned(ctx context.Context, tx db.DBTX, id, actorID uuid.UUID, actorRole user.Role) (*reservation.Reservation, error) {
	res, err := r.reservationRepo.FindByID(ctx, tx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if res.UserID() != actorID && !actorRole.IsStaff() {
		return nil, errs.ErrForbidden
	}
	return res, nil
}

// announce emits the integration side effects of a fresh reservation.
// All best effort; the reservation is already committed.
func (r *reservationCommandsImpl) announce(ctx context.Context, view *queries.ReservationView) {
	switch view.State {
	case string(reservation.StateConfirmed):
		r.publish(ctx, TopicReservationConfirmed, view.ID)
	case string(reservation.StateRequiresHandling):
		subject := "Reservation waiting for handling"
		body := fmt.Sprintf("Reservation %s (%s) from %s to %s needs staff review.",
			view.ID, strings.Join(view.UnitNames, ", "), view.Begin, view.End)
		if err := r.mailer.Send(ctx, subject, body); err != nil {
			slog.Warn("handling notification failed", "reservation_id", view.ID, "error", err)
		}
	}
}

func (r *reservationCommandsImpl) publish(ctx context.Context, topic string, reservationID uuid.UUID) {
	payload := map[string]any{"reservation_id": reservationID}
	if err := r.events.Publish(ctx, topic, payload); err != nil {
		slog.Warn("event publish failed", "topic", topic, "reservation_id", reservationID, "error", err)
	}
}

func minutesPtr(minutes *int32) *time.Duration {
	if minutes == nil {
		return nil
	}
	d := time.Duration(*minutes) * time.Minute
	return &d
}

func calculateRequestHash(req any) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
