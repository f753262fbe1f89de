package booking

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"courtbook/internal/events"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
)

// EventPublisher receives domain events after successful writes.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

// CreateRequest is the input of CreateReservation.
type CreateRequest struct {
	CourtID     string
	RequesterID string
	Start       time.Time
	End         time.Time
}

// Actor is the caller of an operation that needs authorization.
type Actor struct {
	ID string
	// Elevated actors may act on reservations they do not own.
	Elevated bool
}

// AvailabilityOptions narrows QueryAvailableResources. Empty Include means
// every court.
type AvailabilityOptions struct {
	Include []string
	Exclude []string
}

// SweepResult reports the outcome of AutoCompletePastReservations.
type SweepResult struct {
	CompletedCount int64
}

// Engine decides admission and governs the reservation lifecycle.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	store     Store
	policy    Policy
	validator *Validator
	detector  *Detector
	guard     *Guard
	publisher EventPublisher
	logger    zerolog.Logger
	newID     func() string
}

// NewEngine wires an engine around store. publisher and logger may be nil.
func NewEngine(store Store, policy Policy, publisher EventPublisher, logger *zerolog.Logger) *Engine {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "booking").Logger()
	}
	return &Engine{
		store:     store,
		policy:    policy,
		validator: NewValidator(policy),
		detector:  NewDetector(store, policy.Buffer),
		guard:     NewGuard(policy.CancellationCutoff),
		publisher: publisher,
		logger:    l,
		newID:     uuid.NewString,
	}
}

// Policy returns the rules the engine enforces.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Validator exposes the range validator used for admission.
func (e *Engine) Validator() *Validator {
	return e.validator
}

// Detector exposes the conflict detector used for admission.
func (e *Engine) Detector() *Detector {
	return e.detector
}

// CreateReservation admits a new reservation. The conflict check is repeated
// inside the store transaction so concurrent requests cannot both succeed.
func (e *Engine) CreateReservation(ctx context.Context, req CreateRequest, now time.Time) (*models.Reservation, error) {
	const op = "create"

	if req.CourtID == "" || req.RequesterID == "" {
		return nil, e.reject(op, fail(KindMalformedInput, "court id and requester id are required"))
	}
	rng, err := e.validator.Validate(req.Start, req.End, now)
	if err != nil {
		return nil, e.reject(op, err)
	}

	if _, err := e.store.FindResourceByID(ctx, req.CourtID); err != nil {
		return nil, e.reject(op, translateStoreError("find court", err, KindResourceNotFound))
	}

	res, err := e.detector.FindConflict(ctx, req.CourtID, rng.Start, rng.End, models.ActiveStatuses, "")
	if err != nil {
		return nil, e.reject(op, storageFailure("find conflicts", err))
	}
	if res.HasConflict {
		return nil, e.reject(op, conflictFailure(res))
	}

	status := models.StatusConfirmed
	if e.policy.RequiresApproval {
		status = models.StatusPending
	}
	r := &models.Reservation{
		ID:          e.newID(),
		CourtID:     req.CourtID,
		RequesterID: req.RequesterID,
		StartTime:   rng.Start,
		EndTime:     rng.End,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	check := e.detector.Predicate(rng.Start, rng.End, models.ActiveStatuses, "")
	if err := e.store.AtomicInsert(ctx, r, e.detector.Window(rng.Start, rng.End), check); err != nil {
		return nil, e.reject(op, translateStoreError("insert reservation", err, KindResourceNotFound))
	}

	metrics.IncReservationCreated(string(r.Status))
	e.logger.Info().
		Str("reservation_id", r.ID).
		Str("court_id", r.CourtID).
		Str("status", string(r.Status)).
		Time("start", r.StartTime).
		Msg("reservation created")
	e.publish(events.TypeReservationCreated, r)
	return r, nil
}

// UpdateStatus moves a reservation to target. expected is the status the
// caller last observed; empty means the status loaded here is used.
func (e *Engine) UpdateStatus(ctx context.Context, id string, target models.Status, now time.Time, expected models.Status) (*models.Reservation, error) {
	const op = "update_status"

	if !target.Valid() {
		return nil, e.reject(op, fail(KindMalformedInput, "unknown status %q", target).with("field", "status"))
	}
	if expected != "" && !expected.Valid() {
		return nil, e.reject(op, fail(KindMalformedInput, "unknown status %q", expected).with("field", "expected_status"))
	}

	current, err := e.store.FindReservationByID(ctx, id)
	if err != nil {
		return nil, e.reject(op, translateStoreError("find reservation", err, KindReservationNotFound))
	}
	if err := e.guard.Check(current, target, expected, now); err != nil {
		return nil, e.reject(op, err)
	}

	update := StatusUpdate{
		ReservationID: id,
		To:            target,
		Expected:      current.Status,
		UpdatedAt:     now,
	}
	if target.Active() {
		res, err := e.detector.FindConflict(ctx, current.CourtID, current.StartTime, current.EndTime, models.ActiveStatuses, id)
		if err != nil {
			return nil, e.reject(op, storageFailure("find conflicts", err))
		}
		if res.HasConflict {
			return nil, e.reject(op, conflictFailure(res))
		}
		update.Window = e.detector.Window(current.StartTime, current.EndTime)
		update.Check = e.detector.Predicate(current.StartTime, current.EndTime, models.ActiveStatuses, id)
	}

	updated, err := e.store.AtomicUpdateStatus(ctx, update)
	if err != nil {
		return nil, e.reject(op, translateStoreError("update status", err, KindReservationNotFound))
	}

	metrics.IncTransition(string(current.Status), string(target))
	e.logger.Info().
		Str("reservation_id", id).
		Str("from", string(current.Status)).
		Str("to", string(target)).
		Msg("reservation status changed")
	e.publish(events.TypeReservationStatusChanged, events.StatusChanged{
		ReservationID: id,
		CourtID:       updated.CourtID,
		From:          string(current.Status),
		To:            string(target),
		At:            now,
	})
	return updated, nil
}

// DeleteReservation removes a reservation that has not started yet. Only
// the requester or an elevated actor may delete it.
func (e *Engine) DeleteReservation(ctx context.Context, id string, actor Actor, now time.Time) error {
	const op = "delete"

	r, err := e.store.FindReservationByID(ctx, id)
	if err != nil {
		return e.reject(op, translateStoreError("find reservation", err, KindReservationNotFound))
	}
	if !actor.Elevated && (actor.ID == "" || actor.ID != r.RequesterID) {
		return e.reject(op, fail(KindUnauthorized, "only the requester or staff may delete a reservation"))
	}
	if !r.StartTime.After(now) {
		return e.reject(op, fail(KindDeleteNotAllowed, "cannot delete a reservation that has already started"))
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return e.reject(op, translateStoreError("delete reservation", err, KindReservationNotFound))
	}

	metrics.IncDeleted()
	e.logger.Info().Str("reservation_id", id).Str("actor_id", actor.ID).Msg("reservation deleted")
	e.publish(events.TypeReservationDeleted, events.Deleted{
		ReservationID: id,
		CourtID:       r.CourtID,
		ActorID:       actor.ID,
		At:            now,
	})
	return nil
}

// QueryAvailableResources lists the courts that could accept a reservation
// for [start, end). The order follows ListResourceIDs.
func (e *Engine) QueryAvailableResources(ctx context.Context, start, end, now time.Time, opts AvailabilityOptions) ([]string, error) {
	const op = "available"

	rng, err := e.validator.Validate(start, end, now)
	if err != nil {
		return nil, e.reject(op, err)
	}
	ids, err := e.store.ListResourceIDs(ctx)
	if err != nil {
		return nil, e.reject(op, storageFailure("list courts", err))
	}

	available := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(opts.Include) > 0 && !slices.Contains(opts.Include, id) {
			continue
		}
		if slices.Contains(opts.Exclude, id) {
			continue
		}
		res, err := e.detector.FindConflict(ctx, id, rng.Start, rng.End, models.ActiveStatuses, "")
		if err != nil {
			return nil, e.reject(op, storageFailure("find conflicts", err))
		}
		if !res.HasConflict {
			available = append(available, id)
		}
	}
	return available, nil
}

// CheckAvailability reports whether a single court is free for [start, end).
// excludeID skips a reservation being rescheduled.
func (e *Engine) CheckAvailability(ctx context.Context, courtID string, start, end, now time.Time, excludeID string) (ConflictResult, error) {
	const op = "check_availability"

	rng, err := e.validator.Validate(start, end, now)
	if err != nil {
		return ConflictResult{}, e.reject(op, err)
	}
	if _, err := e.store.FindResourceByID(ctx, courtID); err != nil {
		return ConflictResult{}, e.reject(op, translateStoreError("find court", err, KindResourceNotFound))
	}
	res, err := e.detector.FindConflict(ctx, courtID, rng.Start, rng.End, models.ActiveStatuses, excludeID)
	if err != nil {
		return ConflictResult{}, e.reject(op, storageFailure("find conflicts", err))
	}
	return res, nil
}

// AutoCompletePastReservations completes confirmed reservations that ended
// more than CompletionGrace before now. Running it twice is harmless.
func (e *Engine) AutoCompletePastReservations(ctx context.Context, now time.Time) (SweepResult, error) {
	const op = "sweep"

	filter := BulkFilter{
		Status:      models.StatusConfirmed,
		EndedBefore: now.Add(-e.policy.CompletionGrace),
	}
	n, err := e.store.BulkUpdateStatus(ctx, filter, models.StatusCompleted, now)
	if err != nil {
		return SweepResult{}, e.reject(op, storageFailure("complete past reservations", err))
	}

	if n > 0 {
		metrics.AddSweepCompleted(n)
		e.logger.Info().Int64("count", n).Msg("auto-completed past reservations")
		e.publish(events.TypeReservationsCompleted, events.Completed{Count: n, At: now})
	}
	return SweepResult{CompletedCount: n}, nil
}

// ListReservations returns reservations matching filter.
func (e *Engine) ListReservations(ctx context.Context, filter QueryFilter) ([]models.Reservation, error) {
	const op = "list"

	if err := filter.Validate(); err != nil {
		return nil, e.reject(op, err)
	}
	out, err := e.store.ListReservations(ctx, filter)
	if err != nil {
		return nil, e.reject(op, storageFailure("list reservations", err))
	}
	return out, nil
}

// GetReservation loads a single reservation.
func (e *Engine) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := e.store.FindReservationByID(ctx, id)
	if err != nil {
		return nil, e.reject("get", translateStoreError("find reservation", err, KindReservationNotFound))
	}
	return r, nil
}

func (e *Engine) reject(op string, err error) error {
	kind := KindOf(err)
	metrics.IncRejected(op, string(kind))
	if kind == KindStorageError {
		e.logger.Error().Err(err).Str("op", op).Msg("storage failure")
	} else {
		e.logger.Debug().Str("op", op).Str("kind", string(kind)).Msg(err.Error())
	}
	return err
}

func (e *Engine) publish(eventType string, payload any) {
	if e.publisher != nil {
		e.publisher.Publish(eventType, payload)
	}
}
