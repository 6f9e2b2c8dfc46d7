package campus

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegistrationManager enforces the registration invariants: one
// registration per user and event, and never more registrations than the
// event capacity.
type RegistrationManager struct {
	repo     RepositoryManager
	activity activityEmitter
}

// NewRegistrationManager returns a RegistrationManager.
func NewRegistrationManager(repo RepositoryManager) *RegistrationManager {
	return &RegistrationManager{
		repo:     repo,
		activity: newActivityEmitter(nil, nil),
	}
}

// WithActivity sets the activity sink and logger.
func (m *RegistrationManager) WithActivity(sink ActivitySink, logger Logger) *RegistrationManager {
	m.activity = newActivityEmitter(sink, logger)
	return m
}

// Register signs userID up for eventID. The event lookup, duplicate check,
// capacity check and insert share one transaction, and the event row is
// locked first so concurrent attempts on the same event are serialized.
func (m *RegistrationManager) Register(ctx context.Context, userID, eventID uuid.UUID) (*Registration, error) {
	var registration *Registration

	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		event, err := m.repo.Events().LockTx(ctx, tx, eventID)
		if err != nil {
			return err
		}

		exists, err := m.repo.Registrations().ExistsTx(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered.Clone().WithMetadata(map[string]any{
				"user_id":  userID.String(),
				"event_id": eventID.String(),
			})
		}

		if event.Capacity != nil {
			count, err := m.repo.Events().CountRegistrationsTx(ctx, tx, eventID)
			if err != nil {
				return err
			}
			if count >= *event.Capacity {
				return ErrEventFull.Clone().WithMetadata(map[string]any{
					"event_id": eventID.String(),
					"capacity": *event.Capacity,
				})
			}
		}

		registration, err = m.repo.Registrations().CreateTx(ctx, tx, &Registration{
			UserID:  userID,
			EventID: eventID,
		})
		return err
	})

	actor := ActorRef{ID: userID.String(), Type: "user"}
	if err != nil {
		if HasTextCode(err, TextCodeEventFull) || HasTextCode(err, TextCodeAlreadyRegistered) {
			reason := "full"
			if HasTextCode(err, TextCodeAlreadyRegistered) {
				reason = "duplicate"
			}
			m.activity.emit(ctx, ActivityEventRegistrationBlocked, actor, userID.String(), eventID.String(), map[string]any{
				"reason": reason,
			})
		}
		return nil, wrapTxError(err, "registration transaction failed")
	}

	m.activity.emit(ctx, ActivityEventRegistered, actor, userID.String(), eventID.String(), nil)
	return registration, nil
}

// Unregister removes the registration of userID for eventID.
func (m *RegistrationManager) Unregister(ctx context.Context, userID, eventID uuid.UUID) error {
	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.repo.Registrations().DeleteTx(ctx, tx, userID, eventID)
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrRegistrationNotFound.Clone().WithMetadata(map[string]any{
				"user_id":  userID.String(),
				"event_id": eventID.String(),
			})
		}
		return wrapTxError(err, "unregister transaction failed")
	}

	m.activity.emit(ctx, ActivityEventUnregistered, ActorRef{ID: userID.String(), Type: "user"}, userID.String(), eventID.String(), nil)
	return nil
}

// ListRegistrants returns the registrations of an event. Only admins and
// the event creator may list them.
func (m *RegistrationManager) ListRegistrants(ctx context.Context, requester *User, eventID uuid.UUID) ([]*Registration, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}

	event, err := m.repo.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := RequireOwnerOrAdmin(requester, event.CreatedBy); err != nil {
		return nil, err
	}

	return m.repo.Registrations().ListByEvent(ctx, eventID)
}

// ListForUser returns the registrations of userID, newest first.
func (m *RegistrationManager) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Registration, error) {
	return m.repo.Registrations().ListByUser(ctx, userID)
}
