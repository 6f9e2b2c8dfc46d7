package campus

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateEventInput carries the fields of a new event.
type CreateEventInput struct {
	Title       string
	Description string
	Venue       string
	StartTime   time.Time
	EndTime     *time.Time
	Capacity    *int
}

// UpdateEventInput is a partial update. Nil fields keep the stored value;
// ClearEndTime and ClearCapacity unset the nullable fields.
type UpdateEventInput struct {
	Title         *string
	Description   *string
	Venue         *string
	StartTime     *time.Time
	EndTime       *time.Time
	ClearEndTime  bool
	Capacity      *int
	ClearCapacity bool
}

// EventService implements the event lifecycle: create, update against the
// effective merged values, and terminal delete that cascades to
// registrations.
type EventService struct {
	repo     RepositoryManager
	activity activityEmitter
}

// NewEventService returns an EventService.
func NewEventService(repo RepositoryManager) *EventService {
	return &EventService{
		repo:     repo,
		activity: newActivityEmitter(nil, nil),
	}
}

// WithActivity sets the activity sink and logger.
func (s *EventService) WithActivity(sink ActivitySink, logger Logger) *EventService {
	s.activity = newActivityEmitter(sink, logger)
	return s
}

// Create adds an event owned by creator, who must be an admin.
func (s *EventService) Create(ctx context.Context, creator *User, input CreateEventInput) (*Event, error) {
	if err := RequireAdmin(creator); err != nil {
		return nil, err
	}

	event := &Event{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Venue:       strings.TrimSpace(input.Venue),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Capacity:    input.Capacity,
		CreatedBy:   creator.ID,
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Events().CreateTx(ctx, tx, event)
		if err != nil {
			return err
		}
		event = created
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, "event creation transaction failed")
	}

	s.activity.emit(ctx, ActivityEventEventCreated, ActorFromUser(creator), creator.ID.String(), event.ID.String(), map[string]any{
		"title": event.Title,
	})

	return event, nil
}

// Update merges input over the stored event and validates the result. Only
// the admin who created the event may update it.
func (s *EventService) Update(ctx context.Context, actor *User, id uuid.UUID, input UpdateEventInput) (*Event, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var updated *Event
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Same row lock Register takes, so the count below stays current
		// until the new capacity is written.
		current, err := s.repo.Events().LockTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if current.CreatedBy != actor.ID {
			return ErrForbidden.Clone().WithMetadata(map[string]any{
				"event_id": id.String(),
				"reason":   "only the event creator can update it",
			})
		}

		merged := mergeEvent(current, input)
		if err := validateEvent(merged); err != nil {
			return err
		}

		if merged.Capacity != nil {
			count, err := s.repo.Events().CountRegistrationsTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if *merged.Capacity < count {
				return validationError("capacity", "capacity is below the current number of registrations")
			}
		}

		updated, err = s.repo.Events().UpdateTx(ctx, tx, merged)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err, "event update transaction failed")
	}

	s.activity.emit(ctx, ActivityEventEventUpdated, ActorFromUser(actor), actor.ID.String(), id.String(), nil)
	return updated, nil
}

// Delete removes an event and its registrations.
func (s *EventService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Events().DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return wrapTxError(err, "event delete transaction failed")
	}

	s.activity.emit(ctx, ActivityEventEventDeleted, ActorFromUser(actor), actor.ID.String(), id.String(), nil)
	return nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.Events().GetByID(ctx, id)
}

func (s *EventService) List(ctx context.Context, page Page) ([]*Event, error) {
	return s.repo.Events().List(ctx, page)
}

func mergeEvent(current *Event, input UpdateEventInput) *Event {
	merged := *current

	if input.Title != nil {
		merged.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		merged.Description = strings.TrimSpace(*input.Description)
	}
	if input.Venue != nil {
		merged.Venue = strings.TrimSpace(*input.Venue)
	}
	if input.StartTime != nil {
		merged.StartTime = *input.StartTime
	}

	switch {
	case input.ClearEndTime:
		merged.EndTime = nil
	case input.EndTime != nil:
		end := *input.EndTime
		merged.EndTime = &end
	}

	switch {
	case input.ClearCapacity:
		merged.Capacity = nil
	case input.Capacity != nil:
		capacity := *input.Capacity
		merged.Capacity = &capacity
	}

	return &merged
}

// validateEvent checks the event invariants: a title, a start time, an end
// strictly after the start and a positive capacity.
func validateEvent(e *Event) error {
	if e.Title == "" {
		return validationError("title", "title is required")
	}
	if len(e.Title) > 255 {
		return validationError("title", "title must be at most 255 characters")
	}
	if e.StartTime.IsZero() {
		return validationError("start_time", "start time is required")
	}
	if e.EndTime != nil && !e.EndTime.After(e.StartTime) {
		return ErrInvalidTimeRange.Clone().WithMetadata(map[string]any{
			"start_time": e.StartTime,
			"end_time":   *e.EndTime,
		})
	}
	if e.Capacity != nil && *e.Capacity < 1 {
		return validationError("capacity", "capacity must be at least 1")
	}
	return nil
}

func wrapTxError(err error, message string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message)
}
