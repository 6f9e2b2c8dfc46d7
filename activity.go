package campus

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignup              ActivityEventType = "auth.signup"
	ActivityEventLoginSuccess        ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure        ActivityEventType = "auth.login.failure"
	ActivityEventPasswordChanged     ActivityEventType = "auth.password.changed"
	ActivityEventCollegeCreated      ActivityEventType = "college.created"
	ActivityEventCollegeDeleted      ActivityEventType = "college.deleted"
	ActivityEventEventCreated        ActivityEventType = "event.created"
	ActivityEventEventUpdated        ActivityEventType = "event.updated"
	ActivityEventEventDeleted        ActivityEventType = "event.deleted"
	ActivityEventRegistered          ActivityEventType = "registration.created"
	ActivityEventUnregistered        ActivityEventType = "registration.deleted"
	ActivityEventRegistrationBlocked ActivityEventType = "registration.blocked"
	ActivityEventUserCreated         ActivityEventType = "user.created"
	ActivityEventUserActivated       ActivityEventType = "user.activated"
	ActivityEventUserDeactivated     ActivityEventType = "user.deactivated"
	ActivityEventUserDeleted         ActivityEventType = "user.deleted"
	ActivityEventStudentVerified     ActivityEventType = "student.verified"
)

// ActorRef identifies who performed an action.
type ActorRef struct {
	ID   string
	Type string
}

// ActorFromUser builds an ActorRef for user, "anonymous" when nil.
func ActorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "anonymous"}
	}
	actorType := "user"
	if user.IsAdmin {
		actorType = "admin"
	}
	return ActorRef{ID: user.ID.String(), Type: actorType}
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	ObjectID   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// MultiActivitySink fans events out to every sink, returning the first error.
type MultiActivitySink []ActivitySink

// Record implements ActivitySink.
func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var firstErr error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// activityEmitter is embedded by services that publish events.
type activityEmitter struct {
	sink   ActivitySink
	logger Logger
}

func newActivityEmitter(sink ActivitySink, logger Logger) activityEmitter {
	return activityEmitter{
		sink:   normalizeActivitySink(sink),
		logger: resolveLogger(logger),
	}
}

func (e activityEmitter) emit(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID, objectID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		ObjectID:   objectID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := normalizeActivitySink(e.sink).Record(ctx, event); err != nil {
		resolveLogger(e.logger).Warn("activity sink record error", "error", err, "event", string(eventType))
	}
}
