package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-campus"
)

const (
	// MetadataKeyActorType stores the actor type derived from campus.ActorRef.Type.
	MetadataKeyActorType = "actor_type"
	// MetadataKeySubjectID stores the affected user when it differs from the object.
	MetadataKeySubjectID = "subject_id"
)

const defaultActorID = "system"

// objectTypes maps the verb prefix of an event to the kind of object it
// touches. Registrations are filed under the event they target.
var objectTypes = map[string]string{
	"auth":         "user",
	"user":         "user",
	"student":      "student",
	"college":      "college",
	"event":        "event",
	"registration": "event",
}

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	actorFallback string
}

// Normalize converts a campus.ActivityEvent into the normalized shape. The
// channel and object type come from the verb prefix, e.g. "registration"
// for registration.created.
func Normalize(event campus.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{actorFallback: defaultActorID}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	verb := string(event.EventType)
	prefix := verbPrefix(verb)

	channel := options.channel
	if channel == "" {
		channel = prefix
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID: firstNonEmpty(
			strings.TrimSpace(event.Actor.ID),
			strings.TrimSpace(event.UserID),
			options.actorFallback,
		),
		Verb:       verb,
		ObjectType: objectTypes[prefix],
		ObjectID:   firstNonEmpty(strings.TrimSpace(event.ObjectID), strings.TrimSpace(event.UserID)),
		Channel:    channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// WithChannel overrides the channel derived from the verb.
func WithChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithActorFallback sets the actor id used when neither actor nor user ids are set.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		if actorID = strings.TrimSpace(actorID); actorID != "" {
			opts.actorFallback = actorID
		}
	}
}

// Sink returns an ActivitySink writing one normalized audit record per event.
func Sink(logger campus.Logger, opts ...Option) campus.ActivitySink {
	if logger == nil {
		logger = campus.DefaultLogger()
	}
	return campus.ActivitySinkFunc(func(_ context.Context, event campus.ActivityEvent) error {
		n := Normalize(event, opts...)
		logger.Info("activity",
			"verb", n.Verb,
			"channel", n.Channel,
			"actor_id", n.ActorID,
			"object_type", n.ObjectType,
			"object_id", n.ObjectID,
			"metadata", n.Metadata,
			"occurred_at", n.OccurredAt,
		)
		return nil
	})
}

func verbPrefix(verb string) string {
	prefix, _, _ := strings.Cut(verb, ".")
	return prefix
}

func normalizeMetadata(event campus.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	set := func(key, value string) {
		if value == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	set(MetadataKeyActorType, strings.TrimSpace(event.Actor.Type))
	if event.UserID != "" && event.ObjectID != "" && event.UserID != event.ObjectID {
		set(MetadataKeySubjectID, event.UserID)
	}

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
