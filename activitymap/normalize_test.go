package activitymap_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-campus"
	"github.com/goliatone/go-campus/activitymap"
)

func TestNormalizeRegistration(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := campus.ActivityEvent{
		EventType:  campus.ActivityEventRegistrationBlocked,
		Actor:      campus.ActorRef{ID: "user-7", Type: "user"},
		UserID:     "user-7",
		ObjectID:   "event-42",
		Metadata:   map[string]any{"reason": "full"},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "user-7" {
		t.Fatalf("expected actor_id user-7, got %q", out.ActorID)
	}
	if out.Verb != string(campus.ActivityEventRegistrationBlocked) {
		t.Fatalf("expected verb %q, got %q", campus.ActivityEventRegistrationBlocked, out.Verb)
	}
	if out.Channel != "registration" {
		t.Fatalf("expected channel registration, got %q", out.Channel)
	}
	if out.ObjectType != "event" {
		t.Fatalf("expected object_type event, got %q", out.ObjectType)
	}
	if out.ObjectID != "event-42" {
		t.Fatalf("expected object_id event-42, got %q", out.ObjectID)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}
	if out.Metadata["reason"] != "full" {
		t.Fatalf("expected metadata reason full, got %#v", out.Metadata["reason"])
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "user" {
		t.Fatalf("expected metadata actor_type user, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if out.Metadata[activitymap.MetadataKeySubjectID] != "user-7" {
		t.Fatalf("expected metadata subject_id user-7, got %#v", out.Metadata[activitymap.MetadataKeySubjectID])
	}
	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeObjectTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event      campus.ActivityEventType
		channel    string
		objectType string
	}{
		{campus.ActivityEventLoginSuccess, "auth", "user"},
		{campus.ActivityEventCollegeCreated, "college", "college"},
		{campus.ActivityEventEventDeleted, "event", "event"},
		{campus.ActivityEventStudentVerified, "student", "student"},
		{campus.ActivityEventUserDeactivated, "user", "user"},
		{"custom", "custom", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.event), func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(campus.ActivityEvent{EventType: tc.event})
			if out.Channel != tc.channel {
				t.Fatalf("expected channel %q, got %q", tc.channel, out.Channel)
			}
			if out.ObjectType != tc.objectType {
				t.Fatalf("expected object_type %q, got %q", tc.objectType, out.ObjectType)
			}
		})
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	event := campus.ActivityEvent{
		EventType: campus.ActivityEventPasswordChanged,
		Actor:     campus.ActorRef{Type: "user"},
		UserID:    "user-200",
		Metadata: map[string]any{
			activitymap.MetadataKeyActorType: "existing",
		},
	}

	out := activitymap.Normalize(event, activitymap.WithChannel("security"))

	if out.Channel != "security" {
		t.Fatalf("expected channel security, got %q", out.Channel)
	}
	if out.ObjectID != "user-200" {
		t.Fatalf("expected object_id to fall back to user-200, got %q", out.ObjectID)
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "existing" {
		t.Fatalf("expected existing actor_type preserved, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if _, ok := out.Metadata[activitymap.MetadataKeySubjectID]; ok {
		t.Fatalf("expected no subject_id without a distinct object")
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeActorFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  campus.ActivityEvent
		opts   []activitymap.Option
		expect string
	}{
		{
			name:   "uses actor id when present",
			event:  campus.ActivityEvent{Actor: campus.ActorRef{ID: "actor-1"}, UserID: "user-1"},
			expect: "actor-1",
		},
		{
			name:   "uses user id when actor id missing",
			event:  campus.ActivityEvent{UserID: "user-2"},
			expect: "user-2",
		},
		{
			name:   "uses default fallback when actor and user missing",
			event:  campus.ActivityEvent{},
			expect: "system",
		},
		{
			name:   "uses configured fallback when actor and user missing",
			event:  campus.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("job")},
			expect: "job",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event, tc.opts...)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}

type captureLogger struct {
	msgs []string
	args [][]any
}

func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Warn(string, ...any)  {}
func (c *captureLogger) Error(string, ...any) {}
func (c *captureLogger) Info(msg string, args ...any) {
	c.msgs = append(c.msgs, msg)
	c.args = append(c.args, args)
}

func TestSink(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}
	sink := activitymap.Sink(logger)

	err := sink.Record(context.Background(), campus.ActivityEvent{
		EventType: campus.ActivityEventEventCreated,
		Actor:     campus.ActorRef{ID: "admin-1", Type: "admin"},
		ObjectID:  "event-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(logger.msgs) != 1 || logger.msgs[0] != "activity" {
		t.Fatalf("expected one activity record, got %v", logger.msgs)
	}
	args := logger.args[0]
	if args[0] != "verb" || args[1] != string(campus.ActivityEventEventCreated) {
		t.Fatalf("expected verb first, got %v", args[:2])
	}
}
