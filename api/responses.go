package api

import (
	"time"

	"github.com/goliatone/go-campus"
)

type eventResponse struct {
	*campus.Event
	IsFull    bool `json:"is_full"`
	SpotsLeft *int `json:"spots_left,omitempty"`
}

func newEventResponse(e *campus.Event) eventResponse {
	res := eventResponse{Event: e, IsFull: e.IsFull()}
	if e.Capacity != nil {
		left := e.SpotsLeft()
		res.SpotsLeft = &left
	}
	return res
}

func newEventList(events []*campus.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResponse(e))
	}
	return out
}

type tokenResponse struct {
	AccessToken        string    `json:"access_token"`
	TokenType          string    `json:"token_type"`
	ExpiresAt          time.Time `json:"expires_at"`
	MustChangePassword bool      `json:"must_change_password,omitempty"`
}

type signupResponse struct {
	Message string       `json:"message"`
	User    *campus.User `json:"user"`
}

type collegeCreatedResponse struct {
	College       *campus.College `json:"college"`
	AdminUsername string          `json:"admin_username"`
	AdminPassword string          `json:"admin_password"`
}

type registrationResponse struct {
	*campus.Registration
	Event *eventResponse `json:"event,omitempty"`
}

func newRegistrationList(regs []*campus.Registration) []registrationResponse {
	out := make([]registrationResponse, 0, len(regs))
	for _, r := range regs {
		res := registrationResponse{Registration: r}
		if r.Event != nil {
			ev := newEventResponse(r.Event)
			res.Event = &ev
		}
		out = append(out, res)
	}
	return out
}

type messageResponse struct {
	Message string `json:"message"`
}
