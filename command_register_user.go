package campus

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StudentEnrollment is the optional student block of a registration.
type StudentEnrollment struct {
	CollegeID   uuid.UUID `json:"college_id"`
	RollNumber  string    `json:"roll_number"`
	Branch      string    `json:"branch"`
	YearOfStudy int       `json:"year_of_study"`
}

type RegisterUserMessage struct {
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Phone     string             `json:"phone_number"`
	Password  string             `json:"password"`
	IsAdmin   bool               `json:"is_admin"`
	Active    *bool              `json:"is_active,omitempty"`
	Student   *StudentEnrollment `json:"student,omitempty"`
	Actor     ActorRef           `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates accounts, optionally with a student profile.
// New accounts are inactive unless autoActivate is set or the message
// carries an explicit Active value.
type RegisterUserHandler struct {
	repo         RepositoryManager
	hasher       *Hasher
	autoActivate bool
	phoneRegion  string
	activity     activityEmitter
}

// NewRegisterUserHandler returns a RegisterUserHandler.
func NewRegisterUserHandler(repo RepositoryManager, hasher *Hasher, autoActivate bool) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:         repo,
		hasher:       hasher,
		autoActivate: autoActivate,
		phoneRegion:  DefaultPhoneRegion,
		activity:     newActivityEmitter(nil, nil),
	}
}

// WithPhoneRegion sets the region used to parse local phone numbers.
func (h *RegisterUserHandler) WithPhoneRegion(region string) *RegisterUserHandler {
	if region != "" {
		h.phoneRegion = region
	}
	return h
}

// WithActivity sets the activity sink and logger.
func (h *RegisterUserHandler) WithActivity(sink ActivitySink, logger Logger) *RegisterUserHandler {
	h.activity = newActivityEmitter(sink, logger)
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	username := NormalizeHandle(getUsername(event.Username, event.Email))
	if username == "" {
		return nil, validationError("username", "username is required")
	}

	phone, err := NormalizePhone(event.Phone, h.phoneRegion)
	if err != nil {
		return nil, err
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		return nil, err
	}

	active := h.autoActivate
	if event.Active != nil {
		active = *event.Active
	}

	user := &User{
		Username:     username,
		Email:        strings.TrimSpace(event.Email),
		FirstName:    strings.TrimSpace(event.FirstName),
		LastName:     strings.TrimSpace(event.LastName),
		Phone:        phone,
		PasswordHash: hash,
		IsAdmin:      event.IsAdmin,
		IsActive:     active,
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Users().UsernameExistsTx(ctx, tx, username)
		if err != nil {
			return err
		}
		if taken {
			return ErrHandleTaken.Clone().WithMetadata(map[string]any{"username": username})
		}

		if event.Student != nil {
			if _, err := h.repo.Colleges().GetByIDTx(ctx, tx, event.Student.CollegeID); err != nil {
				return err
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		if event.Student != nil {
			student := &Student{
				UserID:      user.ID,
				CollegeID:   event.Student.CollegeID,
				RollNumber:  strings.TrimSpace(event.Student.RollNumber),
				Branch:      strings.TrimSpace(event.Student.Branch),
				YearOfStudy: event.Student.YearOfStudy,
			}
			if user.Student, err = h.repo.Students().CreateTx(ctx, tx, student); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create student profile")
			}
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	eventType := ActivityEventSignup
	if event.Actor.ID != "" {
		eventType = ActivityEventUserCreated
	}
	h.activity.emit(ctx, eventType, event.Actor, user.ID.String(), user.ID.String(), map[string]any{
		"username":  user.Username,
		"is_admin":  user.IsAdmin,
		"is_active": user.IsActive,
		"student":   user.Student != nil,
	})

	return user, nil
}

func getUsername(username, email string) string {
	if strings.TrimSpace(username) != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
