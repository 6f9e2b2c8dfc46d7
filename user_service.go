package campus

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateProfileInput holds the self editable profile fields. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
}

// UserService implements account administration and self service.
type UserService struct {
	repo        RepositoryManager
	hasher      *Hasher
	phoneRegion string
	activity    activityEmitter
}

// NewUserService returns a UserService.
func NewUserService(repo RepositoryManager, hasher *Hasher) *UserService {
	return &UserService{
		repo:        repo,
		hasher:      hasher,
		phoneRegion: DefaultPhoneRegion,
		activity:    newActivityEmitter(nil, nil),
	}
}

// WithPhoneRegion sets the region used to parse local phone numbers.
func (s *UserService) WithPhoneRegion(region string) *UserService {
	if region != "" {
		s.phoneRegion = region
	}
	return s
}

// WithActivity sets the activity sink and logger.
func (s *UserService) WithActivity(sink ActivitySink, logger Logger) *UserService {
	s.activity = newActivityEmitter(sink, logger)
	return s
}

func (s *UserService) List(ctx context.Context, actor *User, page Page, activeOnly bool) ([]*User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Users().List(ctx, page, activeOnly)
}

func (s *UserService) Get(ctx context.Context, actor *User, id uuid.UUID) (*User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Users().GetByID(ctx, id)
}

// Activate marks the account active. Admins cannot toggle their own account.
func (s *UserService) Activate(ctx context.Context, actor *User, id uuid.UUID) (*User, error) {
	return s.setActive(ctx, actor, id, true)
}

// Deactivate marks the account inactive. Admins cannot toggle their own account.
func (s *UserService) Deactivate(ctx context.Context, actor *User, id uuid.UUID) (*User, error) {
	return s.setActive(ctx, actor, id, false)
}

func (s *UserService) setActive(ctx context.Context, actor *User, id uuid.UUID, active bool) (*User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	if actor.ID == id {
		return nil, ErrSelfAction.Clone().WithMetadata(map[string]any{"active": active})
	}

	var user *User
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = s.repo.Users().SetActiveTx(ctx, tx, id, active)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err, "user activation transaction failed")
	}

	eventType := ActivityEventUserDeactivated
	if active {
		eventType = ActivityEventUserActivated
	}
	s.activity.emit(ctx, eventType, ActorFromUser(actor), id.String(), id.String(), nil)

	return user, nil
}

// Delete removes the account and everything that depends on it.
func (s *UserService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	if actor.ID == id {
		return ErrSelfAction.Clone().WithMetadata(map[string]any{"action": "delete"})
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return wrapTxError(err, "user delete transaction failed")
	}

	s.activity.emit(ctx, ActivityEventUserDeleted, ActorFromUser(actor), id.String(), id.String(), nil)
	return nil
}

// UpdateProfile applies a self service profile update to user.
func (s *UserService) UpdateProfile(ctx context.Context, user *User, input UpdateProfileInput) (*User, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	record := *user
	record.Student = nil

	if input.Email != nil {
		record.Email = strings.TrimSpace(*input.Email)
	}
	if input.FirstName != nil {
		record.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		record.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		phone, err := NormalizePhone(*input.Phone, s.phoneRegion)
		if err != nil {
			return nil, err
		}
		record.Phone = phone
	}

	var updated *User
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		updated, err = s.repo.Users().UpdateProfileTx(ctx, tx, &record)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err, "profile update transaction failed")
	}
	return updated, nil
}

// ChangePassword verifies the current password, stores the new one and
// clears any pending rotation flag.
func (s *UserService) ChangePassword(ctx context.Context, user *User, current, next string) error {
	if user == nil {
		return ErrUnauthenticated
	}

	if err := s.hasher.ComparePassword(current, user.PasswordHash); err != nil {
		return err
	}

	if current == next {
		return validationError("new_password", "new password must differ from the current one")
	}

	hash, err := s.hasher.HashPassword(next)
	if err != nil {
		return err
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().UpdatePasswordTx(ctx, tx, user.ID, hash, false)
	})
	if err != nil {
		return wrapTxError(err, "password change transaction failed")
	}

	user.PasswordHash = hash
	user.MustChangePassword = false

	s.activity.emit(ctx, ActivityEventPasswordChanged, ActorFromUser(user), user.ID.String(), user.ID.String(), nil)
	return nil
}

// VerifyStudent marks the student profile of userID as verified.
func (s *UserService) VerifyStudent(ctx context.Context, actor *User, userID uuid.UUID) (*Student, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var student *Student
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		student, err = s.repo.Students().SetVerifiedTx(ctx, tx, userID, true)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err, "student verification transaction failed")
	}

	s.activity.emit(ctx, ActivityEventStudentVerified, ActorFromUser(actor), userID.String(), student.ID.String(), nil)
	return student, nil
}
