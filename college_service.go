package campus

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateCollegeMessage carries the fields of a new college.
type CreateCollegeMessage struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	City         string `json:"city"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Website      string `json:"website"`
}

func (e CreateCollegeMessage) Type() string { return "college.create" }

// CollegeCreated is the result of creating a college. AdminPassword is the
// generated one time password of the college admin and is not stored in
// clear anywhere.
type CollegeCreated struct {
	College       *College
	Admin         *User
	AdminUsername string
	AdminPassword string
}

// CollegeService manages colleges and their default admin accounts.
type CollegeService struct {
	repo        RepositoryManager
	hasher      *Hasher
	phoneRegion string
	activity    activityEmitter
}

// NewCollegeService returns a CollegeService.
func NewCollegeService(repo RepositoryManager, hasher *Hasher) *CollegeService {
	return &CollegeService{
		repo:        repo,
		hasher:      hasher,
		phoneRegion: DefaultPhoneRegion,
		activity:    newActivityEmitter(nil, nil),
	}
}

// WithPhoneRegion sets the region used to parse local phone numbers.
func (s *CollegeService) WithPhoneRegion(region string) *CollegeService {
	if region != "" {
		s.phoneRegion = region
	}
	return s
}

// WithActivity sets the activity sink and logger.
func (s *CollegeService) WithActivity(sink ActivitySink, logger Logger) *CollegeService {
	s.activity = newActivityEmitter(sink, logger)
	return s
}

// CollegeAdminHandle derives the handle of the default admin of a college.
func CollegeAdminHandle(code string) string {
	return "admin." + strings.ToLower(strings.TrimSpace(code))
}

// Create adds a college and its admin account. The admin gets a random
// password and must rotate it on first login.
func (s *CollegeService) Create(ctx context.Context, actor *User, msg CreateCollegeMessage) (*CollegeCreated, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	code := NormalizeCollegeCode(msg.Code)
	if code == "" {
		return nil, validationError("code", "code is required")
	}
	if strings.TrimSpace(msg.Name) == "" {
		return nil, validationError("name", "name is required")
	}

	phone, err := NormalizePhone(msg.ContactPhone, s.phoneRegion)
	if err != nil {
		return nil, err
	}

	handle := CollegeAdminHandle(code)
	password, err := RandomPassword()
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	adminID, err := hashid.NewUUID(handle)
	if err != nil {
		adminID = uuid.New()
	}

	college := &College{
		Name:         strings.TrimSpace(msg.Name),
		Code:         code,
		City:         strings.TrimSpace(msg.City),
		ContactEmail: strings.TrimSpace(msg.ContactEmail),
		ContactPhone: phone,
		Website:      strings.TrimSpace(msg.Website),
		IsActive:     true,
	}

	admin := &User{
		ID:                 adminID,
		Username:           handle,
		Email:              college.ContactEmail,
		FirstName:          code,
		LastName:           "Admin",
		PasswordHash:       hash,
		IsAdmin:            true,
		IsActive:           true,
		MustChangePassword: true,
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := s.repo.Colleges().CodeExistsTx(ctx, tx, code)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateCollegeCode.Clone().WithMetadata(map[string]any{"code": code})
		}

		taken, err := s.repo.Users().UsernameExistsTx(ctx, tx, handle)
		if err != nil {
			return err
		}
		if taken {
			return ErrHandleTaken.Clone().WithMetadata(map[string]any{"username": handle})
		}

		if college, err = s.repo.Colleges().CreateTx(ctx, tx, college); err != nil {
			return err
		}

		admin, err = s.repo.Users().CreateTx(ctx, tx, admin)
		return err
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "college creation transaction failed")
	}

	s.activity.emit(ctx, ActivityEventCollegeCreated, ActorFromUser(actor), admin.ID.String(), college.ID.String(), map[string]any{
		"code":           college.Code,
		"admin_username": handle,
	})

	return &CollegeCreated{
		College:       college,
		Admin:         admin,
		AdminUsername: handle,
		AdminPassword: password,
	}, nil
}

func (s *CollegeService) Get(ctx context.Context, id uuid.UUID) (*College, error) {
	return s.repo.Colleges().GetByID(ctx, id)
}

func (s *CollegeService) List(ctx context.Context, page Page, activeOnly bool) ([]*College, error) {
	return s.repo.Colleges().List(ctx, page, activeOnly)
}

// Delete removes a college and its student profiles.
func (s *CollegeService) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Colleges().DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return wrapTxError(err, "college delete transaction failed")
	}

	s.activity.emit(ctx, ActivityEventCollegeDeleted, ActorFromUser(actor), "", id.String(), nil)
	return nil
}
