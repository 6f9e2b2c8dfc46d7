package api

import (
	"errors"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-campus"
	"github.com/google/uuid"
)

type validatable interface {
	Validate() error
}

// bind decodes the body into payload and validates it.
func bind(c *fiber.Ctx, payload validatable) error {
	if err := c.BodyParser(payload); err != nil {
		return campus.ErrValidation.Clone().WithMetadata(map[string]any{
			"body": "malformed request body",
		})
	}
	return validationFailed(payload.Validate())
}

type studentPayload struct {
	CollegeID   uuid.UUID `json:"college_id"`
	RollNumber  string    `json:"roll_number"`
	Branch      string    `json:"branch"`
	YearOfStudy int       `json:"year_of_study"`
}

func (r studentPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CollegeID, validation.By(requiredUUID)),
		validation.Field(&r.RollNumber, validation.Length(0, 64)),
		validation.Field(&r.Branch, validation.Length(0, 128)),
		validation.Field(&r.YearOfStudy, validation.Min(1), validation.Max(10)),
	)
}

func (r *studentPayload) enrollment() *campus.StudentEnrollment {
	if r == nil {
		return nil
	}
	return &campus.StudentEnrollment{
		CollegeID:   r.CollegeID,
		RollNumber:  r.RollNumber,
		Branch:      r.Branch,
		YearOfStudy: r.YearOfStudy,
	}
}

type signupRequest struct {
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone_number"`
	Password  string          `json:"password"`
	Student   *studentPayload `json:"student"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Length(0, 255), is.Email),
		validation.Field(&r.FirstName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.Phone, validation.Length(0, 32)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.Student),
	)
}

func (r signupRequest) message() campus.RegisterUserMessage {
	return campus.RegisterUserMessage{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Password:  r.Password,
		Student:   r.Student.enrollment(),
	}
}

type createUserRequest struct {
	signupRequest
	IsAdmin bool  `json:"is_admin"`
	Active  *bool `json:"is_active"`
}

func (r createUserRequest) Validate() error {
	return r.signupRequest.Validate()
}

// loginRequest accepts JSON or the OAuth2 password form encoding.
type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Password, validation.Required),
	)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 128)),
	)
}

type updateProfileRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone_number"`
}

func (r updateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Length(0, 255), is.Email),
		validation.Field(&r.FirstName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.Phone, validation.Length(0, 32)),
	)
}

func (r updateProfileRequest) input() campus.UpdateProfileInput {
	return campus.UpdateProfileInput{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

type createCollegeRequest struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	City         string `json:"city"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Website      string `json:"website"`
}

func (r createCollegeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Code, validation.Required, validation.Length(2, 20), is.Alphanumeric),
		validation.Field(&r.City, validation.Length(0, 100)),
		validation.Field(&r.ContactEmail, validation.Length(0, 255), is.Email),
		validation.Field(&r.ContactPhone, validation.Length(0, 32)),
		validation.Field(&r.Website, validation.Length(0, 255), is.URL),
	)
}

func (r createCollegeRequest) message() campus.CreateCollegeMessage {
	return campus.CreateCollegeMessage{
		Name:         r.Name,
		Code:         r.Code,
		City:         r.City,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		Website:      r.Website,
	}
}

type createEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    *int       `json:"capacity"`
}

func (r createEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Venue, validation.Length(0, 255)),
		validation.Field(&r.StartTime, validation.Required),
		validation.Field(&r.Capacity, validation.Min(1)),
	)
}

func (r createEventRequest) input() campus.CreateEventInput {
	return campus.CreateEventInput{
		Title:       r.Title,
		Description: r.Description,
		Venue:       r.Venue,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Capacity:    r.Capacity,
	}
}

// updateEventRequest is a partial update. Sending clear_end_time or
// clear_capacity removes the stored value.
type updateEventRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Venue         *string    `json:"venue"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	ClearEndTime  bool       `json:"clear_end_time"`
	Capacity      *int       `json:"capacity"`
	ClearCapacity bool       `json:"clear_capacity"`
}

func (r updateEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Venue, validation.Length(0, 255)),
		validation.Field(&r.Capacity, validation.Min(1)),
	)
}

func (r updateEventRequest) input() campus.UpdateEventInput {
	return campus.UpdateEventInput{
		Title:         r.Title,
		Description:   r.Description,
		Venue:         r.Venue,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		ClearEndTime:  r.ClearEndTime,
		Capacity:      r.Capacity,
		ClearCapacity: r.ClearCapacity,
	}
}

func requiredUUID(value any) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
}

// pageFromQuery reads skip and limit, falling back to the defaults.
func pageFromQuery(c *fiber.Ctx) (campus.Page, error) {
	page := campus.Page{Limit: campus.DefaultPageLimit}

	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return page, validationFailed(validation.Errors{"skip": errors.New("must be a non negative integer")})
		}
		page.Skip = skip
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > campus.MaxPageLimit {
			return page, validationFailed(validation.Errors{"limit": errors.New("must be between 1 and " + strconv.Itoa(campus.MaxPageLimit))})
		}
		page.Limit = limit
	}

	return page.Normalize(), nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, campus.ErrValidation.Clone().WithMetadata(map[string]any{
			"fields": map[string]any{name: "must be a valid UUID"},
		})
	}
	return id, nil
}
