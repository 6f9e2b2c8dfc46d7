package campus

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record. Username is the login handle.
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Username           string     `bun:"username,notnull,unique" json:"username"`
	Email              string     `bun:"email,nullzero" json:"email,omitempty"`
	FirstName          string     `bun:"first_name,nullzero" json:"first_name,omitempty"`
	LastName           string     `bun:"last_name,nullzero" json:"last_name,omitempty"`
	Phone              string     `bun:"phone_number,nullzero" json:"phone_number,omitempty"`
	PasswordHash       string     `bun:"password_hash,notnull" json:"-"`
	IsAdmin            bool       `bun:"is_admin,notnull" json:"is_admin"`
	IsActive           bool       `bun:"is_active,notnull" json:"is_active"`
	MustChangePassword bool       `bun:"must_change_password,notnull" json:"must_change_password,omitempty"`
	LoginAttempts      int        `bun:"login_attempts,notnull" json:"-"`
	LoginAttemptAt     *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt         *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Student *Student `bun:"rel:has-one,join:id=user_id" json:"student,omitempty"`
}

// College is an institution. Code is unique and stored upper case.
type College struct {
	bun.BaseModel `bun:"table:colleges,alias:col"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Code          string    `bun:"code,notnull,unique" json:"code"`
	City          string    `bun:"city,nullzero" json:"city,omitempty"`
	ContactEmail  string    `bun:"contact_email,nullzero" json:"contact_email,omitempty"`
	ContactPhone  string    `bun:"contact_phone,nullzero" json:"contact_phone,omitempty"`
	Website       string    `bun:"website,nullzero" json:"website,omitempty"`
	IsActive      bool      `bun:"is_active,notnull" json:"is_active"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Student extends a User with enrollment details.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:stu"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	UserID        uuid.UUID `bun:"user_id,notnull,unique,type:uuid" json:"user_id"`
	CollegeID     uuid.UUID `bun:"college_id,notnull,type:uuid" json:"college_id"`
	RollNumber    string    `bun:"roll_number,nullzero" json:"roll_number,omitempty"`
	Branch        string    `bun:"branch,nullzero" json:"branch,omitempty"`
	YearOfStudy   int       `bun:"year_of_study,nullzero" json:"year_of_study,omitempty"`
	IsVerified    bool      `bun:"is_verified,notnull" json:"is_verified"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	College *College `bun:"rel:belongs-to,join:college_id=id" json:"college,omitempty"`
}

// Event is a schedulable activity. RegisteredCount is filled by the
// repositories from a live aggregate and is never persisted.
type Event struct {
	bun.BaseModel   `bun:"table:events,alias:evt"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Title           string     `bun:"title,notnull" json:"title"`
	Description     string     `bun:"description,nullzero" json:"description,omitempty"`
	Venue           string     `bun:"venue,nullzero" json:"venue,omitempty"`
	StartTime       time.Time  `bun:"start_time,notnull" json:"start_time"`
	EndTime         *time.Time `bun:"end_time" json:"end_time,omitempty"`
	Capacity        *int       `bun:"capacity" json:"capacity,omitempty"`
	CreatedBy       uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	RegisteredCount int        `bun:"registered_count,scanonly" json:"registered_count"`
}

// IsFull reports whether the capacity has been reached.
func (e *Event) IsFull() bool {
	if e == nil || e.Capacity == nil {
		return false
	}
	return e.RegisteredCount >= *e.Capacity
}

// SpotsLeft returns the remaining capacity, or -1 when unbounded.
func (e *Event) SpotsLeft() int {
	if e == nil || e.Capacity == nil {
		return -1
	}
	if left := *e.Capacity - e.RegisteredCount; left > 0 {
		return left
	}
	return 0
}

// Registration joins a user and an event.
type Registration struct {
	bun.BaseModel `bun:"table:registrations,alias:reg"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	EventID       uuid.UUID `bun:"event_id,notnull,type:uuid" json:"event_id"`
	RegisteredAt  time.Time `bun:"registered_at,nullzero,notnull,default:current_timestamp" json:"registered_at"`

	User  *User  `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
}
