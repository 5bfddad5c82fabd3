package entity

import (
	"fmt"
	"strings"
	"time"

	"anoa.com/unitech/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
)

// Roles lists every accepted role tag.
var Roles = []Role{RoleAdmin, RoleStudent, RoleInstructor}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleInstructor:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts role tags case-insensitively.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", apperror.Invalid("role", fmt.Sprintf("unknown role %q", value))
	}
	return role, nil
}

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
	SexOther  Sex = "O"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexOther
}

type User struct {
	ID                 uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string      `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FirstName          string      `gorm:"size:150" json:"first_name"`
	LastName           string      `gorm:"size:150" json:"last_name"`
	PasswordHash       string      `gorm:"size:255;not null" json:"-"`
	Role               Role        `gorm:"size:20;not null;index" json:"role"`
	IsActive           bool        `gorm:"not null" json:"is_active"`
	AvatarURL          *string     `gorm:"type:text" json:"avatar_url,omitempty"`
	ResetCode          *string     `gorm:"size:7;uniqueIndex" json:"-"`
	ResetCodeExpiresAt *time.Time  `json:"-"`
	LastLogin          *time.Time  `json:"last_login,omitempty"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Student            *Student    `gorm:"constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Instructor         *Instructor `gorm:"constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
}

// FullName renders "Last First", the order used across the admin listings.
func (u *User) FullName() string {
	return strings.TrimSpace(u.LastName + " " + u.FirstName)
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleAdmin
	}
	return nil
}

// BeforeSave runs on create and on Save, so the avatar fallback covers both paths.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role != "" && !u.Role.Valid() {
		return apperror.Invalid("role", fmt.Sprintf("unknown role %q", u.Role))
	}
	if u.AvatarURL == nil || strings.TrimSpace(*u.AvatarURL) == "" {
		avatar := GravatarURL(u.Email)
		u.AvatarURL = &avatar
	}
	return nil
}

// NormalizeEmail is applied on every write and lookup so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileRecord is implemented by the per-role extension records.
type ProfileRecord interface {
	OwnerID() uuid.UUID
	SetOwnerID(id uuid.UUID)
	ProfileRole() Role
}

type Student struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Phone       *string    `gorm:"size:10" json:"phone"`
	Sex         Sex        `gorm:"size:1;not null" json:"sex"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth"`
	City        *string    `gorm:"size:100" json:"city"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Sex == "" {
		s.Sex = SexOther
	}
	return nil
}

func (s *Student) OwnerID() uuid.UUID      { return s.UserID }
func (s *Student) SetOwnerID(id uuid.UUID) { s.UserID = id }
func (s *Student) ProfileRole() Role       { return RoleStudent }

type Instructor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Phone     *string   `gorm:"size:10" json:"phone"`
	Sex       Sex       `gorm:"size:1;not null" json:"sex"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Instructor) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Sex == "" {
		i.Sex = SexOther
	}
	return nil
}

func (i *Instructor) OwnerID() uuid.UUID      { return i.UserID }
func (i *Instructor) SetOwnerID(id uuid.UUID) { i.UserID = id }
func (i *Instructor) ProfileRole() Role       { return RoleInstructor }
