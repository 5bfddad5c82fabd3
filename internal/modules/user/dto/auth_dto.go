package dto

import (
	"encoding/json"
	"time"

	"anoa.com/unitech/internal/entity"
	profileDto "anoa.com/unitech/internal/modules/profile/dto"
	"github.com/google/uuid"
)

type RegisterInput struct {
	Email           string `json:"email" form:"email" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
	FirstName       string `json:"first_name" form:"first_name" binding:"max=150"`
	LastName        string `json:"last_name" form:"last_name" binding:"max=150"`
	profileDto.StudentProfileInput
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PasswordResetRequestInput struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmInput struct {
	Code            string `json:"code" binding:"required,len=7"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm"`
}

type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *UserResponse `json:"user"`
}

// UserResponse is the public representation of a user. Students always carry a "profile" key,
// null when the profile row is missing; other roles have no such key. Instructors get their
// profile under "instructor_profile" when it exists.
type UserResponse struct {
	ID        uuid.UUID                          `json:"id"`
	Email     string                             `json:"email"`
	FirstName string                             `json:"first_name"`
	LastName  string                             `json:"last_name"`
	FullName  string                             `json:"full_name"`
	Role      entity.Role                        `json:"role"`
	IsActive  bool                               `json:"is_active"`
	AvatarURL *string                            `json:"avatar_url"`
	LastLogin *time.Time                         `json:"last_login"`
	CreatedAt time.Time                          `json:"created_at"`
	Profile   *profileDto.StudentProfileResponse `json:"profile"`

	InstructorProfile *profileDto.InstructorProfileResponse `json:"instructor_profile,omitempty"`
}

func (r UserResponse) MarshalJSON() ([]byte, error) {
	type alias UserResponse
	if r.Role == entity.RoleStudent {
		return json.Marshal(alias(r))
	}
	return json.Marshal(struct {
		alias
		Profile *profileDto.StudentProfileResponse `json:"profile,omitempty"`
	}{alias: alias(r)})
}

// BuildUserResponse maps a user, with its preloaded profiles, to the public representation.
func BuildUserResponse(user *entity.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		Role:      user.Role,
		IsActive:  user.IsActive,
		AvatarURL: user.AvatarURL,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
	if user.Role == entity.RoleStudent {
		resp.Profile = profileDto.NewStudentProfileResponse(user.Student)
	}
	if user.Role == entity.RoleInstructor {
		resp.InstructorProfile = profileDto.NewInstructorProfileResponse(user.Instructor)
	}
	return resp
}
