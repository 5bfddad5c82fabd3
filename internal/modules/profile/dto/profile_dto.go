package dto

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/pkg/apperror"
)

const DateLayout = "2006-01-02"

// StudentProfileInput carries optional student profile fields. A nil field leaves the stored
// value alone, an empty string clears it.
type StudentProfileInput struct {
	Phone       *string `json:"phone" form:"phone"`
	Sex         *string `json:"sex" form:"sex"`
	DateOfBirth *string `json:"date_of_birth" form:"date_of_birth"`
	City        *string `json:"city" form:"city"`
}

type InstructorProfileInput struct {
	Phone *string `json:"phone" form:"phone"`
	Sex   *string `json:"sex" form:"sex"`
}

func (in StudentProfileInput) Empty() bool {
	return in.Phone == nil && in.Sex == nil && in.DateOfBirth == nil && in.City == nil
}

// Validate reports every invalid field at once.
func (in StudentProfileInput) Validate() error {
	ve := &apperror.ValidationError{}
	validatePhone(ve, in.Phone)
	validateSex(ve, in.Sex)
	if in.DateOfBirth != nil && strings.TrimSpace(*in.DateOfBirth) != "" {
		dob, err := time.Parse(DateLayout, strings.TrimSpace(*in.DateOfBirth))
		if err != nil {
			ve.Add("date_of_birth", "date_of_birth must be formatted as YYYY-MM-DD")
		} else if dob.After(time.Now()) {
			ve.Add("date_of_birth", "date_of_birth cannot be in the future")
		}
	}
	if in.City != nil && utf8.RuneCountInString(strings.TrimSpace(*in.City)) > 100 {
		ve.Add("city", "city must be at most 100 characters")
	}
	return ve.OrNil()
}

// Apply validates the input and copies it onto student.
func (in StudentProfileInput) Apply(student *entity.Student) error {
	if err := in.Validate(); err != nil {
		return err
	}

	if in.Phone != nil {
		student.Phone = optional(*in.Phone)
	}
	if in.Sex != nil {
		student.Sex = entity.Sex(strings.ToUpper(strings.TrimSpace(*in.Sex)))
	}
	if in.DateOfBirth != nil {
		if value := strings.TrimSpace(*in.DateOfBirth); value == "" {
			student.DateOfBirth = nil
		} else {
			dob, _ := time.Parse(DateLayout, value)
			student.DateOfBirth = &dob
		}
	}
	if in.City != nil {
		student.City = optional(*in.City)
	}
	return nil
}

func (in InstructorProfileInput) Validate() error {
	ve := &apperror.ValidationError{}
	validatePhone(ve, in.Phone)
	validateSex(ve, in.Sex)
	return ve.OrNil()
}

func (in InstructorProfileInput) Apply(instructor *entity.Instructor) error {
	if err := in.Validate(); err != nil {
		return err
	}

	if in.Phone != nil {
		instructor.Phone = optional(*in.Phone)
	}
	if in.Sex != nil {
		instructor.Sex = entity.Sex(strings.ToUpper(strings.TrimSpace(*in.Sex)))
	}
	return nil
}

func validatePhone(ve *apperror.ValidationError, phone *string) {
	if phone == nil {
		return
	}
	value := strings.TrimSpace(*phone)
	if len(value) > 10 {
		ve.Add("phone", "phone must be at most 10 characters")
		return
	}
	for _, r := range value {
		if (r < '0' || r > '9') && r != '+' {
			ve.Add("phone", "phone must contain digits only")
			return
		}
	}
}

func validateSex(ve *apperror.ValidationError, sex *string) {
	if sex == nil {
		return
	}
	if !entity.Sex(strings.ToUpper(strings.TrimSpace(*sex))).Valid() {
		ve.Add("sex", fmt.Sprintf("sex must be one of %s, %s, %s", entity.SexMale, entity.SexFemale, entity.SexOther))
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

type StudentProfileResponse struct {
	Phone       *string    `json:"phone"`
	Sex         entity.Sex `json:"sex"`
	DateOfBirth *string    `json:"date_of_birth"`
	City        *string    `json:"city"`
}

func NewStudentProfileResponse(student *entity.Student) *StudentProfileResponse {
	if student == nil {
		return nil
	}
	resp := &StudentProfileResponse{
		Phone: student.Phone,
		Sex:   student.Sex,
		City:  student.City,
	}
	if student.DateOfBirth != nil {
		dob := student.DateOfBirth.Format(DateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

type InstructorProfileResponse struct {
	Phone *string    `json:"phone"`
	Sex   entity.Sex `json:"sex"`
}

func NewInstructorProfileResponse(instructor *entity.Instructor) *InstructorProfileResponse {
	if instructor == nil {
		return nil
	}
	return &InstructorProfileResponse{Phone: instructor.Phone, Sex: instructor.Sex}
}

// UpdateProfileInput is the self-service payload. Only the profile matching the caller's role is
// applied.
type UpdateProfileInput struct {
	FirstName       *string `json:"first_name" form:"first_name" binding:"omitempty,max=150"`
	LastName        *string `json:"last_name" form:"last_name" binding:"omitempty,max=150"`
	Password        *string `json:"password" form:"password"`
	PasswordConfirm string  `json:"password_confirm" form:"password_confirm"`
	StudentProfileInput
}

func (in UpdateProfileInput) InstructorInput() InstructorProfileInput {
	return InstructorProfileInput{Phone: in.Phone, Sex: in.Sex}
}
