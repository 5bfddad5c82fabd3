package dto

import (
	"errors"
	"testing"
	"time"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/pkg/apperror"
)

func ptr(s string) *string { return &s }

func TestStudentProfileInputApply(t *testing.T) {
	student := &entity.Student{Sex: entity.SexOther, City: ptr("Lyon")}

	in := StudentProfileInput{
		Phone:       ptr("0612345678"),
		Sex:         ptr("f"),
		DateOfBirth: ptr("2001-04-12"),
		City:        ptr(" Paris "),
	}
	if err := in.Apply(student); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if student.Sex != entity.SexFemale || *student.City != "Paris" || *student.Phone != "0612345678" {
		t.Fatalf("unexpected student: %+v", student)
	}
	if student.DateOfBirth == nil || student.DateOfBirth.Format(DateLayout) != "2001-04-12" {
		t.Fatalf("unexpected date of birth: %v", student.DateOfBirth)
	}

	if err := (StudentProfileInput{City: ptr("")}).Apply(student); err != nil {
		t.Fatalf("clear city: %v", err)
	}
	if student.City != nil {
		t.Fatalf("expected city cleared")
	}
}

func TestStudentProfileInputValidate(t *testing.T) {
	future := time.Now().AddDate(1, 0, 0).Format(DateLayout)
	in := StudentProfileInput{
		Phone:       ptr("01234567890"),
		Sex:         ptr("x"),
		DateOfBirth: ptr(future),
	}

	err := in.Validate()
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"phone", "sex", "date_of_birth"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Fatalf("expected %s in %v", field, ve.Fields)
		}
	}

	if err := (StudentProfileInput{DateOfBirth: ptr("12/04/2001")}).Validate(); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected bad date format rejected, got %v", err)
	}
}

func TestNewStudentProfileResponse(t *testing.T) {
	if NewStudentProfileResponse(nil) != nil {
		t.Fatalf("expected nil response for nil profile")
	}

	dob := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	resp := NewStudentProfileResponse(&entity.Student{Sex: entity.SexMale, DateOfBirth: &dob})
	if resp.DateOfBirth == nil || *resp.DateOfBirth != "1999-12-31" {
		t.Fatalf("unexpected date: %v", resp.DateOfBirth)
	}
}
