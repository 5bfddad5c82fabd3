package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/pkg/apperror"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateEmail(email string) error {
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return apperror.Invalid("email", "email must be a valid email address")
	}
	return nil
}

// RegisterBindings installs the custom tags on gin's validator engine.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return Register(v)
}

// Register adds the "role" and "sex" tags to v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := entity.ParseRole(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("sex", func(fl validator.FieldLevel) bool {
		return entity.Sex(strings.ToUpper(fl.Field().String())).Valid()
	})
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

// FieldErrors converts binding errors into an apperror.ValidationError. Other errors (malformed
// JSON and the like) become a single "body" entry.
func FieldErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.Invalid("body", err.Error())
	}

	out := &apperror.ValidationError{}
	for _, fieldError := range validationErrors {
		out.Add(jsonName(fieldError.Field()), getFieldErrorMessage(fieldError))
	}
	return out.OrNil()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "eqfield":
		return fmt.Sprintf("%s does not match", field)
	case "role":
		return fmt.Sprintf("%s must be one of ADMIN, STUDENT, INSTRUCTOR", field)
	case "sex":
		return fmt.Sprintf("%s must be one of M, F, O", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Email":           "Email",
		"Password":        "Password",
		"PasswordConfirm": "Password confirmation",
		"FirstName":       "First name",
		"LastName":        "Last name",
		"DateOfBirth":     "Date of birth",
		"CategoryID":      "Category",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}

// jsonName turns a Go field name into the snake_case key used in payloads ("CategoryID" -> "category_id").
func jsonName(field string) string {
	runes := []rune(field)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ValidatePassword enforces the credential policy: a minimum length, at least one letter and at
// least one character that is not a letter.
func ValidatePassword(password string, minLength int) error {
	if len([]rune(password)) < minLength {
		return apperror.Invalid("password", fmt.Sprintf("password must be at least %d characters", minLength))
	}

	var hasLetter, hasOther bool
	for _, r := range password {
		if unicode.IsLetter(r) {
			hasLetter = true
		} else {
			hasOther = true
		}
	}
	if !hasLetter || !hasOther {
		return apperror.Invalid("password", "password must mix letters with digits or symbols")
	}
	return nil
}

// ConfirmPassword checks the confirmation when one was supplied.
func ConfirmPassword(password, confirm string) error {
	if confirm != "" && confirm != password {
		return apperror.Invalid("password_confirm", "passwords do not match")
	}
	return nil
}
