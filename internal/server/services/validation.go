package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

// Password rules. bcrypt ignores input past 72 bytes, so longer passwords
// are refused rather than silently truncated.
const (
	MinPasswordLength = 7
	MaxPasswordBytes  = 72
	forbiddenPassword = "password"
)

// Candidate is the unvalidated input for a new account.
type Candidate struct {
	Name     string `json:"name" validate:"required"`
	Age      int    `json:"age" validate:"min=0,max=2147483647"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=7,bcryptmax,nopassword"`
}

// normalize trims every string and lower-cases the email.
func (c *Candidate) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = normalizeEmail(c.Email)
	c.Password = strings.TrimSpace(c.Password)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), forbiddenPassword)
	})
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})

	return v
}

// validateCandidate checks c. When withPassword is false the password field
// is skipped, which is how profile updates without a new password run.
func validateCandidate(c *Candidate, withPassword bool) error {
	var err error
	if withPassword {
		err = validate.Struct(c)
	} else {
		err = validate.StructExcept(c, "Password")
	}
	return toValidationError(err)
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	ve := &common.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), message(fe))
	}
	return ve
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is invalid"
	case "min":
		if fe.Field() == "age" {
			return "must be a positive number"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param()
	case "bcryptmax":
		return "must be at most 72 bytes"
	case "nopassword":
		return `cannot contain "password"`
	default:
		return "is invalid"
	}
}
