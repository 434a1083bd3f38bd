package directory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

const paymentDayMsg = "Expected payment day must be one of the following: 1, 15, 25, 30."

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and converts failures into a
// Validation error with one detail per field.
func (s *Service) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Internal("Failed to validate input", err)
	}

	appErr := apperrors.Validation("Invalid input")
	for _, fe := range verrs {
		appErr.WithDetail(fe.Field(), fieldMessage(fe))
	}
	return appErr
}

func fieldMessage(fe validator.FieldError) string {
	switch {
	case fe.Field() == "expectedPaymentDay":
		return paymentDayMsg
	case fe.Field() == "name" && fe.Tag() == "min":
		return "Client name must be at least 2 characters long."
	case fe.Tag() == "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case fe.Tag() == "min":
		return fmt.Sprintf("%s must be at least %s characters long.", fe.Field(), fe.Param())
	case fe.Tag() == "max":
		return fmt.Sprintf("%s must be at most %s characters long.", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid.", fe.Field())
}
