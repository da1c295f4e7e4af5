package application

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return hexColorPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

type appointmentRecord struct {
	Title           string    `json:"title" validate:"required,max=200"`
	ClientName      string    `json:"client_name" validate:"required,max=200"`
	ClientEmail     *string   `json:"client_email" validate:"omitempty,email"`
	StaffID         string    `json:"staff_id" validate:"required"`
	Start           time.Time `json:"start" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gt=0,lte=1440"`
	Price           *float64  `json:"price" validate:"omitempty,gte=0"`
	Status          string    `json:"status" validate:"max=32"`
}

type staffRecord struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"required,rgbhex"`
}

func validateAppointment(appointment Appointment) *ValidationError {
	return validateStruct(appointmentRecord{
		Title:           appointment.Title,
		ClientName:      appointment.ClientName,
		ClientEmail:     appointment.ClientEmail,
		StaffID:         appointment.StaffID,
		Start:           appointment.Start,
		DurationMinutes: appointment.DurationMinutes,
		Price:           appointment.Price,
		Status:          appointment.Status,
	})
}

func validateStaff(staff Staff) *ValidationError {
	return validateStruct(staffRecord{Name: staff.Name, Color: staff.Color})
}

func validateStruct(record any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(record)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("input", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fieldMessage(fe))
	}
	return vErr
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "rgbhex":
		return field + " must be a hex color such as #FF5722"
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
