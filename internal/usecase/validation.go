package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"flights-api/internal/domain/entity"

	"github.com/go-playground/validator/v10"
)

// PassengerInput is a passenger as submitted by a client. Pointer fields
// distinguish a missing value from a zero value.
type PassengerInput struct {
	ID                *int   `json:"id" validate:"required"`
	Name              string `json:"name" validate:"required"`
	HasConnections    *bool  `json:"hasConnections" validate:"required"`
	Age               *int   `json:"age" validate:"required"`
	FlightCategory    string `json:"flightCategory" validate:"required,flightcategory"`
	ReservationID     string `json:"reservationId" validate:"required"`
	HasCheckedBaggage *bool  `json:"hasCheckedBaggage" validate:"required"`
}

// CreateFlightRequest is the payload of a create. A nil Passengers means the field was not supplied.
type CreateFlightRequest struct {
	FlightCode string           `json:"flightCode" validate:"required"`
	Passengers []PassengerInput `json:"passengers" validate:"required,dive"`
}

// UpdateFlightRequest is the payload of a partial update; nil fields are left untouched
type UpdateFlightRequest struct {
	FlightCode *string          `json:"flightCode"`
	Passengers []PassengerInput `json:"passengers" validate:"omitempty,dive"`
}

// ValidationError is returned when a payload is rejected before any write.
// Reasons holds one entry per offending field.
type ValidationError struct {
	Message string
	Reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Reasons, "; ")
}

const (
	msgCreateRequired   = "flightCode and passengers are required"
	msgEmptyFlightCode  = "flightCode cannot be empty"
	msgInvalidPassenger = "Invalid passenger data"
)

// FlightValidator checks flight payloads and reports field-level reasons
type FlightValidator struct {
	validate *validator.Validate
}

// NewFlightValidator creates a validator that names fields by their JSON keys
func NewFlightValidator() *FlightValidator {
	v := validator.New()
	_ = v.RegisterValidation("flightcategory", func(fl validator.FieldLevel) bool {
		return entity.FlightCategory(fl.Field().String()).Valid()
	})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &FlightValidator{validate: v}
}

// ValidateCreate expects FlightCode to be trimmed already
func (fv *FlightValidator) ValidateCreate(req CreateFlightRequest) error {
	err := fv.validate.Struct(req)
	if err == nil {
		return nil
	}

	reasons, topLevel := fv.reasons(err)
	if topLevel {
		return &ValidationError{Message: msgCreateRequired, Reasons: reasons}
	}
	return &ValidationError{Message: msgInvalidPassenger, Reasons: reasons}
}

// ValidateUpdate expects FlightCode, when present, to be trimmed already
func (fv *FlightValidator) ValidateUpdate(req UpdateFlightRequest) error {
	if req.FlightCode != nil && *req.FlightCode == "" {
		return &ValidationError{
			Message: msgEmptyFlightCode,
			Reasons: []string{"flightCode must not be empty"},
		}
	}

	err := fv.validate.Struct(req)
	if err == nil {
		return nil
	}

	reasons, _ := fv.reasons(err)
	return &ValidationError{Message: msgInvalidPassenger, Reasons: reasons}
}

// reasons turns validator errors into messages and reports whether any top-level field failed
func (fv *FlightValidator) reasons(err error) ([]string, bool) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}, true
	}

	reasons := make([]string, 0, len(fieldErrs))
	topLevel := false
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		if !strings.Contains(path, ".") && !strings.Contains(path, "[") {
			topLevel = true
		}
		reasons = append(reasons, describe(path, fe))
	}
	return reasons, topLevel
}

// fieldPath drops the struct name validator puts in front of every namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "flightcategory":
		return fmt.Sprintf("%s must be one of: %s", path, categoryList())
	default:
		return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
}

func categoryList() string {
	names := make([]string, 0, len(entity.FlightCategories))
	for _, c := range entity.FlightCategories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func toPassengers(inputs []PassengerInput) []entity.Passenger {
	passengers := make([]entity.Passenger, 0, len(inputs))
	for _, in := range inputs {
		passengers = append(passengers, entity.Passenger{
			ID:                derefInt(in.ID),
			Name:              in.Name,
			HasConnections:    derefBool(in.HasConnections),
			Age:               derefInt(in.Age),
			FlightCategory:    entity.FlightCategory(in.FlightCategory),
			ReservationID:     in.ReservationID,
			HasCheckedBaggage: derefBool(in.HasCheckedBaggage),
		})
	}
	return passengers
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefBool(v *bool) bool {
	return v != nil && *v
}
