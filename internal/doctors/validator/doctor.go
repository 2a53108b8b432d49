package validator

import (
	"errors"
	"fmt"
	"strings"

	"medibuddy/pkg/logger"
	"medibuddy/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type DoctorValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewDoctorValidator(log *logger.Logger) *DoctorValidator {
	v := validator.New()

	if err := v.RegisterValidation("weekday", validateWeekday); err != nil {
		log.Fatal("Failed to register 'weekday' validator", "error", err)
	}
	if err := v.RegisterValidation("hhmm", validateClock); err != nil {
		log.Fatal("Failed to register 'hhmm' validator", "error", err)
	}
	v.RegisterStructValidation(validateProfileVariant, model.User{})

	return &DoctorValidator{
		validate: v,
		logger:   log,
	}
}

func validateWeekday(fl validator.FieldLevel) bool {
	return model.IsWeekday(fl.Field().String())
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := model.ParseClock(fl.Field().String())
	return err == nil
}

func validateProfileVariant(sl validator.StructLevel) {
	u := sl.Current().Interface().(model.User)
	if err := u.CheckVariant(); err != nil {
		sl.ReportError(u.Role, "Role", "role", "profile", err.Error())
	}
}

// Validate checks a user record, including that its profile matches its role.
func (v *DoctorValidator) Validate(u *model.User) error {
	if err := v.validate.Struct(u); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	if u.IsDoctor() {
		return v.ValidateAvailability(u.Doctor.Availability)
	}
	return nil
}

// ValidateAvailability checks every window in full; nothing is stored unless
// all of them pass.
func (v *DoctorValidator) ValidateAvailability(windows []model.AvailabilityWindow) error {
	update := model.AvailabilityUpdate{Availability: windows}
	if err := v.validate.Struct(&update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if err := model.ValidateAvailability(windows); err != nil {
		return ValidationErrors{{Field: "availability", Message: err.Error()}}
	}
	return nil
}

func (v *DoctorValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = "email must be a valid email address"
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "weekday":
			message = "day must be a full weekday name (Monday-Sunday)"
		case "hhmm":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "profile":
			message = "profile must match role: doctors carry a doctor profile, patients a patient profile, admins neither"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Namespace(),
			Message: message,
		})
	}

	return validationErrors
}
