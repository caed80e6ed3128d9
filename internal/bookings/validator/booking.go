package validator

import (
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
	"deskbook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	log.Debug("Booking validator initialized")
	return &BookingValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *BookingValidator) ValidateInput(input *model.BookingInput) error {
	return validation.Struct(v.validate, input)
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	return validation.Struct(v.validate, update)
}

func (v *BookingValidator) ValidateFilter(filter *model.BookingFilter) error {
	if err := validation.Struct(v.validate, filter); err != nil {
		return err
	}
	if filter.Cursor != "" && filter.Limit == 0 {
		return validation.ValidationErrors{{Field: "cursor", Message: "cursor requires limit"}}
	}
	return nil
}

func (v *BookingValidator) ValidateID(id string) error {
	if err := v.validate.Var(id, "required,uuid"); err != nil {
		return validation.ValidationErrors{{Field: "id", Message: "id must be a valid UUID"}}
	}
	return nil
}
