package validator

import (
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
	"deskbook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type OfficeValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewOfficeValidator(log *logger.Logger) *OfficeValidator {
	log.Debug("Office validator initialized")
	return &OfficeValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *OfficeValidator) ValidateInput(input *model.OfficeInput) error {
	return validation.Struct(v.validate, input)
}

func (v *OfficeValidator) ValidateID(id string) error {
	if err := v.validate.Var(id, "required,uuid"); err != nil {
		return validation.ValidationErrors{{Field: "id", Message: "id must be a valid UUID"}}
	}
	return nil
}
