package validator

import (
	"regexp"

	"deskbook/pkg/logger"
	"deskbook/pkg/model"
	"deskbook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v := validation.New()
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		log.Error("Failed to register username validation", "error", err)
	}

	log.Debug("User validator initialized")
	return &UserValidator{
		validate: v,
		logger:   log,
	}
}

func (v *UserValidator) ValidateRegistration(reg *model.Registration) error {
	return validation.Struct(v.validate, reg)
}

func (v *UserValidator) ValidateCredentials(creds *model.Credentials) error {
	return validation.Struct(v.validate, creds)
}
