package models

import (
	"strings"

	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/pkg/validator"
)

var phoneValidator = validator.NewPhoneValidator()

// normalizePhone rewrites an optional phone number to E.164. Blank values become nil.
func normalizePhone(field string, phone **string) error {
	if *phone == nil {
		return nil
	}
	if strings.TrimSpace(**phone) == "" {
		*phone = nil
		return nil
	}
	e164, err := phoneValidator.Validate(**phone)
	if err != nil {
		return domain.Invalid(field, err.Error())
	}
	*phone = &e164
	return nil
}

// normalizeCPF rewrites an optional CPF to its 11 digits. Blank values become nil.
func normalizeCPF(field string, doc **string) error {
	if *doc == nil {
		return nil
	}
	if strings.TrimSpace(**doc) == "" {
		*doc = nil
		return nil
	}
	digits, err := validator.ValidateCPF(**doc)
	if err != nil {
		return domain.Invalid(field, "must be a valid CPF")
	}
	*doc = &digits
	return nil
}
