// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"errors"
	"net/mail"
	"slices"
	"strings"

	"github.com/MKhiriev/amestris-client/models"
)

// Field names accepted by [FormValidator.Validate] to restrict validation to
// a subset of fields. They match the JSON names of the payloads.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldName         = "name"
	FieldRole         = "role"
	FieldTitle        = "title"
	FieldMaterialID   = "materialId"
	FieldQuantityUsed = "quantityUsed"
	FieldQuantity     = "quantity"
	FieldUnit         = "unit"
	FieldStatus       = "status"
)

const minPasswordLength = 6

var missionStatuses = []models.MissionStatus{
	models.MissionPending,
	models.MissionApproved,
	models.MissionInProgress,
	models.MissionCompleted,
	models.MissionRejected,
}

// FormValidator validates the payloads of the login, registration and
// create forms: [models.Credentials], [models.Registration],
// [models.TransmutationInput], [models.MissionInput], [models.AlchemistInput]
// and [models.MaterialInput], by value or by pointer.
type FormValidator struct{}

// NewFormValidator constructs a FormValidator and returns it as the Validator
// interface.
func NewFormValidator() Validator {
	return &FormValidator{}
}

func (v *FormValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Credentials:
		return v.validateCredentials(value, fields...)
	case *models.Credentials:
		return v.validateCredentials(*value, fields...)

	case models.Registration:
		return v.validateRegistration(value, fields...)
	case *models.Registration:
		return v.validateRegistration(*value, fields...)

	case models.TransmutationInput:
		return v.validateTransmutation(value, fields...)
	case *models.TransmutationInput:
		return v.validateTransmutation(*value, fields...)

	case models.MissionInput:
		return v.validateMission(value, fields...)
	case *models.MissionInput:
		return v.validateMission(*value, fields...)

	case models.AlchemistInput:
		return v.validateAlchemist(value, fields...)
	case *models.AlchemistInput:
		return v.validateAlchemist(*value, fields...)

	case models.MaterialInput:
		return v.validateMaterial(value, fields...)
	case *models.MaterialInput:
		return v.validateMaterial(*value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// collector accumulates field errors in the order fields are checked.
type collector []error

func (c *collector) add(field string, err error) {
	*c = append(*c, &FieldError{Field: field, Err: err})
}

func (c collector) err() error {
	return errors.Join(c...)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func checkEmail(c *collector, email string) {
	switch {
	case blank(email):
		c.add(FieldEmail, ErrEmptyEmail)
	case !validEmail(email):
		c.add(FieldEmail, ErrInvalidEmail)
	}
}

// validEmail accepts a bare address only; "Name <a@b>" forms are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == strings.TrimSpace(email)
}

func (v *FormValidator) validateCredentials(in models.Credentials, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmail, FieldPassword}
	}

	var c collector
	for _, f := range fields {
		switch f {
		case FieldEmail:
			checkEmail(&c, in.Email)
		case FieldPassword:
			if in.Password == "" {
				c.add(FieldPassword, ErrEmptyPassword)
			}
		default:
			return ErrUnknownField
		}
	}

	return c.err()
}

func (v *FormValidator) validateRegistration(in models.Registration, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldName, FieldEmail, FieldPassword, FieldRole}
	}

	var c collector
	for _, f := range fields {
		switch f {
		case FieldName:
			if blank(in.Name) {
				c.add(FieldName, ErrEmptyName)
			}
		case FieldEmail:
			checkEmail(&c, in.Email)
		case FieldPassword:
			switch {
			case in.Password == "":
				c.add(FieldPassword, ErrEmptyPassword)
			case len([]rune(in.Password)) < minPasswordLength:
				c.add(FieldPassword, ErrShortPassword)
			}
		case FieldRole:
			// empty defaults to ALCHEMIST
			if in.Role == "" {
				continue
			}
			if _, ok := models.ParseRole(string(in.Role)); !ok {
				c.add(FieldRole, ErrInvalidRole)
			}
		default:
			return ErrUnknownField
		}
	}

	return c.err()
}

func (v *FormValidator) validateTransmutation(in models.TransmutationInput, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldTitle, FieldMaterialID, FieldQuantityUsed}
	}

	var c collector
	for _, f := range fields {
		switch f {
		case FieldTitle:
			if blank(in.Title) {
				c.add(FieldTitle, ErrEmptyTitle)
			}
		case FieldMaterialID:
			if in.MaterialID <= 0 {
				c.add(FieldMaterialID, ErrInvalidMaterialID)
			}
		case FieldQuantityUsed:
			if in.QuantityUsed <= 0 {
				c.add(FieldQuantityUsed, ErrInvalidQuantity)
			}
		default:
			return ErrUnknownField
		}
	}

	return c.err()
}

func (v *FormValidator) validateMission(in models.MissionInput, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldTitle, FieldStatus}
	}

	var c collector
	for _, f := range fields {
		switch f {
		case FieldTitle:
			if blank(in.Title) {
				c.add(FieldTitle, ErrEmptyTitle)
			}
		case FieldStatus:
			if in.Status != "" && !slices.Contains(missionStatuses, in.Status) {
				c.add(FieldStatus, ErrInvalidStatus)
			}
		default:
			return ErrUnknownField
		}
	}

	return c.err()
}

func (v *FormValidator) validateAlchemist(in models.AlchemistInput, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldName}
	}

	var c collector
	for _, f := range fields {
		switch f {
		case FieldName:
			if blank(in.Name) {
				c.add(FieldName, ErrEmptyName)
			}
		default:
			return ErrUnknownField
		}
	}

	return c.err()
}

func (v *FormValidator) validateMaterial(in models.MaterialInput, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldName, FieldUnit, FieldQuantity}
	}

	var c collector
	for _, f := range fields {
		switch f {
		case FieldName:
			if blank(in.Name) {
				c.add(FieldName, ErrEmptyName)
			}
		case FieldUnit:
			if blank(in.Unit) {
				c.add(FieldUnit, ErrEmptyUnit)
			}
		case FieldQuantity:
			if in.Quantity < 0 {
				c.add(FieldQuantity, ErrNegativeQuantity)
			}
		default:
			return ErrUnknownField
		}
	}

	return c.err()
}
