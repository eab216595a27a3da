package command

import (
	"net/mail"
	"strings"

	"github.com/tair/insumos/internal/insumos/domain"
)

// ItemInput is the payload shared by both item creation paths.
type ItemInput struct {
	Description  string
	ExpiryDate   string
	Location     string
	Note         string
	SerialNumber string
}

// validItem is an ItemInput that passed validation.
type validItem struct {
	description string
	expiry      domain.Date
	location    string
	note        string
	serial      *string
}

// validateItem checks fields in a fixed order and stops at the first
// violation: description, location, expiry, serial.
func validateItem(in ItemInput, today domain.Date) (validItem, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return validItem{}, domain.Validation("description is required")
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return validItem{}, domain.Validation("location is required")
	}
	expiry, err := validateExpiry(in.ExpiryDate, today)
	if err != nil {
		return validItem{}, err
	}
	serial := strings.TrimSpace(in.SerialNumber)
	if serial == "" {
		return validItem{}, domain.Validation("serial_number is required")
	}

	return validItem{
		description: description,
		expiry:      expiry,
		location:    location,
		note:        strings.TrimSpace(in.Note),
		serial:      &serial,
	}, nil
}

// validateExpiry accepts a strict YYYY-MM-DD date that is today or later.
// Rows that age into the past later stay valid; this is a write-time rule.
func validateExpiry(raw string, today domain.Date) (domain.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Date{}, domain.Validation("expiry_date is required")
	}
	expiry, err := domain.ParseStrictDate(raw)
	if err != nil {
		return domain.Date{}, domain.Validation("expiry_date must be a valid date in YYYY-MM-DD format")
	}
	if expiry.Before(today) {
		return domain.Date{}, domain.Validation("expiry_date must be today or later")
	}
	return expiry, nil
}

// normalizeTaxID strips CNPJ punctuation and requires 14 digits.
func normalizeTaxID(field, raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return "", domain.Validation("%s must contain only digits", field)
		}
	}
	if b.Len() != 14 {
		return "", domain.Validation("%s must have 14 digits", field)
	}
	return b.String(), nil
}

func validateEmail(field, raw string, required bool) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		if required {
			return "", domain.Validation("%s is required", field)
		}
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Validation("%s must be a valid email address", field)
	}
	return strings.ToLower(email), nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return domain.Validation("password must be at least 6 characters")
	}
	return nil
}

func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", domain.Validation("%s is required", field)
	}
	return v, nil
}
