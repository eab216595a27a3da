package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers; delivery layers map it to a status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// Reason codes carried by conflict and forbidden errors.
const (
	ReasonAlreadyFinalized      = "already_finalized"
	ReasonInspectionFinalized   = "inspection_finalized"
	ReasonDuplicateSerial       = "duplicate_serial"
	ReasonReferencedByInventory = "referenced_by_inventory"
	ReasonDescriptionConflict   = "description_conflict"
	ReasonBaseCatalogEntry      = "base_catalog_entry"
	ReasonDuplicateEmail        = "duplicate_email"
	ReasonDuplicateTaxID        = "duplicate_tax_id"
	ReasonMissingToken          = "missing_token"
	ReasonInvalidToken          = "invalid_token"
	ReasonInvalidCredentials    = "invalid_credentials"
)

// Error is the tagged error returned by every use case.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two domain errors by kind and reason, so callers can write
// errors.Is(err, domain.ErrAlreadyFinalized).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason && t.Reason != ""
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Conflict(reason, message string) error {
	return &Error{Kind: KindConflict, Reason: reason, Message: message}
}

func Forbidden(reason, message string) error {
	return &Error{Kind: KindForbidden, Reason: reason, Message: message}
}

func Unauthorized(reason, message string) error {
	return &Error{Kind: KindUnauthorized, Reason: reason, Message: message}
}

func Transient(message string, err error) error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

var (
	ErrAlreadyFinalized    = &Error{Kind: KindForbidden, Reason: ReasonAlreadyFinalized, Message: "inspection already finalized"}
	ErrInspectionFinalized = &Error{Kind: KindForbidden, Reason: ReasonInspectionFinalized, Message: "inspection is finalized"}
	ErrDuplicateSerial     = &Error{Kind: KindConflict, Reason: ReasonDuplicateSerial, Message: "serial number already registered for this item type"}
	ErrReferenced          = &Error{Kind: KindConflict, Reason: ReasonReferencedByInventory, Message: "item type is referenced by inventory records"}
	ErrBaseCatalogEntry    = &Error{Kind: KindForbidden, Reason: ReasonBaseCatalogEntry, Message: "base catalog entries cannot be changed"}
	ErrDescriptionConflict = &Error{Kind: KindConflict, Reason: ReasonDescriptionConflict, Message: "an item type with this description already exists"}
	ErrInvalidToken        = &Error{Kind: KindUnauthorized, Reason: ReasonInvalidToken, Message: "invalid token"}
	ErrInvalidCredentials  = &Error{Kind: KindUnauthorized, Reason: ReasonInvalidCredentials, Message: "invalid credentials"}
)

// KindOf reports the kind of err; anything that is not a domain error is
// internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// PublicMessage is the text safe to show a caller. Internal errors never
// leak their cause.
func PublicMessage(err error) string {
	var de *Error
	if !errors.As(err, &de) || de.Kind == KindInternal {
		return "internal server error"
	}
	if de.Kind == KindTransient {
		return "system busy, please retry"
	}
	if de.Message != "" {
		return de.Message
	}
	return de.Kind.String()
}

// ReasonOf returns the reason code of a domain error, if any.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
