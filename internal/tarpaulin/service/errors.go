package service

import "errors"

// Login failure. Deliberately does not distinguish unknown email from a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid_credentials")

// Credential verification failures. All of these mean the caller has to
// re-authenticate.
var (
	ErrMissingCredential = errors.New("missing_credential")
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrExpiredCredential = errors.New("expired_credential")
	ErrUnknownSubject    = errors.New("unknown_subject")
)

// Authorization denials. These are permanent for the identity/resource
// pair, not retryable.
var (
	ErrWrongRole   = errors.New("wrong_role")
	ErrNotOwner    = errors.New("not_owner")
	ErrNotEnrolled = errors.New("not_enrolled")
)

// ErrValidation marks a request body that is well-formed but semantically
// wrong, e.g. an enrollment referencing a non-student user.
var ErrValidation = errors.New("invalid_request")
