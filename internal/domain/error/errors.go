package error

import (
	"github.com/0xsj/overwatch-pkg/errors"
)

// Domain error codes
const (
	// Nick errors
	CodeNickRequired          errors.Code = "NICK_REQUIRED"
	CodeNickAlreadyRegistered errors.Code = "NICK_ALREADY_REGISTERED"
	CodeNickNotFound          errors.Code = "NICK_NOT_FOUND"
	CodeNickNotPending        errors.Code = "NICK_NOT_PENDING"
	CodeNickMismatch          errors.Code = "NICK_MISMATCH"
	CodeOwnerRequired         errors.Code = "OWNER_REQUIRED"

	// Credential errors
	CodeCredentialRequired errors.Code = "CREDENTIAL_REQUIRED"
	CodeCredentialMismatch errors.Code = "CREDENTIAL_MISMATCH"
	CodeEmailInvalid       errors.Code = "EMAIL_INVALID"

	// Token errors
	CodeTokenIncorrect errors.Code = "TOKEN_INCORRECT"
)

// Nick errors
var (
	ErrNickRequired = errors.New(errors.KindValidation, CodeNickRequired, "nick is required")

	ErrNickAlreadyRegistered = errors.New(errors.KindConflict, CodeNickAlreadyRegistered, "nick is already registered")

	ErrNickNotFound = errors.New(errors.KindNotFound, CodeNickNotFound, "nick is not registered")

	ErrNickNotPending = errors.New(errors.KindDomain, CodeNickNotPending, "nick is not awaiting authentication")

	ErrNickMismatch = errors.New(errors.KindValidation, CodeNickMismatch, "replacement record must keep the same nick")

	ErrOwnerRequired = errors.New(errors.KindValidation, CodeOwnerRequired, "owner is required")
)

// Credential errors
var (
	ErrCredentialRequired = errors.New(errors.KindValidation, CodeCredentialRequired, "password is required")

	ErrCredentialMismatch = errors.New(errors.KindUnauthorized, CodeCredentialMismatch, "password does not match")

	ErrEmailInvalid = errors.New(errors.KindValidation, CodeEmailInvalid, "email address is invalid")
)

// Token errors
var (
	ErrTokenIncorrect = errors.New(errors.KindUnauthorized, CodeTokenIncorrect, "authentication token is incorrect")
)
