package entity

import "github.com/shandysiswandi/hirelens/internal/pkg/goerror"

// Reasons are returned to clients in the "reason" field of error responses.
const (
	ReasonInvalidIdentifier = "INVALID_IDENTIFIER"
	ReasonStorageError      = "STORAGE_ERROR"
	ReasonInvalidCode       = "INVALID_CODE"
	ReasonCodeAlreadyUsed   = "CODE_ALREADY_USED"
	ReasonCodeExpired       = "CODE_EXPIRED"
)

var (
	// ErrInvalidIdentifier matches any malformed email or phone error via errors.Is.
	ErrInvalidIdentifier = goerror.NewValidation(nil, "Invalid identifier", goerror.CodeInvalidFormat, ReasonInvalidIdentifier)

	// ErrInvalidCode is the same for an unknown identifier and a wrong code.
	ErrInvalidCode = goerror.NewBusiness("Invalid verification code", goerror.CodeInvalidFormat, ReasonInvalidCode)

	ErrCodeAlreadyUsed = goerror.NewBusiness("Verification code has already been used", goerror.CodeInvalidFormat, ReasonCodeAlreadyUsed)

	ErrCodeExpired = goerror.NewBusiness("Verification code has expired", goerror.CodeInvalidFormat, ReasonCodeExpired)
)

// NewStorageError wraps a persistence failure.
func NewStorageError(err error) error {
	return goerror.NewServer(err, ReasonStorageError)
}
