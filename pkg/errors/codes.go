package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Short aliases used by the factory helpers.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
)

// PDB parser error codes
const (
	ErrCodePDBMalformedRecord ErrorCode = "PDB_001"
	ErrCodePDBUnknownObject   ErrorCode = "PDB_002"
	ErrCodePDBUnreadable      ErrorCode = "PDB_003"
)

// Element data error codes
const (
	ErrCodeElementTableInvalid ErrorCode = "ELM_001"
	ErrCodeElementNotFound     ErrorCode = "ELM_002"
)

// Selection / graph query error codes
const (
	ErrCodeInvalidObject ErrorCode = "SEL_001"
	ErrCodeInvalidMode   ErrorCode = "SEL_002"
	ErrCodeNoMolecule    ErrorCode = "SEL_003"
)

// Session error codes
const (
	ErrCodeSessionNotFound ErrorCode = "SES_001"
)

// Source error codes
const (
	ErrCodeSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeSourceUnsupported ErrorCode = "SRC_002"
	ErrCodeSourceTooLarge    ErrorCode = "SRC_003"
)

// Render error codes
const (
	ErrCodeRenderFailed ErrorCode = "RND_001"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodePDBMalformedRecord: http.StatusUnprocessableEntity,
	ErrCodePDBUnknownObject:   http.StatusUnprocessableEntity,
	ErrCodePDBUnreadable:      http.StatusBadRequest,

	ErrCodeElementTableInvalid: http.StatusInternalServerError,
	ErrCodeElementNotFound:     http.StatusNotFound,

	ErrCodeInvalidObject: http.StatusBadRequest,
	ErrCodeInvalidMode:   http.StatusBadRequest,
	ErrCodeNoMolecule:    http.StatusConflict,

	ErrCodeSessionNotFound: http.StatusNotFound,

	ErrCodeSourceUnavailable: http.StatusBadGateway,
	ErrCodeSourceUnsupported: http.StatusBadRequest,
	ErrCodeSourceTooLarge:    http.StatusRequestEntityTooLarge,

	ErrCodeRenderFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodePDBMalformedRecord: "malformed PDB record",
	ErrCodePDBUnknownObject:   "PDB record references an unknown object",
	ErrCodePDBUnreadable:      "PDB input could not be read",

	ErrCodeElementTableInvalid: "invalid element table",
	ErrCodeElementNotFound:     "element not found",

	ErrCodeInvalidObject: "invalid atom or bond",
	ErrCodeInvalidMode:   "invalid mode",
	ErrCodeNoMolecule:    "no molecule loaded",

	ErrCodeSessionNotFound: "session not found",

	ErrCodeSourceUnavailable: "molecule source unavailable",
	ErrCodeSourceUnsupported: "unsupported molecule source",
	ErrCodeSourceTooLarge:    "molecule source exceeds size limit",

	ErrCodeRenderFailed: "failed to render molecule",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
