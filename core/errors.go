package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorInvalidConfiguration = "LEADTABLE_INVALID_CONFIGURATION"
	ErrorAuthenticationFailed = "LEADTABLE_AUTHENTICATION_FAILED"
	ErrorUnknownScopeID       = "LEADTABLE_UNKNOWN_SCOPE_ID"
	ErrorRemoteRequestFailed  = "LEADTABLE_REMOTE_REQUEST_FAILED"
	ErrorBadInput             = "LEADTABLE_BAD_INPUT"
	ErrorNotFound             = "LEADTABLE_NOT_FOUND"
	ErrorConflict             = "LEADTABLE_CONFLICT"
	ErrorRateLimited          = "LEADTABLE_RATE_LIMITED"
	ErrorInternal             = "LEADTABLE_INTERNAL_ERROR"
)

const (
	MetadataStatusCode    = "status_code"
	MetadataRemoteMessage = "remote_message"
)

func InvalidConfigurationError(message string, metadata map[string]any) *goerrors.Error {
	return NewError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorInvalidConfiguration, metadata)
}

func AuthenticationFailedError(message string, metadata map[string]any) *goerrors.Error {
	return NewError(message, goerrors.CategoryAuth, http.StatusForbidden, ErrorAuthenticationFailed, metadata)
}

func UnknownScopeIDError(message string, metadata map[string]any) *goerrors.Error {
	return NewError(message, goerrors.CategoryNotFound, http.StatusNotFound, ErrorUnknownScopeID, metadata)
}

// RemoteRequestFailedError keeps the remote status as the error code when one
// was received; transport failures report 502.
func RemoteRequestFailedError(message string, status int, metadata map[string]any) *goerrors.Error {
	code := status
	if code < http.StatusBadRequest {
		code = http.StatusBadGateway
	}
	return NewError(message, goerrors.CategoryExternal, code, ErrorRemoteRequestFailed, metadata)
}

func InternalError(message string, metadata map[string]any) *goerrors.Error {
	return NewError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ErrorInternal, metadata)
}

func BadInputError(message string, metadata map[string]any) *goerrors.Error {
	return NewError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorBadInput, metadata)
}

// ValidationError reports one invalid field of a command or query message.
// scope prefixes the message ("command", "query").
func ValidationError(scope, field, message string) *goerrors.Error {
	return goerrors.NewValidation(scope+": validation failed", goerrors.FieldError{Field: field, Message: message}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorInvalidConfiguration).
		WithSeverity(goerrors.SeverityError)
}

// AsValidationError passes invalid-configuration errors through and turns
// anything else into a ValidationError on field.
func AsValidationError(scope, field string, err error) error {
	if err == nil || IsInvalidConfiguration(err) {
		return err
	}
	return ValidationError(scope, field, ErrorMessage(err))
}

func NewError(message string, category goerrors.Category, code int, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// WrapError wraps source with the given taxonomy. A source that already
// carries a text code keeps it and only gains metadata.
func WrapError(source error, category goerrors.Category, message string, code int, textCode string, metadata map[string]any) *goerrors.Error {
	if source == nil {
		return NewError(message, category, code, textCode, metadata)
	}
	var rich *goerrors.Error
	if goerrors.As(source, &rich) && rich.TextCode != "" {
		if len(metadata) > 0 {
			rich.WithMetadata(metadata)
		}
		return rich
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func IsInvalidConfiguration(err error) bool { return hasTextCode(err, ErrorInvalidConfiguration) }

func IsAuthenticationFailed(err error) bool { return hasTextCode(err, ErrorAuthenticationFailed) }

func IsUnknownScopeID(err error) bool { return hasTextCode(err, ErrorUnknownScopeID) }

func IsRemoteRequestFailed(err error) bool { return hasTextCode(err, ErrorRemoteRequestFailed) }

func hasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// ErrorMessage returns the human readable message of err, preferring the
// go-errors message over the formatted envelope.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && strings.TrimSpace(richErr.Message) != "" {
		return richErr.Message
	}
	return err.Error()
}

func RemoteStatus(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Metadata == nil {
		return 0
	}
	if status, ok := richErr.Metadata[MetadataStatusCode].(int); ok {
		return status
	}
	return 0
}

func RemoteMessage(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Metadata == nil {
		return ""
	}
	if message, ok := richErr.Metadata[MetadataRemoteMessage].(string); ok {
		return message
	}
	return ""
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "unsupported"):
		return ensureServiceErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryBadInput).WithTextCode(ErrorInvalidConfiguration))
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return ensureServiceErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryRateLimit).WithTextCode(ErrorRateLimited))
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorAuthenticationFailed
	case goerrors.CategoryConflict:
		return ErrorConflict
	case goerrors.CategoryRateLimit:
		return ErrorRateLimited
	case goerrors.CategoryExternal:
		return ErrorRemoteRequestFailed
	default:
		return ErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
