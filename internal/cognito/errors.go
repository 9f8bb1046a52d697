package cognito

import (
	"errors"
	"net/http"

	"github.com/aws/smithy-go"
)

// Sentinel errors for identity operations.
var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserNotConfirmed  = errors.New("user not confirmed")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidCode       = errors.New("invalid code")
	ErrCodeExpired       = errors.New("code expired")
	ErrTooManyRequests   = errors.New("too many requests")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrLimitExceeded     = errors.New("limit exceeded")
	ErrInvalidParameter  = errors.New("invalid parameter")
)

// sentinels maps service exception names to sentinel errors.
var sentinels = map[string]error{
	"UsernameExistsException":   ErrUserAlreadyExists,
	"UserNotFoundException":     ErrUserNotFound,
	"UserNotConfirmedException": ErrUserNotConfirmed,
	"InvalidPasswordException":  ErrInvalidPassword,
	"CodeMismatchException":     ErrInvalidCode,
	"ExpiredCodeException":      ErrCodeExpired,
	"TooManyRequestsException":  ErrTooManyRequests,
	"NotAuthorizedException":    ErrNotAuthorized,
	"LimitExceededException":    ErrLimitExceeded,
	"InvalidParameterException": ErrInvalidParameter,
}

// ErrorInfo is how an identity failure is reported to an API caller.
type ErrorInfo struct {
	Status int
	Code   string
}

// errorMap lists the failures the caller can act on. Anything else the
// identity service returns is a server-side problem.
var errorMap = map[error]ErrorInfo{
	ErrInvalidPassword:  {Status: http.StatusBadRequest, Code: "INVALID_PASSWORD"},
	ErrInvalidParameter: {Status: http.StatusBadRequest, Code: "INVALID_PARAMETER"},
	ErrTooManyRequests:  {Status: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS"},
	ErrLimitExceeded:    {Status: http.StatusTooManyRequests, Code: "LIMIT_EXCEEDED"},
}

// LookupError returns the ErrorInfo for err, or false when err should be
// reported as an internal error.
func LookupError(err error) (ErrorInfo, bool) {
	for sentinel, info := range errorMap {
		if errors.Is(err, sentinel) {
			return info, true
		}
	}
	return ErrorInfo{}, false
}

// Message returns the human-readable text the identity service attached to
// err, or err.Error() when the error did not come from the service.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}
	return err.Error()
}
