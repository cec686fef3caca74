// Package response renders the JSON bodies of the HTTP API.
package response

import (
	"net/http"

	deliverycontext "bizdir/internal/delivery/context"
	domainerrors "bizdir/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`             // Human-readable message
	Code      string `json:"code"`              // Machine-readable error code, e.g. "MISSING_CONTACT"
	Details   string `json:"details,omitempty"` // Additional context, 4xx only
	RequestID string `json:"requestId,omitempty"`
}

// CredentialsBody is the login handed to the administrator on approval.
type CredentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	LoginURL string `json:"loginUrl"`
}

// ApprovalResponse is the 200 body of the approve endpoint.
type ApprovalResponse struct {
	Success          bool            `json:"success"`
	Credentials      CredentialsBody `json:"credentials"`
	IdentityCreated  bool            `json:"identityCreated"`
	NotificationSent bool            `json:"notificationSent"`
	RequestID        string          `json:"requestId,omitempty"`
}

// JSON writes body with the status code.
func JSON(c echo.Context, statusCode int, body any) error {
	return c.JSON(statusCode, body)
}

// Error returns an error response
func Error(c echo.Context, statusCode int, errorCode string, message string, details string) error {
	// Details should not be included for 5xx errors or authentication/authorization errors
	if statusCode >= 500 || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		details = ""
	}

	return c.JSON(statusCode, ErrorResponse{
		Error:     message,
		Code:      errorCode,
		Details:   details,
		RequestID: deliverycontext.GetRequestID(c),
	})
}

// BindingError returns a 400 for a body that could not be decoded or validated.
func BindingError(c echo.Context, details string) error {
	return AppError(c, domainerrors.ErrInvalidBody.WithDetails(details))
}

// AppError renders a domain error with its own status code.
func AppError(c echo.Context, appErr domainerrors.AppError) error {
	return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details())
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusInternalServerError, errorCode, message, "")
}
