package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "bearer "

// BearerToken returns the token of an "Authorization: Bearer <token>" header, or "" when the
// header is missing or uses another scheme. Validation is left to the usecase.
func BearerToken(c echo.Context) string {
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(header[len(bearerPrefix):])
}
