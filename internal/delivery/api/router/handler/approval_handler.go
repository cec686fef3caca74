// Package handler contains the HTTP handlers of the API.
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bizdir/internal/delivery/api/middleware"
	"bizdir/internal/delivery/api/response"
	"bizdir/internal/delivery/api/validator"
	deliverycontext "bizdir/internal/delivery/context"
	"bizdir/internal/domain/entity"
	"bizdir/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ApprovalHandlerParams holds dependencies for ApprovalHandler, injected by Fx.
type ApprovalHandlerParams struct {
	fx.In

	ApprovalUC usecase.ApprovalUsecase
	Auth       usecase.AdminAuthenticator
	Logger     *slog.Logger
}

// ApprovalHandler exposes the partner-approval flow to administrators.
type ApprovalHandler struct {
	approvalUC usecase.ApprovalUsecase
	auth       usecase.AdminAuthenticator
	logger     *slog.Logger
}

// NewApprovalHandler is the constructor for ApprovalHandler
func NewApprovalHandler(params ApprovalHandlerParams) *ApprovalHandler {
	return &ApprovalHandler{
		approvalUC: params.ApprovalUC,
		auth:       params.Auth,
		logger:     params.Logger,
	}
}

// ApproveBusinessRequest is the optional body of the approve endpoint.
type ApproveBusinessRequest struct {
	PlanType string `json:"planType" validate:"omitempty,oneof=basic premium"`
}

// ApproveBusiness handles POST /admin/businesses/:businessId/approve.
func (h *ApprovalHandler) ApproveBusiness(c echo.Context) error {
	var req ApproveBusinessRequest
	if err := decodeBody(c, &req); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return err
		}

		return h.rejectBody(c, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return h.rejectBody(c, validator.Describe(err))
	}

	// An unparseable id cannot name a business; it is reported as not found after authentication.
	businessID, err := uuid.Parse(c.Param("businessId"))
	if err != nil {
		businessID = uuid.Nil
	}

	output, err := h.approvalUC.ApproveBusiness(c.Request().Context(), usecase.ApproveBusinessInput{
		Token:      middleware.BearerToken(c),
		BusinessID: businessID,
		PlanType:   entity.PlanType(req.PlanType),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, response.ApprovalResponse{
		Success: true,
		Credentials: response.CredentialsBody{
			Email:    output.Credentials.Email,
			Password: output.Credentials.Password,
			LoginURL: output.Credentials.LoginURL,
		},
		IdentityCreated:  output.Credentials.IdentityCreated,
		NotificationSent: output.NotificationSent,
		RequestID:        deliverycontext.GetRequestID(c),
	})
}

// rejectBody answers a bad body with 400, unless the caller is not an administrator at all.
func (h *ApprovalHandler) rejectBody(c echo.Context, details string) error {
	if _, err := h.auth.Authenticate(c.Request().Context(), middleware.BearerToken(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.BindingError(c, details)
}

// decodeBody reads the optional JSON body. A missing Content-Type is read as JSON.
func decodeBody(c echo.Context, req *ApproveBusinessRequest) error {
	httpReq := c.Request()
	if httpReq.Body == nil || httpReq.ContentLength == 0 {
		return nil
	}

	if ctype := httpReq.Header.Get(echo.HeaderContentType); ctype != "" && !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return errors.Errorf("unsupported content type %q", ctype)
	}

	if err := c.Echo().JSONSerializer.Deserialize(c, req); err != nil {
		var httpErr *echo.HTTPError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge:
			return err
		}

		return errors.New("malformed JSON body")
	}

	return nil
}
