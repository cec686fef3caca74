// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"bizdir/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	ApprovalHandler *handler.ApprovalHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	approvalHandler *handler.ApprovalHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		approvalHandler: params.ApprovalHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Administrator routes authenticate inside the usecase, which also checks membership.
	adminGroup := e.Group("/admin")
	{
		adminGroup.POST("/businesses/:businessId/approve", r.approvalHandler.ApproveBusiness)
	}
}
