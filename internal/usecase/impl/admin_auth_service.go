// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "bizdir/internal/delivery/context"
	domainerrors "bizdir/internal/domain/errors"
	"bizdir/internal/domain/repository"
	"bizdir/internal/domain/service"
	"bizdir/internal/usecase"

	"github.com/google/uuid"
)

// adminAuthService implements the AdminAuthenticator interface.
type adminAuthService struct {
	tokenService service.TokenService
	adminRepo    repository.AdminRepository
	logger       *slog.Logger
}

// NewAdminAuthService is the constructor for adminAuthService.
func NewAdminAuthService(tokenService service.TokenService, adminRepo repository.AdminRepository, logger *slog.Logger) usecase.AdminAuthenticator {
	return &adminAuthService{
		tokenService: tokenService,
		adminRepo:    adminRepo,
		logger:       logger,
	}
}

// Authenticate validates the token and checks the caller against the administrators set.
// Role claims inside the token are not trusted for this decision; membership is read from storage.
func (srv *adminAuthService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, domainerrors.ErrUnauthenticated.WithDetails("missing bearer token")
	}

	claims, err := srv.tokenService.ValidateToken(token)
	if err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Debug("Rejected bearer token", slog.Any("error", err))

		return uuid.Nil, domainerrors.ErrUnauthenticated.WithDetails("invalid bearer token")
	}

	isAdmin, err := srv.adminRepo.IsAdmin(ctx, claims.IdentityID)
	if err != nil {
		return uuid.Nil, domainerrors.ErrInternalError.Wrap(err, "admin membership lookup failed")
	}
	if !isAdmin {
		return uuid.Nil, domainerrors.ErrForbidden
	}

	return claims.IdentityID, nil
}
