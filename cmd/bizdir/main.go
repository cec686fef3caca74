package main

import (
	"context"
	"log/slog"
	"os"

	"bizdir/config"
	"bizdir/internal/delivery"
	"bizdir/internal/delivery/api"
	"bizdir/internal/delivery/api/router/handler"
	"bizdir/internal/domain/service"
	"bizdir/internal/infra/auth"
	"bizdir/internal/infra/identity"
	logs "bizdir/internal/infra/log"
	"bizdir/internal/infra/notification"
	"bizdir/internal/infra/persistence/postgres"
	"bizdir/internal/infra/pubsub"
	"bizdir/internal/infra/qrcode"
	"bizdir/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewBusinessRepository,
			postgres.NewProfileRepository,
			postgres.NewPartnerRepository,
			postgres.NewAdminRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewPasswordGenerator,
			identity.NewIdentityProvider,
			newQRCodeService,
			notification.NewWelcomeRenderer,
			notification.NewMailer,
			pubsub.NewEventPublisher,
		),
	)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		return qrcode.NewQRCodeService(0, "")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAdminAuthService,
			impl.NewApprovalService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewApprovalHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
