package identity

import (
	"context"

	"bizdir/config"
	"bizdir/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// Params defines the dependencies of the identity provider.
type Params struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	DB     *gorm.DB
	Hasher service.PasswordHasher
}

// NewIdentityProvider selects the provider named by identity.provider.
func NewIdentityProvider(params Params) (service.IdentityProvider, error) {
	provider := config.IdentityProviderPostgres
	if params.Config.Identity != nil && params.Config.Identity.Provider != "" {
		provider = params.Config.Identity.Provider
	}

	switch provider {
	case config.IdentityProviderPostgres:
		return NewPostgresProvider(params.DB, params.Hasher), nil
	case config.IdentityProviderFirebase:
		return newFirebaseAuthProvider(params.Ctx, params.Config.Firebase)
	default:
		return nil, errors.Errorf("unknown identity provider: %s", provider)
	}
}

func newFirebaseAuthProvider(ctx context.Context, cfg *config.FirebaseConfig) (service.IdentityProvider, error) {
	if cfg == nil {
		return nil, errors.New("firebase configuration is required for the firebase identity provider")
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get Firebase auth client")
	}

	return NewFirebaseProvider(client), nil
}
