package identity

import (
	"context"
	"time"

	"bizdir/internal/domain/entity"
	"bizdir/internal/domain/service"

	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MetadataFirebaseUID holds the provider uid of logins whose uid is not a UUID.
const MetadataFirebaseUID = "firebaseUid"

// firebaseUIDNamespace derives stable identity ids for Firebase users created outside this service.
var firebaseUIDNamespace = uuid.MustParse("8f0a3c52-6d1e-4b8e-9a57-2f1c0b7d4e61")

// firebaseAuthClient is the subset of *auth.Client used by the provider.
type firebaseAuthClient interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]any) error
	DeleteUser(ctx context.Context, uid string) error
}

// firebaseProvider provisions logins in Firebase Authentication. Logins it creates use the
// identity UUID as their uid, so Delete can address them directly.
type firebaseProvider struct {
	client firebaseAuthClient
}

// NewFirebaseProvider is the constructor for firebaseProvider.
func NewFirebaseProvider(client *auth.Client) service.IdentityProvider {
	return newFirebaseProvider(client)
}

func newFirebaseProvider(client firebaseAuthClient) *firebaseProvider {
	return &firebaseProvider{client: client}
}

func (p *firebaseProvider) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	user, err := p.client.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, service.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to get firebase user by email")
	}

	return fromUserRecord(user), nil
}

func (p *firebaseProvider) Create(ctx context.Context, input entity.NewIdentity) (*entity.Identity, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate identity id")
	}

	params := (&auth.UserToCreate{}).
		UID(id.String()).
		Email(normalizeEmail(input.Email)).
		Password(input.Password).
		EmailVerified(input.EmailConfirmed)
	if name, ok := input.Metadata["name"].(string); ok && name != "" {
		params = params.DisplayName(name)
	}

	user, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) || auth.IsUIDAlreadyExists(err) {
			return nil, service.ErrIdentityAlreadyExists
		}

		return nil, errors.Wrap(err, "failed to create firebase user")
	}

	if len(input.Metadata) > 0 {
		if err := p.client.SetCustomUserClaims(ctx, user.UID, input.Metadata); err != nil {
			// A login without its claims must not survive; the caller sees a plain failure.
			if delErr := p.client.DeleteUser(context.WithoutCancel(ctx), user.UID); delErr != nil {
				return nil, errors.Wrapf(err, "failed to set custom claims (cleanup failed: %v)", delErr)
			}

			return nil, errors.Wrap(err, "failed to set custom claims")
		}
		user.CustomClaims = input.Metadata
	}

	return fromUserRecord(user), nil
}

func (p *firebaseProvider) Delete(ctx context.Context, id uuid.UUID) error {
	if err := p.client.DeleteUser(ctx, id.String()); err != nil && !auth.IsUserNotFound(err) {
		return errors.Wrap(err, "failed to delete firebase user")
	}

	return nil
}

func fromUserRecord(user *auth.UserRecord) *entity.Identity {
	identity := &entity.Identity{
		Metadata: map[string]any{},
	}
	for k, v := range user.CustomClaims {
		identity.Metadata[k] = v
	}

	if user.UserInfo != nil {
		identity.Email = user.Email
		if id, err := uuid.Parse(user.UID); err == nil {
			identity.ID = id
		} else {
			identity.ID = uuid.NewSHA1(firebaseUIDNamespace, []byte(user.UID))
			identity.Metadata[MetadataFirebaseUID] = user.UID
		}
	}

	if user.UserMetadata != nil && user.UserMetadata.CreationTimestamp > 0 {
		identity.CreatedAt = time.UnixMilli(user.UserMetadata.CreationTimestamp)
	}
	if user.EmailVerified {
		confirmedAt := identity.CreatedAt
		identity.EmailConfirmedAt = &confirmedAt
	}

	return identity
}
