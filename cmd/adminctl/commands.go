package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"bizdir/config"
	"bizdir/internal/domain/entity"
	"bizdir/internal/domain/repository"
	"bizdir/internal/domain/service"
	"bizdir/internal/infra/auth"
	"bizdir/internal/infra/identity"
	"bizdir/internal/infra/persistence/postgres"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type businessOptions struct {
	name    string
	email   string
	contact string
	plan    string
}

type grantOptions struct {
	email    string
	name     string
	create   bool
	password string
}

func openDB() (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to load config")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := postgres.Open(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, logger, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runMigrate(ctx context.Context) error {
	_, _, db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	fmt.Println("Schema is up to date")

	return nil
}

func runGrantAdmin(ctx context.Context, opts grantOptions) error {
	email := strings.ToLower(strings.TrimSpace(opts.email))
	if email == "" {
		return errors.New("-email is required")
	}

	cfg, _, db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	identities, err := identity.NewIdentityProvider(identity.Params{
		Ctx:    ctx,
		Config: cfg,
		DB:     db,
		Hasher: auth.NewBcryptHasher(cfg),
	})
	if err != nil {
		return err
	}

	admin, err := resolveAdminIdentity(ctx, identities, auth.NewPasswordGenerator(), email, opts, os.Stdout)
	if err != nil {
		return err
	}

	name := opts.name
	if name == "" {
		name = email
	}
	profiles := postgres.NewProfileRepository(db)
	if _, err := profiles.FindByID(ctx, admin.ID); errors.Is(err, repository.ErrProfileNotFound) {
		err = profiles.Create(ctx, &entity.Profile{ID: admin.ID, Name: name, Role: entity.RoleAdmin})
		if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			return errors.Wrap(err, "failed to create admin profile")
		}
	} else if err != nil {
		return errors.Wrap(err, "failed to look up profile")
	}

	if err := postgres.NewAdminRepository(db).Grant(ctx, admin.ID); err != nil {
		return err
	}

	fmt.Printf("Granted admin to %s (%s)\n", email, admin.ID)

	return nil
}

func resolveAdminIdentity(
	ctx context.Context,
	identities service.IdentityProvider,
	passwords service.PasswordGenerator,
	email string,
	opts grantOptions,
	out io.Writer,
) (*entity.Identity, error) {
	found, err := identities.FindByEmail(ctx, email)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, service.ErrIdentityNotFound) {
		return nil, errors.Wrap(err, "failed to look up identity")
	}
	if !opts.create {
		return nil, errors.Errorf("no identity for %s, pass -create to create one", email)
	}

	password := opts.password
	if password == "" {
		if password, err = passwords.Generate(); err != nil {
			return nil, errors.Wrap(err, "failed to generate password")
		}
		fmt.Fprintf(out, "Generated password: %s\n", password)
	}

	created, err := identities.Create(ctx, entity.NewIdentity{
		Email:          email,
		Password:       password,
		EmailConfirmed: true,
		Metadata:       map[string]any{"role": entity.RoleAdmin.String()},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create identity")
	}

	return created, nil
}

func runToken(identityID string, ttl time.Duration) error {
	id, err := uuid.Parse(identityID)
	if err != nil {
		return errors.Wrap(err, "-identity must be a UUID")
	}

	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	tokens, err := auth.NewJWTService(cfg)
	if err != nil {
		return err
	}

	token, err := tokens.GenerateAccessToken(id, []string{entity.RoleAdmin.String()}, ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)

	return nil
}

func newPendingBusiness(opts businessOptions) (*entity.Business, error) {
	name := strings.TrimSpace(opts.name)
	if name == "" {
		return nil, errors.New("-name is required")
	}

	plan := entity.PlanType(opts.plan)
	if !plan.IsValid() {
		return nil, errors.Errorf("unknown plan type %q", opts.plan)
	}

	business := &entity.Business{
		Name:            name,
		ResponsibleName: strings.TrimSpace(opts.contact),
		Status:          entity.BusinessStatusPending,
		PlanType:        plan,
	}
	if email := strings.TrimSpace(opts.email); email != "" {
		business.ResponsibleEmail = &email
	}

	return business, nil
}

func runAddBusiness(ctx context.Context, opts businessOptions) error {
	business, err := newPendingBusiness(opts)
	if err != nil {
		return err
	}

	_, _, db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := postgres.NewBusinessRepository(db).Create(ctx, business); err != nil {
		return err
	}

	fmt.Println(business.ID)

	return nil
}

func runHistory(ctx context.Context, businessID string, withTrace bool) error {
	id, err := uuid.Parse(businessID)
	if err != nil {
		return errors.Wrap(err, "-business must be a UUID")
	}

	_, _, db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	logs, err := postgres.NewApprovalLogRepository(db).ListByBusiness(ctx, id)
	if err != nil {
		return err
	}

	writeHistory(os.Stdout, id, logs, withTrace)

	return nil
}

func writeHistory(out io.Writer, businessID uuid.UUID, logs []*entity.ApprovalLog, withTrace bool) {
	if len(logs) == 0 {
		fmt.Fprintf(out, "No approvals recorded for %s\n", businessID)

		return
	}

	for _, log := range logs {
		fmt.Fprintf(out, "%s  approved_by=%s identity=%s identity_created=%t plan=%s\n",
			log.CreatedAt.UTC().Format(time.RFC3339),
			log.ApprovedBy,
			log.IdentityID,
			log.IdentityCreated,
			log.PlanType,
		)
		if !withTrace {
			continue
		}
		for _, ev := range log.Trace {
			fmt.Fprintf(out, "    %-24s %-10s %s\n", ev.Step, ev.Status, ev.Detail)
		}
	}
}
