package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Supported subcommands:
// - migrate:     Create or update the schema, including the unique indexes approvals rely on
// - grant-admin: Add an identity (by email) to the administrators set
// - token:       Mint an access token for an identity
// - add-business: Register a pending business, for local setups without the registration service
// - history:     Print the approval audit log of a business

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	grantCmd := flag.NewFlagSet("grant-admin", flag.ExitOnError)
	grantEmail := grantCmd.String("email", "", "Email of the identity to promote")
	grantName := grantCmd.String("name", "", "Profile name used when the admin profile does not exist yet")
	grantCreate := grantCmd.Bool("create", false, "Create the identity when it does not exist")
	grantPassword := grantCmd.String("password", "", "Password of the created identity (generated when empty)")

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenIdentity := tokenCmd.String("identity", "", "Identity ID (UUID) the token is issued to")
	tokenTTL := tokenCmd.Duration("ttl", time.Hour, "Token lifetime")

	businessCmd := flag.NewFlagSet("add-business", flag.ExitOnError)
	businessName := businessCmd.String("name", "", "Business name")
	businessEmail := businessCmd.String("email", "", "Responsible email (may be empty)")
	businessContact := businessCmd.String("contact", "", "Responsible person name")
	businessPlan := businessCmd.String("plan", "basic", "Plan type (basic, premium)")

	historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
	historyBusiness := historyCmd.String("business", "", "Business ID (UUID)")
	historyTrace := historyCmd.Bool("trace", false, "Print the recorded step trace of each approval")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := adminFlags{
		Migrate: migrateFlags{cmd: migrateCmd},
		Grant: grantFlags{
			cmd:      grantCmd,
			email:    grantEmail,
			name:     grantName,
			create:   grantCreate,
			password: grantPassword,
		},
		Token: tokenFlags{
			cmd:      tokenCmd,
			identity: tokenIdentity,
			ttl:      tokenTTL,
		},
		Business: businessFlags{
			cmd:     businessCmd,
			name:    businessName,
			email:   businessEmail,
			contact: businessContact,
			plan:    businessPlan,
		},
		History: historyFlags{
			cmd:      historyCmd,
			business: historyBusiness,
			trace:    historyTrace,
		},
	}

	if err := runSubcommand(ctx, &flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type adminFlags struct {
	Migrate  migrateFlags
	Grant    grantFlags
	Token    tokenFlags
	Business businessFlags
	History  historyFlags
}

type migrateFlags struct {
	cmd *flag.FlagSet
}

type grantFlags struct {
	cmd      *flag.FlagSet
	email    *string
	name     *string
	create   *bool
	password *string
}

type businessFlags struct {
	cmd     *flag.FlagSet
	name    *string
	email   *string
	contact *string
	plan    *string
}

type historyFlags struct {
	cmd      *flag.FlagSet
	business *string
	trace    *bool
}

type tokenFlags struct {
	cmd      *flag.FlagSet
	identity *string
	ttl      *time.Duration
}

func runSubcommand(ctx context.Context, flags *adminFlags) error {
	switch os.Args[1] {
	case "migrate":
		if err := flags.Migrate.cmd.Parse(os.Args[2:]); err != nil {
			return errors.Wrap(err, "failed to parse migrate flags")
		}

		return runMigrate(ctx)
	case "grant-admin":
		if err := flags.Grant.cmd.Parse(os.Args[2:]); err != nil {
			return errors.Wrap(err, "failed to parse grant-admin flags")
		}

		return runGrantAdmin(ctx, grantOptions{
			email:    *flags.Grant.email,
			name:     *flags.Grant.name,
			create:   *flags.Grant.create,
			password: *flags.Grant.password,
		})
	case "token":
		if err := flags.Token.cmd.Parse(os.Args[2:]); err != nil {
			return errors.Wrap(err, "failed to parse token flags")
		}

		return runToken(*flags.Token.identity, *flags.Token.ttl)
	case "add-business":
		if err := flags.Business.cmd.Parse(os.Args[2:]); err != nil {
			return errors.Wrap(err, "failed to parse add-business flags")
		}

		return runAddBusiness(ctx, businessOptions{
			name:    *flags.Business.name,
			email:   *flags.Business.email,
			contact: *flags.Business.contact,
			plan:    *flags.Business.plan,
		})
	case "history":
		if err := flags.History.cmd.Parse(os.Args[2:]); err != nil {
			return errors.Wrap(err, "failed to parse history flags")
		}

		return runHistory(ctx, *flags.History.business, *flags.History.trace)
	default:
		printUsage()

		return errors.New("unknown subcommand")
	}
}

func printUsage() {
	fmt.Println("Usage: adminctl <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate                         Create or update the database schema")
	fmt.Println("  grant-admin -email <email>      Add an identity to the administrators set")
	fmt.Println("              [-create] [-password <pw>] [-name <name>]")
	fmt.Println("  token -identity <uuid> [-ttl 1h]  Print an access token for the identity")
	fmt.Println("  add-business -name <name> [-email <email>] [-contact <name>] [-plan basic|premium]")
	fmt.Println("  history -business <uuid> [-trace]  Print the approvals recorded for a business")
	fmt.Println()
	fmt.Println("Configuration is read from config.yaml in the working directory and environment overrides.")
}
