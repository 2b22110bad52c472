package main

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrasnagy-data/delivery/internal/components/auth"
	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/config"
	"github.com/andrasnagy-data/delivery/internal/shared/database"
)

// accountCreator is the part of auth.AccountRepo the create command needs.
type accountCreator interface {
	Create(ctx context.Context, email, passwordHash string) (*auth.Account, error)
}

// NewRootCmd creates the root command for the accounts CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "accounts",
		Short:        "Manage delivery login accounts",
		SilenceUsage: true,
	}

	cmd.AddCommand(NewHashCmd())
	cmd.AddCommand(NewCreateCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewHashCmd creates the hash subcommand.
func NewHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := hashPassword(args[0])
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
}

// NewCreateCmd creates the create subcommand.
func NewCreateCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account that can sign in on the login screen",
		Long: `Create an account in the database configured by DATABASE_URL.
The password is stored as a bcrypt hash.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
			}
			defer pool.Close()

			return runCreate(cmd, auth.NewAccountRepo(pool), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			logger := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
			if err := database.Migrate(cfg, logger); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func runCreate(cmd *cobra.Command, accounts accountCreator, email, password string) error {
	email = strings.TrimSpace(email)
	if !login.IsValidEmail(email) {
		return oops.Code("INVALID_EMAIL").With("email", email).Errorf("%q is not a valid e-mail address", email)
	}
	if password == "" {
		return oops.Code("INVALID_PASSWORD").Errorf("password must not be empty")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	account, err := accounts.Create(cmd.Context(), email, hash)
	if err != nil {
		return err
	}

	cmd.Printf("Created account %s (%s)\n", account.Email, account.ID)
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", oops.Code("HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}
