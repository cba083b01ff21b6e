// AngelaMos | 2026
// commands.go

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/auth"
	"github.com/carterperez-dev/tenant-platform/internal/config"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/entitlement"
	"github.com/carterperez-dev/tenant-platform/internal/integration"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/migrations"
)

// cliActor is the audit actor for lifecycle changes made from this tool.
const cliActor = "tenantctl"

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate signing and sealing keys",
	}

	session := &cobra.Command{
		Use:   "session",
		Short: "Write a new ES256 session signing key pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, _ := cmd.Flags().GetString("private")
			pub, _ := cmd.Flags().GetString("public")

			for _, dir := range []string{filepath.Dir(priv), filepath.Dir(pub)} {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return fmt.Errorf("create key directory: %w", err)
				}
			}

			if err := auth.GenerateKeyPair(priv, pub); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", priv, pub)
			return nil
		},
	}
	session.Flags().String("private", "keys/private.pem", "private key output path")
	session.Flags().String("public", "keys/public.pem", "public key output path")

	integrationKey := &cobra.Command{
		Use:   "integration",
		Short: "Print a base64 key for sealing integration secrets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := integration.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	operator := &cobra.Command{
		Use:   "operator",
		Short: "Print a random operator API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := core.GenerateSecureToken(32)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	cmd.AddCommand(session, integrationKey, operator)
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(ctx context.Context, _ *config.Config, db *core.Database) error {
				applied, err := core.Migrate(ctx, db.DB, migrations.Files)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(applied) == 0 {
					fmt.Fprintln(out, "schema is up to date")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(out, "applied %s\n", v)
				}
				return nil
			})
		},
	}
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Inspect and change tenant lifecycle status",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			search, _ := cmd.Flags().GetString("search")
			page, _ := cmd.Flags().GetInt("page")

			return withTenants(cmd, func(ctx context.Context, svc *tenant.Service) error {
				params := tenant.ListParams{
					Page:     page,
					PageSize: 50,
					Status:   tenant.Status(status),
					Search:   search,
				}
				params.Normalize()

				tenants, total, err := svc.List(ctx, params)
				if err != nil {
					return err
				}

				printTenants(cmd.OutOrStdout(), tenants)
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(tenants), total)
				return nil
			})
		},
	}
	list.Flags().String("status", "", "filter by status")
	list.Flags().String("search", "", "match name, tax id or contact email")
	list.Flags().Int("page", 1, "page number")

	cmd.AddCommand(
		list,
		transitionCmd("suspend", "Suspend a tenant", (*tenant.Service).Suspend),
		transitionCmd("deactivate", "Deactivate a tenant", (*tenant.Service).Deactivate),
		transitionCmd("reactivate", "Reactivate a tenant", (*tenant.Service).Reactivate),
	)
	return cmd
}

type transitionFunc func(s *tenant.Service, ctx context.Context, actorID, tenantID string) (*tenant.Tenant, error)

func transitionCmd(use, short string, apply transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tenant-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTenants(cmd, func(ctx context.Context, svc *tenant.Service) error {
				t, err := apply(svc, ctx, cliActor, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", t.ID, t.Status)
				return nil
			})
		},
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the product catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(ctx context.Context, _ *config.Config, db *core.Database) error {
				products, err := entitlement.NewRepository(db.DB).ListCatalog(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tBILLING\tLAUNCHED")
				for _, p := range products {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", p.ID, p.Name, p.Category, p.BillingModel, p.Launched)
				}
				return w.Flush()
			})
		},
	})
	return cmd
}

func integrationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration",
		Short: "Inspect sealed integration credentials",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <tenant-id> <provider>",
		Short: "Check the configured sealing key opens a tenant's active credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(ctx context.Context, cfg *config.Config, db *core.Database) error {
				sealer, err := integration.NewSealer(cfg.Integration.EncryptionKey)
				if err != nil {
					return err
				}

				svc := integration.NewService(db, integration.NewRepository,
					integration.NewRepository(db.DB), sealer, nil, nil)
				secrets, err := svc.GetActive(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s opens with %d secrets: %s\n",
					args[1], len(secrets), strings.Join(slices.Sorted(maps.Keys(secrets)), ", "))
				return nil
			})
		},
	})
	return cmd
}

func withDatabase(
	cmd *cobra.Command,
	fn func(ctx context.Context, cfg *config.Config, db *core.Database) error,
) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, db)
}

// withTenants runs fn against a tenant service whose audit events are
// flushed before returning.
func withTenants(cmd *cobra.Command, fn func(ctx context.Context, svc *tenant.Service) error) error {
	return withDatabase(cmd, func(ctx context.Context, cfg *config.Config, db *core.Database) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		recorder := audit.NewRecorder(audit.NewRepository(db.DB), cfg.Audit, logger, nil)

		runErr := fn(ctx, tenant.NewService(tenant.NewRepository(db.DB), recorder, nil))

		if err := recorder.Close(ctx); err != nil {
			logger.Warn("audit flush incomplete", "error", err)
		}
		return runErr
	})
}

func printTenants(out io.Writer, tenants []tenant.Tenant) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCONTACT")
	for _, t := range tenants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Status, t.ContactEmail)
	}
	_ = w.Flush()
}
