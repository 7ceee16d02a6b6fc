package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehr/enrollment/internal/cli"
	"github.com/ehr/enrollment/internal/config"
	"github.com/ehr/enrollment/internal/domain/validation"
	"github.com/ehr/enrollment/internal/platform/db"
	"github.com/ehr/enrollment/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "enrollment-server",
		Short: "Patient enrollment API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(enrollCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the enrollment API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			target, _ := cmd.Flags().GetInt("target")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, schema)
			if err != nil {
				return err
			}
			defer closePool()

			fmt.Printf("Running migrations on schema: %s\n", schema)
			var count int
			if target > 0 {
				count, err = migrator.UpTo(ctx, target)
			} else {
				count, err = migrator.Up(ctx)
			}
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	upCmd.Flags().Int("target", 0, "Stop after this migration version (0 applies all)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, schema)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
				}
				if s.AppliedAt != nil {
					appliedAt = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", db.DefaultSchema, "Target schema")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(ctx context.Context, schema string) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ApplicationName: "enrollment-migrate",
	})
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrations.FS, schema), pool.Close, nil
}

func enrollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a patient interactively against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := cmd.Flags().GetString("api")
			registrant, _ := cmd.Flags().GetString("registrant")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			client := cli.NewClient(api, timeout)
			runner := cli.NewRunner(client, cli.NewSurveyDriver(cmd.OutOrStdout()))
			v, err := runner.Run(cmd.Context(), validation.Registrant(registrant))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lead %s created.\n", v.LeadID)
			return nil
		},
	}
	cmd.Flags().String("api", "http://localhost:8000/api/v1", "Base URL of the enrollment API")
	cmd.Flags().String("registrant", string(validation.RegistrantPatient), "Who is enrolling: patient or caregiver")
	cmd.Flags().Duration("timeout", 30*time.Second, "Per-request timeout")
	return cmd
}
