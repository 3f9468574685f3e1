package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"healthcare-crm-backend/cmd/bootstrap"
	"healthcare-crm-backend/config"
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crm",
		Short: "Healthcare referral CRM backend",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Initialize application with all dependencies
			app, err := bootstrap.New()
			if err != nil {
				logrus.Fatalf("Failed to initialize application: %v", err)
			}

			// Run the application
			app.Run()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if err := database.MigrateUp(cfg.DB); err != nil {
				return err
			}
			logrus.Info("Migrations applied")
			return nil
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if err := database.MigrateDown(cfg.DB, steps); err != nil {
				return err
			}
			logrus.Infof("Rolled back %d migration(s)", steps)
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import a CSV file",
	}

	cmd.AddCommand(
		importSubCmd("meetings", "Import doctor meetings", func(ctx context.Context, app *bootstrap.App, r io.Reader) (*dto.BatchResultResponse, error) {
			return app.MeetingUsecase.ImportMeetingsCSV(ctx, r)
		}),
		importSubCmd("bookings", "Import OPD bookings", func(ctx context.Context, app *bootstrap.App, r io.Reader) (*dto.BatchResultResponse, error) {
			return app.BookingImport.ImportBookingsCSV(ctx, r)
		}),
	)
	return cmd
}

type importFunc func(ctx context.Context, app *bootstrap.App, r io.Reader) (*dto.BatchResultResponse, error)

func importSubCmd(use, short string, run importFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			app, err := bootstrap.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			app.StartWorkers()
			defer app.Close()

			result, err := run(cmd.Context(), app, f)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the CSV file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
