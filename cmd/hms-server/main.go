package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/config"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/db"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/modules"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/sandbox"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hms-server",
		Short:         "Hospital management API server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(seedCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}
	defer a.close()

	e := a.newServer()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	withMigrator := func(cmd *cobra.Command, fn func(ctx context.Context, m *db.Migrator) error) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for migrations")
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		schema, _ := cmd.Flags().GetString("schema")

		ctx := cmd.Context()
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(ctx, db.NewMigrator(pool, dir, schema))
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("to")
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.UpTo(ctx, target)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().Int("to", 0, "Stop after this migration version (0 applies all)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("schema", "public", "Target schema for migrations")
		c.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
		cmd.AddCommand(c)
	}
	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "bump <domain>",
		Short: "Invalidate every cached page and search of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.CacheBackend == config.CacheNone || cfg.CacheBackend == config.CacheLocal {
				return fmt.Errorf("CACHE_BACKEND=%q has no shared state to bump", cfg.CacheBackend)
			}

			reg := domainRegistry()
			domain, ok := reg.Collection(args[0])
			if !ok {
				return fmt.Errorf("%w %q (known: %v)", errUnknownDomain, args[0], reg.Names())
			}

			remote, err := newRemoteStore(cfg)
			if err != nil {
				return err
			}
			if c, ok := remote.(io.Closer); ok {
				defer c.Close()
			}
			client := newCacheClient(cfg, remote, logger)
			v := cache.NewVersionRegistry(client).Bump(cmd.Context(), domain)
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now at version %d\n", domain, v)
			return nil
		},
	})
	return cmd
}

func seedCmd() *cobra.Command {
	def := sandbox.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load generated patients, invoices and ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.StorePostgres {
				return fmt.Errorf("seed needs STORE_BACKEND=%q; the memory store is seeded through POST /api/v1/sandbox/seed", config.StorePostgres)
			}
			if cfg.IsProduction() {
				return fmt.Errorf("seed is not allowed in production")
			}

			var sc sandbox.SeedConfig
			sc.PatientCount, _ = cmd.Flags().GetInt("patients")
			sc.InvoicesPerPatient, _ = cmd.Flags().GetInt("invoices")
			sc.Seed, _ = cmd.Flags().GetInt64("seed")

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.seeder().Run(cmd.Context(), sc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d patients, %d invoices, %d ledger entries (seed %d) in %s.\n",
				res.Patients, res.Invoices, res.LedgerEntries, res.Seed, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().Int("patients", def.PatientCount, "Number of patients")
	cmd.Flags().Int("invoices", def.InvoicesPerPatient, "Invoices per patient")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one)")
	return cmd
}

// domainRegistry lists the served domains without wiring their services.
func domainRegistry() *modules.Registry {
	reg := modules.NewRegistry()
	for _, m := range domainModules(nil) {
		_ = reg.Register(m)
	}
	return reg
}
