package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	// Zone data for DISPLAY_TIMEZONE on images without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mentalcheck/screening-admin/internal/config"
	"github.com/mentalcheck/screening-admin/internal/domain/screening"
	"github.com/mentalcheck/screening-admin/internal/platform/db"
	"github.com/mentalcheck/screening-admin/internal/platform/sandbox"
	"github.com/mentalcheck/screening-admin/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "screening-admin",
		Short: "Admin screen for PHQ-9/GAD-7 screenings",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the admin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Development gets the console writer.
func newLogger(env, level string, out io.Writer) zerolog.Logger {
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func tableFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("query", "q", "", "Filter by name, registration, course, term or availability")
	cmd.Flags().String("sort", screening.ColCreatedAt, "Sort column")
	cmd.Flags().String("dir", "", "Sort direction (asc or desc)")
}

// fetchOnce runs a single fetch against the configured source, bounded by
// FETCH_TIMEOUT. A fetch error is returned with the message the admin
// screen would show.
func fetchOnce(cmd *cobra.Command) (*config.Config, screening.State, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, screening.State{}, err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel, os.Stderr)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FetchTimeout)
	defer cancel()

	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return nil, screening.State{}, err
	}
	defer src.Close()

	state := screening.NewFetcher(src, cfg.FetchLimit, logger,
		screening.WithFetchTimeout(cfg.FetchTimeout),
	).Refresh(ctx)
	if state.Error != "" {
		return nil, state, fmt.Errorf("fetch screenings: %s", state.Error)
	}
	return cfg, state, nil
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the screenings table",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			sortKey, _ := cmd.Flags().GetString("sort")
			dir, _ := cmd.Flags().GetString("dir")
			page, _ := cmd.Flags().GetInt("page")
			size, _ := cmd.Flags().GetInt("size")

			cfg, state, err := fetchOnce(cmd)
			if err != nil {
				return err
			}
			table := screening.BuildTable(state.Records, screening.TableOptions{
				Query: query, Sort: sortKey, Dir: dir, Page: page, Size: size,
			}, screening.NewFormatter(cfg.DisplayTimezone))
			return printTable(cmd.OutOrStdout(), table)
		},
	}
	tableFlags(cmd)
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("size", 10, "Page size (10, 25, 50 or 100)")
	return cmd
}

func printTable(out io.Writer, table screening.Table) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATA\tNOME\tMATRÍCULA\tCURSO - PERÍODO\tPHQ-9\tGAD-7\tRISCO\tDISPONIBILIDADE")
	for _, r := range table.Rows {
		risk := make([]string, len(r.Risk))
		for i, b := range r.Risk {
			risk[i] = b.Instrument + ": " + b.Label
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.CreatedAt, r.Name, r.Registration, r.CourseTerm, r.ScorePHQ9, r.ScoreGAD7,
			strings.Join(risk, ", "), r.Availability)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nPágina %d de %d · %d de %d triagens\n",
		table.Page.Page, max(table.Page.Pages, 1), table.Matched, table.Loaded)
	return err
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered screenings to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			sortKey, _ := cmd.Flags().GetString("sort")
			dir, _ := cmd.Flags().GetString("dir")
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return fmt.Errorf("--out is required")
			}

			cfg, state, err := fetchOnce(cmd)
			if err != nil {
				return err
			}
			list := screening.Sorted(screening.Filter(state.Records, query), sortKey, dir)

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := screening.WriteSpreadsheet(f, list, screening.NewFormatter(cfg.DisplayTimezone)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d screening(s) to %s\n", len(list), out)
			return nil
		},
	}
	tableFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "Output file")
	return cmd
}

// migrationsFS returns the embedded migrations unless dir overrides them.
func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	cmd.PersistentFlags().String("dir", "", "Migrations directory (defaults to the embedded set)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationsFS(dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationsFS(dir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return printStatuses(cmd.OutOrStdout(), statuses)
		},
	})

	return cmd
}

func printStatuses(out io.Writer, statuses []db.MigrationStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, s.Name, status, appliedAt)
	}
	return w.Flush()
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert synthetic screenings into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			seedCfg := sandbox.DefaultSeedConfig()
			seedCfg.Count = count
			seedCfg.Seed = seed
			res, err := sandbox.Seed(ctx, screening.NewPGSource(pool), seedCfg)
			if err != nil {
				return fmt.Errorf("seed failed after %d screening(s): %w", res.Inserted, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d screening(s) (%d without student) in %s.\n",
				res.Inserted, res.Orphans, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().Int("count", sandbox.DefaultSeedConfig().Count, "Number of screenings to insert")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one from the clock)")
	return cmd
}
