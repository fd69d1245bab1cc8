package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukikurage/sprint-planner-api/internal/app"
	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/config"
	"github.com/yukikurage/sprint-planner-api/internal/database"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/planfile"
)

var rootCmd = &cobra.Command{
	Use:   "plannerctl",
	Short: "Administration and offline planning for the sprint planner",
	Long: `plannerctl runs maintenance tasks against the sprint planner database
and schedules offline YAML plans without a server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.Init(cfg.LogLevel, cfg.LogJSON)
	},
}

var cfg *config.Config

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date.")
		return nil
	},
}

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Manage location holiday calendars",
}

var holidaysImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a TOML holiday file, replacing the holidays of its locations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		locations, err := calendar.LoadHolidayFile(args[0])
		if err != nil {
			return err
		}
		if err := connect(); err != nil {
			return err
		}

		svc := app.NewServices(database.GetDB(), cfg, nil)
		if err := svc.Calendars.ImportLocations(commandContext(cmd), locations); err != nil {
			return err
		}

		for _, loc := range locations {
			fmt.Printf("%-12s %-24s %d holidays\n", loc.Code, loc.Name, len(loc.Holidays))
		}
		return nil
	},
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Recompute and store the schedule of a sprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		sprintID, _ := cmd.Flags().GetUint64("sprint")
		if sprintID == 0 {
			return fmt.Errorf("--sprint is required")
		}
		if err := connect(); err != nil {
			return err
		}

		svc := app.NewServices(database.GetDB(), cfg, nil)
		result, err := svc.Sprints.Reschedule(commandContext(cmd), sprintID)
		if err != nil {
			return err
		}

		if result.End == nil {
			fmt.Printf("Sprint %d has no tasks.\n", sprintID)
			return nil
		}
		fmt.Printf("Sprint %d: %s to %s, release %s (%d tasks)\n",
			sprintID,
			result.Start.Format(time.DateOnly),
			result.End.Format(time.DateOnly),
			result.ReleaseDate.Format(time.DateOnly),
			len(result.Tasks))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule FILE",
	Short: "Schedule an offline YAML plan and print the result as YAML",
	Long: `Schedule an offline YAML plan and print the result as YAML.

Examples:
  plannerctl schedule plan.yaml
  plannerctl schedule plan.yaml --from 2025-03-03 -o schedule.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := planfile.Load(args[0])
		if err != nil {
			return err
		}

		anchor := time.Now()
		if raw, _ := cmd.Flags().GetString("from"); raw != "" {
			if anchor, err = time.Parse(time.DateOnly, raw); err != nil {
				return fmt.Errorf("invalid --from %q (expected YYYY-MM-DD)", raw)
			}
		}

		defaults := calendar.Defaults{HoursPerDay: cfg.WorkDay(), HorizonDays: cfg.ScheduleHorizonDays}
		out, err := planfile.Schedule(plan, defaults, anchor)
		if err != nil {
			return err
		}

		w := os.Stdout
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return out.Write(w)
	},
}

func init() {
	rescheduleCmd.Flags().Uint64("sprint", 0, "ID of the sprint to reschedule")
	scheduleCmd.Flags().String("from", "", "First day for plans without a sprint start (default: today)")
	scheduleCmd.Flags().StringP("output", "o", "", "Write the schedule to a file instead of stdout")

	holidaysCmd.AddCommand(holidaysImportCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(rescheduleCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect opens the configured database and migrates it.
func connect() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := database.Connect(cfg); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return database.Migrate()
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithRequestID(ctx, cmd.Name())
}
