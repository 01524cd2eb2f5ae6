package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/db"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := context.Background()
			application, err := openLocal(ctx, cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			sessions, apiErr := application.History.ListSessions(ctx, localUserID, from, to, limit)
			if apiErr != nil {
				return apiErr
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tMODE\tLENGTH\tCOMPLETED")
			for _, session := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n",
					session.StartTime.Local().Format("2006-01-02 15:04"),
					session.Mode,
					formatClock(session.DurationSeconds),
					session.Completed,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().String("to", "", "End date, inclusive (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntP("limit", "n", 20, "Maximum sessions")

	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily or weekly totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("type")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			ctx := context.Background()
			application, err := openLocal(ctx, cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			stats, apiErr := application.History.Stats(ctx, localUserID, kind, from, to)
			if apiErr != nil {
				return apiErr
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			switch rows := stats.(type) {
			case []model.DailyStats:
				fmt.Fprintln(w, "DATE\tWORK SESSIONS\tWORK MIN\tBREAK MIN\tTASKS\tFOCUS")
				for _, row := range rows {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d%%\n",
						row.Date, row.WorkSessions, row.TotalWorkTime, row.TotalBreakTime, row.TasksCompleted, row.FocusScore)
				}
			case []model.WeeklyStats:
				fmt.Fprintln(w, "WEEK OF\tSESSIONS\tWORK MIN\tBREAK MIN\tFOCUS")
				for _, row := range rows {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d%%\n",
						row.WeekStart, row.TotalSessions, row.TotalWorkTime, row.TotalBreakTime, row.AverageFocusScore)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringP("type", "t", service.StatsDaily, "daily or weekly")
	cmd.Flags().String("from", "", "First day or week start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Last day or week start (YYYY-MM-DD)")

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			database, err := db.OpenSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := db.RunMigrations(context.Background(), database, db.MigrationSource(cfg.MigrationsDir), nil)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

func defaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the timer defaults for new users as YAML",
		Long:  "Print the effective defaults. The output is a valid TIMER_DEFAULTS_FILE.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			settings, err := config.LoadTimerDefaults(cfg.TimerDefaultsFile)
			if err != nil {
				return err
			}
			raw, err := config.MarshalTimerDefaults(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}
