package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/studyboard/internal/backup"
	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/ics"
	"github.com/Joseda-hg/studyboard/internal/importer"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
	"github.com/Joseda-hg/studyboard/internal/tui"
)

// NewRootCommand runs the terminal UI, optionally with the web server beside
// it, and carries the subcommands.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "studyboard",
		Short:         "Student planner: tasks, study streaks, calendar and pomodoro",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.webOnly {
				return runWeb(cmd.Context(), opts)
			}
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file path")
	flags.StringVar(&opts.dbPath, "db", "", "sqlite db path")
	flags.IntVar(&opts.port, "port", 0, "web server port")
	rootCmd.Flags().BoolVar(&opts.web, "web", false, "enable web server")
	rootCmd.Flags().BoolVar(&opts.webOnly, "web-only", false, "run web server only")

	rootCmd.AddCommand(newWebCommand(opts))
	rootCmd.AddCommand(newTasksCommand(opts))
	rootCmd.AddCommand(newStreakCommand(opts))
	rootCmd.AddCommand(newStudyCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newExportICSCommand(opts))
	rootCmd.AddCommand(newBackupCommand(opts))
	rootCmd.AddCommand(newRestoreCommand(opts))
	return rootCmd
}

func runTUI(ctx context.Context, opts *options) error {
	a, err := opts.open(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.WebEnabled {
		webCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := a.serveWeb(webCtx); err != nil {
				a.log.WithError(err).Errorw("web server stopped")
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	return tui.Run(a.store, tui.Options{Log: a.log, TimerMinutes: a.cfg.TimerMinutes})
}

func runWeb(ctx context.Context, opts *options) error {
	a, err := opts.open(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.serveWeb(ctx)
}

func newWebCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Run the web dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeb(cmd.Context(), opts)
		},
	}
}

func newTasksCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "Print tasks grouped into overdue, due today, upcoming and completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			today := a.store.Today()
			printBuckets(cmd.OutOrStdout(), planner.Partition(tasks, today), today)
			return nil
		},
	}
}

func printBuckets(w io.Writer, buckets planner.Buckets, today isodate.Date) {
	sections := []struct {
		title string
		tasks []model.Task
	}{
		{"Overdue", buckets.Overdue},
		{"Due today", buckets.DueToday},
		{"Upcoming", buckets.Upcoming},
		{"Completed", buckets.Completed},
	}
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", section.title, len(section.tasks))
		for _, task := range section.tasks {
			line := fmt.Sprintf("  %-6s %s  %s", task.Priority, task.DueDate, task.Title)
			if late := planner.DaysLate(task.DueDate, today); late > 0 && !task.Completed {
				line += fmt.Sprintf("  (%d days late)", late)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func newStreakCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Print the current and longest study streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			studied, err := a.store.StudiedDates(cmd.Context())
			if err != nil {
				return err
			}
			printStreak(cmd.OutOrStdout(), studied, a.store.Today())
			return nil
		},
	}
}

func printStreak(w io.Writer, studied []isodate.Date, today isodate.Date) {
	fmt.Fprintf(w, "Current streak: %d days\n", calendar.CurrentStreak(studied, today))
	longest := calendar.LongestRun(studied)
	if longest.Length == 0 {
		fmt.Fprintln(w, "Longest streak: 0 days")
		return
	}
	fmt.Fprintf(w, "Longest streak: %d days (%s to %s)\n", longest.Length, longest.Start, longest.End)
}

func newStudyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "study [YYYY-MM-DD]",
		Short: "Mark a day (default today) as studied",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			date := a.store.Today()
			if len(args) == 1 {
				if date, err = isodate.Parse(strings.TrimSpace(args[0])); err != nil {
					return err
				}
			}
			if err := a.store.MarkStudied(cmd.Context(), date); err != nil {
				return err
			}
			studied, err := a.store.StudiedDates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as studied.\n", date)
			printStreak(cmd.OutOrStdout(), studied, a.store.Today())
			return nil
		},
	}
}

func newImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dump.json>",
		Short: "Replace all data with a browser localStorage dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := importer.Parse(f, a.store.Env())
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				a.log.Warnw("import", "warning", warning)
			}
			if err := a.store.RestoreSnapshot(cmd.Context(), result.Snapshot); err != nil {
				return err
			}
			snap := result.Snapshot
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks, %d studied days, %d event dates, %d subjects, %d placements (%d warnings).\n",
				len(snap.Tasks), len(snap.StudiedDates), len(snap.Events), len(snap.Subjects), len(snap.Placements), len(result.Warnings))
			return nil
		},
	}
}

func newExportICSCommand(opts *options) *cobra.Command {
	var includeCompleted bool
	cmd := &cobra.Command{
		Use:   "export-ics <file>",
		Short: "Write calendar events and task due dates as an iCalendar file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.store.Events(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := a.store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			icsOpts := ics.Options{IncludeCompleted: includeCompleted, Stamp: a.store.Env().Now}

			if args[0] == "-" {
				return ics.Write(cmd.OutOrStdout(), events, tasks, icsOpts)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := ics.Write(f, events, tasks, icsOpts); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().BoolVar(&includeCompleted, "completed", false, "include completed tasks")
	return cmd
}

func newBackupCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Write a YAML snapshot now (default: timestamped file in the backup dir)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			var path string
			if len(args) == 1 {
				path = args[0]
				snap, err := a.store.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				if err := backup.WriteFile(path, snap); err != nil {
					return err
				}
			} else {
				scheduler, err := a.newScheduler()
				if err != nil {
					return err
				}
				if path, err = scheduler.RunOnce(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
			return nil
		},
	}
}

func newRestoreCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace all data with a YAML snapshot written by backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := backup.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := a.store.RestoreSnapshot(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot taken at %s\n", snap.TakenAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
