package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"task-calendar/app/config"
	"task-calendar/app/dates"
	"task-calendar/app/models"
	"task-calendar/app/progress"
	"task-calendar/app/services"
	"task-calendar/app/session"
)

func progressCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [user-id] [month]",
		Short: "Print a user's daily completion for a month (default this month)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			month := dates.MonthKey(time.Now())
			if len(args) == 2 {
				month = args[1]
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			backend, closeBackend, err := config.OpenBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeBackend(context.Background())

			sess, err := session.New(args[0])
			if err != nil {
				return err
			}
			defer sess.SignOut()

			tasks, err := services.NewTaskService(backend, sess).RecurringTasks(ctx, month)
			if err != nil {
				return err
			}
			days, _ := dates.DaysInMonthKey(month)
			printProgress(cmd.OutOrStdout(), month, progress.ComputeDailyScores(tasks, days))
			return nil
		},
	}
}

func printProgress(w io.Writer, month string, scores []models.DailyScore) {
	first, _ := dates.ParseMonthKey(month)
	fmt.Fprintln(w, dates.FormatMonthYear(first))
	if len(scores) == 0 {
		fmt.Fprintln(w, progress.EmptyMessage)
		return
	}

	for _, sc := range scores {
		bar := strings.Repeat("#", int(sc.Percentage/5))
		fmt.Fprintf(w, "%2d %5.1f%% %s\n", sc.Day, sc.Percentage, bar)
	}
	sum := progress.Summarize(scores)
	fmt.Fprintf(w, "average %.1f%%, best day %d (%.1f%%), %d perfect days\n",
		sum.Average, sum.BestDay, sum.BestScore, sum.PerfectDays)
}
