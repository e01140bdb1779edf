// Package progress derives the daily completion trend of a month's recurring tasks.
package progress

import "task-calendar/app/models"

// EmptyMessage is shown instead of a trend when a month has no tasks.
const EmptyMessage = "Add tasks and check them off to see your progress!"

// ComputeDailyScores returns, for each day 1..daysInMonth, the percentage of
// tasks checked on that day. With no tasks it returns an empty slice: no data
// is not the same as 0% complete. Percentages are not rounded.
func ComputeDailyScores(tasks []models.RecurringTask, daysInMonth int) []models.DailyScore {
	if len(tasks) == 0 || daysInMonth <= 0 {
		return []models.DailyScore{}
	}

	scores := make([]models.DailyScore, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		completed := 0
		for _, task := range tasks {
			if task.Checked(day) {
				completed++
			}
		}
		scores = append(scores, models.DailyScore{
			Day:        day,
			Percentage: 100 * float64(completed) / float64(len(tasks)),
		})
	}
	return scores
}

// Summary condenses a score series for headings and the CLI.
type Summary struct {
	Average     float64 `json:"average"`
	BestDay     int     `json:"best_day,omitempty"`
	BestScore   float64 `json:"best_score"`
	PerfectDays int     `json:"perfect_days"`
}

// Summarize averages scores and finds the first day with the highest score.
// An empty series yields the zero Summary.
func Summarize(scores []models.DailyScore) Summary {
	var s Summary
	if len(scores) == 0 {
		return s
	}

	total := 0.0
	for _, sc := range scores {
		total += sc.Percentage
		if sc.Percentage > s.BestScore || s.BestDay == 0 {
			s.BestDay = sc.Day
			s.BestScore = sc.Percentage
		}
		if sc.Percentage == 100 {
			s.PerfectDays++
		}
	}
	s.Average = total / float64(len(scores))
	return s
}
