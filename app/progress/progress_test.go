package progress

import (
	"testing"

	"task-calendar/app/models"
)

func TestComputeDailyScores_EmptyIsNoData(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 28, 31} {
		got := ComputeDailyScores(nil, n)
		if got == nil || len(got) != 0 {
			t.Fatalf("ComputeDailyScores(nil, %d) = %v, want empty non-nil slice", n, got)
		}
	}
}

func TestComputeDailyScores_HalfOnFirstDay(t *testing.T) {
	t.Parallel()

	a := models.RecurringTask{ID: "a", Checks: map[string]bool{"01": true}}
	b := models.RecurringTask{ID: "b", Checks: map[string]bool{}}

	got := ComputeDailyScores([]models.RecurringTask{a, b}, 30)
	if len(got) != 30 {
		t.Fatalf("len = %d, want 30", len(got))
	}
	if got[0].Day != 1 || got[0].Percentage != 50.0 {
		t.Fatalf("day 1 = %+v, want 50%%", got[0])
	}
	for i, s := range got[1:] {
		if s.Day != i+2 || s.Percentage != 0 {
			t.Fatalf("entry %d = %+v, want day %d at 0%%", i+1, s, i+2)
		}
	}
}

func TestComputeDailyScores_ExplicitFalseIsUnchecked(t *testing.T) {
	t.Parallel()

	tasks := []models.RecurringTask{
		{ID: "a", Checks: map[string]bool{"02": false}},
		{ID: "b", Checks: nil},
	}
	got := ComputeDailyScores(tasks, 28)
	if got[1].Percentage != 0 {
		t.Fatalf("day 2 = %+v, want 0%%", got[1])
	}
}

func TestComputeDailyScores_NotRounded(t *testing.T) {
	t.Parallel()

	tasks := []models.RecurringTask{
		{ID: "a", Checks: map[string]bool{"10": true}},
		{ID: "b"},
		{ID: "c"},
	}
	got := ComputeDailyScores(tasks, 31)
	want := 100.0 / 3.0
	if got[9].Percentage != want {
		t.Fatalf("day 10 = %v, want %v", got[9].Percentage, want)
	}
}

func TestComputeDailyScores_DeleteShrinksDenominator(t *testing.T) {
	t.Parallel()

	a := models.RecurringTask{ID: "a", Checks: map[string]bool{"01": true}}
	b := models.RecurringTask{ID: "b"}

	before := ComputeDailyScores([]models.RecurringTask{a, b}, 30)
	after := ComputeDailyScores([]models.RecurringTask{a}, 30)
	if before[0].Percentage != 50 || after[0].Percentage != 100 {
		t.Fatalf("before=%v after=%v", before[0], after[0])
	}
}

func TestComputeDailyScores_IgnoresOutOfMonthKeys(t *testing.T) {
	t.Parallel()

	tasks := []models.RecurringTask{{ID: "a", Checks: map[string]bool{"30": true, "31": true}}}
	got := ComputeDailyScores(tasks, 29)
	if len(got) != 29 {
		t.Fatalf("len = %d, want 29", len(got))
	}
	for _, s := range got {
		if s.Percentage != 0 {
			t.Fatalf("day %d scored %v", s.Day, s.Percentage)
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	if s := Summarize(nil); s != (Summary{}) {
		t.Fatalf("Summarize(nil) = %+v", s)
	}

	scores := []models.DailyScore{
		{Day: 1, Percentage: 50},
		{Day: 2, Percentage: 100},
		{Day: 3, Percentage: 0},
		{Day: 4, Percentage: 100},
	}
	s := Summarize(scores)
	if s.Average != 62.5 {
		t.Errorf("Average = %v, want 62.5", s.Average)
	}
	if s.BestDay != 2 || s.BestScore != 100 {
		t.Errorf("best = day %d at %v, want day 2 at 100", s.BestDay, s.BestScore)
	}
	if s.PerfectDays != 2 {
		t.Errorf("PerfectDays = %d, want 2", s.PerfectDays)
	}
}
