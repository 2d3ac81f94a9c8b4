package workflow

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/db"
)

type TaskSummary struct {
	TaskID     int64   `json:"task_id"`
	TaskTitle  string  `json:"task_title"`
	TotalHours float64 `json:"total_hours"`
	EntryCount int     `json:"entry_count"`
}

type DailyHours struct {
	Date  time.Time `json:"date"`
	Hours float64   `json:"hours"`
}

type WeeklySummary struct {
	WeekStart  time.Time     `json:"week_start"`
	WeekEnd    time.Time     `json:"week_end"`
	TotalHours float64       `json:"total_hours"`
	DailyHours []DailyHours  `json:"daily_hours"`
	Tasks      []TaskSummary `json:"task_summaries"`
}

// DailySummary groups the day's finished entries by task and sums their hours.
func (s *Service) DailySummary(ctx context.Context, actor uuid.UUID, date time.Time) ([]TaskSummary, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	entries, err := db.NewWorkEntryRepository(s.db).ListCompletedBetween(ctx, actor, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return groupByTask(entries), nil
}

// WeeklySummaryFor aggregates a seven-day window starting at weekStart.
func (s *Service) WeeklySummaryFor(ctx context.Context, actor uuid.UUID, weekStart time.Time) (*WeeklySummary, error) {
	start := weekStart.UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 7)
	entries, err := db.NewWorkEntryRepository(s.db).ListCompletedBetween(ctx, actor, start, end)
	if err != nil {
		return nil, err
	}

	summary := &WeeklySummary{
		WeekStart: start,
		WeekEnd:   end.AddDate(0, 0, -1),
		Tasks:     groupByTask(entries),
	}

	byDay := make(map[time.Time]float64)
	for _, entry := range entries {
		hours := entry.EndTime.Sub(entry.StartTime).Hours()
		summary.TotalHours += hours
		byDay[entry.StartTime.UTC().Truncate(24*time.Hour)] += hours
	}
	for day, hours := range byDay {
		summary.DailyHours = append(summary.DailyHours, DailyHours{Date: day, Hours: hours})
	}
	sort.Slice(summary.DailyHours, func(i, j int) bool {
		return summary.DailyHours[i].Date.Before(summary.DailyHours[j].Date)
	})
	return summary, nil
}

func groupByTask(entries []*db.WorkEntryWithTask) []TaskSummary {
	byTask := make(map[int64]*TaskSummary)
	var order []int64
	for _, entry := range entries {
		ts, ok := byTask[entry.TaskItemID]
		if !ok {
			ts = &TaskSummary{TaskID: entry.TaskItemID, TaskTitle: entry.TaskTitle}
			byTask[entry.TaskItemID] = ts
			order = append(order, entry.TaskItemID)
		}
		ts.TotalHours += entry.EndTime.Sub(entry.StartTime).Hours()
		ts.EntryCount++
	}

	summaries := make([]TaskSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byTask[id])
	}
	return summaries
}
