package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/numeric"
)

func assignedTo(tasks []*task.Task, userID vo.UserID) []*task.Task {
	out := []*task.Task{}
	if userID.IsZero() {
		return out
	}
	for _, t := range tasks {
		if t.AssigneeID() == userID {
			out = append(out, t)
		}
	}
	return out
}

// CanDeleteAccount is false while the user still participates in projects.
func CanDeleteAccount(u *user.User) bool { return len(u.ProjectIDs()) == 0 }

func CanTransferOwnership(u *user.User, p *project.Project) bool { return p.IsOwner(u.ID()) }

type Productivity struct {
	TotalTasks            int     `json:"total_tasks"`
	CompletedTasks        int     `json:"completed_tasks"`
	CompletionRate        float64 `json:"completion_rate"`
	AverageCompletionTime float64 `json:"average_completion_time"`
	OnTimeRate            float64 `json:"on_time_rate"`
}

// UserProductivity measures the tasks assigned to u. Average completion time is in whole
// days; on-time rate divides tasks finished by their due date by all completed tasks.
func UserProductivity(u *user.User, tasks []*task.Task) Productivity {
	mine := assignedTo(tasks, u.ID())
	if len(mine) == 0 {
		return Productivity{}
	}
	completed, onTime, durations, durationSum := 0, 0, 0, 0
	for _, t := range mine {
		if !t.IsCompleted() {
			continue
		}
		completed++
		c := t.CompletedAt()
		if c == nil {
			continue
		}
		durations++
		durationSum += task.WholeDays(c.Sub(t.CreatedAt()))
		if due := t.DueDate(); due != nil && !c.After(*due) {
			onTime++
		}
	}
	p := Productivity{
		TotalTasks:     len(mine),
		CompletedTasks: completed,
		CompletionRate: numeric.Round(float64(completed)/float64(len(mine))*100, 2),
	}
	if durations > 0 {
		p.AverageCompletionTime = numeric.Round(float64(durationSum)/float64(durations), 1)
	}
	if completed > 0 {
		p.OnTimeRate = numeric.Round(float64(onTime)/float64(completed)*100, 2)
	}
	return p
}

type Deadline struct {
	TaskID        string    `json:"task_id"`
	Title         string    `json:"title"`
	DueDate       time.Time `json:"due_date"`
	DaysRemaining int       `json:"days_remaining"`
}

type WorkloadSummary struct {
	CurrentLoad       int        `json:"current_load"`
	EstimatedHours    float64    `json:"estimated_hours"`
	UpcomingDeadlines []Deadline `json:"upcoming_deadlines"`
	OverdueTasks      int        `json:"overdue_tasks"`
}

// UserWorkload summarizes u's assigned tasks; deadlines within the next `days` days are listed
// soonest first.
func UserWorkload(u *user.User, tasks []*task.Task, days int, now time.Time) WorkloadSummary {
	s := WorkloadSummary{UpcomingDeadlines: []Deadline{}}
	mine := assignedTo(tasks, u.ID())
	if len(mine) == 0 {
		return s
	}
	var hours float64
	for _, t := range mine {
		if t.IsActive() {
			s.CurrentLoad++
		}
		hours += EffortHours(t, now)
		if t.IsOverdueAt(now) {
			s.OverdueTasks++
		}
		due := t.DueDate()
		if due == nil || !due.After(now) {
			continue
		}
		if left := task.WholeDays(due.Sub(now)); left <= days {
			s.UpcomingDeadlines = append(s.UpcomingDeadlines, Deadline{
				TaskID:        t.ID().String(),
				Title:         t.Title(),
				DueDate:       *due,
				DaysRemaining: left,
			})
		}
	}
	sort.SliceStable(s.UpcomingDeadlines, func(i, j int) bool {
		return s.UpcomingDeadlines[i].DaysRemaining < s.UpcomingDeadlines[j].DaysRemaining
	})
	s.EstimatedHours = numeric.Round(hours, 1)
	return s
}

func UserSuggestions(u *user.User, tasks []*task.Task, now time.Time) []string {
	out := []string{}
	mine := assignedTo(tasks, u.ID())
	if len(mine) == 0 {
		return out
	}
	var active []*task.Task
	overdue, completed := 0, 0
	for _, t := range mine {
		if t.IsActive() {
			active = append(active, t)
		}
		if t.IsOverdueAt(now) {
			overdue++
		}
		if t.IsCompleted() {
			completed++
		}
	}
	if len(active) > 10 {
		out = append(out, fmt.Sprintf("%d active tasks; consider reducing the load", len(active)))
	}
	if overdue > 0 {
		out = append(out, fmt.Sprintf("%d tasks are overdue; handle them first", overdue))
	}
	if float64(completed)/float64(len(mine)) < 0.5 {
		out = append(out, "completion rate is low; re-evaluate task priorities")
	}
	noDeadline, untouched := 0, 0
	for _, t := range active {
		if t.DueDate() == nil {
			noDeadline++
		}
		if t.Status() == vo.TaskTodo && t.AgeInDaysAt(now) > 7 {
			untouched++
		}
	}
	if noDeadline > 3 {
		out = append(out, fmt.Sprintf("%d tasks have no due date; add them", noDeadline))
	}
	if untouched > 0 {
		out = append(out, fmt.Sprintf("%d tasks were created long ago and never started; re-evaluate them", untouched))
	}
	return out
}

type TeamSummary struct {
	TotalMembers          int            `json:"total_members"`
	TotalTasks            int            `json:"total_tasks"`
	CompletedTasks        int            `json:"completed_tasks"`
	OverallCompletionRate float64        `json:"overall_completion_rate"`
	WorkloadDistribution  map[string]int `json:"workload_distribution"`
	AverageProductivity   float64        `json:"average_productivity"`
	OverdueTasks          int            `json:"overdue_tasks"`
}

// TeamPerformance aggregates a shared task list over users. WorkloadDistribution maps each
// username to its active assigned task count; AverageProductivity is the mean completion rate.
func TeamPerformance(users []*user.User, tasks []*task.Task, now time.Time) TeamSummary {
	s := TeamSummary{WorkloadDistribution: map[string]int{}}
	if len(users) == 0 {
		return s
	}
	s.TotalMembers = len(users)
	s.TotalTasks = len(tasks)
	for _, t := range tasks {
		if t.IsCompleted() {
			s.CompletedTasks++
		}
		if t.IsOverdueAt(now) {
			s.OverdueTasks++
		}
	}
	if s.TotalTasks > 0 {
		s.OverallCompletionRate = numeric.Round(float64(s.CompletedTasks)/float64(s.TotalTasks)*100, 2)
	}
	var rateSum float64
	for _, u := range users {
		activeCount := 0
		for _, t := range assignedTo(tasks, u.ID()) {
			if t.IsActive() {
				activeCount++
			}
		}
		s.WorkloadDistribution[u.Username()] = activeCount
		rateSum += UserProductivity(u, tasks).CompletionRate
	}
	s.AverageProductivity = numeric.Round(rateSum/float64(len(users)), 2)
	return s
}

type ActivityEntry struct {
	Date      time.Time `json:"date"`
	Type      string    `json:"type"`
	TaskID    string    `json:"task_id"`
	TaskTitle string    `json:"task_title"`
	Status    string    `json:"status,omitempty"`
}

// ActivityTimeline lists creation, completion and update events of tasks u reported or is
// assigned to, within the last `days` days, newest first.
func ActivityTimeline(u *user.User, tasks []*task.Task, days int, now time.Time) []ActivityEntry {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	out := []ActivityEntry{}
	for _, t := range tasks {
		if t.AssigneeID() != u.ID() && t.ReporterID() != u.ID() {
			continue
		}
		id, title := t.ID().String(), t.Title()
		if !t.CreatedAt().Before(cutoff) {
			out = append(out, ActivityEntry{Date: t.CreatedAt(), Type: "task_created", TaskID: id, TaskTitle: title})
		}
		if c := t.CompletedAt(); c != nil && !c.Before(cutoff) {
			out = append(out, ActivityEntry{Date: *c, Type: "task_completed", TaskID: id, TaskTitle: title})
		}
		if !t.UpdatedAt().Before(cutoff) {
			out = append(out, ActivityEntry{
				Date:      t.UpdatedAt(),
				Type:      "task_updated",
				TaskID:    id,
				TaskTitle: title,
				Status:    t.Status().String(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
