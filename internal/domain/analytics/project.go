package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/numeric"
)

const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
	HealthNoTasks  = "no_tasks"
)

type HealthDetails struct {
	CompletionPercentage float64 `json:"completion_percentage"`
	TotalTasks           int     `json:"total_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	ActiveTasks          int     `json:"active_tasks"`
	OverdueTasks         int     `json:"overdue_tasks"`
	BlockedTasks         int     `json:"blocked_tasks"`
}

type HealthScore struct {
	Score   float64        `json:"score"`
	Status  string         `json:"status"`
	Details *HealthDetails `json:"details,omitempty"`
}

// ProjectHealth scores a project from its completion percentage minus capped penalties
// for overdue (5 each, max 30) and blocked (10 each, max 50) active tasks.
func ProjectHealth(p *project.Project, now time.Time) HealthScore {
	progress := p.TaskProgress()
	if progress.Total == 0 {
		return HealthScore{Score: 0, Status: HealthNoTasks}
	}
	active := p.ActiveTasks()
	overdue, blocked := 0, 0
	for _, t := range active {
		if t.IsOverdueAt(now) {
			overdue++
		}
		if t.Status() == vo.TaskBlocked {
			blocked++
		}
	}
	penalty := float64(min(overdue*5, 30) + min(blocked*10, 50))
	score := max(0, progress.Percentage-penalty)

	status := HealthCritical
	switch {
	case score >= 80:
		status = HealthHealthy
	case score >= 60:
		status = HealthWarning
	}
	return HealthScore{
		Score:  numeric.Round(score, 2),
		Status: status,
		Details: &HealthDetails{
			CompletionPercentage: progress.Percentage,
			TotalTasks:           progress.Total,
			CompletedTasks:       progress.Completed,
			ActiveTasks:          len(active),
			OverdueTasks:         overdue,
			BlockedTasks:         blocked,
		},
	}
}

type Velocity struct {
	Velocity       float64 `json:"velocity"`
	TasksCompleted int     `json:"tasks_completed"`
	PeriodDays     int     `json:"period_days"`
	AveragePerDay  float64 `json:"average_per_day"`
}

// ProjectVelocity counts tasks completed in the trailing window [now-days, now] and divides
// by the number of calendar days. It is a plain rate, not a rolling average.
func ProjectVelocity(p *project.Project, days int, now time.Time) Velocity {
	start := now.Add(-time.Duration(days) * 24 * time.Hour)
	completed := 0
	for _, t := range p.CompletedTasks() {
		if c := t.CompletedAt(); c != nil && !c.Before(start) {
			completed++
		}
	}
	var v float64
	if days > 0 {
		v = float64(completed) / float64(days)
	}
	v = numeric.Round(v, 2)
	return Velocity{Velocity: v, TasksCompleted: completed, PeriodDays: days, AveragePerDay: v}
}

type BurndownPoint struct {
	Date           string `json:"date"`
	RemainingTasks int    `json:"remaining_tasks"`
}

// ProjectBurndown is a linear approximation: day i back from today has total*(1-i/days)
// tasks remaining. Empty when the project has no tasks.
func ProjectBurndown(p *project.Project, days int, now time.Time) []BurndownPoint {
	total := len(p.Tasks())
	if total == 0 || days <= 0 {
		return []BurndownPoint{}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]BurndownPoint, 0, days)
	for i := 0; i < days; i++ {
		ratio := 1 - float64(i)/float64(days)
		out = append(out, BurndownPoint{
			Date:           today.AddDate(0, 0, -i).Format(time.DateOnly),
			RemainingTasks: max(0, int(float64(total)*ratio)),
		})
	}
	return out
}

// DependentTasks finds tasks whose description mentions t's title.
func DependentTasks(t *task.Task, all []*task.Task) []*task.Task {
	needle := strings.ToLower(t.Title())
	out := []*task.Task{}
	for _, other := range all {
		if other.ID() == t.ID() {
			continue
		}
		if strings.Contains(strings.ToLower(other.Description()), needle) {
			out = append(out, other)
		}
	}
	return out
}

// CanCompleteProject explains why a project cannot be completed yet. Blocked tasks are
// reported before overdue ones, and those before the plain open count.
func CanCompleteProject(p *project.Project, now time.Time) (bool, string) {
	active := p.ActiveTasks()
	if len(active) == 0 {
		return true, "project can be completed"
	}
	blocked, overdue := 0, 0
	for _, t := range active {
		if t.Status() == vo.TaskBlocked {
			blocked++
		}
		if t.IsOverdueAt(now) {
			overdue++
		}
	}
	switch {
	case blocked > 0:
		return false, fmt.Sprintf("project has %d blocked tasks", blocked)
	case overdue > 0:
		return false, fmt.Sprintf("project has %d overdue tasks", overdue)
	default:
		return false, fmt.Sprintf("project has %d incomplete tasks", len(active))
	}
}

func ProjectSuggestions(p *project.Project, now time.Time) []string {
	progress := p.TaskProgress()
	active := p.ActiveTasks()
	var out []string

	if progress.Total > 0 && progress.Percentage < 50 {
		out = append(out, "progress is slow; consider adding resources or reducing scope")
	}
	overdue, blocked, unassigned, high := 0, 0, 0, 0
	for _, t := range active {
		if t.IsOverdueAt(now) {
			overdue++
		}
		if t.Status() == vo.TaskBlocked {
			blocked++
		}
		if !t.IsAssigned() {
			unassigned++
		}
		if t.IsHighPriority() {
			high++
		}
	}
	if overdue > 0 {
		out = append(out, fmt.Sprintf("%d tasks are overdue; re-evaluate the schedule", overdue))
	}
	if blocked > 0 {
		out = append(out, fmt.Sprintf("%d tasks are blocked; remove the blockers", blocked))
	}
	if unassigned > 0 {
		out = append(out, fmt.Sprintf("%d tasks are unassigned; assign them soon", unassigned))
	}
	if float64(high) > float64(len(active))*0.5 {
		out = append(out, "too many high-priority tasks; re-evaluate priorities")
	}
	if len(out) == 0 {
		out = append(out, "project is in good shape; keep it up")
	}
	return out
}
