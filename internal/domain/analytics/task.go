package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/taskboard-backend/internal/domain/task"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/pkg/numeric"
)

// Risk factor identifiers, each mapped to fixed suggestions.
const (
	RiskOverdue          = "overdue"
	RiskDueImminent      = "due_within_1_day"
	RiskDueSoon          = "due_within_3_days"
	RiskUnassigned       = "unassigned"
	RiskHighNotStarted   = "high_priority_not_started"
	RiskTooManySubtasks  = "too_many_subtasks"
	RiskShortDescription = "short_description"
)

const (
	RiskLevelHigh    = "high"
	RiskLevelMedium  = "medium"
	RiskLevelLow     = "low"
	RiskLevelMinimal = "minimal"
)

// daysUntilDue is the floored whole-day distance to the due date.
func daysUntilDue(t *task.Task, now time.Time) (int, bool) {
	due := t.DueDate()
	if due == nil {
		return 0, false
	}
	return task.WholeDays(due.Sub(now)), true
}

// Complexity scores a task from 1 to 10.
func Complexity(t *task.Task, now time.Time) int {
	score := 1
	switch n := utf8.RuneCountInString(t.Description()); {
	case n > 500:
		score += 2
	case n > 200:
		score++
	}
	if days, ok := daysUntilDue(t, now); ok {
		switch {
		case days < 1:
			score += 3
		case days < 3:
			score += 2
		case days < 7:
			score++
		}
	}
	if t.IsHighPriority() {
		score++
	}
	switch n := len(t.Subtasks()); {
	case n > 3:
		score += 2
	case n > 0:
		score++
	}
	return min(score, 10)
}

// EffortHours estimates work as 2h scaled by complexity, description length and urgency,
// rounded to one decimal.
func EffortHours(t *task.Task, now time.Time) float64 {
	return effortForComplexity(t, Complexity(t, now), now)
}

func effortForComplexity(t *task.Task, complexity int, now time.Time) float64 {
	const baseHours = 2.0
	multiplier := 0.5 + float64(complexity)*0.2
	wordFactor := min(float64(len(strings.Fields(t.Description())))/100, 2.0)
	urgency := 1.0
	if days, ok := daysUntilDue(t, now); ok {
		switch {
		case days < 1:
			urgency = 1.5
		case days < 2:
			urgency = 1.2
		}
	}
	return numeric.Round(baseHours*multiplier*(1+wordFactor)*urgency, 1)
}

type RiskAssessment struct {
	Level       string   `json:"risk_level"`
	Score       int      `json:"risk_score"`
	Factors     []string `json:"risk_factors"`
	Suggestions []string `json:"suggestions"`
}

func Risk(t *task.Task, now time.Time) RiskAssessment {
	factors := []string{}
	score := 0
	if days, ok := daysUntilDue(t, now); ok {
		switch {
		case days < 0:
			factors = append(factors, RiskOverdue)
			score += 3
		case days < 1:
			factors = append(factors, RiskDueImminent)
			score += 2
		case days < 3:
			factors = append(factors, RiskDueSoon)
			score++
		}
	}
	if !t.IsAssigned() {
		factors = append(factors, RiskUnassigned)
		score += 2
	}
	if t.IsHighPriority() && t.Status() == vo.TaskTodo {
		factors = append(factors, RiskHighNotStarted)
		score += 2
	}
	if len(t.Subtasks()) > 5 {
		factors = append(factors, RiskTooManySubtasks)
		score++
	}
	if utf8.RuneCountInString(t.Description()) < 50 {
		factors = append(factors, RiskShortDescription)
		score++
	}

	level := RiskLevelMinimal
	switch {
	case score >= 5:
		level = RiskLevelHigh
	case score >= 3:
		level = RiskLevelMedium
	case score >= 1:
		level = RiskLevelLow
	}
	return RiskAssessment{Level: level, Score: score, Factors: factors, Suggestions: riskSuggestions(factors)}
}

func riskSuggestions(factors []string) []string {
	has := make(map[string]bool, len(factors))
	for _, f := range factors {
		has[f] = true
	}
	out := []string{}
	if has[RiskOverdue] || has[RiskDueImminent] {
		out = append(out,
			"re-evaluate the task's priority and resourcing now",
			"consider splitting the task into smaller subtasks",
		)
	}
	if has[RiskUnassigned] {
		out = append(out, "assign the task to a suitable team member")
	}
	if has[RiskHighNotStarted] {
		out = append(out, "start high-priority work first")
	}
	if has[RiskTooManySubtasks] {
		out = append(out, "merge or drop unnecessary subtasks")
	}
	if has[RiskShortDescription] {
		out = append(out, "flesh out the description with requirements and acceptance criteria")
	}
	return out
}

// SimilarTasks ranks other tasks by shared tags (2 each), equal priority (1), equal status (1)
// and shared title words (1 each); scores of 3 or more qualify, best five returned.
func SimilarTasks(t *task.Task, all []*task.Task) []*task.Task {
	type scored struct {
		t     *task.Task
		score int
	}
	tags := toSet(t.Tags())
	words := toSet(strings.Fields(strings.ToLower(t.Title())))

	var candidates []scored
	for _, other := range all {
		if other.ID() == t.ID() {
			continue
		}
		score := 2 * overlap(tags, toSet(other.Tags()))
		if other.Priority() == t.Priority() {
			score++
		}
		if other.Status() == t.Status() {
			score++
		}
		score += overlap(words, toSet(strings.Fields(strings.ToLower(other.Title()))))
		if score >= 3 {
			candidates = append(candidates, scored{other, score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	out := make([]*task.Task, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.t)
	}
	return out
}

func TaskSuggestions(t *task.Task, now time.Time) []string {
	var out []string
	descLen := utf8.RuneCountInString(t.Description())
	if descLen < 100 {
		out = append(out, "description is short; add detail and acceptance criteria")
	}
	if t.DueDate() == nil {
		out = append(out, "set a due date")
	}
	if !t.IsAssigned() {
		out = append(out, "task is unassigned; assign it to a suitable member")
	}
	if len(t.Subtasks()) == 0 && descLen > 200 {
		out = append(out, "task looks complex; split it into subtasks")
	}
	if t.Priority() == vo.PriorityLow {
		if days, ok := daysUntilDue(t, now); ok && days > 0 && days < 7 {
			out = append(out, "due soon but low priority; re-evaluate the priority")
		}
	}
	if len(t.Tags()) == 0 {
		out = append(out, "add relevant tags")
	}
	if t.AgeInDaysAt(now) > 30 && t.Status() == vo.TaskTodo {
		out = append(out, "created long ago and never started; re-evaluate whether it is needed")
	}
	if len(out) == 0 {
		out = append(out, "task is well defined; keep it up")
	}
	return out
}

// CanTransitionStatus reports whether t may move to next, with the reason when it may not.
func CanTransitionStatus(t *task.Task, next vo.TaskStatus) (bool, string) {
	if !next.IsValid() {
		return false, fmt.Sprintf("unknown status %q", next)
	}
	if !t.Status().CanTransitionTo(next) {
		return false, fmt.Sprintf("cannot move from %s to %s", t.Status(), next)
	}
	return true, ""
}

type Bottleneck struct {
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	Issue      string `json:"issue"`
	AgeDays    *int   `json:"age_days,omitempty"`
	Suggestion string `json:"suggestion"`
}

// Bottlenecks lists stale work (older than 14 days in todo or in_progress) followed by
// blocked tasks.
func Bottlenecks(tasks []*task.Task, now time.Time) []Bottleneck {
	out := []Bottleneck{}
	for _, t := range tasks {
		age := t.AgeInDaysAt(now)
		if age > 14 && (t.Status() == vo.TaskTodo || t.Status() == vo.TaskInProgress) {
			out = append(out, Bottleneck{
				TaskID:     t.ID().String(),
				Title:      t.Title(),
				Issue:      "long_running",
				AgeDays:    &age,
				Suggestion: "re-evaluate priority and resourcing",
			})
		}
	}
	for _, t := range tasks {
		if t.Status() == vo.TaskBlocked {
			out = append(out, Bottleneck{
				TaskID:     t.ID().String(),
				Title:      t.Title(),
				Issue:      "blocked",
				Suggestion: "identify and remove the blocker",
			})
		}
	}
	return out
}

type Workload struct {
	TotalTasks           int            `json:"total_tasks"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
	OverdueCount         int            `json:"overdue_count"`
	EstimatedHours       float64        `json:"estimated_hours"`
}

// WorkloadDistribution summarizes the tasks assigned to userID. EstimatedHours is the plain
// sum of per-task estimates.
func WorkloadDistribution(tasks []*task.Task, userID vo.UserID, now time.Time) Workload {
	w := Workload{
		StatusDistribution:   map[string]int{},
		PriorityDistribution: map[string]int{},
	}
	for _, t := range tasks {
		if t.AssigneeID() != userID || userID.IsZero() {
			continue
		}
		w.TotalTasks++
		w.StatusDistribution[t.Status().String()]++
		w.PriorityDistribution[t.Priority().String()]++
		if t.IsOverdueAt(now) {
			w.OverdueCount++
		}
		w.EstimatedHours += EffortHours(t, now)
	}
	return w
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
