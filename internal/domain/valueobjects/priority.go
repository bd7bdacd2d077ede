package valueobjects

import (
	"strings"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

// Priorities lists every level in ascending order.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", aggregates.ValidationError("priority", "invalid priority %q", s)
	}
	return p, nil
}

func (p Priority) IsValid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank orders priorities low(1) < medium < high < urgent(4); invalid values rank 0.
func (p Priority) Rank() int { return priorityRank[p] }

func (p Priority) Less(other Priority) bool { return p.Rank() < other.Rank() }

func (p Priority) IsHigh() bool { return p == PriorityHigh || p == PriorityUrgent }

func (p Priority) String() string { return string(p) }
