package valueobjects

import (
	"sort"
	"testing"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
)

func TestParseIDCanonicalizes(t *testing.T) {
	const canonical = "6f1c1f8e-8a55-4a65-9d83-6b1f0e2a7c10"
	generated := NewTaskID().String()
	tests := []struct {
		in, want string
	}{
		{canonical, canonical},
		{"6F1C1F8E-8A55-4A65-9D83-6B1F0E2A7C10", canonical},
		{"6f1c1f8e-8A55-4a65-9D83-6b1f0e2a7C10", canonical},
		{"  " + canonical + " ", canonical},
		{"urn:uuid:" + canonical, canonical},
		{generated, generated},
	}
	for _, tt := range tests {
		pid, err := ParseProjectID(tt.in)
		if err != nil || pid.String() != tt.want {
			t.Fatalf("ParseProjectID(%q) = %q, %v", tt.in, pid.String(), err)
		}
		tid, err := ParseTaskID(tt.in)
		if err != nil || tid.String() != tt.want {
			t.Fatalf("ParseTaskID(%q) = %q, %v", tt.in, tid.String(), err)
		}
		uid, err := ParseUserID(tt.in)
		if err != nil || uid.String() != tt.want {
			t.Fatalf("ParseUserID(%q) = %q, %v", tt.in, uid.String(), err)
		}
	}

	lower, _ := ParseUserID(canonical)
	upper, _ := ParseUserID("6F1C1F8E-8A55-4A65-9D83-6B1F0E2A7C10")
	if lower != upper {
		t.Fatalf("case variants of one uuid compare unequal: %q vs %q", lower, upper)
	}
}

func TestParseIDRejectsInvalid(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-uuid", "1234"} {
		if _, err := ParseUserID(s); !aggregates.IsCode(err, aggregates.CodeValidation) {
			t.Fatalf("ParseUserID(%q): expected validation error, got %v", s, err)
		}
	}
}

func TestIDsAreComparableMapKeys(t *testing.T) {
	a, _ := ParseUserID("6f1c1f8e-8a55-4a65-9d83-6b1f0e2a7c10")
	b, _ := ParseUserID("6f1c1f8e-8a55-4a65-9d83-6b1f0e2a7c10")
	if a != b {
		t.Fatalf("expected equal ids")
	}
	set := map[UserID]struct{}{a: {}}
	if _, ok := set[b]; !ok {
		t.Fatalf("expected value-equal id to hit the map")
	}
	if NewUserID() == NewUserID() {
		t.Fatalf("generated ids collided")
	}
}

func TestIDUUIDConversion(t *testing.T) {
	id := NewProjectID()
	if got := ProjectIDFromUUID(id.UUID()); got != id {
		t.Fatalf("uuid round trip: got %q want %q", got, id)
	}
	var zero ProjectID
	if !zero.IsZero() || !ProjectIDFromUUID(zero.UUID()).IsZero() {
		t.Fatalf("zero id should map to uuid.Nil and back")
	}
}

func TestPriorityOrdering(t *testing.T) {
	ps := []Priority{PriorityUrgent, PriorityLow, PriorityHigh, PriorityMedium}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
	want := Priorities()
	for i := range want {
		if ps[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", ps, want)
		}
	}
	if !PriorityHigh.IsHigh() || !PriorityUrgent.IsHigh() || PriorityMedium.IsHigh() {
		t.Fatalf("IsHigh mismatch")
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority(" HIGH "); err != nil || p != PriorityHigh {
		t.Fatalf("ParsePriority: %v %v", p, err)
	}
	if _, err := ParsePriority("critical"); !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	allowed := map[TaskStatus][]TaskStatus{
		TaskTodo:       {TaskInProgress, TaskCancelled},
		TaskInProgress: {TaskInReview, TaskBlocked, TaskCancelled},
		TaskInReview:   {TaskDone, TaskInProgress},
		TaskBlocked:    {TaskInProgress, TaskCancelled},
		TaskDone:       nil,
		TaskCancelled:  nil,
	}
	for from, targets := range allowed {
		for _, to := range TaskStatuses() {
			want := false
			for _, a := range targets {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: got %v want %v", from, to, got, want)
			}
		}
	}
}

func TestTaskStatusActive(t *testing.T) {
	for _, s := range TaskStatuses() {
		want := s != TaskDone && s != TaskCancelled
		if s.IsActive() != want {
			t.Fatalf("%s.IsActive() = %v", s, s.IsActive())
		}
	}
	if TaskStatus("bogus").IsActive() {
		t.Fatalf("invalid status must not be active")
	}
}

func TestParseProjectStatus(t *testing.T) {
	for _, s := range ProjectStatuses() {
		got, err := ParseProjectStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("ParseProjectStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseProjectStatus("archived"); !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ProjectCompleted.AcceptsTasks() || ProjectCancelled.AcceptsTasks() || !ProjectOnHold.AcceptsTasks() {
		t.Fatalf("AcceptsTasks mismatch")
	}
}
