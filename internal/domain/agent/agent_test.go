package agent

import (
	"testing"
	"time"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"idle to working", StatusIdle, StatusWorking, false},
		{"working to idle", StatusWorking, StatusIdle, false},
		{"working to error", StatusWorking, StatusError, false},
		{"error to idle", StatusError, StatusIdle, false},
		{"offline to idle", StatusOffline, StatusIdle, false},
		{"idle to error", StatusIdle, StatusError, true},
		{"error to working", StatusError, StatusWorking, true},
		{"offline to working", StatusOffline, StatusWorking, true},
		{"self transition idle", StatusIdle, StatusIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Agent{ID: "a1", Status: tt.from}
			err := a.Transition(tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s -> %s", tt.from, tt.to)
				}
				if a.Status != tt.from {
					t.Fatalf("status changed on rejected transition: %s", a.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Status != tt.to {
				t.Fatalf("expected status %s, got %s", tt.to, a.Status)
			}
		})
	}
}

func TestExitFromWorkingClearsCurrentTask(t *testing.T) {
	for _, next := range []Status{StatusIdle, StatusError, StatusOffline} {
		a := &Agent{ID: "a1", Status: StatusWorking, CurrentTask: "t1"}
		if err := a.Transition(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if a.CurrentTask != "" {
			t.Fatalf("current_task not cleared on exit to %s", next)
		}
	}
}

func TestStartTask(t *testing.T) {
	now := time.Now()
	a := &Agent{ID: "a1", Status: StatusIdle}

	if err := a.StartTask("t1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusWorking {
		t.Fatalf("expected working, got %s", a.Status)
	}
	if a.CurrentTask != "t1" {
		t.Fatalf("expected current_task t1, got %q", a.CurrentTask)
	}
	if a.LastActive == nil || !a.LastActive.Equal(now) {
		t.Fatalf("last_active not stamped")
	}
}

func TestStartTaskRejectedWhenOffline(t *testing.T) {
	a := &Agent{ID: "a1", Status: StatusOffline}
	if err := a.StartTask("t1", time.Now()); err == nil {
		t.Fatal("expected error starting task on offline agent")
	}
}

func TestFinishTaskUpdatesPerformance(t *testing.T) {
	now := time.Now()
	a := &Agent{ID: "a1", Status: StatusWorking, CurrentTask: "t1"}

	if err := a.FinishTask(2.0, true, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusIdle {
		t.Fatalf("expected idle, got %s", a.Status)
	}
	if a.CurrentTask != "" {
		t.Fatal("current_task not cleared")
	}
	if a.Performance.TasksCompleted != 1 {
		t.Fatalf("expected 1 completed, got %d", a.Performance.TasksCompleted)
	}
	if a.Performance.SuccessRate != 1.0 {
		t.Fatalf("expected success rate 1.0, got %f", a.Performance.SuccessRate)
	}
	if a.Performance.AverageTime != 2.0 {
		t.Fatalf("expected average 2.0, got %f", a.Performance.AverageTime)
	}

	// A second, failed task halves the rate and recomputes the average.
	a.Status = StatusWorking
	a.CurrentTask = "t2"
	if err := a.FinishTask(4.0, false, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusIdle {
		t.Fatalf("failed handler must still release the agent, got %s", a.Status)
	}
	if a.Performance.SuccessRate != 0.5 {
		t.Fatalf("expected success rate 0.5, got %f", a.Performance.SuccessRate)
	}
	if a.Performance.AverageTime != 3.0 {
		t.Fatalf("expected average 3.0, got %f", a.Performance.AverageTime)
	}
	if a.Performance.TotalTime != 6.0 {
		t.Fatalf("expected total 6.0, got %f", a.Performance.TotalTime)
	}
}

func TestFailSetsErrorAndClearsTask(t *testing.T) {
	a := &Agent{ID: "a1", Status: StatusWorking, CurrentTask: "t1"}
	if err := a.Fail(time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusError {
		t.Fatalf("expected error status, got %s", a.Status)
	}
	if a.CurrentTask != "" {
		t.Fatal("current_task not cleared on error exit")
	}
}

func TestParseStatus(t *testing.T) {
	if _, ok := ParseStatus("working"); !ok {
		t.Fatal("expected working to parse")
	}
	if _, ok := ParseStatus("busy"); ok {
		t.Fatal("expected busy to be rejected")
	}
}
