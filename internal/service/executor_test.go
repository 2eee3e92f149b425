package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestExecuteCreatesFile(t *testing.T) {
	m := newTestManager(t)

	res := m.SendInstruction(context.Background(), DispatchRequest{
		Instruction: "create a file called hello.txt with the content 'abc'",
	})
	if !res.Success {
		t.Fatalf("dispatch failed: %q", res.Message)
	}

	v := waitTerminal(t, m, res.TaskID)
	if v.Status != "completed" {
		t.Fatalf("expected completed, got %s", v.Status)
	}
	if v.Result == nil || !v.Result.Success {
		t.Fatal("expected a successful result")
	}

	path := filepath.Join(m.cfg.Workspace, "hello.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(string(data), "abc") {
		t.Fatalf("file content %q does not contain requested text", data)
	}
	if len(v.Result.FilesCreated) != 1 || v.Result.FilesCreated[0] != path {
		t.Fatalf("unexpected FilesCreated: %v", v.Result.FilesCreated)
	}
}

func TestExecuteDeletesAllFiles(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 3; i++ {
		name := filepath.Join(m.cfg.Workspace, fmt.Sprintf("f%d.txt", i))
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	res := m.SendInstruction(context.Background(), DispatchRequest{
		Instruction: "delete all files in the workspace",
	})
	if !res.Success {
		t.Fatalf("dispatch failed: %q", res.Message)
	}

	v := waitTerminal(t, m, res.TaskID)
	if v.Status != "completed" {
		t.Fatalf("expected completed, got %s", v.Status)
	}
	if got := len(v.Result.FilesDeleted); got != 3 {
		t.Fatalf("expected 3 deletions, got %d (%v)", got, v.Result.FilesDeleted)
	}

	entries, err := os.ReadDir(m.cfg.Workspace)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace not empty: %d entries remain", len(entries))
	}
}

// Tasks complete in submission order even when higher priorities arrive
// later; priority is recorded but never reorders the queue.
func TestExecuteFIFOIgnoresPriority(t *testing.T) {
	m := newTestManager(t)

	ids := make([]string, 0, 3)
	for i, prio := range []string{"low", "critical", "high"} {
		res := m.SendInstruction(context.Background(), DispatchRequest{
			Instruction: fmt.Sprintf("create a file called order%d.txt", i),
			Priority:    prio,
		})
		if !res.Success {
			t.Fatalf("dispatch %d failed: %q", i, res.Message)
		}
		ids = append(ids, res.TaskID)
	}

	views := make([]TaskView, len(ids))
	for i, id := range ids {
		views[i] = waitTerminal(t, m, id)
		if views[i].Status != "completed" {
			t.Fatalf("task %d ended as %s", i, views[i].Status)
		}
	}
	for i := 1; i < len(views); i++ {
		if views[i].CompletedAt.Before(*views[i-1].CompletedAt) {
			t.Fatalf("task %d completed before task %d despite later submission", i, i-1)
		}
	}
}

func TestExecuteUpdatesAgentPerformance(t *testing.T) {
	m := newTestManager(t)

	res := m.SendInstruction(context.Background(), DispatchRequest{
		Instruction: "create a file called perf.txt",
	})
	if !res.Success {
		t.Fatalf("dispatch failed: %q", res.Message)
	}
	waitTerminal(t, m, res.TaskID)

	report := m.AgentStatus(context.Background())
	av, ok := report.Agents[res.AgentID]
	if !ok {
		t.Fatalf("agent %s missing from report", res.AgentID)
	}
	if av.Status != "idle" {
		t.Fatalf("agent should be idle after completion, got %s", av.Status)
	}
	if av.CurrentTask != "" {
		t.Fatalf("current task not cleared: %q", av.CurrentTask)
	}
	if av.Performance.TasksCompleted != 1 {
		t.Fatalf("expected 1 completed task, got %d", av.Performance.TasksCompleted)
	}
	if av.Performance.SuccessRate != 1.0 {
		t.Fatalf("expected success rate 1.0, got %v", av.Performance.SuccessRate)
	}
}

func TestExecuteFailedHandlerReleasesAgent(t *testing.T) {
	m := newTestManager(t)

	// Deleting a file that does not exist fails the task but must not
	// wedge the agent.
	res := m.SendInstruction(context.Background(), DispatchRequest{
		Instruction: "delete the file missing.txt",
	})
	if !res.Success {
		t.Fatalf("dispatch failed: %q", res.Message)
	}

	v := waitTerminal(t, m, res.TaskID)
	if v.Status != "failed" {
		t.Fatalf("expected failed, got %s", v.Status)
	}

	report := m.AgentStatus(context.Background())
	av := report.Agents[res.AgentID]
	if av.Status != "idle" {
		t.Fatalf("agent should return to idle after a failed task, got %s", av.Status)
	}
	if av.Performance.SuccessRate != 0 {
		t.Fatalf("expected success rate 0, got %v", av.Performance.SuccessRate)
	}
}

func TestStatusReportCounters(t *testing.T) {
	m := newTestManager(t)

	res := m.SendInstruction(context.Background(), DispatchRequest{
		Instruction: "create a file called counted.txt",
	})
	if !res.Success {
		t.Fatalf("dispatch failed: %q", res.Message)
	}
	waitTerminal(t, m, res.TaskID)

	report := m.AgentStatus(context.Background())
	if report.ActiveTasks != 0 {
		t.Fatalf("expected 0 active tasks, got %d", report.ActiveTasks)
	}
	if report.CompletedTasks != 1 {
		t.Fatalf("expected 1 completed task, got %d", report.CompletedTasks)
	}
	if report.Workspace != m.cfg.Workspace {
		t.Fatalf("workspace mismatch: %q", report.Workspace)
	}
	if len(report.RecentInstructions) != 1 {
		t.Fatalf("expected 1 recent instruction, got %d", len(report.RecentInstructions))
	}
}

// Repeated reads of a quiescent system must return identical reports.
func TestStatusReadsAreIdempotent(t *testing.T) {
	m := newTestManager(t)

	res := m.SendInstruction(context.Background(), DispatchRequest{
		Instruction: "create a file called stable.txt",
	})
	if !res.Success {
		t.Fatalf("dispatch failed: %q", res.Message)
	}
	waitTerminal(t, m, res.TaskID)

	first := m.AgentStatus(context.Background())
	second := m.AgentStatus(context.Background())
	// LastActive is a timestamp that only moves on transitions, so a
	// quiescent system compares equal wholesale.
	if !reflect.DeepEqual(first, second) {
		t.Fatal("status reports differ between reads with no intervening activity")
	}

	tasks1 := m.AllTasks(context.Background())
	tasks2 := m.AllTasks(context.Background())
	if !reflect.DeepEqual(tasks1, tasks2) {
		t.Fatal("task listings differ between reads with no intervening activity")
	}
}

func TestTaskViewTimestampsOrdered(t *testing.T) {
	m := newTestManager(t)

	res := m.SendInstruction(context.Background(), DispatchRequest{
		Instruction: "create a file called stamped.txt",
	})
	if !res.Success {
		t.Fatalf("dispatch failed: %q", res.Message)
	}
	v := waitTerminal(t, m, res.TaskID)

	if v.StartedAt == nil || v.CompletedAt == nil {
		t.Fatal("terminal task must carry start and completion timestamps")
	}
	if v.StartedAt.Before(v.CreatedAt) {
		t.Fatal("started before created")
	}
	if v.CompletedAt.Before(*v.StartedAt) {
		t.Fatal("completed before started")
	}
	if v.Result == nil || v.Result.ExecutionTime < 0 {
		t.Fatal("execution time must be recorded and non-negative")
	}
}
