package task

import (
	"testing"

	"locode/internal/toolcall"
)

func TestNewTaskDefaults(t *testing.T) {
	tk := New(3)
	if tk.ID() == "" {
		t.Error("expected non-empty id")
	}
	if tk.Title() != "Task 3" {
		t.Errorf("title = %q, want Task 3", tk.Title())
	}
	if tk.Status() != StatusIdle {
		t.Errorf("status = %v, want idle", tk.Status())
	}
}

func TestStartClearsRunState(t *testing.T) {
	tk := New(1)
	tk.Await(&toolcall.Call{Tool: "run_command"})
	tk.IncrementStep()
	tk.Fail("boom")

	tk.Start()
	if tk.Status() != StatusRunning {
		t.Errorf("status = %v, want running", tk.Status())
	}
	if tk.Err() != "" {
		t.Errorf("err = %q, want empty", tk.Err())
	}
	if tk.Pending() != nil {
		t.Error("pending not cleared on start")
	}
	if tk.StepCount() != 0 {
		t.Errorf("steps = %d, want 0", tk.StepCount())
	}
}

func TestPendingImpliesAwaitingOrRunning(t *testing.T) {
	tk := New(1)
	tk.Start()
	tk.Await(&toolcall.Call{Tool: "web_search"})
	if tk.Status() != StatusAwaiting {
		t.Errorf("status = %v, want awaiting", tk.Status())
	}
	tk.Resume()
	if tk.Status() != StatusRunning {
		t.Errorf("status = %v, want running", tk.Status())
	}
	if tk.Pending() == nil {
		t.Error("pending should survive resume")
	}

	tk.Complete()
	if tk.Pending() != nil {
		t.Error("pending should be cleared on complete")
	}
	tk.Await(&toolcall.Call{Tool: "web_search"})
	tk.Fail("denied")
	if tk.Pending() != nil {
		t.Error("pending should be cleared on fail")
	}
}

func TestMessagesAppendOrderAndCopy(t *testing.T) {
	tk := New(1)
	tk.Append(Message{Role: RoleUser, Content: "hi"})
	tk.Append(Message{Role: RoleAssistant, Content: "hello"})
	tk.Append(Message{Role: RoleTool, Content: "out", Tool: "run_command"})

	msgs := tk.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[2].Tool != "run_command" {
		t.Error("messages out of order")
	}

	// Mutating the copy must not touch the log.
	msgs[0].Content = "changed"
	if tk.Messages()[0].Content != "hi" {
		t.Error("Messages() did not return a copy")
	}

	if got := tk.LastAssistant(); got != "hello" {
		t.Errorf("last assistant = %q, want hello", got)
	}
}

func TestReset(t *testing.T) {
	tk := New(1)
	tk.Start()
	tk.Append(Message{Role: RoleUser, Content: "hi"})
	tk.IncrementStep()
	tk.Fail("x")

	tk.Reset()
	if tk.Status() != StatusIdle {
		t.Errorf("status = %v, want idle", tk.Status())
	}
	if len(tk.Messages()) != 0 || tk.StepCount() != 0 || tk.Err() != "" {
		t.Error("reset did not wipe state")
	}
}
