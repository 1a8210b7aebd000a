package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"locode/internal/logging"
	"locode/internal/permission"
	"locode/internal/task"
)

// Coordinator owns the task list and the active selection. The list
// never goes empty: removing the last task creates a fresh replacement.
// It also answers agent-sourced approval resolutions, failing the task
// on deny and resuming the run on allow.
type Coordinator struct {
	runner *Runner
	gate   *permission.Gate
	thread *Thread

	mu       sync.RWMutex
	tasks    []*task.Task
	activeID string
	seq      int
}

// NewCoordinator creates a coordinator with one fresh task selected. It
// registers itself as the gate's handler for agent approvals.
func NewCoordinator(runner *Runner, gate *permission.Gate) *Coordinator {
	c := &Coordinator{
		runner: runner,
		gate:   gate,
		thread: runner.Thread(),
	}

	c.seq++
	first := task.New(c.seq)
	c.tasks = []*task.Task{first}
	c.activeID = first.ID()

	gate.SetHandler(permission.SourceAgent, c.handleAgentApproval)
	return c
}

// AddTask appends a fresh task and selects it.
func (c *Coordinator) AddTask() *task.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	tk := task.New(c.seq)
	c.tasks = append(c.tasks, tk)
	c.activeID = tk.ID()
	logging.Debug("task added", "task_id", tk.ID(), "title", tk.Title())
	return tk
}

// RemoveTask deletes a task by id. Removing the last task creates a
// fresh replacement so the list is never empty; removing the active
// task moves the selection to the first remaining one.
func (c *Coordinator) RemoveTask(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, tk := range c.tasks {
		if tk.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no task with id %s", id)
	}

	c.tasks = append(c.tasks[:idx], c.tasks[idx+1:]...)
	if len(c.tasks) == 0 {
		c.seq++
		replacement := task.New(c.seq)
		c.tasks = []*task.Task{replacement}
	}
	if c.activeID == id {
		c.activeID = c.tasks[0].ID()
	}
	return nil
}

// SetActive selects the task with the given id.
func (c *Coordinator) SetActive(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tk := range c.tasks {
		if tk.ID() == id {
			c.activeID = id
			return nil
		}
	}
	return fmt.Errorf("no task with id %s", id)
}

// Active returns the selected task.
func (c *Coordinator) Active() *task.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, tk := range c.tasks {
		if tk.ID() == c.activeID {
			return tk
		}
	}
	// The invariant keeps the list non-empty, so fall back to the first.
	return c.tasks[0]
}

// Task returns the task with the given id, nil when unknown.
func (c *Coordinator) Task(id string) *task.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, tk := range c.tasks {
		if tk.ID() == id {
			return tk
		}
	}
	return nil
}

// Tasks returns the task list in creation order.
func (c *Coordinator) Tasks() []*task.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*task.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// SetSharedThread toggles the shared conversation across tasks.
func (c *Coordinator) SetSharedThread(on bool) {
	c.thread.SetShared(on)
}

// Run executes the task with the given id.
func (c *Coordinator) Run(ctx context.Context, id string) error {
	tk := c.Task(id)
	if tk == nil {
		return fmt.Errorf("no task with id %s", id)
	}
	return c.runner.Run(ctx, tk)
}

// RunAll executes every task with a non-empty prompt, sequentially and
// in list order. One task failing does not stop the rest; the errors
// are joined and returned at the end.
func (c *Coordinator) RunAll(ctx context.Context) error {
	var errs []error
	for _, tk := range c.Tasks() {
		if strings.TrimSpace(tk.Prompt()) == "" {
			continue
		}
		if err := c.runner.Run(ctx, tk); err != nil {
			logging.Warn("task failed during run-all",
				"task_id", tk.ID(),
				"error", err)
			errs = append(errs, fmt.Errorf("task %s: %w", tk.Title(), err))
		}
	}
	return errors.Join(errs...)
}

// Dismiss drops a task's pending tool call without executing it and
// settles the task in done. Any queued approval for the call is removed
// so it can no longer be resolved.
func (c *Coordinator) Dismiss(id string) error {
	tk := c.Task(id)
	if tk == nil {
		return fmt.Errorf("no task with id %s", id)
	}

	pending := tk.Pending()
	if pending == nil {
		return fmt.Errorf("task %s has no pending tool call", id)
	}

	removed := c.gate.RemoveTaskCall(id, pending.Tool)
	tk.Complete()
	logging.Info("pending tool call dismissed",
		"task_id", id,
		"tool", pending.Tool,
		"approvals_removed", removed)
	return nil
}

// handleAgentApproval finishes an agent-sourced approval: deny fails the
// task naming the tool, allow executes the pending call and resumes the
// run.
func (c *Coordinator) handleAgentApproval(ctx context.Context, a *permission.Approval, allowed bool) error {
	tk := c.Task(a.TaskID)
	if tk == nil {
		return fmt.Errorf("approval %s references unknown task %s", a.ID, a.TaskID)
	}

	if !allowed {
		tk.Fail(fmt.Sprintf("tool %s was denied", a.Call.Tool))
		return nil
	}
	return c.runner.ResumeApproved(ctx, tk)
}
