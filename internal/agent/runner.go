package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"locode/internal/client"
	"locode/internal/logging"
	"locode/internal/permission"
	"locode/internal/task"
	"locode/internal/toolcall"
	"locode/internal/tools"
)

// completionMarker ends an auto-continue run when it prefixes the
// model's reply.
const completionMarker = "DONE:"

// Runner drives one task at a time through the model loop: chat, parse
// a tool call if any, gate it, execute, feed the result back, repeat.
// The loop is iterative; depth is bounded only by the step limit and by
// the model eventually answering without a tool call.
type Runner struct {
	client       client.Client
	registry     *tools.Registry
	gate         *permission.Gate
	thread       *Thread
	systemPrompt string

	mu           sync.RWMutex
	autoRun      bool
	autoContinue bool
	stepLimit    int
}

// NewRunner wires a runner over its collaborators. The system prompt is
// rendered once from the registry's current declarations.
func NewRunner(c client.Client, registry *tools.Registry, gate *permission.Gate, thread *Thread) *Runner {
	if thread == nil {
		thread = NewThread()
	}
	return &Runner{
		client:       c,
		registry:     registry,
		gate:         gate,
		thread:       thread,
		systemPrompt: SystemPrompt(registry),
		stepLimit:    1,
	}
}

// AutoRun reports whether ask-level tools execute without approval.
func (r *Runner) AutoRun() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoRun
}

// SetAutoRun toggles automatic execution of ask-level tools.
func (r *Runner) SetAutoRun(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoRun = on
}

// AutoContinue reports whether plain replies trigger another step.
func (r *Runner) AutoContinue() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoContinue
}

// SetAutoContinue toggles continue-until-done runs.
func (r *Runner) SetAutoContinue(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoContinue = on
}

// StepLimit returns the auto-continue step budget.
func (r *Runner) StepLimit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stepLimit
}

// SetStepLimit sets the auto-continue step budget. Values below one are
// coerced to one so a run always gets at least its initial exchange.
func (r *Runner) SetStepLimit(n int) {
	if n < 1 {
		n = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stepLimit = n
}

// Thread returns the conversation thread the runner appends to.
func (r *Runner) Thread() *Thread {
	return r.thread
}

// Run executes the task's prompt through the model loop. A task with an
// empty prompt fails without consuming a model call. Run returns once
// the task settles in done or failed, or parks in awaiting behind a
// queued approval.
func (r *Runner) Run(ctx context.Context, tk *task.Task) error {
	prompt := strings.TrimSpace(tk.Prompt())
	if prompt == "" {
		tk.Fail("task has no prompt")
		return fmt.Errorf("task %s has no prompt", tk.ID())
	}

	tk.Start()
	logging.Info("task started", "task_id", tk.ID(), "title", tk.Title())

	r.thread.Append(tk, task.Message{Role: task.RoleUser, Content: tk.Prompt()})
	return r.loop(ctx, tk)
}

// ResumeApproved executes the task's pending tool call after an approval
// was granted, bypassing the gate, then rejoins the model loop.
func (r *Runner) ResumeApproved(ctx context.Context, tk *task.Task) error {
	call := tk.Pending()
	if call == nil {
		return fmt.Errorf("task %s has no pending tool call", tk.ID())
	}

	tk.Resume()
	if err := r.execute(ctx, tk, call); err != nil {
		return err
	}
	if !r.consumeStep(tk) {
		return nil
	}
	return r.loop(ctx, tk)
}

// loop is the chat cycle. Each pass sends the conversation, records the
// reply, and either executes a tool call, parks behind an approval,
// continues for another step, or settles the task.
func (r *Runner) loop(ctx context.Context, tk *task.Task) error {
	for {
		reply, err := r.client.Chat(ctx, r.conversation(tk))
		if err != nil {
			tk.Fail(fmt.Sprintf("model request failed: %s", err))
			return err
		}

		r.thread.Append(tk, task.Message{Role: task.RoleAssistant, Content: reply.Content})

		call := toolcall.Parse(reply.Content)
		if call == nil {
			if r.shouldContinue(tk, reply.Content) {
				tk.IncrementStep()
				logging.Debug("auto-continue step",
					"task_id", tk.ID(),
					"step", tk.StepCount())
				r.thread.Append(tk, task.Message{Role: task.RoleUser, Content: continuePrompt})
				continue
			}
			tk.Complete()
			logging.Info("task done", "task_id", tk.ID(), "steps", tk.StepCount())
			return nil
		}

		tk.Await(call)

		switch r.gate.Effective(call.Tool) {
		case permission.LevelDeny:
			tk.Fail(fmt.Sprintf("tool %s is denied by policy", call.Tool))
			logging.Warn("tool denied by policy", "task_id", tk.ID(), "tool", call.Tool)
			return nil
		case permission.LevelAsk:
			if !r.autoApproves(call.Tool) {
				r.gate.Request(ctx, &permission.Approval{
					Call:   *call,
					TaskID: tk.ID(),
					Source: permission.SourceAgent,
				})
				// The task stays awaiting until the approval resolves.
				return nil
			}
		}

		tk.Resume()
		if err := r.execute(ctx, tk, call); err != nil {
			return err
		}
		if tk.Status() != task.StatusRunning {
			return nil
		}
		if !r.consumeStep(tk) {
			return nil
		}
	}
}

// consumeStep charges one step for feeding a tool result back to the
// model, so a chain of tool calls cannot outrun the step budget. When
// the budget is spent the task settles in done with whatever results
// it has gathered.
func (r *Runner) consumeStep(tk *task.Task) bool {
	if tk.StepCount() >= r.StepLimit() {
		tk.Complete()
		logging.Info("step limit reached", "task_id", tk.ID(), "steps", tk.StepCount())
		return false
	}
	tk.IncrementStep()
	return true
}

// execute runs the pending tool call and feeds its output back into the
// conversation. A tool failure settles the task in failed.
func (r *Runner) execute(ctx context.Context, tk *task.Task, call *toolcall.Call) error {
	logging.Info("executing tool", "task_id", tk.ID(), "tool", call.Tool)

	output, err := r.registry.Execute(ctx, call.Tool, call.Params)
	if err != nil {
		tk.Fail(fmt.Sprintf("tool %s failed: %s", call.Tool, err))
		return err
	}

	r.thread.Append(tk, task.Message{
		Role:    task.RoleTool,
		Content: output,
		Tool:    call.Tool,
		Params:  call.Params,
	})
	tk.ClearPending()
	return nil
}

// autoApproves reports whether an ask-level tool runs without a queued
// approval: when auto-run or auto-continue is on, or for web_search,
// which is read-only against the outside world.
func (r *Runner) autoApproves(toolName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoRun || r.autoContinue || toolName == "web_search"
}

// shouldContinue decides whether a plain reply gets another step: only
// in auto-continue mode, only without the completion marker, and only
// while the step budget lasts.
func (r *Runner) shouldContinue(tk *task.Task, content string) bool {
	r.mu.RLock()
	autoContinue := r.autoContinue
	limit := r.stepLimit
	r.mu.RUnlock()

	if !autoContinue || hasCompletionMarker(content) {
		return false
	}
	return tk.StepCount() < limit
}

// hasCompletionMarker reports whether the reply starts with the DONE:
// marker, case-insensitively.
func hasCompletionMarker(content string) bool {
	trimmed := strings.TrimSpace(content)
	return len(trimmed) >= len(completionMarker) &&
		strings.EqualFold(trimmed[:len(completionMarker)], completionMarker)
}

// conversation renders the task's visible history for the model, with
// the system prompt first.
func (r *Runner) conversation(tk *task.Task) []client.Message {
	history := r.thread.History(tk)
	out := make([]client.Message, 0, len(history)+1)
	out = append(out, client.Message{Role: "system", Content: r.systemPrompt})
	for _, msg := range history {
		content := msg.Content
		if msg.Role == task.RoleTool {
			content = fmt.Sprintf("Tool %s output:\n%s", msg.Tool, msg.Content)
		}
		out = append(out, client.Message{Role: string(msg.Role), Content: content})
	}
	return out
}
