package task

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"locode/internal/toolcall"
)

// Status represents the lifecycle state of a task.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusAwaiting
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusAwaiting:
		return "awaiting"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation turn. Messages are immutable once appended.
// Tool and Params are set only for RoleTool messages, naming the tool
// that produced the result and its invocation parameters.
type Message struct {
	Role    Role
	Content string
	Tool    string
	Params  map[string]any
}

// Task is a unit of conversation plus tool state. It is exclusively
// owned by its runner during execution; the coordinator never mutates
// message content directly.
type Task struct {
	id       string
	title    string
	prompt   string
	status   Status
	messages []Message
	pending  *toolcall.Call
	steps    int
	errMsg   string

	mu sync.RWMutex
}

// New creates an idle task. seq provides the default title.
func New(seq int) *Task {
	return &Task{
		id:     uuid.NewString(),
		title:  fmt.Sprintf("Task %d", seq),
		status: StatusIdle,
	}
}

// ID returns the task's immutable identifier.
func (t *Task) ID() string {
	return t.id
}

// Title returns the task's human label.
func (t *Task) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// SetTitle updates the human label.
func (t *Task) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = title
}

// Prompt returns the task's run prompt.
func (t *Task) Prompt() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prompt
}

// SetPrompt sets what the task will ask the model when run.
func (t *Task) SetPrompt(prompt string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompt = prompt
}

// Status returns the current lifecycle state.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Err returns the last user-visible failure description.
func (t *Task) Err() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errMsg
}

// StepCount returns the auto-continue iterations consumed so far.
func (t *Task) StepCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.steps
}

// IncrementStep consumes one auto-continue iteration.
func (t *Task) IncrementStep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps++
}

// Append adds a message to the task log.
func (t *Task) Append(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// Messages returns a copy of the message log in conversation order.
func (t *Task) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// LastAssistant returns the content of the most recent assistant message.
func (t *Task) LastAssistant() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == RoleAssistant {
			return t.messages[i].Content
		}
	}
	return ""
}

// Pending returns the tool call awaiting execution or dismissal, nil
// when there is none.
func (t *Task) Pending() *toolcall.Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending
}

// Start transitions to running, clearing the error, the pending call and
// the step counter.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusRunning
	t.errMsg = ""
	t.pending = nil
	t.steps = 0
}

// Await records a parsed tool call and moves to awaiting.
func (t *Task) Await(call *toolcall.Call) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = call
	t.status = StatusAwaiting
}

// Resume moves an awaiting task back to running, keeping the pending
// call until the tool result lands.
func (t *Task) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusRunning
}

// ClearPending drops the pending tool call.
func (t *Task) ClearPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
}

// Complete settles the task in done.
func (t *Task) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusDone
	t.pending = nil
}

// Fail settles the task in failed with a user-visible description and
// clears the pending call.
func (t *Task) Fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusFailed
	t.errMsg = msg
	t.pending = nil
}

// Reset returns the task to idle, wiping the conversation.
func (t *Task) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusIdle
	t.messages = nil
	t.pending = nil
	t.steps = 0
	t.errMsg = ""
}
