package agent

import (
	"sync"

	"locode/internal/task"
)

// Thread holds the optional shared conversation. When sharing is on,
// every message appended to any task is mirrored here, and all tasks
// read their model context from the shared sequence instead of their
// own log. Per-task logs keep recording either way, so toggling
// sharing off returns each task to its own history.
type Thread struct {
	mu       sync.RWMutex
	shared   bool
	messages []task.Message
}

// NewThread creates a thread with sharing disabled.
func NewThread() *Thread {
	return &Thread{}
}

// Shared reports whether the shared conversation is active.
func (t *Thread) Shared() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.shared
}

// SetShared toggles the shared conversation.
func (t *Thread) SetShared(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shared = on
}

// Append records a message on the task and mirrors it into the shared
// sequence when sharing is on.
func (t *Thread) Append(tk *task.Task, msg task.Message) {
	tk.Append(msg)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.shared {
		t.messages = append(t.messages, msg)
	}
}

// History returns the conversation the model should see for the task:
// the shared sequence when sharing is on, the task's own log otherwise.
func (t *Thread) History(tk *task.Task) []task.Message {
	t.mu.RLock()
	shared := t.shared
	var out []task.Message
	if shared {
		out = make([]task.Message, len(t.messages))
		copy(out, t.messages)
	}
	t.mu.RUnlock()

	if shared {
		return out
	}
	return tk.Messages()
}

// Reset clears the shared sequence. Sharing stays as configured.
func (t *Thread) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
