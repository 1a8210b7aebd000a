package permission

import (
	"time"

	"locode/internal/toolcall"
)

// Source tags where an approval request originated. It selects the
// handler invoked when the approval is resolved.
type Source string

const (
	SourceAgent        Source = "agent"
	SourceConsole      Source = "console"
	SourceEditorRead   Source = "editor-read"
	SourceEditorWrite  Source = "editor-write"
	SourceExplorerList Source = "explorer-list"
)

// Approval is a queued request for an operator decision on a tool call.
// It lives only in the gate's pending queue and is removed on resolution.
type Approval struct {
	ID        string
	Call      toolcall.Call
	TaskID    string // owning task, empty for manual origins
	Source    Source
	CreatedAt time.Time
}

// Resolution is the operator's decision on a queued approval.
type Resolution int

const (
	// AllowOnce executes the underlying operation without a policy change.
	AllowOnce Resolution = iota
	// DenyOnce rejects the operation without a policy change.
	DenyOnce
	// AllowAlways executes and sets the tool's policy to allow.
	AllowAlways
	// DenyAlways rejects and sets the tool's policy to deny.
	DenyAlways
)

func (r Resolution) String() string {
	switch r {
	case AllowOnce:
		return "allow_once"
	case DenyOnce:
		return "deny_once"
	case AllowAlways:
		return "allow_always"
	case DenyAlways:
		return "deny_always"
	default:
		return "unknown"
	}
}

// Allowed reports whether the resolution permits execution.
func (r Resolution) Allowed() bool {
	return r == AllowOnce || r == AllowAlways
}
